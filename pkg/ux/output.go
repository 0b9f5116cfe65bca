// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling for the Shipshape CLI.
package ux

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Aleutian color palette - deep ocean teals and arctic waters
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7") // Bright teal - highlights, success
	ColorTealPrimary = lipgloss.Color("#20B9B4") // Primary teal - main brand color
	ColorTealDeep    = lipgloss.Color("#16858E") // Deep teal - borders, accents
	ColorSlate       = lipgloss.Color("#2C4A54") // Slate - muted text, borders

	ColorSuccess  = lipgloss.Color("#2CD7C7") // Bright teal for success
	ColorWarning  = lipgloss.Color("#F4D03F") // Gold/amber for warnings
	ColorError    = lipgloss.Color("#E74C3C") // Red for errors
	ColorCritical = lipgloss.Color("#C0392B") // Dark red for critical findings
)

// Styles provides pre-configured lipgloss styles.
var Styles = struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Critical  lipgloss.Style
	Highlight lipgloss.Style

	Box lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Subtitle:  lipgloss.NewStyle().Foreground(ColorTealPrimary),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorSlate),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Critical:  lipgloss.NewStyle().Bold(true).Foreground(ColorCritical),
	Highlight: lipgloss.NewStyle().Foreground(ColorTealBright).Bold(true),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
}

// Icon provides themed status icons.
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconPending Icon = "○"
	IconArrow   Icon = "→"
	IconBullet  Icon = "•"
	IconAnchor  Icon = "⚓"
)

// Render returns the icon with appropriate styling.
func (i Icon) Render() string {
	if !Styled() {
		return string(i)
	}
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	case IconPending:
		return Styles.Muted.Render(string(i))
	default:
		return string(i)
	}
}

// styled caches the terminal probe. Tests override through SetStyled.
var styled = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

// Styled reports whether output goes to an interactive terminal.
// Non-terminal destinations get plain text so logs and pipes stay
// grep-able.
func Styled() bool { return styled }

// SetStyled overrides terminal detection, for --no-color and tests.
func SetStyled(v bool) { styled = v }

// render applies a style only when styling is on.
func render(style lipgloss.Style, text string) string {
	if !Styled() {
		return text
	}
	return style.Render(text)
}

// Title prints a styled title line.
func Title(text string) {
	fmt.Println(render(Styles.Title, text))
}

// Success prints a success message with checkmark.
func Success(text string) {
	fmt.Printf("%s %s\n", IconSuccess.Render(), render(Styles.Success, text))
}

// Warning prints a warning message.
func Warning(text string) {
	fmt.Printf("%s %s\n", IconWarning.Render(), render(Styles.Warning, text))
}

// Error prints an error message.
func Error(text string) {
	fmt.Printf("%s %s\n", IconError.Render(), render(Styles.Error, text))
}

// Info prints an informational message.
func Info(text string) {
	if !Styled() {
		fmt.Println(text)
		return
	}
	fmt.Printf("%s %s\n", Styles.Muted.Render("│"), text)
}

// Muted prints secondary text.
func Muted(text string) {
	fmt.Println(render(Styles.Muted, text))
}

// Box prints content in a rounded box with a title.
func Box(title, content string) {
	if !Styled() {
		fmt.Printf("%s: %s\n", title, content)
		return
	}
	boxStyle := Styles.Box.Width(60)
	fmt.Println(boxStyle.Render(Styles.Title.Render(title) + "\n" + content))
}

// SeverityStyle maps a severity name to its display style.
func SeverityStyle(severity string) lipgloss.Style {
	switch severity {
	case "critical":
		return Styles.Critical
	case "high":
		return Styles.Error
	case "medium":
		return Styles.Warning
	default:
		return Styles.Muted
	}
}

// SeverityTag renders a fixed-width severity label.
func SeverityTag(severity string) string {
	tag := fmt.Sprintf("%-8s", severity)
	return render(SeverityStyle(severity), tag)
}
