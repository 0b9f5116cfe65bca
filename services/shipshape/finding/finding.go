// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package finding defines the defect model shared by detectors, fixers,
// and reporters.
//
// A Finding is one detected defect. Detectors whose natural output is a
// yes/no check with an evidence bundle (container, compose, git hygiene)
// produce a DetectionResult instead and convert it at the registry
// boundary via DetectionResult.Findings().
package finding

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for the finding package.
var (
	// ErrInvalidFinding indicates a Finding that violates a model
	// invariant at construction time.
	ErrInvalidFinding = errors.New("invalid finding")
)

// PathMultiple is the path sentinel for a whole-workspace finding that
// cannot be pinned to a single file. Paired with Line 0.
const PathMultiple = "(multiple)"

// =============================================================================
// CATEGORY
// =============================================================================

// Category tags the defect class a Finding belongs to. Fixers are keyed
// by Category; extending the pipeline means adding a tag here and an
// entry in the fixer registry table.
type Category string

const (
	CategoryFormatting      Category = "formatting"
	CategoryImports         Category = "imports"
	CategoryLinting         Category = "linting"
	CategorySecurity        Category = "security"
	CategoryDependencies    Category = "dependencies"
	CategoryNPMDependencies Category = "npm-dependencies"
	CategoryDocker          Category = "docker"
	CategoryCompose         Category = "docker-compose"
	CategoryGit             Category = "git"
)

// Categories returns all known categories in a stable order.
func Categories() []Category {
	return []Category{
		CategoryFormatting,
		CategoryImports,
		CategoryLinting,
		CategorySecurity,
		CategoryDependencies,
		CategoryNPMDependencies,
		CategoryDocker,
		CategoryCompose,
		CategoryGit,
	}
}

// Valid reports whether c is a known category tag.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// =============================================================================
// SEVERITY
// =============================================================================

// Severity orders findings for reporting. It never gates execution.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank returns the sort rank of a severity, most severe first.
// Unknown severities sort last.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// ParseSeverity normalizes a scanner-reported severity string. Unknown
// values map to medium, matching how external scanners default.
func ParseSeverity(s string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityCritical:
		return SeverityCritical
	case SeverityHigh:
		return SeverityHigh
	case SeverityMedium:
		return SeverityMedium
	case SeverityLow:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// =============================================================================
// FINDING
// =============================================================================

// Finding is one detected, categorized defect.
//
// Thread Safety: Immutable after construction via New.
type Finding struct {
	// Category is the defect class.
	Category Category `json:"category"`

	// Severity is used for reporting and sort order only.
	Severity Severity `json:"severity"`

	// Path is the file location, or PathMultiple for whole-workspace
	// findings.
	Path string `json:"path"`

	// Line is the 1-based line, or 0 when not localizable.
	Line int `json:"line"`

	// Message is the human-readable description.
	Message string `json:"message"`

	// Fixable is true only when a deterministic remedy exists.
	Fixable bool `json:"fixable"`

	// Remedy is the opaque action descriptor consumed by a fixer.
	// Present iff Fixable.
	Remedy string `json:"remedy,omitempty"`
}

// New validates and returns a Finding.
//
// Description:
//
//	Enforces the model invariants at construction rather than downstream:
//	the category must be known, the message non-empty, and a fixable
//	finding must carry a non-empty remedy (and a non-fixable one must
//	not carry any).
//
// Inputs:
//
//	f - Candidate finding.
//
// Outputs:
//
//	Finding - The validated finding, with severity defaulted to medium
//	          and path defaulted to PathMultiple when empty.
//	error - ErrInvalidFinding wrapped with the violated invariant.
func New(f Finding) (Finding, error) {
	if !f.Category.Valid() {
		return Finding{}, fmt.Errorf("%w: unknown category %q", ErrInvalidFinding, f.Category)
	}
	if strings.TrimSpace(f.Message) == "" {
		return Finding{}, fmt.Errorf("%w: message must not be empty", ErrInvalidFinding)
	}
	if f.Fixable && strings.TrimSpace(f.Remedy) == "" {
		return Finding{}, fmt.Errorf("%w: fixable finding requires a remedy", ErrInvalidFinding)
	}
	if !f.Fixable && f.Remedy != "" {
		return Finding{}, fmt.Errorf("%w: non-fixable finding must not carry a remedy", ErrInvalidFinding)
	}
	if f.Severity == "" {
		f.Severity = SeverityMedium
	}
	if f.Path == "" {
		f.Path = PathMultiple
	}
	return f, nil
}

// String renders a one-line summary for logs.
func (f Finding) String() string {
	state := "requires review"
	if f.Fixable {
		state = "fixable"
	}
	return fmt.Sprintf("[%s/%s] %s:%d %s (%s)", f.Category, f.Severity, f.Path, f.Line, f.Message, state)
}

// =============================================================================
// DETECTION RESULT
// =============================================================================

// DetectionResult is a per-category yes/no summary with an evidence
// bundle, used by detectors whose checks do not naturally yield
// line-level findings.
type DetectionResult struct {
	// Category is the defect class this summary covers.
	Category Category `json:"category"`

	// Found is true when the check detected at least one issue.
	Found bool `json:"found"`

	// Count is the number of individual issues behind Found.
	Count int `json:"count"`

	// Details carries the evidence bundle, keyed by check name.
	Details map[string]any `json:"details"`

	// Severity applies to the summary as a whole.
	Severity Severity `json:"severity"`
}

// Findings converts the summary into zero or more pipeline findings.
//
// Description:
//
//	A summary with Found false converts to nothing. Otherwise it becomes
//	a single whole-workspace, non-fixable finding whose message carries
//	the evidence bundle with keys in sorted order, so conversion is
//	deterministic. Fixable defects discovered by the same detector are
//	emitted as explicit Findings by that detector, not through here.
func (r DetectionResult) Findings() []Finding {
	if !r.Found || r.Count == 0 {
		return nil
	}

	keys := make([]string, 0, len(r.Details))
	for k := range r.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var evidence []string
	for _, k := range keys {
		evidence = append(evidence, fmt.Sprintf("%s=%v", k, r.Details[k]))
	}

	msg := fmt.Sprintf("%d issue(s) detected", r.Count)
	if len(evidence) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(evidence, ", "))
	}

	f, err := New(Finding{
		Category: r.Category,
		Severity: r.Severity,
		Path:     PathMultiple,
		Line:     0,
		Message:  msg,
	})
	if err != nil {
		// Only reachable with an unknown category, which is a
		// programming error in the detector. Drop rather than abort.
		return nil
	}
	return []Finding{f}
}
