// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/AleutianAI/Shipshape/pkg/ux"
	"github.com/AleutianAI/Shipshape/services/shipshape/finding"
)

// ConsoleReporter renders a human-readable run summary. Styling follows
// the terminal probe in pkg/ux; piped output stays plain.
type ConsoleReporter struct {
	w io.Writer
}

// NewConsoleReporter creates a console reporter writing to stdout.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{w: os.Stdout}
}

// NewConsoleReporterTo creates a console reporter writing to w.
func NewConsoleReporterTo(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{w: w}
}

// Report implements Reporter.
func (c *ConsoleReporter) Report(result *RunResult) error {
	if result == nil {
		return ErrNilResult
	}

	fmt.Fprintf(c.w, "%s run %s\n", string(ux.IconAnchor), result.RunID)
	fmt.Fprintf(c.w, "workspace: %s\n", result.Workspace)
	fmt.Fprintf(c.w, "duration:  %s\n\n", result.Duration().Round(time.Millisecond))

	c.printFindings(result.Findings)
	c.printFixes(result)
	c.printValidation(result)
	return nil
}

func (c *ConsoleReporter) printFindings(rep *finding.Report) {
	if rep == nil || rep.Empty() {
		fmt.Fprintf(c.w, "%s no issues detected\n", ux.IconSuccess.Render())
		return
	}

	fmt.Fprintf(c.w, "findings (%d):\n", rep.Len())
	rep.SortForDisplay()
	for _, f := range rep.Findings {
		marker := string(ux.IconBullet)
		if f.Fixable {
			marker = string(ux.IconArrow)
		}
		loc := f.Path
		if f.Line > 0 {
			loc = fmt.Sprintf("%s:%d", f.Path, f.Line)
		}
		fmt.Fprintf(c.w, "  %s %s %-18s %s  %s\n",
			marker,
			ux.SeverityTag(string(f.Severity)),
			f.Category,
			loc,
			f.Message,
		)
	}
	fmt.Fprintln(c.w)
}

func (c *ConsoleReporter) printFixes(result *RunResult) {
	if result.Fixes == nil {
		return
	}
	out := result.Fixes
	fmt.Fprintf(c.w, "fixes: %d applied of %d attempted\n", out.FixedCount, out.Attempted)
	for _, ce := range out.Errors {
		fmt.Fprintf(c.w, "  %s %s: %s\n", ux.IconError.Render(), ce.Category, ce.Err)
	}
	for _, ch := range result.Changes {
		fmt.Fprintf(c.w, "  %s %s (+%d -%d)\n", string(ux.IconArrow), ch.Path, ch.Added, ch.Deleted)
	}
	fmt.Fprintln(c.w)
}

func (c *ConsoleReporter) printValidation(result *RunResult) {
	if result.Validation == nil {
		return
	}
	fmt.Fprintln(c.w, "validation:")
	for _, rec := range result.Validation.Records {
		icon := ux.IconSuccess
		if !rec.Passed {
			icon = ux.IconError
		}
		suffix := ""
		if rec.Cached {
			suffix = " (cached)"
		}
		fmt.Fprintf(c.w, "  %s %-12s %s%s\n", icon.Render(), rec.Name, rec.Message, suffix)
	}
}
