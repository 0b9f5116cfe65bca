// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package finding

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Report is the ordered sequence of findings from one detection pass.
//
// Findings keep registration order (detector order) as produced;
// SortForDisplay reorders for human consumption. A Report lives for one
// run and is never persisted.
//
// Thread Safety: NOT safe for concurrent use. The pipeline is sequential
// within a run.
type Report struct {
	// RunID uniquely identifies the detection pass.
	RunID string `json:"run_id"`

	// StartedAt is when detection began.
	StartedAt time.Time `json:"started_at"`

	// Findings is the concatenated detector output in registration order.
	Findings []Finding `json:"findings"`
}

// NewReport creates an empty Report with a fresh run ID.
func NewReport() *Report {
	return &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
}

// Add appends findings, preserving order.
func (r *Report) Add(findings ...Finding) {
	r.Findings = append(r.Findings, findings...)
}

// Empty reports whether detection produced no findings.
func (r *Report) Empty() bool {
	return len(r.Findings) == 0
}

// Len returns the number of findings.
func (r *Report) Len() int {
	return len(r.Findings)
}

// ByCategory groups findings by category, preserving in-category order.
func (r *Report) ByCategory() map[Category][]Finding {
	grouped := make(map[Category][]Finding)
	for _, f := range r.Findings {
		grouped[f.Category] = append(grouped[f.Category], f)
	}
	return grouped
}

// Fixable returns the findings a fixer can act on.
func (r *Report) Fixable() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Fixable {
			out = append(out, f)
		}
	}
	return out
}

// SortForDisplay orders findings by severity (most severe first), then
// path, then line. Stable, so detector order breaks remaining ties.
func (r *Report) SortForDisplay() {
	sort.SliceStable(r.Findings, func(i, j int) bool {
		a, b := r.Findings[i], r.Findings[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() < b.Severity.Rank()
		}
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return a.Line < b.Line
	})
}
