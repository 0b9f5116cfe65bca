// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package report renders run results. Reporters are injected into the
// orchestrator, so output format is a caller decision rather than a
// pipeline concern.
package report

import (
	"errors"
	"time"

	"github.com/AleutianAI/Shipshape/services/shipshape/finding"
	"github.com/AleutianAI/Shipshape/services/shipshape/fix"
	"github.com/AleutianAI/Shipshape/services/shipshape/validate"
)

// Sentinel errors for the report package.
var (
	// ErrNilResult indicates a reporter received a nil run result.
	ErrNilResult = errors.New("nil run result")
)

// FileChange summarizes the post-fix edits to one file.
type FileChange struct {
	Path    string `json:"path"`
	Added   int    `json:"added"`
	Deleted int    `json:"deleted"`
}

// RunResult is everything a reporter needs to render one run.
type RunResult struct {
	// RunID is the run's correlation identifier.
	RunID string `json:"run_id"`
	// Workspace is the absolute workspace root.
	Workspace string `json:"workspace"`
	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	// Findings is the detection phase output.
	Findings *finding.Report `json:"findings"`
	// Fixes is nil when the run stopped after detection.
	Fixes *fix.Outcome `json:"fixes,omitempty"`
	// Validation is nil when validation was skipped.
	Validation *validate.Report `json:"validation,omitempty"`
	// Changes summarize the workspace edits made by fixers.
	Changes []FileChange `json:"changes,omitempty"`
}

// Duration returns the run's wall clock time.
func (r *RunResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Reporter renders one run result to its destination.
type Reporter interface {
	Report(result *RunResult) error
}
