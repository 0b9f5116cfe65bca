// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package detect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AleutianAI/Shipshape/pkg/exec"
	"github.com/AleutianAI/Shipshape/pkg/logging"
	"github.com/AleutianAI/Shipshape/services/shipshape/finding"
	"github.com/AleutianAI/Shipshape/services/shipshape/workspace"
)

// commitLookback is how many recent commit subjects the hygiene check
// inspects.
const commitLookback = 10

// maxSubjectLength is the conventional subject line limit.
const maxSubjectLength = 72

// GitDetector checks recent commit subject hygiene: overlong subjects
// and raw merge commits. History is never rewritten, so these findings
// are informational only.
type GitDetector struct {
	ws     *workspace.Workspace
	logger *logging.Logger
}

// NewGitDetector creates a commit hygiene detector.
func NewGitDetector(ws *workspace.Workspace, logger *logging.Logger) *GitDetector {
	return &GitDetector{ws: ws, logger: logger}
}

// Category implements Detector.
func (d *GitDetector) Category() finding.Category {
	return finding.CategoryGit
}

// Detect reads the last commitLookback subjects and folds violations
// into one summary finding.
func (d *GitDetector) Detect(ctx context.Context) ([]finding.Finding, error) {
	if !d.ws.IsGitRepo() {
		return nil, nil
	}

	res, err := exec.Run(ctx, exec.Config{
		Command: "git",
		Args:    []string{"log", "--format=%s", "-n", fmt.Sprint(commitLookback)},
		WorkDir: d.ws.Root,
	})
	if err != nil {
		if errors.Is(err, exec.ErrToolNotInstalled) {
			d.logger.Debug("git not installed, skipping")
			return nil, nil
		}
		d.logger.Warn("git log degraded", "error", err)
		return nil, nil
	}
	if res.ExitCode != 0 {
		// Fresh repositories with no commits land here.
		d.logger.Debug("git log unavailable", "stderr", strings.TrimSpace(res.Stderr))
		return nil, nil
	}

	overlong := 0
	merges := 0
	for _, subject := range strings.Split(strings.TrimSpace(res.Stdout), "\n") {
		subject = strings.TrimSpace(subject)
		if subject == "" {
			continue
		}
		if len(subject) > maxSubjectLength {
			overlong++
		}
		if strings.HasPrefix(subject, "Merge") {
			merges++
		}
	}

	result := finding.DetectionResult{
		Category: finding.CategoryGit,
		Found:    overlong+merges > 0,
		Count:    overlong + merges,
		Details: map[string]any{
			"overlong_subjects": overlong,
			"merge_commits":     merges,
		},
		Severity: finding.SeverityLow,
	}
	return result.Findings(), nil
}
