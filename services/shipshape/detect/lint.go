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
	"strings"

	"github.com/AleutianAI/Shipshape/pkg/exec"
	"github.com/AleutianAI/Shipshape/pkg/logging"
	"github.com/AleutianAI/Shipshape/services/shipshape/finding"
	"github.com/AleutianAI/Shipshape/services/shipshape/workspace"
)

// lintFileLimit bounds how many Python sources the linters inspect in
// one pass.
const lintFileLimit = 10

// LintDetector runs the ecosystem linters and reports whether their
// combined output mentions problems. Python linters receive an explicit
// bounded file list; go vet handles its own package walk.
//
// The tool contract is deliberately coarse: linter output formats vary
// wildly across versions and configs, so the detector only checks the
// combined output for "error" or "warning" markers rather than parsing
// every dialect. A linter that exits non-zero with silent output is
// counted as a problem too. Lint findings are never fixable here; the
// formatting detector owns the mechanical rewrites.
type LintDetector struct {
	ws     *workspace.Workspace
	logger *logging.Logger
}

// NewLintDetector creates a lint detector.
func NewLintDetector(ws *workspace.Workspace, logger *logging.Logger) *LintDetector {
	return &LintDetector{ws: ws, logger: logger}
}

// Category implements Detector.
func (d *LintDetector) Category() finding.Category {
	return finding.CategoryLinting
}

// Detect runs go vet, flake8, and pylint against the workspace as
// applicable and folds the results into a single summary finding.
func (d *LintDetector) Detect(ctx context.Context) ([]finding.Finding, error) {
	details := map[string]any{}
	flagged := 0

	type linter struct {
		name    string
		args    []string
		enabled bool
	}
	pyFiles := d.pythonTargets()
	linters := []linter{
		{name: "go", args: []string{"vet", "./..."}, enabled: d.ws.HasGo()},
		{name: "flake8", args: pyFiles, enabled: len(pyFiles) > 0},
		{name: "pylint", args: append([]string{"--output-format=text"}, pyFiles...), enabled: len(pyFiles) > 0},
	}

	for _, l := range linters {
		if !l.enabled {
			continue
		}
		dirty, ran := d.runLinter(ctx, l.name, l.args)
		if !ran {
			continue
		}
		details[l.name+"_flagged"] = dirty
		if dirty {
			flagged++
		}
	}

	result := finding.DetectionResult{
		Category: finding.CategoryLinting,
		Found:    flagged > 0,
		Count:    flagged,
		Details:  details,
		Severity: finding.SeverityMedium,
	}
	return result.Findings(), nil
}

// pythonTargets returns the bounded set of Python sources the linters
// inspect, at most lintFileLimit of them. Listing failures degrade to
// an empty set, which disables the Python linters for the pass.
func (d *LintDetector) pythonTargets() []string {
	if !d.ws.HasPython() {
		return nil
	}
	files, err := d.ws.SourceFiles(".py", lintFileLimit)
	if err != nil {
		d.logger.Warn("python source listing degraded", "error", err)
		return nil
	}
	return files
}

// runLinter executes one linter and classifies its output. The second
// return value is false when the tool could not run at all.
func (d *LintDetector) runLinter(ctx context.Context, name string, args []string) (dirty, ran bool) {
	res, err := exec.Run(ctx, exec.Config{
		Command: name,
		Args:    args,
		WorkDir: d.ws.Root,
	})
	if err != nil {
		if errors.Is(err, exec.ErrToolNotInstalled) {
			d.logger.Debug("linter not installed, skipping", "tool", name)
		} else {
			d.logger.Warn("linter degraded", "tool", name, "error", err)
		}
		return false, false
	}

	combined := strings.ToLower(res.Combined())
	if strings.Contains(combined, "error") || strings.Contains(combined, "warning") {
		return true, true
	}
	// Non-zero exit with quiet output still means the linter objected.
	return res.ExitCode != 0, true
}
