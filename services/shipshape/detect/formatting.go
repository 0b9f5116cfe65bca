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

// FormattingDetector checks source formatting with the ecosystem's
// canonical formatters: gofmt for Go, black and isort for Python.
type FormattingDetector struct {
	ws     *workspace.Workspace
	logger *logging.Logger
}

// NewFormattingDetector creates a formatting detector.
func NewFormattingDetector(ws *workspace.Workspace, logger *logging.Logger) *FormattingDetector {
	return &FormattingDetector{ws: ws, logger: logger}
}

// Category implements Detector.
func (d *FormattingDetector) Category() finding.Category {
	return finding.CategoryFormatting
}

// Detect runs the formatters in check mode. Every reported defect is
// fixable by re-running the same formatter in write mode.
func (d *FormattingDetector) Detect(ctx context.Context) ([]finding.Finding, error) {
	var findings []finding.Finding

	if d.ws.HasGo() {
		findings = append(findings, d.checkGofmt(ctx)...)
	}
	if d.ws.HasPython() {
		findings = append(findings, d.checkPythonTool(ctx, "black", []string{"--check", "--quiet", "."}, "run black .")...)
		findings = append(findings, d.checkPythonTool(ctx, "isort", []string{"--check-only", "--quiet", "."}, "run isort .")...)
	}
	return findings, nil
}

// checkGofmt lists unformatted Go files. gofmt -l prints one path per
// line and exits zero whether or not files need formatting.
func (d *FormattingDetector) checkGofmt(ctx context.Context) []finding.Finding {
	res, err := exec.Run(ctx, exec.Config{
		Command: "gofmt",
		Args:    []string{"-l", "."},
		WorkDir: d.ws.Root,
	})
	if err != nil {
		d.logDegrade("gofmt", err)
		return nil
	}
	if res.ExitCode != 0 {
		d.logger.Warn("gofmt check failed", "exit_code", res.ExitCode, "stderr", res.Stderr)
		return nil
	}

	var findings []finding.Finding
	for _, line := range strings.Split(strings.TrimSpace(res.Stdout), "\n") {
		path := strings.TrimSpace(line)
		if path == "" {
			continue
		}
		f, err := finding.New(finding.Finding{
			Category: finding.CategoryFormatting,
			Severity: finding.SeverityLow,
			Path:     path,
			Message:  "file is not gofmt-formatted",
			Fixable:  true,
			Remedy:   "run gofmt -w " + path,
		})
		if err != nil {
			continue
		}
		findings = append(findings, f)
	}
	return findings
}

// checkPythonTool runs a Python formatter in check mode. A non-zero
// exit means at least one file would be reformatted.
func (d *FormattingDetector) checkPythonTool(ctx context.Context, tool string, args []string, remedy string) []finding.Finding {
	res, err := exec.Run(ctx, exec.Config{
		Command: tool,
		Args:    args,
		WorkDir: d.ws.Root,
	})
	if err != nil {
		d.logDegrade(tool, err)
		return nil
	}
	if res.ExitCode == 0 {
		return nil
	}

	cat := finding.CategoryFormatting
	if tool == "isort" {
		cat = finding.CategoryImports
	}
	f, err := finding.New(finding.Finding{
		Category: cat,
		Severity: finding.SeverityLow,
		Message:  tool + " reports files needing reformatting",
		Fixable:  true,
		Remedy:   remedy,
	})
	if err != nil {
		return nil
	}
	return []finding.Finding{f}
}

func (d *FormattingDetector) logDegrade(tool string, err error) {
	if errors.Is(err, exec.ErrToolNotInstalled) {
		d.logger.Debug("formatter not installed, skipping", "tool", tool)
		return
	}
	d.logger.Warn("formatter check degraded", "tool", tool, "error", err)
}
