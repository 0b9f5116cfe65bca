// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package fix

import (
	"context"
	"fmt"
	"strings"

	"github.com/AleutianAI/Shipshape/pkg/exec"
	"github.com/AleutianAI/Shipshape/pkg/logging"
	"github.com/AleutianAI/Shipshape/services/shipshape/finding"
	"github.com/AleutianAI/Shipshape/services/shipshape/workspace"
)

// FormattingFixer rewrites sources with the canonical formatters. It
// owns both the formatting and imports categories; isort defects are
// import-order defects but the remediation machinery is identical.
type FormattingFixer struct {
	ws     *workspace.Workspace
	logger *logging.Logger
}

// NewFormattingFixer creates a formatting fixer.
func NewFormattingFixer(ws *workspace.Workspace, logger *logging.Logger) *FormattingFixer {
	return &FormattingFixer{ws: ws, logger: logger}
}

// Categories implements Fixer.
func (f *FormattingFixer) Categories() []finding.Category {
	return []finding.Category{finding.CategoryFormatting, finding.CategoryImports}
}

// Fix applies the write-mode counterpart of each check that produced a
// finding. gofmt findings carry per-file paths; black and isort
// findings cover the workspace as a whole. Each tool's check mode runs
// first, so re-applying the same batch to an already-clean tree counts
// zero fixes.
func (f *FormattingFixer) Fix(ctx context.Context, findings []finding.Finding) (int, error) {
	fixed := 0
	var errs []string

	for _, fd := range findings {
		switch {
		case fd.Category == finding.CategoryImports:
			if f.checkClean(ctx, "isort", []string{"--check-only", "--quiet", "."}) {
				continue
			}
			if f.runTool(ctx, "isort", []string{"--quiet", "."}, &errs) {
				fixed++
			}
		case strings.HasSuffix(fd.Path, ".go"):
			if f.gofmtClean(ctx, fd.Path) {
				continue
			}
			if f.runTool(ctx, "gofmt", []string{"-w", fd.Path}, &errs) {
				fixed++
			}
		default:
			if f.checkClean(ctx, "black", []string{"--check", "--quiet", "."}) {
				continue
			}
			if f.runTool(ctx, "black", []string{"--quiet", "."}, &errs) {
				fixed++
			}
		}
	}

	if len(errs) > 0 {
		return fixed, fmt.Errorf("formatting partially failed: %s", strings.Join(errs, "; "))
	}
	return fixed, nil
}

// checkClean reruns a formatter in check mode. True means there is
// nothing left to rewrite; a failed probe falls through to the write
// pass rather than blocking it.
func (f *FormattingFixer) checkClean(ctx context.Context, tool string, args []string) bool {
	res, err := exec.Run(ctx, exec.Config{
		Command: tool,
		Args:    args,
		WorkDir: f.ws.Root,
	})
	return err == nil && res.ExitCode == 0
}

// gofmtClean reports whether a file is already gofmt-formatted. gofmt
// -l exits zero either way and prints the path only when dirty.
func (f *FormattingFixer) gofmtClean(ctx context.Context, path string) bool {
	res, err := exec.Run(ctx, exec.Config{
		Command: "gofmt",
		Args:    []string{"-l", path},
		WorkDir: f.ws.Root,
	})
	return err == nil && res.ExitCode == 0 && strings.TrimSpace(res.Stdout) == ""
}

// runTool executes one formatter invocation, collecting failures.
func (f *FormattingFixer) runTool(ctx context.Context, tool string, args []string, errs *[]string) bool {
	res, err := exec.Run(ctx, exec.Config{
		Command: tool,
		Args:    args,
		WorkDir: f.ws.Root,
	})
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %v", tool, err))
		return false
	}
	if res.ExitCode != 0 {
		*errs = append(*errs, fmt.Sprintf("%s exited %d: %s", tool, res.ExitCode, strings.TrimSpace(res.Stderr)))
		return false
	}
	return true
}
