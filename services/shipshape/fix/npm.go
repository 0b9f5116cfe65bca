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

// NPMFixer brings outdated npm packages up to their wanted versions
// with a single `npm update` per pass. npm resolves the whole tree at
// once, so per-package invocations would just repeat work.
type NPMFixer struct {
	ws     *workspace.Workspace
	logger *logging.Logger
}

// NewNPMFixer creates an npm dependency fixer.
func NewNPMFixer(ws *workspace.Workspace, logger *logging.Logger) *NPMFixer {
	return &NPMFixer{ws: ws, logger: logger}
}

// Categories implements Fixer.
func (f *NPMFixer) Categories() []finding.Category {
	return []finding.Category{finding.CategoryNPMDependencies}
}

// Fix runs `npm update`. On success every dispatched finding counts as
// fixed; npm's own semver constraints decide the actual versions. When
// `npm outdated` already reports nothing stale, the update is skipped
// and the count stays zero, so re-applying the same batch after a
// successful pass is a no-op.
func (f *NPMFixer) Fix(ctx context.Context, findings []finding.Finding) (int, error) {
	if len(findings) == 0 {
		return 0, nil
	}

	probe, err := exec.Run(ctx, exec.Config{
		Command: "npm",
		Args:    []string{"outdated", "--json"},
		WorkDir: f.ws.Root,
	})
	if err == nil && npmUpToDate(probe.Stdout) {
		return 0, nil
	}

	res, err := exec.Run(ctx, exec.Config{
		Command: "npm",
		Args:    []string{"update", "--no-audit", "--no-fund"},
		WorkDir: f.ws.Root,
	})
	if err != nil {
		return 0, fmt.Errorf("npm update: %w", err)
	}
	if res.ExitCode != 0 {
		return 0, fmt.Errorf("npm update exited %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return len(findings), nil
}

// npmUpToDate reports whether `npm outdated --json` output carries no
// entries. npm prints an empty string or an empty object when the tree
// is current.
func npmUpToDate(stdout string) bool {
	s := strings.TrimSpace(stdout)
	return s == "" || s == "{}"
}
