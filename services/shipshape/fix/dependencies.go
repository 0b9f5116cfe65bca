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

// DependencyFixer upgrades outdated Go modules and Python packages.
// Each finding's remedy names exactly one upgrade command, so the
// finding count and the upgrade count line up one to one.
type DependencyFixer struct {
	ws     *workspace.Workspace
	logger *logging.Logger
}

// NewDependencyFixer creates a dependency fixer.
func NewDependencyFixer(ws *workspace.Workspace, logger *logging.Logger) *DependencyFixer {
	return &DependencyFixer{ws: ws, logger: logger}
}

// Categories implements Fixer.
func (f *DependencyFixer) Categories() []finding.Category {
	return []finding.Category{finding.CategoryDependencies}
}

// Fix executes each finding's upgrade command. Remedies are emitted by
// the dependency detector in the fixed forms "run go get <mod>@<ver>"
// and "run pip install --upgrade <pkg>"; anything else is skipped.
func (f *DependencyFixer) Fix(ctx context.Context, findings []finding.Finding) (int, error) {
	fixed := 0
	var errs []string

	for _, fd := range findings {
		cmdline, ok := strings.CutPrefix(fd.Remedy, "run ")
		if !ok {
			continue
		}
		fields := strings.Fields(cmdline)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "go", "pip":
		default:
			f.logger.Warn("unrecognized dependency remedy", "remedy", fd.Remedy)
			continue
		}

		res, err := exec.Run(ctx, exec.Config{
			Command: fields[0],
			Args:    fields[1:],
			WorkDir: f.ws.Root,
		})
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", cmdline, err))
			continue
		}
		if res.ExitCode != 0 {
			errs = append(errs, fmt.Sprintf("%s exited %d: %s", cmdline, res.ExitCode, strings.TrimSpace(res.Stderr)))
			continue
		}
		fixed++
	}

	if len(errs) > 0 {
		return fixed, fmt.Errorf("dependency upgrades partially failed: %s", strings.Join(errs, "; "))
	}
	return fixed, nil
}
