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
	"os"
	"strings"

	"github.com/AleutianAI/Shipshape/pkg/logging"
	"github.com/AleutianAI/Shipshape/services/shipshape/finding"
	"github.com/AleutianAI/Shipshape/services/shipshape/workspace"
)

// defaultDockerignoreEntries is the standard exclusion set written
// when a workspace lacks a .dockerignore.
var defaultDockerignoreEntries = []string{
	".git",
	".gitignore",
	".dockerignore",
	".env",
	"node_modules",
	"__pycache__",
	".pytest_cache",
	".venv",
	"build",
	"dist",
	"*.egg-info",
	".vscode",
	".idea",
}

// DockerignoreFixer creates a .dockerignore with the standard
// exclusion set. An existing file is never touched, whatever its
// contents; pruning a hand-written ignore list is not this tool's call.
type DockerignoreFixer struct {
	ws     *workspace.Workspace
	logger *logging.Logger
}

// NewDockerignoreFixer creates a .dockerignore fixer.
func NewDockerignoreFixer(ws *workspace.Workspace, logger *logging.Logger) *DockerignoreFixer {
	return &DockerignoreFixer{ws: ws, logger: logger}
}

// Categories implements Fixer.
func (f *DockerignoreFixer) Categories() []finding.Category {
	return []finding.Category{finding.CategoryDocker}
}

// Fix writes the default .dockerignore if and only if none exists.
func (f *DockerignoreFixer) Fix(ctx context.Context, findings []finding.Finding) (int, error) {
	if f.ws.HasFile(".dockerignore") {
		return 0, nil
	}

	content := strings.Join(defaultDockerignoreEntries, "\n") + "\n"
	if err := os.WriteFile(f.ws.Join(".dockerignore"), []byte(content), 0o644); err != nil {
		return 0, fmt.Errorf("writing .dockerignore: %w", err)
	}
	f.logger.Info("created .dockerignore", "entries", len(defaultDockerignoreEntries))
	return 1, nil
}
