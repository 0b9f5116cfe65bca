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
	"context"
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/AleutianAI/Shipshape/pkg/exec"
	"github.com/AleutianAI/Shipshape/pkg/logging"
	"github.com/AleutianAI/Shipshape/services/shipshape/workspace"
)

// CollectChanges summarizes the unstaged edits fixers made to a git
// workspace.
//
// Description:
//
//	Runs `git diff` and folds each file's hunks into added and deleted
//	line counts. Non-git workspaces and diff failures degrade to an
//	empty summary; change reporting is a nicety, never a reason to
//	fail a run.
func CollectChanges(ctx context.Context, ws *workspace.Workspace, logger *logging.Logger) []FileChange {
	if !ws.IsGitRepo() {
		return nil
	}

	res, err := exec.Run(ctx, exec.Config{
		Command: "git",
		Args:    []string{"diff", "--no-color", "--no-ext-diff"},
		WorkDir: ws.Root,
	})
	if err != nil {
		logger.Debug("change summary unavailable", "error", err)
		return nil
	}
	if res.ExitCode != 0 || strings.TrimSpace(res.Stdout) == "" {
		return nil
	}

	fileDiffs, err := diff.ParseMultiFileDiff([]byte(res.Stdout))
	if err != nil {
		logger.Warn("git diff output not parseable", "error", err)
		return nil
	}

	changes := make([]FileChange, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		change := FileChange{Path: diffPath(fd)}
		for _, hunk := range fd.Hunks {
			added, deleted := countHunkLines(hunk.Body)
			change.Added += added
			change.Deleted += deleted
		}
		changes = append(changes, change)
	}
	return changes
}

// diffPath extracts the workspace-relative path from a file diff,
// preferring the post-image name.
func diffPath(fd *diff.FileDiff) string {
	name := fd.NewName
	if name == "" || name == "/dev/null" {
		name = fd.OrigName
	}
	name = strings.TrimPrefix(name, "a/")
	name = strings.TrimPrefix(name, "b/")
	return name
}

// countHunkLines tallies additions and deletions in one hunk body.
func countHunkLines(body []byte) (added, deleted int) {
	for _, line := range strings.Split(string(body), "\n") {
		switch {
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			deleted++
		}
	}
	return added, deleted
}
