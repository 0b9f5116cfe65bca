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
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/AleutianAI/Shipshape/pkg/exec"
	"github.com/AleutianAI/Shipshape/pkg/logging"
	"github.com/AleutianAI/Shipshape/services/shipshape/finding"
	"github.com/AleutianAI/Shipshape/services/shipshape/workspace"
)

// NPMDetector reports outdated npm packages as a single fixable finding
// on the package manifest; npm update resolves the whole tree at once,
// so one finding maps to one remediation action.
type NPMDetector struct {
	ws     *workspace.Workspace
	logger *logging.Logger
}

// NewNPMDetector creates an npm dependency detector.
func NewNPMDetector(ws *workspace.Workspace, logger *logging.Logger) *NPMDetector {
	return &NPMDetector{ws: ws, logger: logger}
}

// Category implements Detector.
func (d *NPMDetector) Category() finding.Category {
	return finding.CategoryNPMDependencies
}

// npmOutdatedEntry mirrors one value of `npm outdated --json`.
type npmOutdatedEntry struct {
	Current string `json:"current"`
	Wanted  string `json:"wanted"`
	Latest  string `json:"latest"`
}

// Detect runs `npm outdated --json`. npm exits 1 when outdated packages
// exist, so the exit code carries no failure signal here; an empty JSON
// object means everything is current.
func (d *NPMDetector) Detect(ctx context.Context) ([]finding.Finding, error) {
	if !d.ws.HasNode() {
		return nil, nil
	}

	res, err := exec.Run(ctx, exec.Config{
		Command: "npm",
		Args:    []string{"outdated", "--json"},
		WorkDir: d.ws.Root,
	})
	if err != nil {
		if errors.Is(err, exec.ErrToolNotInstalled) {
			d.logger.Debug("npm not installed, skipping")
			return nil, nil
		}
		d.logger.Warn("npm outdated degraded", "error", err)
		return nil, nil
	}

	f, ok := parseNPMOutdated(res.Stdout, d.logger)
	if !ok {
		return nil, nil
	}
	return []finding.Finding{f}, nil
}

// parseNPMOutdated folds `npm outdated --json` output into at most one
// finding. Package names are listed in sorted order so the message is
// deterministic.
func parseNPMOutdated(stdout string, logger *logging.Logger) (finding.Finding, bool) {
	outdated := map[string]npmOutdatedEntry{}
	if stdout != "" {
		if err := json.Unmarshal([]byte(stdout), &outdated); err != nil {
			logger.Warn("npm output not parseable", "error", err)
			return finding.Finding{}, false
		}
	}

	if len(outdated) == 0 {
		return finding.Finding{}, false
	}

	names := make([]string, 0, len(outdated))
	for name := range outdated {
		names = append(names, name)
	}
	sort.Strings(names)

	stale := make([]string, 0, len(names))
	for _, name := range names {
		entry := outdated[name]
		stale = append(stale, fmt.Sprintf("%s %s (wanted %s, latest %s)", name, entry.Current, entry.Wanted, entry.Latest))
	}

	f, err := finding.New(finding.Finding{
		Category: finding.CategoryNPMDependencies,
		Severity: finding.SeverityLow,
		Path:     "package.json",
		Message:  fmt.Sprintf("%d npm package(s) outdated: %s", len(stale), strings.Join(stale, ", ")),
		Fixable:  true,
		Remedy:   "run npm update",
	})
	if err != nil {
		return finding.Finding{}, false
	}
	return f, true
}
