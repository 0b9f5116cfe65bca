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
	"os"
	"strings"

	"golang.org/x/mod/modfile"

	"github.com/AleutianAI/Shipshape/pkg/exec"
	"github.com/AleutianAI/Shipshape/pkg/logging"
	"github.com/AleutianAI/Shipshape/services/shipshape/finding"
	"github.com/AleutianAI/Shipshape/services/shipshape/workspace"
)

// DependencyDetector reports outdated Go modules and Python packages.
// Each present ecosystem yields at most one fixable finding whose remedy
// upgrades every stale package in a single command.
type DependencyDetector struct {
	ws     *workspace.Workspace
	logger *logging.Logger
}

// NewDependencyDetector creates a dependency detector.
func NewDependencyDetector(ws *workspace.Workspace, logger *logging.Logger) *DependencyDetector {
	return &DependencyDetector{ws: ws, logger: logger}
}

// Category implements Detector.
func (d *DependencyDetector) Category() finding.Category {
	return finding.CategoryDependencies
}

// Detect checks each present ecosystem for stale dependencies.
func (d *DependencyDetector) Detect(ctx context.Context) ([]finding.Finding, error) {
	var findings []finding.Finding
	if d.ws.HasGo() {
		if f, ok := d.checkGoModules(ctx); ok {
			findings = append(findings, f)
		}
	}
	if d.ws.HasPython() {
		if f, ok := d.checkPip(ctx); ok {
			findings = append(findings, f)
		}
	}
	return findings, nil
}

// goModuleInfo mirrors the fields of `go list -m -u -json` we consume.
type goModuleInfo struct {
	Path     string `json:"Path"`
	Version  string `json:"Version"`
	Main     bool   `json:"Main"`
	Indirect bool   `json:"Indirect"`
	Update   *struct {
		Version string `json:"Version"`
	} `json:"Update"`
}

// checkGoModules reports direct module requirements with available
// updates. The go.mod parse filters `go list` output down to direct
// dependencies so indirect churn does not flood the report.
func (d *DependencyDetector) checkGoModules(ctx context.Context) (finding.Finding, bool) {
	data, err := os.ReadFile(d.ws.Join("go.mod"))
	if err != nil {
		d.logger.Warn("go.mod unreadable", "error", err)
		return finding.Finding{}, false
	}
	mf, err := modfile.Parse("go.mod", data, nil)
	if err != nil {
		d.logger.Warn("go.mod not parseable", "error", err)
		return finding.Finding{}, false
	}
	direct := make(map[string]bool, len(mf.Require))
	for _, req := range mf.Require {
		if !req.Indirect {
			direct[req.Mod.Path] = true
		}
	}
	if len(direct) == 0 {
		return finding.Finding{}, false
	}

	res, err := exec.Run(ctx, exec.Config{
		Command: "go",
		Args:    []string{"list", "-m", "-u", "-json", "all"},
		WorkDir: d.ws.Root,
	})
	if err != nil {
		d.logDegrade("go list", err)
		return finding.Finding{}, false
	}
	if res.ExitCode != 0 {
		d.logger.Warn("go list failed", "exit_code", res.ExitCode, "stderr", res.Stderr)
		return finding.Finding{}, false
	}

	var stale []string
	var upgrades []string
	dec := json.NewDecoder(strings.NewReader(res.Stdout))
	for dec.More() {
		var mod goModuleInfo
		if err := dec.Decode(&mod); err != nil {
			d.logger.Warn("go list output not parseable", "error", err)
			break
		}
		if mod.Main || mod.Update == nil || !direct[mod.Path] {
			continue
		}
		stale = append(stale, fmt.Sprintf("%s %s (latest %s)", mod.Path, mod.Version, mod.Update.Version))
		upgrades = append(upgrades, mod.Path+"@"+mod.Update.Version)
	}
	if len(stale) == 0 {
		return finding.Finding{}, false
	}

	f, err := finding.New(finding.Finding{
		Category: finding.CategoryDependencies,
		Severity: finding.SeverityLow,
		Path:     "go.mod",
		Message:  fmt.Sprintf("%d go module(s) outdated: %s", len(stale), strings.Join(stale, ", ")),
		Fixable:  true,
		Remedy:   "run go get " + strings.Join(upgrades, " "),
	})
	if err != nil {
		return finding.Finding{}, false
	}
	return f, true
}

// pipOutdated mirrors one entry of `pip list --outdated --format=json`.
type pipOutdated struct {
	Name          string `json:"name"`
	Version       string `json:"version"`
	LatestVersion string `json:"latest_version"`
}

// checkPip reports outdated Python packages.
func (d *DependencyDetector) checkPip(ctx context.Context) (finding.Finding, bool) {
	res, err := exec.Run(ctx, exec.Config{
		Command: "pip",
		Args:    []string{"list", "--outdated", "--format=json", "--disable-pip-version-check"},
		WorkDir: d.ws.Root,
	})
	if err != nil {
		d.logDegrade("pip", err)
		return finding.Finding{}, false
	}
	if res.ExitCode != 0 {
		d.logger.Warn("pip list failed", "exit_code", res.ExitCode, "stderr", res.Stderr)
		return finding.Finding{}, false
	}

	var outdated []pipOutdated
	if err := json.Unmarshal([]byte(res.Stdout), &outdated); err != nil {
		d.logger.Warn("pip output not parseable", "error", err)
		return finding.Finding{}, false
	}
	if len(outdated) == 0 {
		return finding.Finding{}, false
	}

	var stale []string
	var names []string
	for _, pkg := range outdated {
		stale = append(stale, fmt.Sprintf("%s %s (latest %s)", pkg.Name, pkg.Version, pkg.LatestVersion))
		names = append(names, pkg.Name)
	}

	f, err := finding.New(finding.Finding{
		Category: finding.CategoryDependencies,
		Severity: finding.SeverityLow,
		Message:  fmt.Sprintf("%d python package(s) outdated: %s", len(stale), strings.Join(stale, ", ")),
		Fixable:  true,
		Remedy:   "run pip install --upgrade " + strings.Join(names, " "),
	})
	if err != nil {
		return finding.Finding{}, false
	}
	return f, true
}

func (d *DependencyDetector) logDegrade(tool string, err error) {
	if errors.Is(err, exec.ErrToolNotInstalled) {
		d.logger.Debug("dependency tool not installed, skipping", "tool", tool)
		return
	}
	d.logger.Warn("dependency check degraded", "tool", tool, "error", err)
}
