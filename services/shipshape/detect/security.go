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
	"os"
	"time"

	"github.com/AleutianAI/Shipshape/pkg/exec"
	"github.com/AleutianAI/Shipshape/pkg/logging"
	"github.com/AleutianAI/Shipshape/services/shipshape/finding"
	"github.com/AleutianAI/Shipshape/services/shipshape/workspace"
)

// maxSecretScanFiles bounds the built-in secret scan on very large
// trees; the external scanners cover the remainder.
const maxSecretScanFiles = 2000

// SecurityDetector combines external security scanners (gosec for Go,
// bandit for Python) with a built-in secret scanner.
//
// Security findings are never fixable: remediation requires human
// judgment about which credential to rotate or which sink to guard.
type SecurityDetector struct {
	ws          *workspace.Workspace
	scanTimeout time.Duration
	scanner     *secretScanner
	logger      *logging.Logger
}

// NewSecurityDetector creates a security detector.
func NewSecurityDetector(ws *workspace.Workspace, scanTimeout time.Duration, logger *logging.Logger) *SecurityDetector {
	return &SecurityDetector{
		ws:          ws,
		scanTimeout: scanTimeout,
		scanner:     newSecretScanner(),
		logger:      logger,
	}
}

// Category implements Detector.
func (d *SecurityDetector) Category() finding.Category {
	return finding.CategorySecurity
}

// Detect runs the applicable scanners and merges their findings.
func (d *SecurityDetector) Detect(ctx context.Context) ([]finding.Finding, error) {
	var findings []finding.Finding

	if d.ws.HasGo() {
		findings = append(findings, d.runGosec(ctx)...)
	}
	if d.ws.HasPython() {
		findings = append(findings, d.runBandit(ctx)...)
	}
	findings = append(findings, d.scanSecrets()...)

	return findings, nil
}

// gosecReport mirrors the fields of gosec's JSON output we consume.
type gosecReport struct {
	Issues []struct {
		Severity string `json:"severity"`
		Details  string `json:"details"`
		File     string `json:"file"`
		Line     string `json:"line"`
		RuleID   string `json:"rule_id"`
	} `json:"Issues"`
}

// runGosec scans Go sources. gosec exits non-zero when issues exist,
// so exit code is ignored; only unparseable output degrades.
func (d *SecurityDetector) runGosec(ctx context.Context) []finding.Finding {
	res, err := exec.Run(ctx, exec.Config{
		Command: "gosec",
		Args:    []string{"-quiet", "-fmt=json", "./..."},
		WorkDir: d.ws.Root,
		Timeout: d.scanTimeout,
	})
	if err != nil {
		d.logDegrade("gosec", err)
		return nil
	}

	var report gosecReport
	if err := json.Unmarshal([]byte(res.Stdout), &report); err != nil {
		d.logger.Warn("gosec output not parseable", "error", err)
		return nil
	}

	var findings []finding.Finding
	for _, issue := range report.Issues {
		f, err := finding.New(finding.Finding{
			Category: finding.CategorySecurity,
			Severity: finding.ParseSeverity(issue.Severity),
			Path:     d.ws.Rel(issue.File),
			Line:     parseLineNumber(issue.Line),
			Message:  issue.Details + " (" + issue.RuleID + ")",
		})
		if err != nil {
			continue
		}
		findings = append(findings, f)
	}
	return findings
}

// banditReport mirrors the fields of bandit's JSON output we consume.
type banditReport struct {
	Results []struct {
		Filename      string `json:"filename"`
		LineNumber    int    `json:"line_number"`
		IssueSeverity string `json:"issue_severity"`
		IssueText     string `json:"issue_text"`
		TestID        string `json:"test_id"`
	} `json:"results"`
}

// runBandit scans Python sources. Like gosec, bandit signals findings
// through its exit code, so only parse failures degrade.
func (d *SecurityDetector) runBandit(ctx context.Context) []finding.Finding {
	res, err := exec.Run(ctx, exec.Config{
		Command: "bandit",
		Args:    []string{"-r", ".", "-f", "json", "-q"},
		WorkDir: d.ws.Root,
		Timeout: d.scanTimeout,
	})
	if err != nil {
		d.logDegrade("bandit", err)
		return nil
	}

	var report banditReport
	if err := json.Unmarshal([]byte(res.Stdout), &report); err != nil {
		d.logger.Warn("bandit output not parseable", "error", err)
		return nil
	}

	var findings []finding.Finding
	for _, r := range report.Results {
		f, err := finding.New(finding.Finding{
			Category: finding.CategorySecurity,
			Severity: finding.ParseSeverity(r.IssueSeverity),
			Path:     d.ws.Rel(r.Filename),
			Line:     r.LineNumber,
			Message:  r.IssueText + " (" + r.TestID + ")",
		})
		if err != nil {
			continue
		}
		findings = append(findings, f)
	}
	return findings
}

// scanSecrets runs the built-in scanner across source files.
func (d *SecurityDetector) scanSecrets() []finding.Finding {
	var findings []finding.Finding
	for _, ext := range []string{".go", ".py", ".js", ".ts", ".env", ".yaml", ".yml"} {
		files, err := d.ws.SourceFiles(ext, maxSecretScanFiles)
		if err != nil {
			d.logger.Warn("secret scan walk degraded", "ext", ext, "error", err)
			continue
		}
		for _, rel := range files {
			content, err := os.ReadFile(d.ws.Join(rel))
			if err != nil {
				continue
			}
			findings = append(findings, d.scanner.scan(content, rel)...)
		}
	}
	return findings
}

func (d *SecurityDetector) logDegrade(tool string, err error) {
	if errors.Is(err, exec.ErrToolNotInstalled) {
		d.logger.Debug("security scanner not installed, skipping", "tool", tool)
		return
	}
	d.logger.Warn("security scan degraded", "tool", tool, "error", err)
}

// parseLineNumber converts gosec's string line field ("42" or "42-45")
// to the first line of the range.
func parseLineNumber(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}
