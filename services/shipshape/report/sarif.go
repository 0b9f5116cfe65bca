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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/Shipshape/services/shipshape/finding"
)

// sarifSchema is the 2.1.0 RTM schema recognized by GitHub code
// scanning and editors.
const sarifSchema = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"

// SARIFReporter writes detection findings as a SARIF 2.1.0 log, for
// ingestion by code scanning dashboards. Fix and validation results
// have no SARIF representation and are omitted.
type SARIFReporter struct {
	w           io.Writer
	toolVersion string
}

// NewSARIFReporter creates a SARIF reporter writing to stdout.
func NewSARIFReporter(toolVersion string) *SARIFReporter {
	return &SARIFReporter{w: os.Stdout, toolVersion: toolVersion}
}

// NewSARIFReporterTo creates a SARIF reporter writing to w.
func NewSARIFReporterTo(w io.Writer, toolVersion string) *SARIFReporter {
	return &SARIFReporter{w: w, toolVersion: toolVersion}
}

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

// Report implements Reporter.
func (s *SARIFReporter) Report(result *RunResult) error {
	if result == nil {
		return ErrNilResult
	}

	var findings []finding.Finding
	if result.Findings != nil {
		result.Findings.SortForDisplay()
		findings = result.Findings.Findings
	}

	results := make([]sarifResult, 0, len(findings))
	for _, f := range findings {
		startLine := f.Line
		if startLine <= 0 {
			startLine = 1
		}
		results = append(results, sarifResult{
			RuleID: string(f.Category),
			Level:  severityToLevel(f.Severity),
			Message: sarifMessage{
				Text: strings.TrimSpace(f.Message),
			},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: toURI(f.Path)},
					Region:           sarifRegion{StartLine: startLine},
				},
			}},
		})
	}

	log := sarifLog{
		Version: "2.1.0",
		Schema:  sarifSchema,
		Runs: []sarifRun{{
			Tool: sarifTool{
				Driver: sarifDriver{Name: "shipshape", Version: s.toolVersion},
			},
			Results: results,
		}},
	}

	enc := json.NewEncoder(s.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(log); err != nil {
		return fmt.Errorf("encoding sarif log: %w", err)
	}
	return nil
}

// severityToLevel maps severities onto SARIF's three levels.
func severityToLevel(s finding.Severity) string {
	switch s {
	case finding.SeverityCritical, finding.SeverityHigh:
		return "error"
	case finding.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}

// toURI normalizes a finding path into a SARIF artifact URI.
func toURI(p string) string {
	p = filepath.ToSlash(strings.TrimSpace(p))
	for strings.HasPrefix(p, "../") {
		p = strings.TrimPrefix(p, "../")
	}
	p = strings.TrimPrefix(p, "./")
	if p == "" {
		return "UNKNOWN"
	}
	return p
}
