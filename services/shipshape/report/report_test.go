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
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/AleutianAI/Shipshape/pkg/logging"
	"github.com/AleutianAI/Shipshape/pkg/ux"
	"github.com/AleutianAI/Shipshape/services/shipshape/finding"
	"github.com/AleutianAI/Shipshape/services/shipshape/fix"
	"github.com/AleutianAI/Shipshape/services/shipshape/validate"
	"github.com/AleutianAI/Shipshape/services/shipshape/workspace"
)

func sampleResult(t *testing.T) *RunResult {
	t.Helper()

	rep := finding.NewReport()
	critical, err := finding.New(finding.Finding{
		Category: finding.CategorySecurity,
		Severity: finding.SeverityCritical,
		Path:     "config/prod.go",
		Line:     12,
		Message:  "AWS access key ID detected",
	})
	if err != nil {
		t.Fatal(err)
	}
	fixable, err := finding.New(finding.Finding{
		Category: finding.CategoryFormatting,
		Severity: finding.SeverityLow,
		Path:     "main.go",
		Message:  "file is not gofmt-formatted",
		Fixable:  true,
		Remedy:   "run gofmt -w main.go",
	})
	if err != nil {
		t.Fatal(err)
	}
	rep.Add(critical)
	rep.Add(fixable)

	started := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	return &RunResult{
		RunID:      "run-123",
		Workspace:  "/tmp/project",
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Findings:   rep,
		Fixes:      &fix.Outcome{FixedCount: 1, Attempted: 1},
		Validation: &validate.Report{Records: []validate.Record{
			{Name: "go-build", Passed: true, Message: "go passed"},
			{Name: "pytest", Passed: false, Message: "pytest exited 1"},
		}},
		Changes: []FileChange{{Path: "main.go", Added: 2, Deleted: 2}},
	}
}

func TestConsoleReporterPlainOutput(t *testing.T) {
	prev := ux.Styled()
	ux.SetStyled(false)
	defer ux.SetStyled(prev)

	var buf bytes.Buffer
	r := NewConsoleReporterTo(&buf)
	if err := r.Report(sampleResult(t)); err != nil {
		t.Fatalf("Report: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"run run-123",
		"findings (2):",
		"AWS access key ID detected",
		"fixes: 1 applied of 1 attempted",
		"main.go (+2 -2)",
		"validation:",
		"pytest exited 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	// Severity sort puts the critical finding first.
	criticalIdx := strings.Index(out, "AWS access key")
	formattingIdx := strings.Index(out, "gofmt-formatted")
	if criticalIdx > formattingIdx {
		t.Error("critical finding rendered after low severity finding")
	}
}

func TestConsoleReporterNoIssues(t *testing.T) {
	prev := ux.Styled()
	ux.SetStyled(false)
	defer ux.SetStyled(prev)

	var buf bytes.Buffer
	result := sampleResult(t)
	result.Findings = finding.NewReport()
	result.Fixes = nil
	result.Validation = nil

	if err := NewConsoleReporterTo(&buf).Report(result); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "no issues detected") {
		t.Errorf("output = %s", buf.String())
	}
}

func TestJSONReporterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONReporterTo(&buf).Report(sampleResult(t)); err != nil {
		t.Fatalf("Report: %v", err)
	}

	var decoded RunResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if decoded.RunID != "run-123" {
		t.Errorf("RunID = %q", decoded.RunID)
	}
	if decoded.Findings == nil || decoded.Findings.Len() != 2 {
		t.Errorf("findings not preserved: %+v", decoded.Findings)
	}
	if decoded.Fixes == nil || decoded.Fixes.FixedCount != 1 {
		t.Errorf("fixes not preserved: %+v", decoded.Fixes)
	}
}

func TestNilResultRejected(t *testing.T) {
	var buf bytes.Buffer
	reporters := []Reporter{
		NewConsoleReporterTo(&buf),
		NewJSONReporterTo(&buf),
		NewSARIFReporterTo(&buf, "test"),
	}
	for _, r := range reporters {
		if err := r.Report(nil); err == nil {
			t.Errorf("%T accepted nil result", r)
		}
	}
}

func TestSARIFReporterShape(t *testing.T) {
	var buf bytes.Buffer
	if err := NewSARIFReporterTo(&buf, "1.0.0").Report(sampleResult(t)); err != nil {
		t.Fatalf("Report: %v", err)
	}

	var log sarifLog
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("decoding sarif: %v", err)
	}
	if log.Version != "2.1.0" {
		t.Errorf("version = %q", log.Version)
	}
	if len(log.Runs) != 1 {
		t.Fatalf("runs = %d", len(log.Runs))
	}
	run := log.Runs[0]
	if run.Tool.Driver.Name != "shipshape" || run.Tool.Driver.Version != "1.0.0" {
		t.Errorf("driver = %+v", run.Tool.Driver)
	}
	if len(run.Results) != 2 {
		t.Fatalf("results = %d", len(run.Results))
	}

	// Sorted for display: critical security finding first.
	first := run.Results[0]
	if first.Level != "error" {
		t.Errorf("critical level = %q, want error", first.Level)
	}
	if first.RuleID != "security" {
		t.Errorf("ruleId = %q", first.RuleID)
	}
	if first.Locations[0].PhysicalLocation.Region.StartLine != 12 {
		t.Errorf("startLine = %d", first.Locations[0].PhysicalLocation.Region.StartLine)
	}

	second := run.Results[1]
	if second.Level != "note" {
		t.Errorf("low severity level = %q, want note", second.Level)
	}
	if second.Locations[0].PhysicalLocation.Region.StartLine != 1 {
		t.Errorf("default startLine = %d, want 1", second.Locations[0].PhysicalLocation.Region.StartLine)
	}
}

func TestSeverityToLevel(t *testing.T) {
	cases := map[finding.Severity]string{
		finding.SeverityCritical: "error",
		finding.SeverityHigh:     "error",
		finding.SeverityMedium:   "warning",
		finding.SeverityLow:      "note",
	}
	for sev, want := range cases {
		if got := severityToLevel(sev); got != want {
			t.Errorf("severityToLevel(%s) = %q, want %q", sev, got, want)
		}
	}
}

func TestToURI(t *testing.T) {
	cases := map[string]string{
		"./main.go":    "main.go",
		"../a/b.go":    "a/b.go",
		"  pkg/x.go ":  "pkg/x.go",
		"":             "UNKNOWN",
		"plain/y.yaml": "plain/y.yaml",
	}
	for in, want := range cases {
		if got := toURI(in); got != want {
			t.Errorf("toURI(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCountHunkLines(t *testing.T) {
	body := []byte("+added one\n-removed one\n context\n+added two\n")
	added, deleted := countHunkLines(body)
	if added != 2 || deleted != 1 {
		t.Errorf("added=%d deleted=%d, want 2 and 1", added, deleted)
	}
}

func TestCollectChangesNonGitWorkspace(t *testing.T) {
	ws := &workspace.Workspace{Root: t.TempDir()}
	logger := logging.New(logging.Config{Level: logging.LevelError, Quiet: true})
	if changes := CollectChanges(context.Background(), ws, logger); changes != nil {
		t.Errorf("changes = %v, want nil", changes)
	}
}
