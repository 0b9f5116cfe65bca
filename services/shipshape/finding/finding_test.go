// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package finding

import (
	"errors"
	"strings"
	"testing"
)

func TestNew_Valid(t *testing.T) {
	f, err := New(Finding{
		Category: CategoryFormatting,
		Severity: SeverityLow,
		Message:  "code not formatted",
		Fixable:  true,
		Remedy:   "gofmt -w .",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if f.Path != PathMultiple {
		t.Errorf("empty path should default to %q, got %q", PathMultiple, f.Path)
	}
}

func TestNew_FixableRequiresRemedy(t *testing.T) {
	_, err := New(Finding{
		Category: CategoryFormatting,
		Message:  "code not formatted",
		Fixable:  true,
	})
	if !errors.Is(err, ErrInvalidFinding) {
		t.Fatalf("fixable finding without remedy must fail, got %v", err)
	}

	_, err = New(Finding{
		Category: CategoryFormatting,
		Message:  "code not formatted",
		Fixable:  true,
		Remedy:   "   ",
	})
	if !errors.Is(err, ErrInvalidFinding) {
		t.Fatalf("whitespace remedy must fail, got %v", err)
	}
}

func TestNew_NonFixableRejectsRemedy(t *testing.T) {
	_, err := New(Finding{
		Category: CategorySecurity,
		Message:  "hardcoded credential",
		Fixable:  false,
		Remedy:   "rm -rf /",
	})
	if !errors.Is(err, ErrInvalidFinding) {
		t.Fatalf("non-fixable finding with remedy must fail, got %v", err)
	}
}

func TestNew_UnknownCategory(t *testing.T) {
	_, err := New(Finding{Category: "cosmic-rays", Message: "bit flip"})
	if !errors.Is(err, ErrInvalidFinding) {
		t.Fatalf("unknown category must fail, got %v", err)
	}
}

func TestNew_EmptyMessage(t *testing.T) {
	_, err := New(Finding{Category: CategoryGit, Message: "  "})
	if !errors.Is(err, ErrInvalidFinding) {
		t.Fatalf("empty message must fail, got %v", err)
	}
}

func TestNew_DefaultSeverity(t *testing.T) {
	f, err := New(Finding{Category: CategoryLinting, Message: "lint issues"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if f.Severity != SeverityMedium {
		t.Errorf("default severity = %q, want medium", f.Severity)
	}
}

func TestSeverity_Rank(t *testing.T) {
	order := []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() >= order[i].Rank() {
			t.Errorf("%s should rank before %s", order[i-1], order[i])
		}
	}
	if Severity("bogus").Rank() <= SeverityLow.Rank() {
		t.Error("unknown severity should rank after low")
	}
}

func TestParseSeverity(t *testing.T) {
	cases := []struct {
		in   string
		want Severity
	}{
		{"HIGH", SeverityHigh},
		{" low ", SeverityLow},
		{"critical", SeverityCritical},
		{"", SeverityMedium},
		{"UNDEFINED", SeverityMedium},
	}
	for _, tc := range cases {
		if got := ParseSeverity(tc.in); got != tc.want {
			t.Errorf("ParseSeverity(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDetectionResult_Findings_NotFound(t *testing.T) {
	r := DetectionResult{Category: CategoryGit, Found: false}
	if got := r.Findings(); len(got) != 0 {
		t.Errorf("Found=false should convert to no findings, got %d", len(got))
	}
}

func TestDetectionResult_Findings_Found(t *testing.T) {
	r := DetectionResult{
		Category: CategoryCompose,
		Found:    true,
		Count:    2,
		Severity: SeverityHigh,
		Details: map[string]any{
			"missing_healthcheck": true,
			"hardcoded_passwords": true,
		},
	}
	fs := r.Findings()
	if len(fs) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(fs))
	}
	f := fs[0]
	if f.Fixable {
		t.Error("summary findings are never fixable")
	}
	if f.Severity != SeverityHigh {
		t.Errorf("severity = %q, want high", f.Severity)
	}
	if f.Path != PathMultiple || f.Line != 0 {
		t.Errorf("summary finding should be whole-workspace, got %s:%d", f.Path, f.Line)
	}
	// Evidence keys render sorted for deterministic output.
	if !strings.Contains(f.Message, "hardcoded_passwords=true, missing_healthcheck=true") {
		t.Errorf("message = %q, want sorted evidence", f.Message)
	}
}

func TestFinding_String(t *testing.T) {
	f, _ := New(Finding{
		Category: CategoryDocker,
		Severity: SeverityLow,
		Path:     "Dockerfile",
		Line:     3,
		Message:  "no .dockerignore",
		Fixable:  true,
		Remedy:   "create-dockerignore",
	})
	s := f.String()
	for _, want := range []string{"docker", "Dockerfile:3", "fixable"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}
