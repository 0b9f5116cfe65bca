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

import "testing"

func mustFinding(t *testing.T, f Finding) Finding {
	t.Helper()
	out, err := New(f)
	if err != nil {
		t.Fatalf("New(%+v): %v", f, err)
	}
	return out
}

func TestNewReport(t *testing.T) {
	r := NewReport()
	if r.RunID == "" {
		t.Error("RunID should be assigned")
	}
	if !r.Empty() {
		t.Error("fresh report should be empty")
	}
	if r.StartedAt.IsZero() {
		t.Error("StartedAt should be set")
	}
}

func TestReport_ByCategory(t *testing.T) {
	r := NewReport()
	r.Add(
		mustFinding(t, Finding{Category: CategoryFormatting, Message: "fmt", Fixable: true, Remedy: "gofmt -w ."}),
		mustFinding(t, Finding{Category: CategorySecurity, Message: "secret"}),
		mustFinding(t, Finding{Category: CategoryFormatting, Message: "fmt again", Fixable: true, Remedy: "gofmt -w ."}),
	)

	grouped := r.ByCategory()
	if len(grouped[CategoryFormatting]) != 2 {
		t.Errorf("formatting group = %d, want 2", len(grouped[CategoryFormatting]))
	}
	if len(grouped[CategorySecurity]) != 1 {
		t.Errorf("security group = %d, want 1", len(grouped[CategorySecurity]))
	}
	// In-category order preserved.
	if grouped[CategoryFormatting][0].Message != "fmt" {
		t.Error("grouping must preserve order within a category")
	}
}

func TestReport_Fixable(t *testing.T) {
	r := NewReport()
	r.Add(
		mustFinding(t, Finding{Category: CategorySecurity, Message: "secret"}),
		mustFinding(t, Finding{Category: CategoryImports, Message: "unsorted", Fixable: true, Remedy: "isort ."}),
	)
	fixable := r.Fixable()
	if len(fixable) != 1 || fixable[0].Category != CategoryImports {
		t.Errorf("Fixable() = %+v, want the imports finding only", fixable)
	}
}

func TestReport_SortForDisplay(t *testing.T) {
	r := NewReport()
	r.Add(
		mustFinding(t, Finding{Category: CategoryGit, Severity: SeverityLow, Message: "long subjects"}),
		mustFinding(t, Finding{Category: CategoryCompose, Severity: SeverityHigh, Message: "hardcoded password"}),
		mustFinding(t, Finding{Category: CategoryLinting, Severity: SeverityMedium, Message: "lint issues"}),
	)
	r.SortForDisplay()

	want := []Severity{SeverityHigh, SeverityMedium, SeverityLow}
	for i, f := range r.Findings {
		if f.Severity != want[i] {
			t.Errorf("Findings[%d].Severity = %q, want %q", i, f.Severity, want[i])
		}
	}
}
