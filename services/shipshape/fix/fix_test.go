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
	"errors"
	"testing"
	"time"

	"github.com/AleutianAI/Shipshape/pkg/logging"
	"github.com/AleutianAI/Shipshape/services/shipshape/finding"
)

func testLogger() *logging.Logger {
	return logging.New(logging.Config{Level: logging.LevelError, Quiet: true})
}

// stubFixer drives registry behavior tests.
type stubFixer struct {
	categories []finding.Category
	fixed      int
	err        error
	panics     bool
	received   [][]finding.Finding
}

func (s *stubFixer) Categories() []finding.Category { return s.categories }

func (s *stubFixer) Fix(ctx context.Context, findings []finding.Finding) (int, error) {
	s.received = append(s.received, findings)
	if s.panics {
		panic("intentional failure")
	}
	return s.fixed, s.err
}

func fixableFinding(t *testing.T, cat finding.Category, msg string) finding.Finding {
	t.Helper()
	f, err := finding.New(finding.Finding{
		Category: cat,
		Message:  msg,
		Fixable:  true,
		Remedy:   "run the matching tool",
	})
	if err != nil {
		t.Fatalf("finding.New: %v", err)
	}
	return f
}

func reportedFinding(t *testing.T, cat finding.Category, msg string) finding.Finding {
	t.Helper()
	f, err := finding.New(finding.Finding{Category: cat, Message: msg})
	if err != nil {
		t.Fatalf("finding.New: %v", err)
	}
	return f
}

func TestRegistryRejectsNilAndClaimedCategories(t *testing.T) {
	r := NewRegistry(0, testLogger())
	if err := r.Register(nil); !errors.Is(err, ErrNilFixer) {
		t.Errorf("Register(nil) = %v, want ErrNilFixer", err)
	}
	if err := r.Register(&stubFixer{categories: []finding.Category{finding.CategoryDocker}}); err != nil {
		t.Fatal(err)
	}
	err := r.Register(&stubFixer{categories: []finding.Category{finding.CategoryDocker}})
	if !errors.Is(err, ErrCategoryClaimed) {
		t.Errorf("second Register = %v, want ErrCategoryClaimed", err)
	}
}

func TestApplyDispatchesCategoryBatches(t *testing.T) {
	r := NewRegistry(time.Second, testLogger())
	fixer := &stubFixer{categories: []finding.Category{finding.CategoryDocker}, fixed: 1}
	if err := r.Register(fixer); err != nil {
		t.Fatal(err)
	}

	findings := []finding.Finding{
		fixableFinding(t, finding.CategoryDocker, "fix me"),
		reportedFinding(t, finding.CategoryDocker, "report only"),
		reportedFinding(t, finding.CategorySecurity, "no fixer owns this"),
	}

	outcome := r.Apply(context.Background(), findings)
	if outcome.FixedCount != 1 {
		t.Errorf("FixedCount = %d, want 1", outcome.FixedCount)
	}
	if outcome.Attempted != 1 {
		t.Errorf("Attempted = %d, want 1", outcome.Attempted)
	}
	if len(fixer.received) != 1 || len(fixer.received[0]) != 2 {
		t.Fatalf("fixer received %v", fixer.received)
	}
	for _, f := range fixer.received[0] {
		if f.Category != finding.CategoryDocker {
			t.Errorf("fixer received foreign category %s", f.Category)
		}
	}
}

func TestTriageFixerAppliesNothing(t *testing.T) {
	r := NewRegistry(time.Second, testLogger())
	if err := r.Register(NewTriageFixer(testLogger())); err != nil {
		t.Fatal(err)
	}

	findings := []finding.Finding{
		reportedFinding(t, finding.CategorySecurity, "hardcoded credential"),
		reportedFinding(t, finding.CategorySecurity, "weak cipher"),
	}

	outcome := r.Apply(context.Background(), findings)
	if outcome.FixedCount != 0 || outcome.Attempted != 0 || outcome.Failed() {
		t.Errorf("outcome = %+v, want zero fixes and no errors", outcome)
	}
}

func TestApplyRecordsErrorsAndContinues(t *testing.T) {
	r := NewRegistry(time.Second, testLogger())
	broken := &stubFixer{
		categories: []finding.Category{finding.CategoryDocker},
		err:        errors.New("tool exploded"),
	}
	panicky := &stubFixer{
		categories: []finding.Category{finding.CategoryCompose},
		panics:     true,
	}
	healthy := &stubFixer{
		categories: []finding.Category{finding.CategoryFormatting},
		fixed:      2,
	}
	for _, f := range []Fixer{broken, panicky, healthy} {
		if err := r.Register(f); err != nil {
			t.Fatal(err)
		}
	}

	findings := []finding.Finding{
		fixableFinding(t, finding.CategoryDocker, "a"),
		fixableFinding(t, finding.CategoryCompose, "b"),
		fixableFinding(t, finding.CategoryFormatting, "c"),
		fixableFinding(t, finding.CategoryFormatting, "d"),
	}

	outcome := r.Apply(context.Background(), findings)
	if outcome.FixedCount != 2 {
		t.Errorf("FixedCount = %d, want 2", outcome.FixedCount)
	}
	if len(outcome.Errors) != 2 {
		t.Fatalf("Errors = %v, want 2 entries", outcome.Errors)
	}
	if !outcome.Failed() {
		t.Error("Failed() = false with recorded errors")
	}
	cats := map[finding.Category]bool{}
	for _, ce := range outcome.Errors {
		cats[ce.Category] = true
	}
	if !cats[finding.CategoryDocker] || !cats[finding.CategoryCompose] {
		t.Errorf("error categories = %v", outcome.Errors)
	}
}

func TestApplyEmptyFindings(t *testing.T) {
	r := NewRegistry(time.Second, testLogger())
	fixer := &stubFixer{categories: []finding.Category{finding.CategoryDocker}, fixed: 5}
	if err := r.Register(fixer); err != nil {
		t.Fatal(err)
	}

	outcome := r.Apply(context.Background(), nil)
	if outcome.FixedCount != 0 || outcome.Attempted != 0 || outcome.Failed() {
		t.Errorf("outcome = %+v, want zero value", outcome)
	}
	if len(fixer.received) != 0 {
		t.Errorf("fixer was invoked with no findings")
	}
}

func TestDependencyFixerSkipsUnrecognizedRemedies(t *testing.T) {
	dir := t.TempDir()
	f := NewDependencyFixer(tempWS(t, dir), testLogger())

	bad1, err := finding.New(finding.Finding{
		Category: finding.CategoryDependencies,
		Message:  "weird remedy",
		Fixable:  true,
		Remedy:   "please upgrade by hand",
	})
	if err != nil {
		t.Fatal(err)
	}
	bad2, err := finding.New(finding.Finding{
		Category: finding.CategoryDependencies,
		Message:  "unexpected command",
		Fixable:  true,
		Remedy:   "run rm -rf /",
	})
	if err != nil {
		t.Fatal(err)
	}

	fixed, ferr := f.Fix(context.Background(), []finding.Finding{bad1, bad2})
	if ferr != nil {
		t.Fatalf("Fix: %v", ferr)
	}
	if fixed != 0 {
		t.Errorf("fixed = %d, want 0", fixed)
	}
}
