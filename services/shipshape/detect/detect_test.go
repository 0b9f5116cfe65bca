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
	"errors"
	"testing"
	"time"

	"github.com/AleutianAI/Shipshape/pkg/logging"
	"github.com/AleutianAI/Shipshape/services/shipshape/finding"
)

func testLogger() *logging.Logger {
	return logging.New(logging.Config{Level: logging.LevelError, Quiet: true})
}

// stubDetector drives registry behavior tests.
type stubDetector struct {
	category finding.Category
	findings []finding.Finding
	err      error
	panics   bool
	calls    int
}

func (s *stubDetector) Category() finding.Category { return s.category }

func (s *stubDetector) Detect(ctx context.Context) ([]finding.Finding, error) {
	s.calls++
	if s.panics {
		panic("intentional failure")
	}
	return s.findings, s.err
}

func mustFinding(t *testing.T, cat finding.Category, msg string) finding.Finding {
	t.Helper()
	f, err := finding.New(finding.Finding{Category: cat, Message: msg})
	if err != nil {
		t.Fatalf("finding.New: %v", err)
	}
	return f
}

func TestRegistryRejectsNilAndDuplicates(t *testing.T) {
	r := NewRegistry(0, nil, testLogger())
	if err := r.Register(nil); !errors.Is(err, ErrNilDetector) {
		t.Errorf("Register(nil) = %v, want ErrNilDetector", err)
	}
	if err := r.Register(&stubDetector{category: finding.CategoryGit}); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	err := r.Register(&stubDetector{category: finding.CategoryGit})
	if !errors.Is(err, ErrDuplicateCategory) {
		t.Errorf("duplicate Register = %v, want ErrDuplicateCategory", err)
	}
}

func TestRunAllPreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry(time.Second, nil, testLogger())
	first := &stubDetector{
		category: finding.CategoryDocker,
		findings: []finding.Finding{mustFinding(t, finding.CategoryDocker, "docker issue")},
	}
	second := &stubDetector{
		category: finding.CategoryGit,
		findings: []finding.Finding{mustFinding(t, finding.CategoryGit, "git issue")},
	}
	if err := r.Register(first); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(second); err != nil {
		t.Fatal(err)
	}

	all, err := r.RunAll(context.Background())
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("findings = %d, want 2", len(all))
	}
	if all[0].Category != finding.CategoryDocker || all[1].Category != finding.CategoryGit {
		t.Errorf("order = [%s, %s], want [docker, git]", all[0].Category, all[1].Category)
	}
}

func TestRunAllDegradesOnErrorAndPanic(t *testing.T) {
	r := NewRegistry(time.Second, nil, testLogger())
	broken := &stubDetector{category: finding.CategoryLinting, err: errors.New("tool exploded")}
	panicky := &stubDetector{category: finding.CategoryDocker, panics: true}
	healthy := &stubDetector{
		category: finding.CategoryGit,
		findings: []finding.Finding{mustFinding(t, finding.CategoryGit, "still works")},
	}
	for _, d := range []Detector{broken, panicky, healthy} {
		if err := r.Register(d); err != nil {
			t.Fatal(err)
		}
	}

	all, err := r.RunAll(context.Background())
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if len(all) != 1 || all[0].Message != "still works" {
		t.Errorf("findings = %v, want only the healthy detector's", all)
	}
	if healthy.calls != 1 {
		t.Errorf("healthy detector calls = %d, want 1", healthy.calls)
	}
}

func TestRunAllSkipsDisabledCategories(t *testing.T) {
	r := NewRegistry(time.Second, []string{"git"}, testLogger())
	skipped := &stubDetector{
		category: finding.CategoryGit,
		findings: []finding.Finding{mustFinding(t, finding.CategoryGit, "should not appear")},
	}
	if err := r.Register(skipped); err != nil {
		t.Fatal(err)
	}

	all, err := r.RunAll(context.Background())
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("findings = %v, want none", all)
	}
	if skipped.calls != 0 {
		t.Errorf("disabled detector was called %d times", skipped.calls)
	}
}

func TestRunAllStopsOnCancelledContext(t *testing.T) {
	r := NewRegistry(time.Second, nil, testLogger())
	d := &stubDetector{category: finding.CategoryGit}
	if err := r.Register(d); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.RunAll(ctx); err == nil {
		t.Error("expected cancellation error")
	}
	if d.calls != 0 {
		t.Errorf("detector ran %d times after cancellation", d.calls)
	}
}
