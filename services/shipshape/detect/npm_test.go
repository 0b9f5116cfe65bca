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
	"strings"
	"testing"

	"github.com/AleutianAI/Shipshape/services/shipshape/finding"
)

func TestParseNPMOutdatedFoldsIntoOneFinding(t *testing.T) {
	stdout := `{
		"express": {"current": "4.17.1", "wanted": "4.18.2", "latest": "4.18.2"},
		"lodash": {"current": "4.17.20", "wanted": "4.17.21", "latest": "4.17.21"},
		"axios": {"current": "0.21.0", "wanted": "0.21.4", "latest": "1.6.0"}
	}`

	f, ok := parseNPMOutdated(stdout, testLogger())
	if !ok {
		t.Fatal("expected a finding for outdated packages")
	}
	if f.Category != finding.CategoryNPMDependencies {
		t.Errorf("Category = %q, want %q", f.Category, finding.CategoryNPMDependencies)
	}
	if !f.Fixable {
		t.Error("finding should be fixable")
	}
	if f.Remedy != "run npm update" {
		t.Errorf("Remedy = %q, want %q", f.Remedy, "run npm update")
	}
	if f.Path != "package.json" {
		t.Errorf("Path = %q, want package.json", f.Path)
	}
	if !strings.HasPrefix(f.Message, "3 npm package(s) outdated") {
		t.Errorf("Message = %q, want 3-package summary", f.Message)
	}
	// Names are sorted, so the message is stable across runs.
	if !strings.Contains(f.Message, "axios 0.21.0 (wanted 0.21.4, latest 1.6.0)") {
		t.Errorf("Message = %q, missing axios entry", f.Message)
	}
	if strings.Index(f.Message, "axios") > strings.Index(f.Message, "express") {
		t.Errorf("Message = %q, entries not sorted", f.Message)
	}
}

func TestParseNPMOutdatedEmptyObject(t *testing.T) {
	if _, ok := parseNPMOutdated("{}", testLogger()); ok {
		t.Error("empty object should produce no finding")
	}
	if _, ok := parseNPMOutdated("", testLogger()); ok {
		t.Error("empty output should produce no finding")
	}
}

func TestParseNPMOutdatedMalformedDegrades(t *testing.T) {
	if _, ok := parseNPMOutdated("npm ERR! not json", testLogger()); ok {
		t.Error("malformed output should degrade to no finding")
	}
}
