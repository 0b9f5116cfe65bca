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
	"os"
	"testing"

	"github.com/AleutianAI/Shipshape/pkg/exec"
	"github.com/AleutianAI/Shipshape/services/shipshape/finding"
)

func TestFormattingFixerGofmtIdempotent(t *testing.T) {
	if !exec.BinaryExists("gofmt") {
		t.Skip("gofmt not installed")
	}

	ws := tempWS(t, t.TempDir())
	writeWS(t, ws, "main.go", "package main\n\nfunc main()   {}\n")

	fd, err := finding.New(finding.Finding{
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

	f := NewFormattingFixer(ws, testLogger())
	fixed, err := f.Fix(context.Background(), []finding.Finding{fd})
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if fixed != 1 {
		t.Errorf("first pass fixed = %d, want 1", fixed)
	}
	data, err := os.ReadFile(ws.Join("main.go"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "package main\n\nfunc main() {}\n" {
		t.Errorf("file not reformatted: %q", data)
	}

	// Same batch again on the now-clean file counts nothing.
	fixed, err = f.Fix(context.Background(), []finding.Finding{fd})
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if fixed != 0 {
		t.Errorf("second pass fixed = %d, want 0", fixed)
	}
}
