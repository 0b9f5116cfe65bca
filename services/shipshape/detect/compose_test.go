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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AleutianAI/Shipshape/services/shipshape/finding"
	"github.com/AleutianAI/Shipshape/services/shipshape/workspace"
)

func tempWorkspace(t *testing.T, files map[string]string) *workspace.Workspace {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return &workspace.Workspace{Root: dir}
}

func TestComposeDetectorNoManifest(t *testing.T) {
	d := NewComposeDetector(tempWorkspace(t, nil), testLogger())
	findings, err := d.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("findings = %v, want none", findings)
	}
}

func TestComposeDetectorFlagsMissingHealthcheckAndPassword(t *testing.T) {
	manifest := `
services:
  db:
    image: mysql:8
    environment:
      MYSQL_ROOT_PASSWORD: supersecret123
  web:
    image: nginx:1.25
    healthcheck:
      test: ["CMD", "curl", "-f", "http://localhost/"]
    deploy:
      resources:
        limits:
          cpus: "0.5"
`
	ws := tempWorkspace(t, map[string]string{"docker-compose.yml": manifest})
	d := NewComposeDetector(ws, testLogger())

	findings, err := d.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}

	var healthcheck, password, limits int
	for _, f := range findings {
		switch {
		case strings.Contains(f.Message, "no healthcheck"):
			healthcheck++
			if !f.Fixable {
				t.Error("missing healthcheck should be fixable")
			}
		case strings.Contains(f.Message, "hardcodes credential"):
			password++
			if f.Fixable {
				t.Error("hardcoded credential must not be fixable")
			}
			if f.Severity != finding.SeverityHigh {
				t.Errorf("credential severity = %s, want high", f.Severity)
			}
			if !strings.Contains(f.Message, "MYSQL_ROOT_PASSWORD") {
				t.Errorf("credential message = %q", f.Message)
			}
		case strings.Contains(f.Message, "no resource limits"):
			limits++
		}
	}
	if healthcheck != 1 {
		t.Errorf("healthcheck findings = %d, want 1 (db only)", healthcheck)
	}
	if password != 1 {
		t.Errorf("credential findings = %d, want 1", password)
	}
	if limits != 1 {
		t.Errorf("resource limit findings = %d, want 1 (db only)", limits)
	}
}

func TestComposeDetectorSkipsBuildOnlyServices(t *testing.T) {
	manifest := `
services:
  worker:
    build: .
  api:
    image: myapp:1.0
`
	ws := tempWorkspace(t, map[string]string{"docker-compose.yml": manifest})
	d := NewComposeDetector(ws, testLogger())

	findings, err := d.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	for _, f := range findings {
		if strings.Contains(f.Message, `"worker"`) && strings.Contains(f.Message, "no healthcheck") {
			t.Errorf("build-only service flagged for healthcheck: %v", f)
		}
	}
	var healthcheck int
	for _, f := range findings {
		if strings.Contains(f.Message, "no healthcheck") {
			healthcheck++
		}
	}
	if healthcheck != 1 {
		t.Errorf("healthcheck findings = %d, want 1 (api only)", healthcheck)
	}
}

func TestComposeDetectorIgnoresVariableReferences(t *testing.T) {
	manifest := `
services:
  db:
    image: postgres:16
    healthcheck:
      test: ["CMD", "pg_isready"]
    environment:
      - POSTGRES_PASSWORD=${DB_PASSWORD}
`
	ws := tempWorkspace(t, map[string]string{"compose.yaml": manifest})
	d := NewComposeDetector(ws, testLogger())

	findings, err := d.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	for _, f := range findings {
		if strings.Contains(f.Message, "hardcodes credential") {
			t.Errorf("variable reference flagged as credential: %v", f)
		}
	}
}

func TestComposeDetectorMalformedYAMLDegrades(t *testing.T) {
	ws := tempWorkspace(t, map[string]string{"docker-compose.yml": "services: [broken\n"})
	d := NewComposeDetector(ws, testLogger())

	findings, err := d.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect should degrade, got error: %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("findings = %v, want none", findings)
	}
}

func TestHardcodedPasswordKeysListForm(t *testing.T) {
	env := []any{
		"MYSQL_ROOT_PASSWORD=literal",
		"APP_PASSWORD=hunter22",
		"DB_HOST=db",
		"POSTGRES_PASSWORD=${SAFE}",
	}
	keys := hardcodedPasswordKeys(env)
	if len(keys) != 2 || keys[0] != "APP_PASSWORD" || keys[1] != "MYSQL_ROOT_PASSWORD" {
		t.Errorf("keys = %v, want [APP_PASSWORD MYSQL_ROOT_PASSWORD]", keys)
	}
}
