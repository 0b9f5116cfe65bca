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
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/Shipshape/pkg/logging"
	"github.com/AleutianAI/Shipshape/services/shipshape/finding"
	"github.com/AleutianAI/Shipshape/services/shipshape/workspace"
)

// ComposeDetector checks compose manifests for missing healthchecks,
// missing resource limits, and hardcoded credentials.
type ComposeDetector struct {
	ws     *workspace.Workspace
	logger *logging.Logger
}

// NewComposeDetector creates a compose manifest detector.
func NewComposeDetector(ws *workspace.Workspace, logger *logging.Logger) *ComposeDetector {
	return &ComposeDetector{ws: ws, logger: logger}
}

// Category implements Detector.
func (d *ComposeDetector) Category() finding.Category {
	return finding.CategoryCompose
}

// composeService carries the service-level fields the checks consume.
// Environment is typed loosely because compose accepts both map and
// list forms.
type composeService struct {
	Image       string         `yaml:"image"`
	Healthcheck map[string]any `yaml:"healthcheck"`
	Environment any            `yaml:"environment"`
	Deploy      struct {
		Resources struct {
			Limits map[string]any `yaml:"limits"`
		} `yaml:"resources"`
	} `yaml:"deploy"`
}

type composeManifest struct {
	Services map[string]composeService `yaml:"services"`
}

// Detect parses the compose manifest and checks every service.
//
// Missing healthchecks are fixable: a conservative default probe can be
// injected mechanically. Only services that declare an image are
// checked for one; a build-only service has no runnable image to probe.
// Hardcoded passwords are reported at high
// severity and never fixed automatically, because replacing a literal
// credential with a variable reference silently breaks deployments that
// never defined the variable.
func (d *ComposeDetector) Detect(ctx context.Context) ([]finding.Finding, error) {
	rel := d.ws.ComposeFile()
	if rel == "" {
		return nil, nil
	}

	data, err := os.ReadFile(d.ws.Join(rel))
	if err != nil {
		d.logger.Warn("compose manifest unreadable", "path", rel, "error", err)
		return nil, nil
	}

	var manifest composeManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		d.logger.Warn("compose manifest not parseable", "path", rel, "error", err)
		return nil, nil
	}

	names := make([]string, 0, len(manifest.Services))
	for name := range manifest.Services {
		names = append(names, name)
	}
	sort.Strings(names)

	var findings []finding.Finding
	add := func(f finding.Finding) {
		built, err := finding.New(f)
		if err != nil {
			return
		}
		findings = append(findings, built)
	}

	for _, name := range names {
		svc := manifest.Services[name]

		if strings.TrimSpace(svc.Image) != "" && len(svc.Healthcheck) == 0 {
			add(finding.Finding{
				Category: finding.CategoryCompose,
				Severity: finding.SeverityMedium,
				Path:     rel,
				Message:  fmt.Sprintf("service %q has no healthcheck", name),
				Fixable:  true,
				Remedy:   fmt.Sprintf("inject default healthcheck into service %q", name),
			})
		}

		if len(svc.Deploy.Resources.Limits) == 0 {
			add(finding.Finding{
				Category: finding.CategoryCompose,
				Severity: finding.SeverityLow,
				Path:     rel,
				Message:  fmt.Sprintf("service %q has no resource limits", name),
			})
		}

		for _, key := range hardcodedPasswordKeys(svc.Environment) {
			add(finding.Finding{
				Category: finding.CategoryCompose,
				Severity: finding.SeverityHigh,
				Path:     rel,
				Message:  fmt.Sprintf("service %q hardcodes credential %s", name, key),
			})
		}
	}

	return findings, nil
}

// hardcodedPasswordKeys extracts environment keys carrying literal
// password values. Variable references (${VAR}) are fine; literals are
// not. Handles both the map and the KEY=VALUE list form.
func hardcodedPasswordKeys(env any) []string {
	pairs := map[string]string{}
	switch v := env.(type) {
	case map[string]any:
		for key, val := range v {
			pairs[key] = fmt.Sprint(val)
		}
	case []any:
		for _, item := range v {
			entry, ok := item.(string)
			if !ok {
				continue
			}
			key, val, found := strings.Cut(entry, "=")
			if found {
				pairs[key] = val
			}
		}
	}

	var keys []string
	for key, val := range pairs {
		if !isPasswordKey(key) {
			continue
		}
		val = strings.TrimSpace(val)
		if val == "" || strings.HasPrefix(val, "${") {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// isPasswordKey matches the credential keys the check covers.
func isPasswordKey(key string) bool {
	switch key {
	case "MYSQL_ROOT_PASSWORD", "POSTGRES_PASSWORD":
		return true
	}
	return strings.Contains(strings.ToLower(key), "password")
}
