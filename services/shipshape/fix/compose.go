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
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/Shipshape/pkg/logging"
	"github.com/AleutianAI/Shipshape/services/shipshape/finding"
	"github.com/AleutianAI/Shipshape/services/shipshape/workspace"
)

// defaultHealthcheck is the conservative probe injected into services
// that define none. The shell form tolerates images without curl in
// PATH returning a clean failure instead of a docker error.
type healthcheckSpec struct {
	Test        []string `yaml:"test"`
	Interval    string   `yaml:"interval"`
	Timeout     string   `yaml:"timeout"`
	Retries     int      `yaml:"retries"`
	StartPeriod string   `yaml:"start_period"`
}

func defaultHealthcheck() healthcheckSpec {
	return healthcheckSpec{
		Test:        []string{"CMD-SHELL", "curl -f http://localhost/ || exit 1"},
		Interval:    "30s",
		Timeout:     "10s",
		Retries:     3,
		StartPeriod: "40s",
	}
}

// ComposeFixer injects default healthchecks into compose services that
// declare an image and lack one. Build-only services have no runnable
// image to probe and are never touched. The manifest is edited through
// the YAML node tree so key order and comments survive the round trip.
// Services that already define a healthcheck are left alone, which
// makes the fixer idempotent.
type ComposeFixer struct {
	ws     *workspace.Workspace
	logger *logging.Logger
}

// NewComposeFixer creates a compose healthcheck fixer.
func NewComposeFixer(ws *workspace.Workspace, logger *logging.Logger) *ComposeFixer {
	return &ComposeFixer{ws: ws, logger: logger}
}

// Categories implements Fixer.
func (f *ComposeFixer) Categories() []finding.Category {
	return []finding.Category{finding.CategoryCompose}
}

// Fix rewrites the compose manifest with healthchecks injected.
func (f *ComposeFixer) Fix(ctx context.Context, findings []finding.Finding) (int, error) {
	rel := f.ws.ComposeFile()
	if rel == "" {
		return 0, nil
	}
	path := f.ws.Join(rel)

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", rel, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("parsing %s: %w", rel, err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return 0, fmt.Errorf("parsing %s: document is not a mapping", rel)
	}

	services := mappingValue(doc.Content[0], "services")
	if services == nil || services.Kind != yaml.MappingNode {
		return 0, nil
	}

	injected := 0
	for i := 0; i+1 < len(services.Content); i += 2 {
		name := services.Content[i].Value
		svc := services.Content[i+1]
		if svc.Kind != yaml.MappingNode {
			continue
		}
		image := mappingValue(svc, "image")
		if image == nil || strings.TrimSpace(image.Value) == "" {
			continue
		}
		if mappingValue(svc, "healthcheck") != nil {
			continue
		}

		var hc yaml.Node
		if err := hc.Encode(defaultHealthcheck()); err != nil {
			return injected, fmt.Errorf("encoding healthcheck: %w", err)
		}
		svc.Content = append(svc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "healthcheck"},
			&hc,
		)
		f.logger.Debug("injected healthcheck", "service", name)
		injected++
	}

	if injected == 0 {
		return 0, nil
	}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return 0, fmt.Errorf("serializing %s: %w", rel, err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return 0, fmt.Errorf("writing %s: %w", rel, err)
	}
	return injected, nil
}

// mappingValue returns the value node for a key in a YAML mapping, or
// nil when the key is absent.
func mappingValue(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}
