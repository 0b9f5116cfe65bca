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
	"strings"

	"github.com/AleutianAI/Shipshape/pkg/logging"
	"github.com/AleutianAI/Shipshape/services/shipshape/finding"
	"github.com/AleutianAI/Shipshape/services/shipshape/workspace"
)

// DockerDetector checks Dockerfile hygiene and the presence of a
// .dockerignore.
type DockerDetector struct {
	ws     *workspace.Workspace
	logger *logging.Logger
}

// NewDockerDetector creates a Dockerfile hygiene detector.
func NewDockerDetector(ws *workspace.Workspace, logger *logging.Logger) *DockerDetector {
	return &DockerDetector{ws: ws, logger: logger}
}

// Category implements Detector.
func (d *DockerDetector) Category() finding.Category {
	return finding.CategoryDocker
}

// Detect inspects the Dockerfile line by line. Only the missing
// .dockerignore is fixable; the image-level defects need a human to
// pick the replacement.
func (d *DockerDetector) Detect(ctx context.Context) ([]finding.Finding, error) {
	if !d.ws.HasDockerfile() {
		return nil, nil
	}

	data, err := os.ReadFile(d.ws.Join("Dockerfile"))
	if err != nil {
		d.logger.Warn("Dockerfile unreadable", "error", err)
		return nil, nil
	}

	var findings []finding.Finding
	add := func(f finding.Finding) {
		built, err := finding.New(f)
		if err != nil {
			return
		}
		findings = append(findings, built)
	}

	hasUser := false
	for i, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		upper := strings.ToUpper(line)
		lineNo := i + 1

		switch {
		case strings.HasPrefix(upper, "FROM "):
			fields := strings.Fields(line)
			if len(fields) < 2 {
				continue
			}
			image := fields[1]
			if strings.HasSuffix(image, ":latest") || !strings.Contains(image, ":") {
				add(finding.Finding{
					Category: finding.CategoryDocker,
					Severity: finding.SeverityMedium,
					Path:     "Dockerfile",
					Line:     lineNo,
					Message:  "base image " + image + " is unpinned; builds are not reproducible",
				})
			}
		case strings.HasPrefix(upper, "USER "):
			hasUser = true
		case strings.HasPrefix(upper, "ADD "):
			add(finding.Finding{
				Category: finding.CategoryDocker,
				Severity: finding.SeverityLow,
				Path:     "Dockerfile",
				Line:     lineNo,
				Message:  "ADD used where COPY suffices",
			})
		}
	}

	if !hasUser {
		add(finding.Finding{
			Category: finding.CategoryDocker,
			Severity: finding.SeverityMedium,
			Path:     "Dockerfile",
			Message:  "no USER instruction; container runs as root",
		})
	}

	if !d.ws.HasFile(".dockerignore") {
		add(finding.Finding{
			Category: finding.CategoryDocker,
			Severity: finding.SeverityLow,
			Path:     ".dockerignore",
			Message:  ".dockerignore is missing; build context includes VCS and cache directories",
			Fixable:  true,
			Remedy:   "create .dockerignore with the standard exclusion set",
		})
	}

	return findings, nil
}
