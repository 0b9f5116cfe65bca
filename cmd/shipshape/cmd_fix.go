// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/Shipshape/services/shipshape/detect"
	"github.com/AleutianAI/Shipshape/services/shipshape/fix"
	"github.com/AleutianAI/Shipshape/services/shipshape/orchestrate"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	fixDisabled []string // categories skipped for this run only
)

// fixCmd detects issues and applies the safe mechanical fixes.
var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Detect issues and apply safe fixes",
	Long: `Runs detection, then applies fixers to every fixable finding. Only
mechanical remedies are applied (formatters, dependency upgrades, generated
config); findings without a safe remedy are reported but left alone.

A clean workspace is never touched: when detection finds nothing, the
fixing phase is skipped entirely. Individual fixer failures are recorded
in the report and do not abort the run.`,
	RunE: runFixCommand,
}

func init() {
	fixCmd.Flags().StringSliceVar(&fixDisabled, "disable", nil,
		"Detector categories to skip (repeatable, e.g. --disable docker)")
	rootCmd.AddCommand(fixCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runFixCommand(cmd *cobra.Command, args []string) error {
	cfg := *app.cfg
	cfg.Detect.Disabled = append(cfg.Detect.Disabled, fixDisabled...)

	detectors, err := detect.DefaultRegistry(app.ws, &cfg, app.logger)
	if err != nil {
		return fmt.Errorf("building detectors: %w", err)
	}
	fixers, err := fix.DefaultRegistry(app.ws, &cfg, app.logger)
	if err != nil {
		return fmt.Errorf("building fixers: %w", err)
	}
	reporter, err := buildReporter()
	if err != nil {
		return err
	}

	orch, err := orchestrate.New(app.ws, detectors, fixers, nil, reporter, app.logger,
		orchestrate.Options{ApplyFixes: true})
	if err != nil {
		return err
	}
	_, err = orch.Run(cmd.Context())
	return err
}
