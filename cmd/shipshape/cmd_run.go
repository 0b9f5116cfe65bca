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
	"github.com/AleutianAI/Shipshape/services/shipshape/validate"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	runValidate bool     // run the validation chain after fixing
	runDisabled []string // categories skipped for this run only
)

// runCmd executes the full pipeline.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: detect, fix, and optionally validate",
	Long: `Executes one complete remediation pass. Detection always runs;
fixing runs when detection found anything; with --validate the workspace is
verified afterwards (build, tests) and results are cached against a digest
of the tree so unchanged workspaces skip re-verification.

Exit code 1 means the pipeline itself broke (cancellation, report failure).
Findings, fixer errors, and failed validation are reported, not fatal.`,
	RunE: runRunCommand,
}

func init() {
	runCmd.Flags().BoolVar(&runValidate, "validate", false,
		"Run the validation chain after fixing")
	runCmd.Flags().StringSliceVar(&runDisabled, "disable", nil,
		"Detector categories to skip (repeatable)")
	rootCmd.AddCommand(runCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runRunCommand(cmd *cobra.Command, args []string) error {
	cfg := *app.cfg
	cfg.Detect.Disabled = append(cfg.Detect.Disabled, runDisabled...)

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

	var chain *validate.Chain
	if runValidate {
		var closeCache func()
		chain, closeCache = buildChain()
		defer closeCache()
	}

	orch, err := orchestrate.New(app.ws, detectors, fixers, chain, reporter, app.logger,
		orchestrate.Options{ApplyFixes: true, RunValidation: runValidate})
	if err != nil {
		return err
	}
	_, err = orch.Run(cmd.Context())
	return err
}
