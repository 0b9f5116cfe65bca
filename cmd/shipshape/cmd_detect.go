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
	"github.com/AleutianAI/Shipshape/services/shipshape/orchestrate"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	detectDisabled []string // categories skipped for this run only
)

// detectCmd reports issues without mutating the workspace.
var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Scan the workspace and report issues without changing anything",
	Long: `Runs every registered detector against the workspace and prints a
report. The workspace is never modified; findings that carry a remedy are
marked fixable in the output.

A run that finds issues still exits 0. The exit code reports whether the
scan itself completed, not whether the tree is clean.`,
	RunE: runDetectCommand,
}

func init() {
	detectCmd.Flags().StringSliceVar(&detectDisabled, "disable", nil,
		"Detector categories to skip (repeatable, e.g. --disable security)")
	rootCmd.AddCommand(detectCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runDetectCommand(cmd *cobra.Command, args []string) error {
	cfg := *app.cfg
	cfg.Detect.Disabled = append(cfg.Detect.Disabled, detectDisabled...)

	detectors, err := detect.DefaultRegistry(app.ws, &cfg, app.logger)
	if err != nil {
		return fmt.Errorf("building detectors: %w", err)
	}
	reporter, err := buildReporter()
	if err != nil {
		return err
	}

	orch, err := orchestrate.New(app.ws, detectors, nil, nil, reporter, app.logger, orchestrate.Options{})
	if err != nil {
		return err
	}
	_, err = orch.Run(cmd.Context())
	return err
}
