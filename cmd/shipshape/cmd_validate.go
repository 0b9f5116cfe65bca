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
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/Shipshape/services/shipshape/finding"
	"github.com/AleutianAI/Shipshape/services/shipshape/report"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	validateNoCache bool // force re-verification even for an unchanged tree
)

// validateCmd runs the verification chain without detection or fixing.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Verify the workspace builds and its tests pass",
	Long: `Runs the validation chain alone: builds present ecosystems and runs
their test suites. Ecosystems that are not present in the workspace pass
with a note rather than failing.

Results are cached against a digest of the workspace, so an unchanged tree
returns cached verdicts. Use --no-cache to force re-verification.`,
	RunE: runValidateCommand,
}

func init() {
	validateCmd.Flags().BoolVar(&validateNoCache, "no-cache", false,
		"Skip the result cache and re-run every validator")
	rootCmd.AddCommand(validateCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runValidateCommand(cmd *cobra.Command, args []string) error {
	chain, closeCache := buildChain()
	defer closeCache()

	// An empty digest disables cache lookups for this run.
	digest := ""
	if !validateNoCache {
		d, err := app.ws.Digest()
		if err != nil {
			app.logger.Warn("workspace digest unavailable, validation cache disabled", "error", err)
		} else {
			digest = d
		}
	}

	rep := finding.NewReport()
	vr := chain.Run(cmd.Context(), digest)

	reporter, err := buildReporter()
	if err != nil {
		return err
	}
	return reporter.Report(&report.RunResult{
		RunID:      rep.RunID,
		Workspace:  app.ws.Root,
		StartedAt:  rep.StartedAt,
		FinishedAt: time.Now(),
		Findings:   rep,
		Validation: &vr,
	})
}
