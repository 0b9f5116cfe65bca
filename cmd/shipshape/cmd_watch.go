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
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/Shipshape/pkg/ux"
	"github.com/AleutianAI/Shipshape/services/shipshape/detect"
	"github.com/AleutianAI/Shipshape/services/shipshape/orchestrate"
	"github.com/AleutianAI/Shipshape/services/shipshape/watch"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	watchDebounce time.Duration // quiet period before a rescan
	watchDisabled []string      // categories skipped while watching
)

// watchCmd re-runs detection whenever the workspace changes.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the workspace and re-run detection on changes",
	Long: `Watches the workspace tree and runs a detection pass after each
burst of file changes settles. The workspace is never modified; use the
fix or run commands to apply remedies.

Stops on Ctrl-C.`,
	RunE: runWatchCommand,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce,
		"Quiet period after the last change before rescanning")
	watchCmd.Flags().StringSliceVar(&watchDisabled, "disable", nil,
		"Detector categories to skip (repeatable)")
	rootCmd.AddCommand(watchCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runWatchCommand(cmd *cobra.Command, args []string) error {
	cfg := *app.cfg
	cfg.Detect.Disabled = append(cfg.Detect.Disabled, watchDisabled...)

	reporter, err := buildReporter()
	if err != nil {
		return err
	}

	// Each pass gets a fresh orchestrator; a run is single-use.
	trigger := func(ctx context.Context) {
		detectors, err := detect.DefaultRegistry(app.ws, &cfg, app.logger)
		if err != nil {
			app.logger.Error("building detectors", "error", err)
			return
		}
		orch, err := orchestrate.New(app.ws, detectors, nil, nil, reporter, app.logger, orchestrate.Options{})
		if err != nil {
			app.logger.Error("building orchestrator", "error", err)
			return
		}
		if _, err := orch.Run(ctx); err != nil {
			app.logger.Error("detection pass failed", "error", err)
		}
	}

	watcher, err := watch.New(app.ws, watchDebounce, trigger, app.logger)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ux.Info(fmt.Sprintf("watching %s (debounce %s)", app.ws.Root, watchDebounce))
	trigger(ctx)
	if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
