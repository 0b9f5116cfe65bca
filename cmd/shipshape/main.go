// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command shipshape keeps a project tree in working order: it detects
// hygiene issues, applies safe mechanical fixes, and verifies the tree
// still builds afterwards.
//
// Usage:
//
//	shipshape detect                 # report issues, change nothing
//	shipshape fix                    # detect and apply safe fixes
//	shipshape run --validate         # full pass: detect, fix, verify
//	shipshape validate               # verification only
//	shipshape watch                  # re-detect on file changes
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/Shipshape/pkg/logging"
	"github.com/AleutianAI/Shipshape/pkg/telemetry"
	"github.com/AleutianAI/Shipshape/pkg/ux"
	"github.com/AleutianAI/Shipshape/services/shipshape/report"
	"github.com/AleutianAI/Shipshape/services/shipshape/validate"
	"github.com/AleutianAI/Shipshape/services/shipshape/workspace"
)

// version is stamped by the release build.
var version = "0.3.0"

// =============================================================================
// GLOBAL FLAGS
// =============================================================================

var (
	flagWorkspace string // workspace root override
	flagConfig    string // config file path
	flagLogLevel  string // log level override
	flagJSONLog   bool   // structured log output
	flagNoColor   bool   // disable styled output
	flagFormat    string // report format override
)

// app carries the per-invocation dependencies shared by subcommands.
var app struct {
	ws       *workspace.Workspace
	cfg      *workspace.Config
	logger   *logging.Logger
	shutdown func(context.Context) error
}

var rootCmd = &cobra.Command{
	Use:           "shipshape",
	Short:         "Detect, fix, and validate project hygiene issues",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd.Context())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		teardown(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagWorkspace, "workspace", "C", "",
		"Workspace root (default: $SHIPSHAPE_WORKSPACE, $GITHUB_WORKSPACE, or the current directory)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "",
		"Config file (default: <workspace>/shipshape.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "",
		"Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&flagJSONLog, "json-log", false,
		"Emit logs as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false,
		"Disable styled terminal output")
	rootCmd.PersistentFlags().StringVarP(&flagFormat, "format", "f", "",
		"Report format: console, json, sarif")
}

// setup resolves the workspace, layers configuration, and builds the
// shared logger and tracer.
func setup(ctx context.Context) error {
	ws, err := workspace.Resolve(flagWorkspace)
	if err != nil {
		return err
	}
	app.ws = ws

	configPath := flagConfig
	if configPath == "" {
		configPath = ws.Join("shipshape.yaml")
	}
	cfg, err := workspace.LoadConfig(configPath)
	if err != nil {
		return err
	}
	app.cfg = cfg

	level := cfg.Logging.Level
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	app.logger = logging.New(logging.Config{
		Level:   logging.ParseLevel(level),
		LogDir:  cfg.Logging.Dir,
		Service: "shipshape",
		JSON:    flagJSONLog || cfg.Logging.JSON,
	})

	ws.LoadDotenv(app.logger)

	if flagNoColor {
		ux.SetStyled(false)
	}

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "shipshape",
		ServiceVersion: version,
		Exporter:       cfg.Telemetry.Exporter,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	app.shutdown = shutdown
	return nil
}

// teardown flushes telemetry and the log file.
func teardown(ctx context.Context) {
	if app.shutdown != nil {
		if err := app.shutdown(ctx); err != nil {
			app.logger.Warn("telemetry shutdown degraded", "error", err)
		}
	}
	if app.logger != nil {
		_ = app.logger.Close()
	}
}

// buildReporter maps the configured format to a reporter. SARIF and
// JSON imply machine consumption, so they bypass terminal styling.
func buildReporter() (report.Reporter, error) {
	format := app.cfg.Report.Format
	if flagFormat != "" {
		format = flagFormat
	}
	switch format {
	case "", "console":
		return report.NewConsoleReporter(), nil
	case "json":
		return report.NewJSONReporter(), nil
	case "sarif":
		return report.NewSARIFReporter(version), nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// buildChain assembles the validation chain with its result cache. A
// cache that fails to open degrades to uncached validation.
func buildChain() (*validate.Chain, func()) {
	cacheDir := app.cfg.Validate.CacheDir
	if cacheDir == "" {
		cacheDir = app.ws.Join(".shipshape", "validation")
	}

	cache, err := validate.OpenResultCache(cacheDir, app.cfg.CacheTTL(), app.logger)
	if err != nil {
		app.logger.Warn("validation cache unavailable", "dir", cacheDir, "error", err)
		cache = nil
	}

	chain := validate.NewChain(
		validate.DefaultValidators(app.ws),
		cache,
		app.cfg.ValidateTimeout(),
		app.logger,
	)
	closer := func() {
		if cache != nil {
			if err := cache.Close(); err != nil {
				app.logger.Warn("validation cache close degraded", "error", err)
			}
		}
	}
	return chain, closer
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "shipshape: %v\n", err)
		os.Exit(1)
	}
}
