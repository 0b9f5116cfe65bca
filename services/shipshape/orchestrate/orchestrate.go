// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package orchestrate drives a run through its phases: detect, fix,
// validate, summarize.
//
// The pipeline moves strictly forward. Fixes are not re-detected in the
// same run; a second run confirms convergence. Unfixed findings never
// fail a run, only an orchestration breakdown does.
package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AleutianAI/Shipshape/pkg/logging"
	"github.com/AleutianAI/Shipshape/pkg/telemetry"
	"github.com/AleutianAI/Shipshape/services/shipshape/detect"
	"github.com/AleutianAI/Shipshape/services/shipshape/finding"
	"github.com/AleutianAI/Shipshape/services/shipshape/fix"
	"github.com/AleutianAI/Shipshape/services/shipshape/report"
	"github.com/AleutianAI/Shipshape/services/shipshape/validate"
	"github.com/AleutianAI/Shipshape/services/shipshape/workspace"
)

// Sentinel errors for the orchestrate package.
var (
	// ErrNilDependency indicates a required collaborator was nil.
	ErrNilDependency = errors.New("nil orchestrator dependency")
	// ErrAlreadyRan indicates Run was called twice on one orchestrator.
	ErrAlreadyRan = errors.New("orchestrator already ran")
)

// State names the phase an orchestrator is in. Transitions only move
// forward; a fresh orchestrator is needed for every run.
type State string

const (
	StateIdle        State = "IDLE"
	StateDetecting   State = "DETECTING"
	StateReporting   State = "REPORTING"
	StateNoIssues    State = "NO_ISSUES"
	StateFixing      State = "FIXING"
	StateValidating  State = "VALIDATING"
	StateSummarizing State = "SUMMARIZING"
	StateDone        State = "DONE"
)

// Options selects which phases a run executes beyond detection.
type Options struct {
	// ApplyFixes enables the fixing phase.
	ApplyFixes bool
	// RunValidation enables the validation phase.
	RunValidation bool
}

// Orchestrator coordinates one run.
//
// Thread Safety: Not safe for concurrent use. One orchestrator, one
// Run, one goroutine.
type Orchestrator struct {
	ws         *workspace.Workspace
	detectors  *detect.Registry
	fixers     *fix.Registry
	validators *validate.Chain
	reporter   report.Reporter
	logger     *logging.Logger
	opts       Options

	state State
	ran   bool
}

// New creates an orchestrator.
//
// Inputs:
//
//	ws, detectors, reporter, logger - Required.
//	fixers - Required when opts.ApplyFixes.
//	validators - Required when opts.RunValidation.
func New(
	ws *workspace.Workspace,
	detectors *detect.Registry,
	fixers *fix.Registry,
	validators *validate.Chain,
	reporter report.Reporter,
	logger *logging.Logger,
	opts Options,
) (*Orchestrator, error) {
	if ws == nil || detectors == nil || reporter == nil || logger == nil {
		return nil, ErrNilDependency
	}
	if opts.ApplyFixes && fixers == nil {
		return nil, fmt.Errorf("%w: fixers", ErrNilDependency)
	}
	if opts.RunValidation && validators == nil {
		return nil, fmt.Errorf("%w: validators", ErrNilDependency)
	}
	return &Orchestrator{
		ws:         ws,
		detectors:  detectors,
		fixers:     fixers,
		validators: validators,
		reporter:   reporter,
		logger:     logger,
		opts:       opts,
		state:      StateIdle,
	}, nil
}

// State returns the current phase.
func (o *Orchestrator) State() State { return o.state }

// Run executes one full pass.
//
// Description:
//
//	Detection always runs. A clean workspace short-circuits to the
//	summary; fixing never runs with zero findings, so a clean tree is
//	never mutated. When fixes are enabled the detection report is
//	rendered before the fixing phase begins, then the full summary is
//	rendered at the end. Tool failures inside phases degrade and are already
//	absorbed by the phase packages; the error here is reserved for
//	orchestration breakdowns (cancelled context, reporter failure).
//
// Outputs:
//
//	*report.RunResult - The run's complete result, also rendered
//	through the configured reporter.
//	error - Non-nil only on orchestration failure.
func (o *Orchestrator) Run(ctx context.Context) (*report.RunResult, error) {
	if o.ran {
		return nil, ErrAlreadyRan
	}
	o.ran = true

	tracer := telemetry.Tracer()
	ctx, runSpan := tracer.Start(ctx, "shipshape.run")
	defer runSpan.End()

	rep := finding.NewReport()
	result := &report.RunResult{
		RunID:     rep.RunID,
		Workspace: o.ws.Root,
		StartedAt: rep.StartedAt,
		Findings:  rep,
	}
	logger := o.logger.With("run_id", result.RunID)
	logger.Info("run started", "workspace", o.ws.Root)

	// Detection.
	o.state = StateDetecting
	findings, err := o.detectors.RunAll(ctx)
	if err != nil {
		o.state = StateDone
		return nil, fmt.Errorf("detection phase: %w", err)
	}
	rep.Add(findings...)

	if rep.Empty() {
		o.state = StateNoIssues
		logger.Info("no issues detected")
	} else {
		o.state = StateReporting
		logger.Info("detection finished", "findings", rep.Len(), "fixable", len(rep.Fixable()))

		if o.opts.ApplyFixes {
			// Findings render before any fixer touches the workspace;
			// the final summary below carries the fix outcome.
			preview := *result
			preview.FinishedAt = time.Now()
			if err := o.reporter.Report(&preview); err != nil {
				o.state = StateDone
				return result, fmt.Errorf("rendering findings report: %w", err)
			}

			o.state = StateFixing
			outcome := o.fixers.Apply(ctx, rep.Findings)
			result.Fixes = &outcome
			result.Changes = report.CollectChanges(ctx, o.ws, logger)
			logger.Info("fixing finished",
				"fixed", outcome.FixedCount,
				"attempted", outcome.Attempted,
				"errors", len(outcome.Errors),
			)
		}
	}

	if o.opts.RunValidation {
		o.state = StateValidating
		digest, err := o.ws.Digest()
		if err != nil {
			logger.Warn("workspace digest unavailable, validation cache disabled", "error", err)
			digest = ""
		}
		vr := o.validators.Run(ctx, digest)
		result.Validation = &vr
		logger.Info("validation finished", "passed", vr.AllPassed(), "validators", len(vr.Records))
	}

	// Summary.
	o.state = StateSummarizing
	result.FinishedAt = time.Now()
	if err := o.reporter.Report(result); err != nil {
		o.state = StateDone
		return result, fmt.Errorf("rendering report: %w", err)
	}

	o.state = StateDone
	logger.Info("run finished", "duration", result.Duration().String())
	return result, nil
}
