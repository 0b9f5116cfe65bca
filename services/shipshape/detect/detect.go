// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package detect runs the detection phase: each registered detector
// inspects one concern of the workspace and reports findings.
//
// The phase is best-effort throughout. A detector whose underlying tool
// is missing, times out, or produces output it cannot parse contributes
// zero findings; it never aborts the phase or the run.
package detect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AleutianAI/Shipshape/pkg/logging"
	"github.com/AleutianAI/Shipshape/pkg/telemetry"
	"github.com/AleutianAI/Shipshape/services/shipshape/finding"
	"github.com/AleutianAI/Shipshape/services/shipshape/workspace"
)

// Sentinel errors for the detect package.
var (
	// ErrNilDetector indicates a nil detector was passed to Register.
	ErrNilDetector = errors.New("nil detector")
	// ErrDuplicateCategory indicates two detectors claim the same category.
	ErrDuplicateCategory = errors.New("duplicate detector category")
)

// Detector inspects one concern of the workspace.
//
// Implementations must degrade instead of failing hard: absence of the
// checked ecosystem or of an external tool yields (nil, nil), not an
// error. A returned error means the detector itself broke; the registry
// logs it and moves on.
type Detector interface {
	// Category identifies the concern this detector covers.
	Category() finding.Category

	// Detect inspects the workspace and returns its findings.
	Detect(ctx context.Context) ([]finding.Finding, error)
}

// Registry holds detectors in registration order.
//
// Thread Safety: Not safe for concurrent mutation. Register everything
// up front, then call RunAll.
type Registry struct {
	detectors []Detector
	disabled  map[string]bool
	timeout   time.Duration
	logger    *logging.Logger
}

// NewRegistry creates an empty detector registry.
//
// Inputs:
//
//	timeout - Per-detector wall clock bound. Zero disables the bound.
//	disabled - Category names to skip at run time.
//	logger - Destination for degrade events. Must not be nil.
func NewRegistry(timeout time.Duration, disabled []string, logger *logging.Logger) *Registry {
	d := make(map[string]bool, len(disabled))
	for _, name := range disabled {
		d[name] = true
	}
	return &Registry{disabled: d, timeout: timeout, logger: logger}
}

// Register appends a detector. Order of registration is order of
// execution and of report grouping.
func (r *Registry) Register(d Detector) error {
	if d == nil {
		return ErrNilDetector
	}
	for _, existing := range r.detectors {
		if existing.Category() == d.Category() {
			return fmt.Errorf("%w: %s", ErrDuplicateCategory, d.Category())
		}
	}
	r.detectors = append(r.detectors, d)
	return nil
}

// Detectors returns the registered detectors in execution order.
func (r *Registry) Detectors() []Detector {
	return r.detectors
}

// RunAll executes every registered detector sequentially.
//
// Description:
//
//	Each detector gets its own deadline-bounded context. Errors and
//	panics are logged and swallowed; the detector simply contributes
//	no findings. Only context cancellation of the parent stops the
//	phase early.
//
// Outputs:
//
//	[]finding.Finding - All findings, in detector registration order.
//	error - Non-nil only when ctx itself was cancelled.
func (r *Registry) RunAll(ctx context.Context) ([]finding.Finding, error) {
	tracer := telemetry.Tracer()

	var all []finding.Finding
	for _, d := range r.detectors {
		if err := ctx.Err(); err != nil {
			return all, fmt.Errorf("detection cancelled: %w", err)
		}
		cat := d.Category()
		if r.disabled[string(cat)] {
			r.logger.Debug("detector disabled", "category", cat)
			continue
		}

		dctx := ctx
		var cancel context.CancelFunc
		if r.timeout > 0 {
			dctx, cancel = context.WithTimeout(ctx, r.timeout)
		}

		sctx, span := tracer.Start(dctx, "detect."+string(cat))
		start := time.Now()
		findings := r.runOne(sctx, d)
		span.End()
		if cancel != nil {
			cancel()
		}

		r.logger.Debug("detector finished",
			"category", cat,
			"findings", len(findings),
			"duration", time.Since(start).String(),
		)
		all = append(all, findings...)
	}
	return all, nil
}

// runOne isolates a single detector invocation, converting panics into
// logged degrade events.
func (r *Registry) runOne(ctx context.Context, d Detector) (findings []finding.Finding) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("detector panicked",
				"category", d.Category(),
				"panic", fmt.Sprint(rec),
			)
			findings = nil
		}
	}()

	findings, err := d.Detect(ctx)
	if err != nil {
		r.logger.Warn("detector degraded",
			"category", d.Category(),
			"error", err,
		)
		return nil
	}
	return findings
}

// DefaultRegistry wires the standard detector set against a workspace.
func DefaultRegistry(ws *workspace.Workspace, cfg *workspace.Config, logger *logging.Logger) (*Registry, error) {
	// The registry ceiling must clear the slowest detector; the security
	// scanners carry the largest budget. Quick tool invocations are
	// individually bounded inside each detector.
	ceiling := cfg.DetectTimeout()
	if cfg.ScanTimeout() > ceiling {
		ceiling = cfg.ScanTimeout()
	}
	r := NewRegistry(ceiling, cfg.Detect.Disabled, logger)

	detectors := []Detector{
		NewFormattingDetector(ws, logger),
		NewLintDetector(ws, logger),
		NewSecurityDetector(ws, cfg.ScanTimeout(), logger),
		NewDependencyDetector(ws, logger),
		NewNPMDetector(ws, logger),
		NewDockerDetector(ws, logger),
		NewComposeDetector(ws, logger),
		NewGitDetector(ws, logger),
	}
	for _, d := range detectors {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}
