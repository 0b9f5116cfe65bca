// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package fix runs the remediation phase: findings are grouped by
// category and dispatched to the fixer owning that category.
//
// Fixers are idempotent. Running a fixer against an already-clean
// workspace changes nothing and reports zero fixes. A fixer error is
// recorded in the outcome and the phase continues with the next
// category; nothing here aborts a run.
package fix

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

// Sentinel errors for the fix package.
var (
	// ErrNilFixer indicates a nil fixer was passed to Register.
	ErrNilFixer = errors.New("nil fixer")
	// ErrCategoryClaimed indicates two fixers claim the same category.
	ErrCategoryClaimed = errors.New("category already claimed by another fixer")
)

// Fixer remediates findings of one or more categories.
//
// Implementations must be idempotent and must never touch parts of the
// workspace outside their categories. The returned count is the number
// of defects actually corrected in this invocation.
type Fixer interface {
	// Categories lists the finding categories this fixer owns.
	Categories() []finding.Category

	// Fix remediates the given findings, all of which belong to this
	// fixer's categories.
	Fix(ctx context.Context, findings []finding.Finding) (int, error)
}

// CategoryError records a fixer failure without aborting the phase.
type CategoryError struct {
	Category finding.Category `json:"category"`
	Err      string           `json:"error"`
}

// Outcome summarizes a remediation pass.
type Outcome struct {
	// FixedCount is the total number of defects corrected.
	FixedCount int `json:"fixed_count"`
	// Attempted is the number of fixable findings dispatched to fixers.
	Attempted int `json:"attempted"`
	// Errors lists fixers that failed, by category.
	Errors []CategoryError `json:"errors,omitempty"`
}

// Failed reports whether any fixer errored.
func (o Outcome) Failed() bool { return len(o.Errors) > 0 }

// Registry maps categories to fixers.
//
// Thread Safety: Not safe for concurrent mutation. Register everything
// up front, then call Apply.
type Registry struct {
	fixers  []Fixer
	byCat   map[finding.Category]Fixer
	timeout time.Duration
	logger  *logging.Logger
}

// NewRegistry creates an empty fixer registry.
func NewRegistry(timeout time.Duration, logger *logging.Logger) *Registry {
	return &Registry{
		byCat:   make(map[finding.Category]Fixer),
		timeout: timeout,
		logger:  logger,
	}
}

// Register adds a fixer and claims its categories.
func (r *Registry) Register(f Fixer) error {
	if f == nil {
		return ErrNilFixer
	}
	for _, cat := range f.Categories() {
		if _, taken := r.byCat[cat]; taken {
			return fmt.Errorf("%w: %s", ErrCategoryClaimed, cat)
		}
	}
	for _, cat := range f.Categories() {
		r.byCat[cat] = f
	}
	r.fixers = append(r.fixers, f)
	return nil
}

// Apply dispatches findings to the fixers owning their categories.
//
// Description:
//
//	Findings are grouped by category; each fixer runs once per owned
//	category that has findings, in fixer registration order, and
//	receives the whole category batch. A fixer never sees another
//	category's findings. Categories with no registered fixer are
//	skipped. Fixer errors are recorded and the pass continues.
//
// Outputs:
//
//	Outcome - Counts and per-category errors for the pass. Attempted
//	counts only the fixable findings in dispatched batches.
func (r *Registry) Apply(ctx context.Context, findings []finding.Finding) Outcome {
	tracer := telemetry.Tracer()

	grouped := make(map[finding.Category][]finding.Finding)
	for _, f := range findings {
		grouped[f.Category] = append(grouped[f.Category], f)
	}

	var outcome Outcome
	for _, fixer := range r.fixers {
		for _, cat := range fixer.Categories() {
			batch := grouped[cat]
			if len(batch) == 0 {
				continue
			}
			for _, f := range batch {
				if f.Fixable {
					outcome.Attempted++
				}
			}

			fctx := ctx
			var cancel context.CancelFunc
			if r.timeout > 0 {
				fctx, cancel = context.WithTimeout(ctx, r.timeout)
			}

			sctx, span := tracer.Start(fctx, "fix."+string(cat))
			fixed, err := r.fixOne(sctx, fixer, batch)
			span.End()
			if cancel != nil {
				cancel()
			}

			if err != nil {
				r.logger.Warn("fixer failed", "category", cat, "error", err)
				outcome.Errors = append(outcome.Errors, CategoryError{
					Category: cat,
					Err:      err.Error(),
				})
				continue
			}
			r.logger.Debug("fixer finished", "category", cat, "fixed", fixed)
			outcome.FixedCount += fixed
		}
	}
	return outcome
}

// fixOne isolates a single fixer invocation, converting panics into
// recorded errors.
func (r *Registry) fixOne(ctx context.Context, f Fixer, batch []finding.Finding) (fixed int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			fixed = 0
			err = fmt.Errorf("fixer panicked: %v", rec)
		}
	}()
	return f.Fix(ctx, batch)
}

// DefaultRegistry wires the standard fixer set against a workspace.
func DefaultRegistry(ws *workspace.Workspace, cfg *workspace.Config, logger *logging.Logger) (*Registry, error) {
	r := NewRegistry(cfg.FixTimeout(), logger)

	fixers := []Fixer{
		NewFormattingFixer(ws, logger),
		NewDependencyFixer(ws, logger),
		NewNPMFixer(ws, logger),
		NewDockerignoreFixer(ws, logger),
		NewComposeFixer(ws, logger),
		NewTriageFixer(logger),
	}
	for _, f := range fixers {
		if err := r.Register(f); err != nil {
			return nil, err
		}
	}
	return r, nil
}
