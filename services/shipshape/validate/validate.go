// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validate runs the verification phase: after fixes land, each
// ecosystem's own build or test entry point confirms the workspace
// still works.
//
// The chain never short-circuits. Every validator runs regardless of
// earlier failures, so one report shows the full blast radius of a bad
// fix instead of just its first casualty.
package validate

import (
	"context"
	"fmt"
	"time"

	"github.com/AleutianAI/Shipshape/pkg/logging"
	"github.com/AleutianAI/Shipshape/pkg/telemetry"
)

// Record is the outcome of one validator.
type Record struct {
	// Name identifies the validator.
	Name string `json:"name"`
	// Passed is false only when the validated ecosystem is broken.
	// Absent ecosystems and missing tools pass with an explanatory
	// message.
	Passed bool `json:"passed"`
	// Message explains the outcome.
	Message string `json:"message"`
	// Duration is the validator's wall clock time.
	Duration time.Duration `json:"duration_ns"`
	// Cached marks a record served from the result cache.
	Cached bool `json:"cached,omitempty"`
}

// Report is the outcome of a full validation pass.
type Report struct {
	Records []Record `json:"records"`
}

// AllPassed reports whether every validator passed.
func (r Report) AllPassed() bool {
	for _, rec := range r.Records {
		if !rec.Passed {
			return false
		}
	}
	return true
}

// Failed returns the records of failed validators.
func (r Report) Failed() []Record {
	var out []Record
	for _, rec := range r.Records {
		if !rec.Passed {
			out = append(out, rec)
		}
	}
	return out
}

// Validator verifies one ecosystem of the workspace.
//
// Implementations pass with a message when their ecosystem or tooling
// is absent; only a genuinely broken workspace fails.
type Validator interface {
	// Name identifies the validator in records and cache keys.
	Name() string

	// Validate checks the workspace.
	Validate(ctx context.Context) (passed bool, message string)
}

// Chain runs validators in order, collecting one record each.
//
// Thread Safety: Not safe for concurrent use. Build, then run once.
type Chain struct {
	validators []Validator
	cache      *ResultCache
	timeout    time.Duration
	logger     *logging.Logger
}

// NewChain creates a validation chain. cache may be nil to disable
// result caching.
func NewChain(validators []Validator, cache *ResultCache, timeout time.Duration, logger *logging.Logger) *Chain {
	return &Chain{
		validators: validators,
		cache:      cache,
		timeout:    timeout,
		logger:     logger,
	}
}

// Run executes every validator and returns the combined report.
//
// Description:
//
//	A validator panic produces a failed record and the chain moves on.
//	When a cache is configured, digest identifies the workspace state;
//	hits skip the validator entirely and misses populate the cache on
//	pass or fail alike.
func (c *Chain) Run(ctx context.Context, digest string) Report {
	tracer := telemetry.Tracer()

	var report Report
	for _, v := range c.validators {
		if c.cache != nil && digest != "" {
			if rec, ok := c.cache.Get(digest, v.Name()); ok {
				rec.Cached = true
				c.logger.Debug("validation served from cache", "validator", v.Name())
				report.Records = append(report.Records, rec)
				continue
			}
		}

		vctx := ctx
		var cancel context.CancelFunc
		if c.timeout > 0 {
			vctx, cancel = context.WithTimeout(ctx, c.timeout)
		}

		sctx, span := tracer.Start(vctx, "validate."+v.Name())
		rec := c.runOne(sctx, v)
		span.End()
		if cancel != nil {
			cancel()
		}

		if !rec.Passed {
			c.logger.Warn("validation failed", "validator", rec.Name, "message", rec.Message)
		}
		if c.cache != nil && digest != "" {
			c.cache.Put(digest, rec)
		}
		report.Records = append(report.Records, rec)
	}
	return report
}

// runOne isolates a single validator, converting panics into failed
// records.
func (c *Chain) runOne(ctx context.Context, v Validator) (rec Record) {
	start := time.Now()
	defer func() {
		rec.Duration = time.Since(start)
		if r := recover(); r != nil {
			rec = Record{
				Name:     v.Name(),
				Passed:   false,
				Message:  fmt.Sprintf("validator panicked: %v", r),
				Duration: time.Since(start),
			}
		}
	}()

	passed, message := v.Validate(ctx)
	rec = Record{Name: v.Name(), Passed: passed, Message: message}
	return rec
}
