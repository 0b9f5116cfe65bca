// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package exec runs external analysis and remediation tools with bounded
// execution.
//
// Every pipeline step that shells out (formatters, linters, scanners,
// package managers, docker, git) goes through Run. The contract matters
// for the degrade-on-failure policy upstream: a non-zero exit code is NOT
// an error here - callers inspect Result.ExitCode and decide. Only failure
// to execute at all (binary missing, permission denied, timeout) returns
// an error, each mapped to a sentinel so the caller can match on it.
package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// Sentinel errors for the exec package.
var (
	// ErrInvalidInput indicates invalid input to Run.
	ErrInvalidInput = errors.New("invalid input")

	// ErrToolNotInstalled indicates the binary was not found in PATH.
	ErrToolNotInstalled = errors.New("tool not installed")

	// ErrToolTimeout indicates the tool exceeded its configured timeout.
	ErrToolTimeout = errors.New("tool timeout")

	// ErrToolFailed indicates the tool process failed to start or was
	// killed for a reason other than timeout.
	ErrToolFailed = errors.New("tool execution failed")
)

// DefaultTimeout bounds a tool invocation when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Config describes one external tool invocation.
type Config struct {
	// Command is the binary name or path (required).
	Command string

	// Args are the command-line arguments.
	Args []string

	// WorkDir is the working directory. Empty means inherit.
	WorkDir string

	// Env is the environment in "KEY=value" form. Nil means inherit.
	Env []string

	// Timeout bounds the invocation. Zero defers to the context's
	// deadline, falling back to DefaultTimeout when the context has
	// none.
	Timeout time.Duration
}

// Result is the outcome of one tool invocation.
//
// Thread Safety: Immutable after Run returns.
type Result struct {
	// Stdout is the captured standard output.
	Stdout string

	// Stderr is the captured standard error.
	Stderr string

	// ExitCode is the process exit code. Zero means success.
	ExitCode int

	// Duration is the wall-clock execution time.
	Duration time.Duration
}

// Combined returns stdout and stderr concatenated.
//
// Some tools report diagnostics on either stream; the coarse lint
// contract matches against both.
func (r *Result) Combined() string {
	return r.Stdout + r.Stderr
}

// Run executes one external tool invocation.
//
// Description:
//
//	Runs the configured command under a context bounded by
//	Config.Timeout, the caller's deadline, or DefaultTimeout, in that
//	order of preference, capturing stdout and stderr. A non-zero exit
//	code is returned in the Result, not as an error: most analysis
//	tools signal "issues found" that way and the caller owns that
//	interpretation.
//
// Inputs:
//
//	ctx - Context for cancellation. Must not be nil.
//	cfg - The invocation. Command must not be empty.
//
// Outputs:
//
//	*Result - Captured output, exit code, duration. Non-nil whenever the
//	          process ran, including on timeout (partial output kept).
//	error - ErrToolNotInstalled, ErrToolTimeout, or ErrToolFailed wrapped
//	        with context; nil when the process ran to completion.
//
// Thread Safety: Safe for concurrent use.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: ctx must not be nil", ErrInvalidInput)
	}
	if cfg.Command == "" {
		return nil, fmt.Errorf("%w: command must not be empty", ErrInvalidInput)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		if _, bounded := ctx.Deadline(); !bounded {
			timeout = DefaultTimeout
		}
	}
	cmdCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(cmdCtx, cfg.Command, cfg.Args...)
	if cfg.WorkDir != "" {
		cmd.Dir = cfg.WorkDir
	}
	if cfg.Env != nil {
		cmd.Env = cfg.Env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()

	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		if cmdCtx.Err() == context.DeadlineExceeded {
			return result, fmt.Errorf("%w: %s after %v", ErrToolTimeout, cfg.Command, timeout)
		}
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// Tool ran and exited non-zero. Not an error at this layer.
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}

		var execErr *exec.Error
		if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
			return result, fmt.Errorf("%w: %s", ErrToolNotInstalled, cfg.Command)
		}

		return result, fmt.Errorf("%w: %s: %v", ErrToolFailed, cfg.Command, err)
	}

	return result, nil
}

// BinaryExists reports whether a binary is resolvable in PATH.
//
// Detectors and validators probe availability before invoking a tool so
// absence degrades to "no findings" / "not available" instead of a
// mid-step failure.
func BinaryExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// BinaryPath resolves a binary in PATH.
func BinaryPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrToolNotInstalled, name)
	}
	return path, nil
}
