// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AleutianAI/Shipshape/pkg/exec"
	"github.com/AleutianAI/Shipshape/services/shipshape/workspace"
)

// pytestNoTestsExit is pytest's exit code when collection finds no
// tests. An untested project is not a broken project.
const pytestNoTestsExit = 5

// GoValidator confirms the Go module still builds.
type GoValidator struct {
	ws *workspace.Workspace
}

// NewGoValidator creates a Go build validator.
func NewGoValidator(ws *workspace.Workspace) *GoValidator { return &GoValidator{ws: ws} }

// Name implements Validator.
func (v *GoValidator) Name() string { return "go-build" }

// Validate runs `go build ./...`.
func (v *GoValidator) Validate(ctx context.Context) (bool, string) {
	if !v.ws.HasGo() {
		return true, "go module not present"
	}
	return runCheck(ctx, v.ws, "go", "build", "./...")
}

// PythonValidator confirms the Python test suite still passes.
type PythonValidator struct {
	ws *workspace.Workspace
}

// NewPythonValidator creates a pytest validator.
func NewPythonValidator(ws *workspace.Workspace) *PythonValidator {
	return &PythonValidator{ws: ws}
}

// Name implements Validator.
func (v *PythonValidator) Name() string { return "pytest" }

// Validate runs pytest. Exit code 5 (no tests collected) passes.
func (v *PythonValidator) Validate(ctx context.Context) (bool, string) {
	if !v.ws.HasPython() {
		return true, "python project not present"
	}

	res, err := exec.Run(ctx, exec.Config{
		Command: "pytest",
		Args:    []string{"-q", "--color=no"},
		WorkDir: v.ws.Root,
	})
	if err != nil {
		return degradeToPass("pytest", err)
	}
	switch res.ExitCode {
	case 0:
		return true, "pytest passed"
	case pytestNoTestsExit:
		return true, "no tests collected"
	default:
		return false, excerpt(fmt.Sprintf("pytest exited %d: %s", res.ExitCode, res.Combined()))
	}
}

// GoTestValidator confirms the Go test suite still passes.
type GoTestValidator struct {
	ws *workspace.Workspace
}

// NewGoTestValidator creates a Go test validator.
func NewGoTestValidator(ws *workspace.Workspace) *GoTestValidator {
	return &GoTestValidator{ws: ws}
}

// Name implements Validator.
func (v *GoTestValidator) Name() string { return "go-test" }

// Validate runs `go test ./...`.
func (v *GoTestValidator) Validate(ctx context.Context) (bool, string) {
	if !v.ws.HasGo() {
		return true, "go module not present"
	}
	return runCheck(ctx, v.ws, "go", "test", "./...")
}

// NodeValidator confirms the Node test script still passes.
type NodeValidator struct {
	ws *workspace.Workspace
}

// NewNodeValidator creates an npm test validator.
func NewNodeValidator(ws *workspace.Workspace) *NodeValidator { return &NodeValidator{ws: ws} }

// Name implements Validator.
func (v *NodeValidator) Name() string { return "npm-test" }

// Validate runs `npm test` when a test script is configured.
func (v *NodeValidator) Validate(ctx context.Context) (bool, string) {
	if !v.ws.HasNode() {
		return true, "node project not present"
	}
	return runCheck(ctx, v.ws, "npm", "test", "--silent")
}

// DockerValidator confirms the Dockerfile still builds.
type DockerValidator struct {
	ws *workspace.Workspace
}

// NewDockerValidator creates a docker build validator.
func NewDockerValidator(ws *workspace.Workspace) *DockerValidator {
	return &DockerValidator{ws: ws}
}

// Name implements Validator.
func (v *DockerValidator) Name() string { return "docker-build" }

// Validate builds the image without tagging it.
func (v *DockerValidator) Validate(ctx context.Context) (bool, string) {
	if !v.ws.HasDockerfile() {
		return true, "dockerfile not present"
	}
	return runCheck(ctx, v.ws, "docker", "build", "--quiet", ".")
}

// ComposeValidator confirms the compose manifest still parses.
type ComposeValidator struct {
	ws *workspace.Workspace
}

// NewComposeValidator creates a compose syntax validator.
func NewComposeValidator(ws *workspace.Workspace) *ComposeValidator {
	return &ComposeValidator{ws: ws}
}

// Name implements Validator.
func (v *ComposeValidator) Name() string { return "compose-config" }

// Validate runs `docker compose config --quiet` against the manifest.
func (v *ComposeValidator) Validate(ctx context.Context) (bool, string) {
	manifest := v.ws.ComposeFile()
	if manifest == "" {
		return true, "compose manifest not present"
	}
	return runCheck(ctx, v.ws, "docker", "compose", "-f", manifest, "config", "--quiet")
}

// DefaultValidators returns the standard chain order.
func DefaultValidators(ws *workspace.Workspace) []Validator {
	return []Validator{
		NewGoValidator(ws),
		NewGoTestValidator(ws),
		NewPythonValidator(ws),
		NewNodeValidator(ws),
		NewDockerValidator(ws),
		NewComposeValidator(ws),
	}
}

// runCheck executes one validation command with the shared pass/fail
// classification: zero exit passes, non-zero fails with an output
// excerpt, and a missing tool passes with a message.
func runCheck(ctx context.Context, ws *workspace.Workspace, command string, args ...string) (bool, string) {
	res, err := exec.Run(ctx, exec.Config{
		Command: command,
		Args:    args,
		WorkDir: ws.Root,
	})
	if err != nil {
		return degradeToPass(command, err)
	}
	if res.ExitCode != 0 {
		return false, excerpt(fmt.Sprintf("%s exited %d: %s", command, res.ExitCode, res.Combined()))
	}
	return true, command + " passed"
}

// degradeToPass classifies runner errors. Missing tooling passes with
// an explanation; a timeout is a real failure because it hides whether
// the workspace works.
func degradeToPass(tool string, err error) (bool, string) {
	if errors.Is(err, exec.ErrToolNotInstalled) {
		return true, tool + " not available"
	}
	if errors.Is(err, exec.ErrToolTimeout) {
		return false, tool + " timed out"
	}
	return false, fmt.Sprintf("%s failed to run: %v", tool, err)
}

// excerpt caps validator messages so a chatty build log does not bloat
// records or the cache.
func excerpt(s string) string {
	const limit = 1000
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return s[:limit] + " [truncated]"
}
