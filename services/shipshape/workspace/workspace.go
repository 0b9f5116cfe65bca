// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package workspace resolves and inspects the project tree a run
// operates on.
//
// Everything downstream (detectors, fixers, validators) receives a
// *Workspace instead of touching the filesystem root directly: ecosystem
// marker probes live here so each step can short-circuit cleanly when an
// ecosystem is absent.
package workspace

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/AleutianAI/Shipshape/pkg/logging"
)

// Sentinel errors for the workspace package.
var (
	// ErrNotADirectory indicates the resolved root is not a directory.
	ErrNotADirectory = errors.New("workspace root is not a directory")
)

// skipDirs are tree entries never walked during source listing or
// digesting: third-party trees, caches, VCS internals.
var skipDirs = map[string]bool{
	".git":          true,
	"node_modules":  true,
	"vendor":        true,
	".venv":         true,
	"venv":          true,
	"__pycache__":   true,
	".pytest_cache": true,
	"dist":          true,
	"build":         true,
	".shipshape":    true,
}

// Workspace is the single mutable shared resource of a run.
//
// Thread Safety: Safe for concurrent reads. The pipeline mutates the
// underlying tree strictly sequentially within one run; concurrent runs
// against the same root are unsupported.
type Workspace struct {
	// Root is the absolute workspace root.
	Root string
}

// Resolve determines the workspace root for a run.
//
// Description:
//
//	Precedence: the explicit override (usually the --workspace flag),
//	then SHIPSHAPE_WORKSPACE, then GITHUB_WORKSPACE (the tool's original
//	CI home), then the current directory. The result must exist and be
//	a directory.
//
// Inputs:
//
//	override - Explicit root, may be empty.
//
// Outputs:
//
//	*Workspace - Resolved workspace with absolute Root.
//	error - Non-nil when the root does not exist or is not a directory.
func Resolve(override string) (*Workspace, error) {
	root := override
	if root == "" {
		root = os.Getenv("SHIPSHAPE_WORKSPACE")
	}
	if root == "" {
		root = os.Getenv("GITHUB_WORKSPACE")
	}
	if root == "" {
		root = "."
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace root: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("workspace root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotADirectory, abs)
	}

	return &Workspace{Root: abs}, nil
}

// LoadDotenv loads a .env file from the workspace root into the process
// environment, if present. Absence is not an error; existing environment
// variables win.
func (w *Workspace) LoadDotenv(logger *logging.Logger) {
	path := w.Join(".env")
	if err := godotenv.Load(path); err == nil {
		logger.Debug("loaded environment overrides", "path", path)
	}
}

// Join resolves a workspace-relative path.
func (w *Workspace) Join(parts ...string) string {
	return filepath.Join(append([]string{w.Root}, parts...)...)
}

// Rel converts an absolute path under the root to a workspace-relative
// one. Paths outside the root are returned unchanged.
func (w *Workspace) Rel(path string) string {
	rel, err := filepath.Rel(w.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// HasFile reports whether a workspace-relative file exists.
func (w *Workspace) HasFile(name string) bool {
	info, err := os.Stat(w.Join(name))
	return err == nil && !info.IsDir()
}

// =============================================================================
// ECOSYSTEM MARKERS
// =============================================================================

// HasGo reports whether the workspace contains a Go module.
func (w *Workspace) HasGo() bool { return w.HasFile("go.mod") }

// HasNode reports whether the workspace contains a Node project.
func (w *Workspace) HasNode() bool { return w.HasFile("package.json") }

// HasDockerfile reports whether the workspace contains a Dockerfile.
func (w *Workspace) HasDockerfile() bool { return w.HasFile("Dockerfile") }

// IsGitRepo reports whether the workspace is a git repository.
func (w *Workspace) IsGitRepo() bool {
	info, err := os.Stat(w.Join(".git"))
	return err == nil && info.IsDir()
}

// HasPython reports whether the workspace contains a Python project:
// a requirements file, pyproject.toml, or any .py source.
func (w *Workspace) HasPython() bool {
	if w.HasFile("pyproject.toml") {
		return true
	}
	if len(w.RequirementsFiles()) > 0 {
		return true
	}
	files, _ := w.SourceFiles(".py", 1)
	return len(files) > 0
}

// RequirementsFiles returns workspace-relative requirements*.txt paths.
func (w *Workspace) RequirementsFiles() []string {
	matches, err := filepath.Glob(w.Join("requirements*.txt"))
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, w.Rel(m))
	}
	sort.Strings(out)
	return out
}

// ComposeFile returns the workspace-relative compose manifest path, or
// "" when none exists. Checks the common spellings in order.
func (w *Workspace) ComposeFile() string {
	for _, name := range []string{"docker-compose.yml", "docker-compose.yaml", "compose.yml", "compose.yaml"} {
		if w.HasFile(name) {
			return name
		}
	}
	return ""
}

// =============================================================================
// TREE WALKS
// =============================================================================

// SourceFiles walks the tree for files with the given extension,
// skipping dependency and cache directories. limit 0 means unlimited.
func (w *Workspace) SourceFiles(ext string, limit int) ([]string, error) {
	var files []string
	err := filepath.WalkDir(w.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == ext {
			files = append(files, w.Rel(path))
			if limit > 0 && len(files) >= limit {
				return filepath.SkipAll
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Digest fingerprints the workspace tree for validation caching.
//
// Description:
//
//	Hashes relative path, size, and mtime of every non-skipped file.
//	Cheap compared to hashing contents, and any edit that matters to a
//	validator changes at least one of those. Not a security boundary.
//
// Outputs:
//
//	string - Hex SHA-256 of the tree manifest.
//	error - Non-nil only when the walk itself fails.
func (w *Workspace) Digest() (string, error) {
	type entry struct {
		path  string
		size  int64
		mtime int64
	}
	var entries []entry

	err := filepath.WalkDir(w.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		entries = append(entries, entry{
			path:  w.Rel(path),
			size:  info.Size(),
			mtime: info.ModTime().UnixNano(),
		})
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("digesting workspace: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].path < entries[j].path })

	h := sha256.New()
	for _, e := range entries {
		fmt.Fprintf(h, "%s\x00%d\x00%d\n", e.path, e.size, e.mtime)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
