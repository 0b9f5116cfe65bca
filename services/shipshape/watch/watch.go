// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package watch re-runs detection when the workspace changes on disk.
package watch

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/AleutianAI/Shipshape/pkg/logging"
	"github.com/AleutianAI/Shipshape/services/shipshape/workspace"
)

// DefaultDebounce coalesces editor save bursts into one trigger.
const DefaultDebounce = 2 * time.Second

// skipDirs mirrors the workspace walk exclusions; watching node_modules
// or .git churn would trigger constant re-detection.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
	".shipshape":   true,
}

// Watcher debounces filesystem events into detection triggers.
//
// Thread Safety: Start may only be called once. The trigger callback
// runs on the watcher goroutine; triggers never overlap.
type Watcher struct {
	ws       *workspace.Workspace
	debounce time.Duration
	trigger  func(ctx context.Context)
	watcher  *fsnotify.Watcher
	logger   *logging.Logger
}

// New creates a workspace watcher.
//
// Inputs:
//
//	ws - Workspace to watch.
//	debounce - Quiet period before a trigger fires. Zero selects
//	DefaultDebounce.
//	trigger - Invoked after each debounced change burst.
func New(ws *workspace.Workspace, debounce time.Duration, trigger func(ctx context.Context), logger *logging.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		ws:       ws,
		debounce: debounce,
		trigger:  trigger,
		watcher:  fsw,
		logger:   logger,
	}, nil
}

// Start watches the workspace tree and blocks until ctx is cancelled.
//
// Description:
//
//	Registers every non-excluded directory, then loops on events. Each
//	event restarts the debounce timer; the trigger fires once the tree
//	has been quiet for the debounce window. Newly created directories
//	are added to the watch set as they appear.
func (w *Watcher) Start(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.addTree(w.ws.Root); err != nil {
		return err
	}
	w.logger.Info("watching workspace", "root", w.ws.Root, "debounce", w.debounce.String())

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.ignored(event.Name) {
				continue
			}
			if event.Op.Has(fsnotify.Create) {
				// New directories need explicit registration.
				if err := w.addTree(event.Name); err != nil {
					w.logger.Debug("watch add degraded", "path", event.Name, "error", err)
				}
			}
			w.logger.Debug("workspace changed", "path", w.ws.Rel(event.Name), "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.trigger(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher degraded", "error", err)
		}
	}
}

// addTree registers a directory and its non-excluded descendants.
// Files are covered by their parent directory's watch.
func (w *Watcher) addTree(root string) error {
	info, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	return filepath.WalkDir(info, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if skipDirs[d.Name()] {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Debug("watch add degraded", "path", path, "error", err)
		}
		return nil
	})
}

// ignored filters events under excluded directories.
func (w *Watcher) ignored(path string) bool {
	rel := w.ws.Rel(path)
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if skipDirs[part] {
			return true
		}
	}
	return false
}
