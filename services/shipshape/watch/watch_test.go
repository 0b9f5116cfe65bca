// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AleutianAI/Shipshape/pkg/logging"
	"github.com/AleutianAI/Shipshape/services/shipshape/workspace"
)

func testLogger() *logging.Logger {
	return logging.New(logging.Config{Level: logging.LevelError, Quiet: true})
}

func TestWatcherTriggersOnChange(t *testing.T) {
	dir := t.TempDir()
	ws := &workspace.Workspace{Root: dir}

	var triggers atomic.Int64
	w, err := New(ws, 100*time.Millisecond, func(ctx context.Context) {
		triggers.Add(1)
	}, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Start(ctx)
	}()

	// Give the watcher time to register the tree.
	time.Sleep(200 * time.Millisecond)

	// A burst of writes should coalesce into one trigger.
	for i := 0; i < 3; i++ {
		path := filepath.Join(dir, "file.txt")
		if err := os.WriteFile(path, []byte{byte('a' + i)}, 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	deadline := time.After(3 * time.Second)
	for triggers.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("trigger never fired")
		case <-time.After(50 * time.Millisecond):
		}
	}

	// Quiet period: no further triggers without further events.
	time.Sleep(400 * time.Millisecond)
	if got := triggers.Load(); got != 1 {
		t.Errorf("triggers = %d, want 1 (burst coalesced)", got)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancellation")
	}
}

func TestWatcherIgnoresExcludedDirs(t *testing.T) {
	dir := t.TempDir()
	ws := &workspace.Workspace{Root: dir}
	w, err := New(ws, 0, func(ctx context.Context) {}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer w.watcher.Close()

	if w.debounce != DefaultDebounce {
		t.Errorf("debounce = %v, want default", w.debounce)
	}

	cases := map[string]bool{
		filepath.Join(dir, "main.go"):                     false,
		filepath.Join(dir, ".git", "HEAD"):                true,
		filepath.Join(dir, "node_modules", "x", "y.js"):   true,
		filepath.Join(dir, "src", "__pycache__", "m.pyc"): true,
		filepath.Join(dir, "src", "app.py"):               false,
	}
	for path, want := range cases {
		if got := w.ignored(path); got != want {
			t.Errorf("ignored(%s) = %v, want %v", path, got, want)
		}
	}
}
