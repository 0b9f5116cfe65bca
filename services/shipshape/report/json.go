// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// JSONReporter writes the full run result as indented JSON, one
// document per run.
type JSONReporter struct {
	w io.Writer
}

// NewJSONReporter creates a JSON reporter writing to stdout.
func NewJSONReporter() *JSONReporter {
	return &JSONReporter{w: os.Stdout}
}

// NewJSONReporterTo creates a JSON reporter writing to w.
func NewJSONReporterTo(w io.Writer) *JSONReporter {
	return &JSONReporter{w: w}
}

// Report implements Reporter.
func (j *JSONReporter) Report(result *RunResult) error {
	if result == nil {
		return ErrNilResult
	}
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encoding run result: %w", err)
	}
	return nil
}
