// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package fix

import (
	"context"

	"github.com/AleutianAI/Shipshape/pkg/logging"
	"github.com/AleutianAI/Shipshape/services/shipshape/finding"
)

// TriageFixer owns the security category. Security findings are never
// auto-applied; exposed secrets need rotation, not deletion, and code
// weaknesses need a human decision. The fixer surfaces each finding for
// manual action and always reports zero fixes.
type TriageFixer struct {
	logger *logging.Logger
}

// NewTriageFixer creates the security triage fixer.
func NewTriageFixer(logger *logging.Logger) *TriageFixer {
	return &TriageFixer{logger: logger}
}

// Categories implements Fixer.
func (f *TriageFixer) Categories() []finding.Category {
	return []finding.Category{finding.CategorySecurity}
}

// Fix logs every security finding for manual review and applies nothing.
func (f *TriageFixer) Fix(ctx context.Context, findings []finding.Finding) (int, error) {
	for _, fd := range findings {
		f.logger.Warn("security finding requires manual action",
			"severity", fd.Severity,
			"path", fd.Path,
			"line", fd.Line,
			"message", fd.Message,
		)
	}
	return 0, nil
}
