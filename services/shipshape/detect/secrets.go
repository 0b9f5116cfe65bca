// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package detect

import (
	"math"
	"regexp"
	"strings"

	"github.com/AleutianAI/Shipshape/services/shipshape/finding"
)

// secretPattern describes one class of hardcoded credential.
type secretPattern struct {
	name       string
	pattern    string
	minEntropy float64
	severity   finding.Severity
	message    string
}

// secretPatterns returns the built-in credential signatures. Entropy
// thresholds filter placeholder strings like "your-api-key-here".
func secretPatterns() []secretPattern {
	return []secretPattern{
		{
			name:       "aws-access-key",
			pattern:    `AKIA[0-9A-Z]{16}`,
			minEntropy: 3.0,
			severity:   finding.SeverityCritical,
			message:    "AWS access key ID detected",
		},
		{
			name:       "stripe-live-key",
			pattern:    `sk_live_[0-9a-zA-Z]{24,}`,
			minEntropy: 4.0,
			severity:   finding.SeverityCritical,
			message:    "Stripe live API key detected",
		},
		{
			name:       "github-token",
			pattern:    `gh[pousr]_[A-Za-z0-9_]{36,}`,
			minEntropy: 4.0,
			severity:   finding.SeverityHigh,
			message:    "GitHub token detected",
		},
		{
			name:       "private-key-block",
			pattern:    `-----BEGIN (RSA |EC |PGP |OPENSSH )?PRIVATE KEY( BLOCK)?-----`,
			minEntropy: 0, // header match is sufficient
			severity:   finding.SeverityCritical,
			message:    "private key material detected",
		},
		{
			name:       "generic-api-key",
			pattern:    `(?i)(api[_-]?key|apikey)['":\s]*['"]?([a-zA-Z0-9_-]{20,})['"]?`,
			minEntropy: 3.5,
			severity:   finding.SeverityHigh,
			message:    "hardcoded API key detected",
		},
		{
			name:       "password-assignment",
			pattern:    `(?i)password\s*[:=]\s*['"][^'"]{8,}['"]`,
			minEntropy: 2.5,
			severity:   finding.SeverityHigh,
			message:    "hardcoded password detected",
		},
	}
}

// secretScanner scans source lines for credential signatures, using
// Shannon entropy to discard low-randomness placeholders.
type secretScanner struct {
	patterns []compiledSecretPattern
}

type compiledSecretPattern struct {
	secretPattern
	regex *regexp.Regexp
}

func newSecretScanner() *secretScanner {
	s := &secretScanner{}
	for _, p := range secretPatterns() {
		// Patterns are static literals; a failure here is a programmer
		// error caught by the package tests.
		s.patterns = append(s.patterns, compiledSecretPattern{
			secretPattern: p,
			regex:         regexp.MustCompile(p.pattern),
		})
	}
	return s
}

// scan inspects one file's content and returns security findings with
// workspace-relative paths and one-based line numbers.
func (s *secretScanner) scan(content []byte, relPath string) []finding.Finding {
	if isAllowlistedPath(relPath) {
		return nil
	}

	var findings []finding.Finding
	for lineNum, line := range strings.Split(string(content), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isCommentLine(trimmed) {
			continue
		}
		for _, p := range s.patterns {
			for _, match := range p.regex.FindAllString(line, -1) {
				if p.minEntropy > 0 && shannonEntropy(extractSecretValue(match)) < p.minEntropy {
					continue
				}
				f, err := finding.New(finding.Finding{
					Category: finding.CategorySecurity,
					Severity: p.severity,
					Path:     relPath,
					Line:     lineNum + 1,
					Message:  p.message + " (" + p.name + ")",
				})
				if err != nil {
					continue
				}
				findings = append(findings, f)
			}
		}
	}
	return findings
}

// isAllowlistedPath skips locations where credential-shaped strings are
// expected: tests, fixtures, mocks, examples.
func isAllowlistedPath(path string) bool {
	lower := strings.ToLower(path)
	return strings.Contains(lower, "test") ||
		strings.Contains(lower, "fixture") ||
		strings.Contains(lower, "mock") ||
		strings.Contains(lower, "example")
}

// isCommentLine reports whether a trimmed line is a comment in any of
// the scanned languages.
func isCommentLine(line string) bool {
	return strings.HasPrefix(line, "//") ||
		strings.HasPrefix(line, "#") ||
		strings.HasPrefix(line, "/*") ||
		strings.HasPrefix(line, "*") ||
		strings.HasPrefix(line, "'''") ||
		strings.HasPrefix(line, `"""`)
}

// shannonEntropy measures string randomness in bits per character.
func shannonEntropy(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	freq := make(map[rune]int)
	for _, r := range s {
		freq[r]++
	}
	var entropy float64
	length := float64(len(s))
	for _, count := range freq {
		p := float64(count) / length
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// extractSecretValue strips the key and quoting from a matched
// assignment, leaving the candidate secret for entropy analysis.
func extractSecretValue(match string) string {
	for _, sep := range []string{"=", ":", " "} {
		if idx := strings.Index(match, sep); idx > 0 {
			return strings.Trim(strings.TrimSpace(match[idx+1:]), `"'`)
		}
	}
	return match
}
