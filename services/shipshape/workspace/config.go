// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package workspace

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Sentinel errors for configuration loading.
var (
	// ErrInvalidConfig indicates the config file failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config carries the tunable knobs of a run. All fields have working
// defaults; the file is optional.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Detect    DetectConfig    `yaml:"detect"`
	Fix       FixConfig       `yaml:"fix"`
	Validate  ValidateConfig  `yaml:"validate"`
	Report    ReportConfig    `yaml:"report"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Dir   string `yaml:"dir"`
	JSON  bool   `yaml:"json"`
}

// TelemetryConfig selects the trace exporter.
type TelemetryConfig struct {
	Exporter string `yaml:"exporter" validate:"omitempty,oneof=none stdout"`
}

// DetectConfig bounds the detection phase.
type DetectConfig struct {
	// TimeoutSeconds bounds each external check tool invocation.
	TimeoutSeconds int `yaml:"timeout_seconds" validate:"omitempty,min=1,max=600"`
	// ScanTimeoutSeconds bounds the heavier security scanners.
	ScanTimeoutSeconds int `yaml:"scan_timeout_seconds" validate:"omitempty,min=1,max=1800"`
	// Disabled lists detector categories to skip.
	Disabled []string `yaml:"disabled"`
}

// FixConfig bounds the fixing phase.
type FixConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds" validate:"omitempty,min=1,max=1800"`
}

// ValidateConfig bounds the validation phase and its result cache.
type ValidateConfig struct {
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"omitempty,min=1,max=3600"`
	CacheDir       string `yaml:"cache_dir"`
	CacheTTL       string `yaml:"cache_ttl" validate:"omitempty"`
}

// ReportConfig controls report rendering.
type ReportConfig struct {
	Format string `yaml:"format" validate:"omitempty,oneof=console json sarif"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Logging:   LoggingConfig{Level: "info"},
		Telemetry: TelemetryConfig{Exporter: "none"},
		Detect:    DetectConfig{TimeoutSeconds: 30, ScanTimeoutSeconds: 60},
		Fix:       FixConfig{TimeoutSeconds: 120},
		Validate:  ValidateConfig{TimeoutSeconds: 300, CacheTTL: "1h"},
		Report:    ReportConfig{Format: "console"},
	}
}

// LoadConfig reads and validates a YAML config file, layering it over
// the defaults. A missing file returns the defaults unchanged; a present
// but malformed or invalid file is an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrInvalidConfig, path, err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if cfg.Validate.CacheTTL != "" {
		if _, err := time.ParseDuration(cfg.Validate.CacheTTL); err != nil {
			return nil, fmt.Errorf("%w: validate.cache_ttl: %v", ErrInvalidConfig, err)
		}
	}

	return cfg, nil
}

// DetectTimeout returns the per-tool detection timeout as a duration.
func (c *Config) DetectTimeout() time.Duration {
	return time.Duration(c.Detect.TimeoutSeconds) * time.Second
}

// ScanTimeout returns the security scanner timeout as a duration.
func (c *Config) ScanTimeout() time.Duration {
	return time.Duration(c.Detect.ScanTimeoutSeconds) * time.Second
}

// FixTimeout returns the per-fixer timeout as a duration.
func (c *Config) FixTimeout() time.Duration {
	return time.Duration(c.Fix.TimeoutSeconds) * time.Second
}

// ValidateTimeout returns the per-validator timeout as a duration.
func (c *Config) ValidateTimeout() time.Duration {
	return time.Duration(c.Validate.TimeoutSeconds) * time.Second
}

// CacheTTL returns the validation cache TTL. Defaults to one hour on an
// empty or unparseable value (LoadConfig rejects unparseable values, so
// the fallback only covers hand-built configs).
func (c *Config) CacheTTL() time.Duration {
	d, err := time.ParseDuration(c.Validate.CacheTTL)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}
