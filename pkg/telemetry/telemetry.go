// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry initializes OpenTelemetry tracing for the pipeline.
//
// A remediation run is short-lived, so the only exporters offered are
// "stdout" (pretty-printed spans for debugging a run) and "none". The
// orchestrator opens one span per pipeline phase; when tracing is off the
// no-op provider keeps that code path free.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Sentinel errors for the telemetry package.
var (
	// ErrNilContext is returned when a nil context is passed.
	ErrNilContext = errors.New("context must not be nil")

	// ErrUnknownExporter is returned for an unrecognized exporter type.
	ErrUnknownExporter = errors.New("unknown exporter type")
)

// Config controls tracing behavior.
type Config struct {
	// ServiceName identifies this binary in spans.
	ServiceName string `yaml:"service_name"`

	// ServiceVersion is the version string for this binary.
	ServiceVersion string `yaml:"service_version"`

	// Exporter selects the trace exporter: "stdout" or "none".
	Exporter string `yaml:"exporter"`
}

// DefaultConfig returns defaults for CLI use. OTEL_TRACES_EXPORTER
// overrides the exporter selection.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "shipshape",
		ServiceVersion: "1.0.0",
		Exporter:       getEnvOr("OTEL_TRACES_EXPORTER", "none"),
	}
}

// Init initializes the tracer provider for the process.
//
// Description:
//
//	Sets up an OpenTelemetry TracerProvider per the configuration and
//	registers it globally, so otel.Tracer() works everywhere afterward.
//	With Exporter "none" a no-op provider is installed and the returned
//	shutdown is trivial.
//
// Inputs:
//
//	ctx - Context for initialization. Must not be nil.
//	cfg - Tracing configuration. Use DefaultConfig() for defaults.
//
// Outputs:
//
//	shutdown - Cleanup to call on exit. Always non-nil on success.
//	error - Non-nil on nil context or unknown exporter.
//
// Thread Safety: Call once at process startup.
func Init(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	switch cfg.Exporter {
	case "", "none":
		otel.SetTracerProvider(noop.NewTracerProvider())
		return func(context.Context) error { return nil }, nil
	case "stdout":
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("creating stdout exporter: %w", err)
		}
		res := resource.NewWithAttributes(
			"",
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", cfg.ServiceVersion),
		)
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(tp)
		return tp.Shutdown, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExporter, cfg.Exporter)
	}
}

// Tracer returns the pipeline tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer("github.com/AleutianAI/Shipshape")
}

func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
