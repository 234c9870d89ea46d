/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// Package telemetry configures OpenTelemetry tracing for erplite.
//
// Gateway spans follow the OTel HTTP client conventions where applicable:
//   - http.request.method
//   - http.response.status_code
//
// Custom span attributes use the `erplite.` prefix.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/marcus-qen/erplite"
)

// Tracer returns the package-level tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// InitTraceProvider initialises the OTel trace provider with an OTLP gRPC exporter.
// If endpoint is empty, tracing is disabled (noop provider is used).
// Returns a shutdown function that must be called on application exit.
func InitTraceProvider(ctx context.Context, endpoint string, version string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(), // TLS configurable via env (OTEL_EXPORTER_OTLP_INSECURE)
	)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String("erplite"),
			semconv.ServiceVersionKey.String(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// --- Span helpers ---

// StartRequestSpan creates a client span for one gateway call.
func StartRequestSpan(ctx context.Context, method, path string, authenticated bool) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "gateway.request",
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("erplite.path", path),
			attribute.Bool("erplite.authenticated", authenticated),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndRequestSpan records the outcome of a gateway call. status is 0 when no
// response was received; kind is empty on success.
func EndRequestSpan(span trace.Span, status int, kind string, err error) {
	if status > 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	if kind != "" {
		span.SetAttributes(attribute.String("erplite.error_kind", kind))
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// StartLoginSpan creates the span for a login attempt. Credentials and the
// email address are never recorded.
func StartLoginSpan(ctx context.Context) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "auth.login", trace.WithSpanKind(trace.SpanKindInternal))
}

// EndLoginSpan records the login result.
func EndLoginSpan(span trace.Span, result string, admin bool) {
	span.SetAttributes(
		attribute.String("erplite.login_result", result),
		attribute.Bool("erplite.admin", admin),
	)
	span.End()
}
