/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// Package metrics defines Prometheus metrics for the erplite client.
//
// All metrics are registered with Registry, which the CLI serves when a
// metrics address is configured.
//
// Metric naming follows Prometheus conventions:
//   - erplite_ prefix for all custom metrics
//   - _total suffix for counters
//   - _seconds suffix for duration histograms
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every erplite collector.
var Registry = prometheus.NewRegistry()

var (
	// GatewayRequestsTotal counts API calls by method and status code
	// ("error" when no response was received).
	GatewayRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erplite_gateway_requests_total",
			Help: "Total API requests issued by the gateway by method and status.",
		},
		[]string{"method", "status"},
	)

	// GatewayRequestDurationSeconds is a histogram of API call latency.
	GatewayRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "erplite_gateway_request_duration_seconds",
			Help:    "Duration of API requests in seconds.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method"},
	)

	// TokenInvalidationsTotal counts bearer tokens dropped after the backend
	// reported them invalid.
	TokenInvalidationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "erplite_token_invalidations_total",
			Help: "Total bearer tokens cleared after a token_not_valid response.",
		},
	)

	// LoginsTotal counts login attempts by result.
	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erplite_logins_total",
			Help: "Total login attempts by result.",
		},
		[]string{"result"},
	)

	// GuardDecisionsTotal counts route guard outcomes.
	GuardDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erplite_guard_decisions_total",
			Help: "Total route guard decisions by outcome.",
		},
		[]string{"outcome"},
	)

	// ServedRequestsTotal counts requests answered by the bundled mock backend.
	ServedRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erplite_mock_requests_total",
			Help: "Total requests served by the mock backend by method and status.",
		},
		[]string{"method", "status"},
	)
)

func init() {
	Registry.MustRegister(
		GatewayRequestsTotal,
		GatewayRequestDurationSeconds,
		TokenInvalidationsTotal,
		LoginsTotal,
		GuardDecisionsTotal,
		ServedRequestsTotal,
		collectors.NewGoCollector(),
	)
}

// RecordRequest records a completed gateway call. status is 0 when the request
// failed before a response arrived.
func RecordRequest(method string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	GatewayRequestsTotal.WithLabelValues(method, label).Inc()
	GatewayRequestDurationSeconds.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordTokenInvalidated records a token dropped by the gateway.
func RecordTokenInvalidated() {
	TokenInvalidationsTotal.Inc()
}

// RecordLogin records a login attempt result.
func RecordLogin(result string) {
	LoginsTotal.WithLabelValues(result).Inc()
}

// RecordGuardDecision records a route guard outcome.
func RecordGuardDecision(outcome string) {
	GuardDecisionsTotal.WithLabelValues(outcome).Inc()
}

// Instrument wraps a server handler so every response is counted in
// ServedRequestsTotal.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		ServedRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(sw.status)).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// Handler serves Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
