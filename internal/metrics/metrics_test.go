/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func getCounterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	m := &dto.Metric{}
	if err := cv.WithLabelValues(labels...).Write(m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func getHistogramCount(hv *prometheus.HistogramVec, labels ...string) uint64 {
	m := &dto.Metric{}
	observer := hv.WithLabelValues(labels...)
	if c, ok := observer.(prometheus.Metric); ok {
		if err := c.Write(m); err != nil {
			return 0
		}
		return m.GetHistogram().GetSampleCount()
	}
	return 0
}

func TestRecordRequest(t *testing.T) {
	RecordRequest("GET", 200, 30*time.Millisecond)
	RecordRequest("GET", 0, time.Second)

	if v := getCounterValue(GatewayRequestsTotal, "GET", "200"); v < 1 {
		t.Errorf("GatewayRequestsTotal{200} = %f, want >= 1", v)
	}
	if v := getCounterValue(GatewayRequestsTotal, "GET", "error"); v < 1 {
		t.Errorf("GatewayRequestsTotal{error} = %f, want >= 1", v)
	}
	if c := getHistogramCount(GatewayRequestDurationSeconds, "GET"); c < 2 {
		t.Errorf("duration sample count = %d, want >= 2", c)
	}
}

func TestRecordTokenInvalidated(t *testing.T) {
	m := &dto.Metric{}
	_ = TokenInvalidationsTotal.Write(m)
	before := m.GetCounter().GetValue()

	RecordTokenInvalidated()

	m = &dto.Metric{}
	_ = TokenInvalidationsTotal.Write(m)
	if after := m.GetCounter().GetValue(); after != before+1 {
		t.Errorf("TokenInvalidationsTotal = %f, want %f", after, before+1)
	}
}

func TestRecordLoginAndGuard(t *testing.T) {
	RecordLogin("success")
	RecordGuardDecision("allow")

	if v := getCounterValue(LoginsTotal, "success"); v < 1 {
		t.Errorf("LoginsTotal{success} = %f, want >= 1", v)
	}
	if v := getCounterValue(GuardDecisionsTotal, "allow"); v < 1 {
		t.Errorf("GuardDecisionsTotal{allow} = %f, want >= 1", v)
	}
	if v := getCounterValue(LoginsTotal, "never-recorded"); v != 0 {
		t.Errorf("unexpected value for unused label: %f", v)
	}
}

func TestHandlerServesRegistry(t *testing.T) {
	RecordLogin("failed")

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "erplite_logins_total") {
		t.Fatalf("expected erplite_logins_total in output")
	}
}

func TestInstrumentCountsStatus(t *testing.T) {
	h := Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	before := getCounterValue(ServedRequestsTotal, "GET", "404")
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))

	if v := getCounterValue(ServedRequestsTotal, "GET", "404"); v != before+1 {
		t.Errorf("ServedRequestsTotal{404} = %f, want %f", v, before+1)
	}
	if v := getCounterValue(ServedRequestsTotal, "GET", "200"); v < 1 {
		t.Errorf("ServedRequestsTotal{200} = %f, want >= 1", v)
	}
}
