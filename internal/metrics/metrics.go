// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package metrics exposes Prometheus instruments for stream sessions.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/petar-djukic/codestream/pkg/types"
)

// Session outcome labels.
const (
	StatusOK          = "ok"
	StatusUpstream    = "upstream_error"
	StatusDisconnect  = "client_disconnect"
	StatusPersistFail = "persist_error"
	StatusFailed      = "failed"
)

// Metrics groups the session instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Sessions       *prometheus.CounterVec
	Events         *prometheus.CounterVec
	PatchFailures  prometheus.Counter
	LinesChanged   *prometheus.CounterVec
	Duration       prometheus.Histogram
	ActiveSessions prometheus.Gauge
}

// New registers the instruments with reg. Tests pass a fresh
// prometheus.NewRegistry(); the server uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Sessions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "codestream_sessions_total",
			Help: "Stream sessions by final status",
		}, []string{"status"}),
		Events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "codestream_events_total",
			Help: "Events emitted by state",
		}, []string{"state"}),
		PatchFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "codestream_patch_failures_total",
			Help: "SEARCH/REPLACE blocks that matched no file",
		}),
		LinesChanged: f.NewCounterVec(prometheus.CounterOpts{
			Name: "codestream_lines_changed_total",
			Help: "Lines added and deleted by completed edits",
		}, []string{"file_type", "kind"}),
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "codestream_session_duration_seconds",
			Help:    "Wall time from first chunk request to stream end",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2min
		}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "codestream_active_sessions",
			Help: "Sessions currently streaming",
		}),
	}
}

// ObserveEvent counts one emitted event.
func (m *Metrics) ObserveEvent(ev types.Event) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(string(ev.State())).Inc()
	switch v := ev.(type) {
	case types.EditFailed:
		if isPatchFailure(v.Message) {
			m.PatchFailures.Inc()
		}
	case types.EditCompleted:
		ft := string(v.Target.Type)
		m.LinesChanged.WithLabelValues(ft, "added").Add(float64(v.Stats.Additions))
		m.LinesChanged.WithLabelValues(ft, "deleted").Add(float64(v.Stats.Deletions))
	}
}

// SessionStarted marks a session active and returns a func that records
// its outcome.
func (m *Metrics) SessionStarted() func(status string) {
	if m == nil {
		return func(string) {}
	}
	start := time.Now()
	m.ActiveSessions.Inc()
	return func(status string) {
		m.ActiveSessions.Dec()
		m.Duration.Observe(time.Since(start).Seconds())
		m.Sessions.WithLabelValues(status).Inc()
	}
}

// isPatchFailure separates edit failures from upstream errors, which
// share the error state.
func isPatchFailure(msg string) bool {
	return strings.HasPrefix(msg, "edit_fail: ")
}
