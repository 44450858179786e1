// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the screening
// service.
//
// Metrics cover the batch dispatch pipeline: batch counts by processing
// mode, per-unit outcomes, durations, and worker occupancy. They are
// exposed on /metrics and intended for Prometheus + Grafana.
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "canopy"

const screeningSubsystem = "screening"

// ScreeningMetrics holds all Prometheus metrics for batch screening.
//
// # Fields
//
//   - BatchesTotal: Counter of dispatched batches by processing mode
//   - UnitsTotal: Counter of processed units by outcome
//   - BatchDurationSeconds: Histogram of full batch durations by mode
//   - UnitDurationSeconds: Histogram of single-unit processing durations
//   - ActiveWorkers: Gauge of workers currently processing units
type ScreeningMetrics struct {
	// BatchesTotal counts dispatched batches.
	// Labels: mode (parallel, sequential)
	BatchesTotal *prometheus.CounterVec

	// UnitsTotal counts processed analysis units.
	// Labels: status (successful, failed)
	UnitsTotal *prometheus.CounterVec

	// BatchDurationSeconds measures end-to-end batch duration.
	// Labels: mode (parallel, sequential)
	BatchDurationSeconds *prometheus.HistogramVec

	// UnitDurationSeconds measures single-unit processing time, which is
	// dominated by the remote zonal-statistics call.
	// Labels: status (successful, failed)
	UnitDurationSeconds *prometheus.HistogramVec

	// ActiveWorkers tracks workers currently processing units.
	ActiveWorkers prometheus.Gauge
}

// DefaultMetrics is the singleton instance, initialized by InitMetrics().
// Nil when metrics are disabled; the dispatcher treats nil as no-op.
var (
	DefaultMetrics *ScreeningMetrics
	initOnce       sync.Once
)

// InitMetrics creates and registers all screening metrics on the default
// Prometheus registry. Registration happens once per process; repeated
// calls return the same instance.
func InitMetrics() *ScreeningMetrics {
	initOnce.Do(registerMetrics)
	return DefaultMetrics
}

func registerMetrics() {
	DefaultMetrics = &ScreeningMetrics{
		BatchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: screeningSubsystem,
				Name:      "batches_total",
				Help:      "Total dispatched screening batches by processing mode",
			},
			[]string{"mode"},
		),

		UnitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: screeningSubsystem,
				Name:      "units_total",
				Help:      "Total processed analysis units by outcome",
			},
			[]string{"status"},
		),

		BatchDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: screeningSubsystem,
				Name:      "batch_duration_seconds",
				Help:      "End-to-end batch processing duration in seconds",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"mode"},
		),

		UnitDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: screeningSubsystem,
				Name:      "unit_duration_seconds",
				Help:      "Single-unit processing duration in seconds",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"status"},
		),

		ActiveWorkers: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: screeningSubsystem,
				Name:      "active_workers",
				Help:      "Workers currently processing analysis units",
			},
		),
	}
}

// RecordUnit records one unit outcome on m, tolerating a nil receiver so
// callers don't need metrics-enabled checks.
func (m *ScreeningMetrics) RecordUnit(status string, seconds float64) {
	if m == nil {
		return
	}
	m.UnitsTotal.WithLabelValues(status).Inc()
	m.UnitDurationSeconds.WithLabelValues(status).Observe(seconds)
}

// RecordBatch records one batch outcome on m; nil-safe like RecordUnit.
func (m *ScreeningMetrics) RecordBatch(mode string, seconds float64) {
	if m == nil {
		return
	}
	m.BatchesTotal.WithLabelValues(mode).Inc()
	m.BatchDurationSeconds.WithLabelValues(mode).Observe(seconds)
}

// WorkerStarted increments the active-worker gauge; nil-safe.
func (m *ScreeningMetrics) WorkerStarted() {
	if m == nil {
		return
	}
	m.ActiveWorkers.Inc()
}

// WorkerStopped decrements the active-worker gauge; nil-safe.
func (m *ScreeningMetrics) WorkerStopped() {
	if m == nil {
		return
	}
	m.ActiveWorkers.Dec()
}
