// counterbridge - Counter Event Aggregation & Flush Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/counterbridge

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine metrics track the consumer engine's throughput and health.
var (
	EventsProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "counterbridge_events_processed_total",
		Help: "Total counter events successfully parsed and folded into the aggregator.",
	})

	EventsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "counterbridge_events_dropped_total",
		Help: "Total log entries dropped, by reason.",
	}, []string{"reason"})

	FlushTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "counterbridge_flush_total",
		Help: "Total flush attempts, by outcome (success, partial, total_failure).",
	}, []string{"outcome"})

	FlushDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "counterbridge_flush_duration_seconds",
		Help:    "Duration of provider.flush calls.",
		Buckets: prometheus.DefBuckets,
	})

	FlushBatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "counterbridge_flush_batch_size",
		Help:    "Number of distinct scopes in each flushed batch.",
		Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
	})

	PendingMessages = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "counterbridge_pending_messages",
		Help: "Current Aggregator size (events folded since the last drain).",
	})

	ErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "counterbridge_errors_total",
		Help: "Total errors encountered, by source (read, flush).",
	}, []string{"source"})

	ReadBatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "counterbridge_read_batch_size",
		Help:    "Number of log entries returned per stream read.",
		Buckets: []float64{1, 5, 10, 50, 100, 500, 1000},
	})

	CircuitBreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "counterbridge_circuit_breaker_state",
		Help: "Provider circuit breaker state: 0=closed, 1=half-open, 2=open.",
	})
)
