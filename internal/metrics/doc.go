// counterbridge - Counter Event Aggregation & Flush Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/counterbridge

// Package metrics exposes Prometheus instrumentation for the consumer
// engine and the admin HTTP API, served at /metrics via promhttp.
package metrics
