// counterbridge - Counter Event Aggregation & Flush Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/counterbridge

package engine

import "time"

// CounterEvent is a single validated counter mutation, produced by the
// Event Parser from a raw LogEntry.
type CounterEvent struct {
	// Scope is the opaque, non-empty counter identifier.
	Scope string
	// Delta is the signed mutation; positive increments, negative
	// decrements, zero is legal and contributes to Aggregator.size only.
	Delta int64
	// Timestamp is epoch milliseconds; informational, never used for
	// ordering decisions.
	Timestamp int64
	// Metadata is an optional free-form bag, opaque to the core. The
	// Aggregator folds only Scope and Delta, so Metadata is not passed on
	// to the Provider.
	Metadata map[string]string
}

// LogEntry is what the Stream Reader yields: an opaque, monotonically
// sortable id assigned by the log, plus the flat field list it carried.
type LogEntry struct {
	ID     string
	Fields map[string]string
}

// FlushBatch is the snapshot produced by draining the Aggregator: a
// mapping from scope to net delta. It carries no event ids.
type FlushBatch map[string]int64

// FlushResult is the outcome of a Provider.Flush call that did not return
// an error. A zero-value FlushResult (Failed == nil) means full success.
type FlushResult struct {
	// Failed carries the subset of batch scopes that could not be
	// persisted, with their original net deltas preserved verbatim. Nil
	// or empty means every scope in the batch was persisted.
	Failed FlushBatch
}

// Stats is a read-only snapshot of engine observability counters.
type Stats struct {
	EventsProcessed uint64
	FlushCount      uint64
	LastFlushAt     time.Time
	PendingMessages int64
	AvgBatchSize    int64
	ErrorCount      uint64
}

// EventKind identifies which typed channel an Event was published on.
type EventKind string

const (
	EventStarted  EventKind = "started"
	EventStopped  EventKind = "stopped"
	EventFlush    EventKind = "flush"
	EventRecovery EventKind = "recovery"
	EventWarn     EventKind = "warn"
	EventError    EventKind = "error"
)

// Event is the payload delivered on a Bus subscription channel.
type Event struct {
	Kind    EventKind
	Message string
	// Fields carries the small structured payload described per event
	// kind in the design notes (scopeCount, flushNumber, failedScopes,
	// totalScopes, recoveredCount, entryId, ...). Error text is carried
	// in Message.
	Fields map[string]interface{}
}
