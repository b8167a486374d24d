// counterbridge - Counter Event Aggregation & Flush Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/counterbridge

package engine

import "context"

// Provider is the pluggable persistence backend. Flush must preserve, in
// FlushResult.Failed, the exact delta values it was handed for any scope
// it could not persist — they are the source of truth for retry.
//
// Implementations are not required to deduplicate by log id: repeated
// application of the same net-delta batch will over-count under
// at-least-once redelivery. See the design notes on duplicate application
// across crashes.
type Provider interface {
	// Flush persists the net deltas in batch by adding them to any
	// existing stored value (upsert semantics). A returned error means
	// total failure: the whole batch must be treated as unpersisted. A
	// non-error FlushResult whose Failed is non-empty but smaller than
	// batch means partial failure; a Failed covering every scope is
	// handled by the engine as total failure.
	Flush(ctx context.Context, batch FlushBatch) (FlushResult, error)

	// Get returns the current persisted value for scope, or zero if the
	// scope has never been written.
	Get(ctx context.Context, scope string) (int64, error)
}

// BatchGetter is an optional capability: a Provider implementing it
// serves GetBatch directly instead of the engine falling back to
// parallel Get calls.
type BatchGetter interface {
	GetBatch(ctx context.Context, scopes []string) (map[string]int64, error)
}

// Initializer is an optional capability: a Provider implementing it has
// Initialize called once, before any Get or Flush.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Closer is an optional capability: a Provider implementing it has Close
// called once during engine shutdown.
type Closer interface {
	Close() error
}

// Deleter is an optional capability: a Provider implementing it supports
// removing a scope entirely.
type Deleter interface {
	Delete(ctx context.Context, scope string) error
}
