// counterbridge - Counter Event Aggregation & Flush Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/counterbridge

package engine

import "sync"

// Aggregator folds CounterEvents into net per-scope deltas. It is accessed
// exclusively by the engine's single control flow between suspension
// points (see the concurrency design notes), but the mutex here also
// guards the one legitimate concurrent access: a flush's Drain racing
// with the read loop's Add while the flush is suspended on provider.Flush.
type Aggregator struct {
	mu         sync.Mutex
	deltas     map[string]int64
	size       int64
	scopeCount int64
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		deltas: make(map[string]int64),
	}
}

// Add folds event.Delta into the net delta for event.Scope, creating the
// entry if absent, and increments size. A delta of zero is legal: it
// contributes to size but not to the net value.
func (a *Aggregator) Add(event CounterEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.deltas[event.Scope]; !exists {
		a.scopeCount++
	}
	a.deltas[event.Scope] += event.Delta
	a.size++
}

// Drain atomically returns the current scope->delta mapping and resets the
// Aggregator to empty.
func (a *Aggregator) Drain() FlushBatch {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.deltas) == 0 {
		return nil
	}

	batch := a.deltas
	a.deltas = make(map[string]int64)
	a.size = 0
	a.scopeCount = 0
	return FlushBatch(batch)
}

// Size returns the number of events folded since the last Drain.
func (a *Aggregator) Size() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.size
}

// ScopeCount returns the number of distinct scopes present since the last
// Drain.
func (a *Aggregator) ScopeCount() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.scopeCount
}
