// counterbridge - Counter Event Aggregation & Flush Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/counterbridge

// Package memstore is an in-memory engine.Provider, used by the engine's
// own tests and local/development deployment.
package memstore

import (
	"context"
	"sync"

	"github.com/tomtom215/counterbridge/internal/engine"
)

// Store is a mutex-guarded map[string]int64 satisfying engine.Provider,
// engine.BatchGetter and engine.Deleter.
type Store struct {
	mu     sync.Mutex
	values map[string]int64
}

// New returns an empty Store.
func New() *Store {
	return &Store{values: make(map[string]int64)}
}

// Flush adds each scope's delta to its stored value. Never fails and never
// reports a partial failure; callers wanting to exercise failure paths
// should wrap Store or use a hand-rolled mock instead.
func (s *Store) Flush(_ context.Context, batch engine.FlushBatch) (engine.FlushResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for scope, delta := range batch {
		s.values[scope] += delta
	}
	return engine.FlushResult{}, nil
}

// Get returns the current value for scope, or zero if never written.
func (s *Store) Get(_ context.Context, scope string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[scope], nil
}

// GetBatch returns the current values for scopes.
func (s *Store) GetBatch(_ context.Context, scopes []string) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(scopes))
	for _, scope := range scopes {
		out[scope] = s.values[scope]
	}
	return out, nil
}

// Delete removes scope entirely.
func (s *Store) Delete(_ context.Context, scope string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, scope)
	return nil
}
