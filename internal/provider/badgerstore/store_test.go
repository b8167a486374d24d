// counterbridge - Counter Event Aggregation & Flush Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/counterbridge

package badgerstore

import (
	"context"
	"testing"

	"github.com/tomtom215/counterbridge/internal/engine"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(t.TempDir())
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreFlushAddsToExistingValue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Flush(ctx, engine.FlushBatch{"a": 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Flush(ctx, engine.FlushBatch{"a": 4}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 7 {
		t.Fatalf("expected a=7, got %d", v)
	}
}

func TestStoreGetUnwrittenScopeIsZero(t *testing.T) {
	s := newTestStore(t)
	v, err := s.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 0 {
		t.Fatalf("expected 0, got %d", v)
	}
}

func TestStoreGetBatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.Flush(ctx, engine.FlushBatch{"a": 1, "b": 2})

	out, err := s.GetBatch(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["a"] != 1 || out["b"] != 2 || out["c"] != 0 {
		t.Fatalf("unexpected batch: %+v", out)
	}
}

func TestStoreDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.Flush(ctx, engine.FlushBatch{"a": 5})

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, _ := s.Get(ctx, "a")
	if v != 0 {
		t.Fatalf("expected deleted scope to read back 0, got %d", v)
	}
}

func TestStoreDeleteMissingScopeIsNotAnError(t *testing.T) {
	s := newTestStore(t)
	if err := s.Delete(context.Background(), "never-written"); err != nil {
		t.Fatalf("expected deleting a missing key to be a no-op, got: %v", err)
	}
}

func TestStoreNegativeDelta(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.Flush(ctx, engine.FlushBatch{"a": 10})
	s.Flush(ctx, engine.FlushBatch{"a": -3})

	v, _ := s.Get(ctx, "a")
	if v != 7 {
		t.Fatalf("expected a=7, got %d", v)
	}
}
