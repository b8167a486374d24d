// counterbridge - Counter Event Aggregation & Flush Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/counterbridge

package memstore

import (
	"context"
	"sync"
	"testing"

	"github.com/tomtom215/counterbridge/internal/engine"
)

func TestStoreFlushAddsToExistingValue(t *testing.T) {
	s := New()
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
	s := New()
	v, err := s.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 0 {
		t.Fatalf("expected 0, got %d", v)
	}
}

func TestStoreGetBatch(t *testing.T) {
	s := New()
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
	s := New()
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

func TestStoreConcurrentFlush(t *testing.T) {
	s := New()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Flush(ctx, engine.FlushBatch{"shared": 1})
		}()
	}
	wg.Wait()

	v, _ := s.Get(ctx, "shared")
	if v != 100 {
		t.Fatalf("expected shared=100, got %d", v)
	}
}
