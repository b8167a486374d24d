// counterbridge - Counter Event Aggregation & Flush Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/counterbridge

// Package badgerstore is an embedded, persistent engine.Provider over
// BadgerDB: each scope's net counter value lives at its own key, upserted
// inside a single read-modify-write transaction per flushed batch.
package badgerstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/counterbridge/internal/engine"
	"github.com/tomtom215/counterbridge/internal/logging"
)

// Store is a BadgerDB-backed engine.Provider.
type Store struct {
	db  *badger.DB
	dir string
}

// New returns a Store for dir without opening anything; Initialize opens (or
// creates) the BadgerDB and must be called before use.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Initialize opens the underlying BadgerDB. Satisfies engine.Initializer.
func (s *Store) Initialize(_ context.Context) error {
	opts := badger.DefaultOptions(s.dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("open BadgerDB: %w", err)
	}
	s.db = db

	logging.WithComponent("badgerstore").Info().Str("dir", s.dir).Msg("badger store opened")
	return nil
}

// Flush upserts every scope's net delta in one Badger transaction. The call
// does not retry: any transaction error, a conflict included, is reported as
// a total failure of the whole batch so the caller re-adds and retries.
func (s *Store) Flush(_ context.Context, batch engine.FlushBatch) (engine.FlushResult, error) {
	err := s.db.Update(func(txn *badger.Txn) error {
		for scope, delta := range batch {
			current, err := readValue(txn, scope)
			if err != nil {
				return fmt.Errorf("read %s: %w", scope, err)
			}
			if err := writeValue(txn, scope, current+delta); err != nil {
				return fmt.Errorf("write %s: %w", scope, err)
			}
		}
		return nil
	})
	if err != nil {
		return engine.FlushResult{}, err
	}
	return engine.FlushResult{}, nil
}

// Get returns the current persisted value for scope, or zero if unset.
func (s *Store) Get(_ context.Context, scope string) (int64, error) {
	var value int64
	err := s.db.View(func(txn *badger.Txn) error {
		v, err := readValue(txn, scope)
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	return value, err
}

// GetBatch returns the current values for scopes in one read transaction.
func (s *Store) GetBatch(_ context.Context, scopes []string) (map[string]int64, error) {
	out := make(map[string]int64, len(scopes))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, scope := range scopes {
			v, err := readValue(txn, scope)
			if err != nil {
				return err
			}
			out[scope] = v
		}
		return nil
	})
	return out, err
}

// Delete removes scope's key entirely.
func (s *Store) Delete(_ context.Context, scope string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(scope))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// Close closes the underlying BadgerDB. Satisfies engine.Closer.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func readValue(txn *badger.Txn, scope string) (int64, error) {
	item, err := txn.Get([]byte(scope))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var value int64
	err = item.Value(func(val []byte) error {
		value = int64(binary.BigEndian.Uint64(val))
		return nil
	})
	return value, err
}

func writeValue(txn *badger.Txn, scope string, value int64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(value))
	return txn.Set([]byte(scope), buf)
}
