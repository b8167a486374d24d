// counterbridge - Counter Event Aggregation & Flush Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/counterbridge

// Package duckstore is an analytical-store engine.Provider over DuckDB: a
// single counters(scope, value) table, upserted per flushed batch inside
// one transaction so a mid-batch failure is reported as total failure.
package duckstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" sql driver

	"github.com/tomtom215/counterbridge/internal/engine"
	"github.com/tomtom215/counterbridge/internal/logging"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS counters (
	scope TEXT PRIMARY KEY,
	value BIGINT NOT NULL DEFAULT 0
)`

const upsertSQL = `
INSERT INTO counters (scope, value) VALUES (?, ?)
ON CONFLICT (scope) DO UPDATE SET value = counters.value + excluded.value`

// Store is a DuckDB-backed engine.Provider.
type Store struct {
	path string
	db   *sql.DB
}

// New returns a Store for path without opening anything; Initialize opens
// (or creates) the DuckDB database file and must be called before use.
func New(path string) *Store {
	return &Store{path: path}
}

// Initialize opens the database and creates the counters table if absent.
// Satisfies engine.Initializer.
func (s *Store) Initialize(ctx context.Context) error {
	db, err := sql.Open("duckdb", s.path)
	if err != nil {
		return fmt.Errorf("open DuckDB: %w", err)
	}
	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		db.Close()
		return fmt.Errorf("create counters table: %w", err)
	}
	s.db = db

	logging.WithComponent("duckstore").Info().Str("path", s.path).Msg("duckdb store opened")
	return nil
}

// Flush upserts every scope's net delta inside one transaction. A failure
// mid-batch rolls the whole transaction back and is reported as a total
// failure.
func (s *Store) Flush(ctx context.Context, batch engine.FlushBatch) (engine.FlushResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return engine.FlushResult{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return engine.FlushResult{}, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for scope, delta := range batch {
		if _, err := stmt.ExecContext(ctx, scope, delta); err != nil {
			return engine.FlushResult{}, fmt.Errorf("upsert %s: %w", scope, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return engine.FlushResult{}, fmt.Errorf("commit: %w", err)
	}
	return engine.FlushResult{}, nil
}

// Get returns the current persisted value for scope, or zero if unset.
func (s *Store) Get(ctx context.Context, scope string) (int64, error) {
	var value int64
	err := s.db.QueryRowContext(ctx, `SELECT value FROM counters WHERE scope = ?`, scope).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return value, err
}

// GetBatch returns the current values for scopes in one query.
func (s *Store) GetBatch(ctx context.Context, scopes []string) (map[string]int64, error) {
	out := make(map[string]int64, len(scopes))
	for _, scope := range scopes {
		out[scope] = 0
	}

	args := make([]interface{}, len(scopes))
	placeholders := make([]byte, 0, len(scopes)*2)
	for i, scope := range scopes {
		args[i] = scope
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT scope, value FROM counters WHERE scope IN (%s)`, placeholders), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var scope string
		var value int64
		if err := rows.Scan(&scope, &value); err != nil {
			return nil, err
		}
		out[scope] = value
	}
	return out, rows.Err()
}

// Delete removes scope's row entirely.
func (s *Store) Delete(ctx context.Context, scope string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM counters WHERE scope = ?`, scope)
	return err
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
