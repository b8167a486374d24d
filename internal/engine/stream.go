// counterbridge - Counter Event Aggregation & Flush Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/counterbridge

package engine

import (
	"context"
	"time"
)

// StreamReader abstracts the append-only log's consumer-group primitive
// described in the external interfaces design notes. internal/engine/redisstream
// implements this against Redis Streams; tests use small hand-rolled
// fakes, in the teacher's mock-struct style.
type StreamReader interface {
	// EnsureGroup creates the consumer group at the log origin if it does
	// not exist. Returns ErrConsumerGroupExists if it already does; any
	// other error is fatal to Start.
	EnsureGroup(ctx context.Context) error

	// ReadPending returns up to count entries previously delivered to
	// this consumer but never acknowledged (the "0" cursor). An empty,
	// non-error result signals the in-flight set is exhausted.
	ReadPending(ctx context.Context, count int64) ([]LogEntry, error)

	// ReadNew blocks for up to block for new entries (the ">" cursor),
	// returning at most count.
	ReadNew(ctx context.Context, count int64, block time.Duration) ([]LogEntry, error)

	// Ack acknowledges one or more entry ids.
	Ack(ctx context.Context, ids []string) error

	// Close releases the underlying log connection.
	Close() error
}
