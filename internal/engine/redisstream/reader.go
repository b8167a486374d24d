// counterbridge - Counter Event Aggregation & Flush Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/counterbridge

// Package redisstream binds the engine's StreamReader interface to Redis
// Streams consumer groups: XGROUP CREATE, XREADGROUP against the "0"
// (pending) and ">" (new) cursors, and XACK.
package redisstream

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/counterbridge/internal/engine"
)

// Reader implements engine.StreamReader against a Redis Streams consumer
// group.
type Reader struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
}

// New creates a Reader bound to streamKey/group/consumerID on client.
func New(client *redis.Client, streamKey, group, consumerID string) *Reader {
	return &Reader{
		client:   client,
		stream:   streamKey,
		group:    group,
		consumer: consumerID,
	}
}

// EnsureGroup creates the consumer group at the stream origin,
// auto-creating the stream itself. The BUSYGROUP error (group already
// exists) is swallowed as engine.ErrConsumerGroupExists; any other error
// is returned as-is.
func (r *Reader) EnsureGroup(ctx context.Context) error {
	err := r.client.XGroupCreateMkStream(ctx, r.stream, r.group, "0").Err()
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "BUSYGROUP") {
		return engine.ErrConsumerGroupExists
	}
	return err
}

// ReadPending reads from the "0" cursor: entries previously delivered to
// this consumer but never acknowledged.
func (r *Reader) ReadPending(ctx context.Context, count int64) ([]engine.LogEntry, error) {
	return r.read(ctx, "0", count, 0)
}

// ReadNew blocks for up to block waiting for new entries on the ">"
// cursor.
func (r *Reader) ReadNew(ctx context.Context, count int64, block time.Duration) ([]engine.LogEntry, error) {
	return r.read(ctx, ">", count, block)
}

func (r *Reader) read(ctx context.Context, cursor string, count int64, block time.Duration) ([]engine.LogEntry, error) {
	streams, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    r.group,
		Consumer: r.consumer,
		Streams:  []string{r.stream, cursor},
		Count:    count,
		Block:    block,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var entries []engine.LogEntry
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			entries = append(entries, engine.LogEntry{
				ID:     msg.ID,
				Fields: toStringFields(msg.Values),
			})
		}
	}
	return entries, nil
}

// Ack acknowledges ids against the consumer group.
func (r *Reader) Ack(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.client.XAck(ctx, r.stream, r.group, ids...).Err()
}

// Close releases the underlying Redis client.
func (r *Reader) Close() error {
	return r.client.Close()
}

// toStringFields coerces a Redis XREADGROUP message's values (always
// strings on the wire, but typed as interface{} by go-redis) into the flat
// string map the Event Parser expects.
func toStringFields(values map[string]interface{}) map[string]string {
	fields := make(map[string]string, len(values))
	for k, v := range values {
		if s, ok := v.(string); ok {
			fields[k] = s
		}
	}
	return fields
}
