// counterbridge - Counter Event Aggregation & Flush Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/counterbridge

// Package engine implements the counter consumer engine: it reads counter
// mutation events from a log via a consumer-group cursor, folds them in
// memory, and flushes net deltas to a pluggable Provider.
package engine

import "errors"

// ErrConsumerGroupExists is returned by a StreamReader's EnsureGroup when
// the consumer group already exists. Engine.Start swallows this error.
var ErrConsumerGroupExists = errors.New("consumer group already exists")

// ErrScopeDeleteUnsupported is returned by Delete when the configured
// Provider does not implement Deleter.
var ErrScopeDeleteUnsupported = errors.New("provider does not support scope deletion")
