// counterbridge - Counter Event Aggregation & Flush Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/counterbridge

package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// EngineLogger provides specialized logging for the counter consumer
// engine, with domain-specific methods for its lifecycle and flush events.
type EngineLogger struct {
	logger zerolog.Logger
}

// NewEngineLogger creates a logger configured for the consumer engine.
func NewEngineLogger() *EngineLogger {
	return &EngineLogger{
		logger: With().Str("component", "engine").Logger(),
	}
}

// NewEngineLoggerWithLogger creates an EngineLogger with a custom logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value (copy-on-write semantics)
func NewEngineLoggerWithLogger(logger zerolog.Logger) *EngineLogger {
	return &EngineLogger{
		logger: logger.With().Str("component", "engine").Logger(),
	}
}

// WithFields returns a new EngineLogger with additional default fields.
func (e *EngineLogger) WithFields(fields map[string]interface{}) *EngineLogger {
	ctx := e.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &EngineLogger{logger: ctx.Logger()}
}

func (e *EngineLogger) loggerWithContext(ctx context.Context) zerolog.Logger {
	logCtx := e.logger.With()

	if correlationID := CorrelationIDFromContext(ctx); correlationID != "" {
		logCtx = logCtx.Str("correlation_id", correlationID)
	}

	return logCtx.Logger()
}

// LogStarted logs engine startup.
func (e *EngineLogger) LogStarted(consumerID, streamKey string) {
	e.logger.Info().
		Str("consumer_id", consumerID).
		Str("stream_key", streamKey).
		Msg("engine started")
}

// LogStopped logs engine shutdown.
func (e *EngineLogger) LogStopped() {
	e.logger.Info().Msg("engine stopped")
}

// LogRecovery logs the outcome of the startup recovery phase.
func (e *EngineLogger) LogRecovery(ctx context.Context, recoveredCount int) {
	e.loggerWithContext(ctx).Info().
		Int("recovered_count", recoveredCount).
		Msg("recovery phase complete")
}

// LogMalformedEvent logs a dropped malformed event.
func (e *EngineLogger) LogMalformedEvent(ctx context.Context, id string, fields map[string]string) {
	e.loggerWithContext(ctx).Warn().
		Str("entry_id", id).
		Interface("fields", fields).
		Msg("dropped malformed event")
}

// LogMetadataDecodeFailure logs a non-fatal metadata decode failure.
func (e *EngineLogger) LogMetadataDecodeFailure(ctx context.Context, id string, err error) {
	e.loggerWithContext(ctx).Warn().
		Str("entry_id", id).
		Err(err).
		Msg("metadata decode failed")
}

// LogReadError logs a transient log-read failure.
func (e *EngineLogger) LogReadError(ctx context.Context, err error) {
	e.loggerWithContext(ctx).Error().
		Err(err).
		Msg("stream read failed")
}

// LogFlush logs a fully successful flush; a partial failure is logged by
// LogPartialFlushFailure.
func (e *EngineLogger) LogFlush(ctx context.Context, scopeCount int, flushNumber uint64) {
	e.loggerWithContext(ctx).Info().
		Int("scope_count", scopeCount).
		Uint64("flush_number", flushNumber).
		Msg("batch flush completed")
}

// LogPartialFlushFailure logs a partial flush failure.
func (e *EngineLogger) LogPartialFlushFailure(ctx context.Context, failedScopes, totalScopes int) {
	e.loggerWithContext(ctx).Warn().
		Int("failed_scopes", failedScopes).
		Int("total_scopes", totalScopes).
		Msg("Partial flush failure")
}

// LogTotalFlushFailure logs a total flush failure.
func (e *EngineLogger) LogTotalFlushFailure(ctx context.Context, scopeCount int, err error) {
	e.loggerWithContext(ctx).Error().
		Int("scope_count", scopeCount).
		Err(err).
		Msg("flush failed, batch re-added")
}
