// counterbridge - Counter Event Aggregation & Flush Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/counterbridge

// Package logging provides centralized zerolog-based structured logging for
// counterbridge.
//
// # Output Formats
//
// JSON Format (Production):
//
//	{"level":"info","time":"2025-01-03T10:30:00Z","message":"engine started","component":"engine"}
//
// Console Format (Development):
//
//	10:30:00 INF engine started component=engine
//
// # Component Loggers
//
//	engineLog := logging.WithComponent("engine")
//	engineLog.Info().Msg("starting")
//
// # slog Adapter
//
// NewSlogLogger bridges zerolog to log/slog for libraries that require an
// slog.Logger, such as sutureslog.
//
// # See Also
//
//   - github.com/rs/zerolog: underlying logging library
//   - internal/supervisor: uses the slog adapter to feed suture's logger
package logging
