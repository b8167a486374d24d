// counterbridge - Counter Event Aggregation & Flush Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/counterbridge

// Package config loads counterbridge's configuration from defaults, an
// optional YAML file, and environment variables, in that precedence order.
package config
