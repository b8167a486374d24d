// counterbridge - Counter Event Aggregation & Flush Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/counterbridge

// Package config loads and validates counterbridge's runtime configuration.
package config

import "time"

// ProviderKind selects which persistence backend the engine writes to.
type ProviderKind string

const (
	ProviderMemory ProviderKind = "memory"
	ProviderBadger ProviderKind = "badger"
	ProviderDuckDB ProviderKind = "duckdb"
)

// RedisConfig describes the connection to the Redis Streams log.
type RedisConfig struct {
	Addr     string `koanf:"addr" validate:"required"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// EngineConfig controls the consumer engine's batching and recovery behavior.
type EngineConfig struct {
	StreamKey         string        `koanf:"stream_key" validate:"required"`
	ConsumerGroup     string        `koanf:"consumer_group" validate:"required"`
	ConsumerID        string        `koanf:"consumer_id"`
	MaxWait           time.Duration `koanf:"max_wait" validate:"required"`
	MaxMessages       int64         `koanf:"max_messages" validate:"required,gt=0"`
	RecoveryBatchSize int64         `koanf:"recovery_batch_size" validate:"required,gt=0"`
	ReadErrorBackoff  time.Duration `koanf:"read_error_backoff" validate:"required"`
}

// BadgerConfig configures the embedded BadgerDB provider.
type BadgerConfig struct {
	Dir string `koanf:"dir"`
}

// DuckDBConfig configures the DuckDB provider.
type DuckDBConfig struct {
	Path string `koanf:"path"`
}

// ProviderConfig selects and configures the persistence backend.
type ProviderConfig struct {
	Kind   ProviderKind `koanf:"kind" validate:"required,oneof=memory badger duckdb"`
	Badger BadgerConfig `koanf:"badger"`
	DuckDB DuckDBConfig `koanf:"duckdb"`
}

// CircuitBreakerConfig configures the breaker wrapping provider.flush.
type CircuitBreakerConfig struct {
	Enabled     bool          `koanf:"enabled"`
	MaxRequests uint32        `koanf:"max_requests"`
	Interval    time.Duration `koanf:"interval"`
	Timeout     time.Duration `koanf:"timeout"`
}

// HTTPConfig configures the admin/health HTTP API.
type HTTPConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"required,gt=0"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	AdminToken      string        `koanf:"admin_token"`
}

// LoggingConfig configures the zerolog global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"required,oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"required,oneof=console json"`
}

// Config is the root configuration struct for counterbridge.
type Config struct {
	Redis          RedisConfig          `koanf:"redis"`
	Engine         EngineConfig         `koanf:"engine"`
	Provider       ProviderConfig       `koanf:"provider"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker"`
	HTTP           HTTPConfig           `koanf:"http"`
	Logging        LoggingConfig        `koanf:"logging"`
}
