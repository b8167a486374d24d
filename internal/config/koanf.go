// counterbridge - Counter Event Aggregation & Flush Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/counterbridge

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where a config file is searched for, in
// priority order. The first one found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/counterbridge/config.yaml",
	"/etc/counterbridge/config.yml",
}

// ConfigPathEnvVar overrides the config file search with an explicit path.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix is stripped from every environment variable before it is mapped
// onto a koanf path, so COUNTERBRIDGE_REDIS__ADDR becomes redis.addr.
const envPrefix = "COUNTERBRIDGE_"

func defaultConfig() *Config {
	return &Config{
		Redis: RedisConfig{
			Addr: "127.0.0.1:6379",
			DB:   0,
		},
		Engine: EngineConfig{
			StreamKey:         "counter-bridge:events",
			ConsumerGroup:     "counter-bridge-group",
			ConsumerID:        "", // auto-generated per process if empty, see Load
			MaxWait:           500 * time.Millisecond,
			MaxMessages:       1000,
			RecoveryBatchSize: 1000,
			ReadErrorBackoff:  time.Second,
		},
		Provider: ProviderConfig{
			Kind: ProviderMemory,
			Badger: BadgerConfig{
				Dir: "/data/counterbridge/badger",
			},
			DuckDB: DuckDBConfig{
				Path: "/data/counterbridge/counters.duckdb",
			},
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:     false,
			MaxRequests: 1,
			Interval:    30 * time.Second,
			Timeout:     10 * time.Second,
		},
		HTTP: HTTPConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the Config from three layers, lowest to highest priority:
//
//  1. Defaults: the built-in values from defaultConfig.
//  2. Config file: an optional YAML file, located via CONFIG_PATH or
//     DefaultConfigPaths.
//  3. Environment variables: COUNTERBRIDGE_-prefixed, double-underscore
//     nested (COUNTERBRIDGE_REDIS__ADDR -> redis.addr).
//
// The result is validated with go-playground/validator before being
// returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if cfg.Engine.ConsumerID == "" {
		cfg.Engine.ConsumerID = uuid.New().String()
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envTransformFunc maps COUNTERBRIDGE_REDIS__ADDR to redis.addr: env.Provider
// calls this with the raw variable name still carrying envPrefix, so it must
// be trimmed here before lowercasing and turning "__" section separators
// into koanf's "." delimiter.
func envTransformFunc(key string) string {
	key = strings.TrimPrefix(key, envPrefix)
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "__", ".")
	return key
}
