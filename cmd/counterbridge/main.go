// counterbridge - Counter Event Aggregation & Flush Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/counterbridge

// Package main is the entry point for the counter-bridge consumer engine.
//
// counter-bridge absorbs high-rate counter mutation events from a Redis
// Streams consumer group, aggregates them in memory under bounded
// time/size windows, and flushes net deltas to a pluggable storage
// provider (in-memory, BadgerDB, or DuckDB) with at-least-once delivery
// and crash recovery.
//
// # Application Architecture
//
// The process initializes components in the following order:
//
//  1. Configuration: Koanf v2, layered env vars / config file / defaults
//  2. Logging: zerolog, bridged to slog for the supervisor's event hook
//  3. Provider: memory, BadgerDB or DuckDB, selected by provider.kind
//     (COUNTERBRIDGE_PROVIDER__KIND)
//  4. Stream Reader: Redis Streams consumer group binding
//  5. Engine: Stream Reader + Aggregator + Flush Coordinator
//  6. Admin/health HTTP API: Chi router, JWT-gated scope deletion
//  7. Supervisor tree: engine layer + API layer, independent restart
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the engine performs a
// final flush before the process exits.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/counterbridge/internal/config"
	"github.com/tomtom215/counterbridge/internal/engine"
	"github.com/tomtom215/counterbridge/internal/engine/redisstream"
	"github.com/tomtom215/counterbridge/internal/httpapi"
	"github.com/tomtom215/counterbridge/internal/logging"
	"github.com/tomtom215/counterbridge/internal/provider/badgerstore"
	"github.com/tomtom215/counterbridge/internal/provider/duckstore"
	"github.com/tomtom215/counterbridge/internal/provider/memstore"
	"github.com/tomtom215/counterbridge/internal/supervisor"
	"github.com/tomtom215/counterbridge/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Timestamp: true,
	})

	logging.Info().
		Str("stream_key", cfg.Engine.StreamKey).
		Str("consumer_group", cfg.Engine.ConsumerGroup).
		Str("provider", string(cfg.Provider.Kind)).
		Msg("Starting counter-bridge")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prov, err := newProvider(cfg.Provider)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to construct provider")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	reader := redisstream.New(redisClient, cfg.Engine.StreamKey, cfg.Engine.ConsumerGroup, cfg.Engine.ConsumerID)

	var breaker *gobreaker.CircuitBreaker[engine.FlushResult]
	if cfg.CircuitBreaker.Enabled {
		breaker = gobreaker.NewCircuitBreaker[engine.FlushResult](gobreaker.Settings{
			Name:        "flush",
			MaxRequests: cfg.CircuitBreaker.MaxRequests,
			Interval:    cfg.CircuitBreaker.Interval,
			Timeout:     cfg.CircuitBreaker.Timeout,
		})
		logging.Info().Msg("Flush circuit breaker enabled")
	}

	eng := engine.New(engine.Config{
		MaxWait:           cfg.Engine.MaxWait,
		MaxMessages:       cfg.Engine.MaxMessages,
		RecoveryBatchSize: cfg.Engine.RecoveryBatchSize,
		ReadErrorBackoff:  cfg.Engine.ReadErrorBackoff,
		Breaker:           breaker,
	}, prov, reader)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      httpapi.NewRouter(eng, eng.Running, []byte(cfg.HTTP.AdminToken)).Setup(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	slogLogger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddEngineService(services.NewEngineService(eng))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.HTTP.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("counter-bridge stopped gracefully")
}

// newProvider constructs the configured Provider without initializing it:
// Engine.Start calls Initialize exactly once via the Initializer capability
// detected in engine.New.
func newProvider(cfg config.ProviderConfig) (engine.Provider, error) {
	switch cfg.Kind {
	case config.ProviderMemory, "":
		return memstore.New(), nil
	case config.ProviderBadger:
		return badgerstore.New(cfg.Badger.Dir), nil
	case config.ProviderDuckDB:
		return duckstore.New(cfg.DuckDB.Path), nil
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Kind)
	}
}
