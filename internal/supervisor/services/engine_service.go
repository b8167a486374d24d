// counterbridge - Counter Event Aggregation & Flush Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/counterbridge

package services

import (
	"context"
	"fmt"
	"time"
)

// Engine matches the consumer engine's lifecycle methods, letting
// EngineService wrap it without a direct import.
//
// Satisfied by *engine.Engine:
//   - Start(ctx context.Context) error
//   - Stop(ctx context.Context) error
type Engine interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// EngineService adapts Engine's explicit Start/Stop lifecycle to suture's
// context-driven Serve(ctx) convention, the same translation
// HTTPServerService performs for *http.Server.
type EngineService struct {
	engine Engine
	name   string
}

// NewEngineService wraps engine as a supervised service.
func NewEngineService(engine Engine) *EngineService {
	return &EngineService{engine: engine, name: "counter-engine"}
}

// Serve implements suture.Service: starts the engine, blocks until ctx is
// canceled, then stops it.
func (s *EngineService) Serve(ctx context.Context) error {
	if err := s.engine.Start(ctx); err != nil {
		return fmt.Errorf("engine start: %w", err)
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.engine.Stop(stopCtx); err != nil {
		return fmt.Errorf("engine stop: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for suture's log output.
func (s *EngineService) String() string {
	return s.name
}
