// counterbridge - Counter Event Aggregation & Flush Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/counterbridge

/*
Package supervisor provides process supervision for the counter-bridge
consumer engine using suture v4.

This package implements a two-layer supervisor tree that manages the
lifecycle of the process's long-running services, with Erlang/OTP-style
automatic restart, failure isolation, and graceful shutdown.

# Overview

	RootSupervisor ("counterbridge")
	├── EngineSupervisor ("engine-layer")
	│   └── EngineService (stream reader, aggregator, flush loop)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService (admin/health HTTP API)

A crash restarting the engine layer doesn't take the admin/health API
down with it: /healthz and /readyz keep answering while the engine
recovers and replays its pending entries.

# Usage Example

	import (
	    "log/slog"
	    "github.com/tomtom215/counterbridge/internal/supervisor"
	    "github.com/tomtom215/counterbridge/internal/supervisor/services"
	)

	func main() {
	    logger := slog.Default()
	    config := supervisor.DefaultTreeConfig()

	    tree, err := supervisor.NewSupervisorTree(logger, config)
	    if err != nil {
	        log.Fatal(err)
	    }

	    tree.AddEngineService(services.NewEngineService(eng))
	    tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	    ctx := context.Background()
	    if err := tree.Serve(ctx); err != nil {
	        log.Printf("Supervisor stopped: %v", err)
	    }
	}

Background operation:

	errChan := tree.ServeBackground(ctx)
	// ... other setup ...
	if err := <-errChan; err != nil {
	    log.Printf("Supervisor error: %v", err)
	}

# Configuration

	config := supervisor.TreeConfig{
	    FailureThreshold: 5.0,
	    FailureDecay:     30.0,
	    FailureBackoff:   15 * time.Second,
	    ShutdownTimeout:  10 * time.Second,
	}

Default values match suture's production-ready defaults.

# Failure Handling

Each service failure increments a counter that decays exponentially over
FailureDecay seconds. Once the counter exceeds FailureThreshold, the
supervisor backs off for FailureBackoff before restarting the service.

# Service Interface

All services must implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Return nil for a clean stop (no restart), return an error for a crash
(restarted per the failure policy above), and return promptly when ctx is
canceled.

# Debugging Shutdown Issues

	report, err := tree.UnstoppedServiceReport()
	for _, svc := range report {
	    log.Printf("Service didn't stop: %v", svc)
	}

# See Also

  - internal/supervisor/services: Service wrappers
  - github.com/thejerf/suture/v4: Underlying library
*/
package supervisor
