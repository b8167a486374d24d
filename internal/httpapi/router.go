// counterbridge - Counter Event Aggregation & Flush Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/counterbridge

// Package httpapi exposes the engine's admin and health HTTP surface using
// the Chi router: liveness/readiness probes, a Prometheus /metrics
// endpoint, a JSON stats snapshot, and scope read/delete routes.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/counterbridge/internal/engine"
)

// Router builds the admin API's http.Handler.
type Router struct {
	handler    *Handler
	adminToken []byte
}

// NewRouter returns a Router serving eng's admin API. adminToken signs and
// verifies the bearer token required by DELETE /v1/scopes/{scope}.
func NewRouter(eng *engine.Engine, ready func() bool, adminToken []byte) *Router {
	return &Router{
		handler:    NewHandler(eng, ready),
		adminToken: adminToken,
	}
}

// Setup builds the routed http.Handler.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{},
		AllowedMethods: []string{"GET", "DELETE"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))
	r.Use(httprate.Limit(
		300,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	))

	r.Get("/healthz", router.handler.HealthLive)
	r.Get("/readyz", router.handler.HealthReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/stats", router.handler.Stats)
		r.Get("/scopes/{scope}", router.handler.GetScope)
		r.With(bearerAuth(router.adminToken)).Delete("/scopes/{scope}", router.handler.DeleteScope)
	})

	return r
}
