// counterbridge - Counter Event Aggregation & Flush Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/counterbridge

package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/tomtom215/counterbridge/internal/engine"
)

// Handler serves the admin/health HTTP API over an Engine.
type Handler struct {
	engine *engine.Engine
	ready  func() bool
}

// NewHandler returns a Handler for engine, reporting ready() for /readyz.
func NewHandler(eng *engine.Engine, ready func() bool) *Handler {
	return &Handler{engine: eng, ready: ready}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// HealthLive answers GET /healthz: the process is up.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "live"})
}

// HealthReady answers GET /readyz: Engine.Start has completed.
func (h *Handler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	if !h.ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Stats answers GET /v1/stats with an engine.Stats JSON snapshot.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Stats())
}

// GetScope answers GET /v1/scopes/{scope}.
func (h *Handler) GetScope(w http.ResponseWriter, r *http.Request) {
	scope := chi.URLParam(r, "scope")
	value, err := h.engine.Get(r.Context(), scope)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"scope": scope, "value": value})
}

// DeleteScope answers DELETE /v1/scopes/{scope}. Returns 405 if the
// configured provider has no Delete capability.
func (h *Handler) DeleteScope(w http.ResponseWriter, r *http.Request) {
	scope := chi.URLParam(r, "scope")
	err := h.engine.Delete(r.Context(), scope)
	if errors.Is(err, engine.ErrScopeDeleteUnsupported) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
