// counterbridge - Counter Event Aggregation & Flush Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/counterbridge

/*
Package services provides suture.Service wrappers for the counter-bridge
process's two long-running components, translating their native
lifecycle patterns into suture's context-aware Serve pattern.

# Available Services

EngineService wraps the consumer engine's explicit Start(ctx)/Stop(ctx)
lifecycle:

	func (s *EngineService) Serve(ctx context.Context) error {
	    if err := s.engine.Start(ctx); err != nil {
	        return err
	    }
	    <-ctx.Done()
	    _ = s.engine.Stop(shutdownCtx)
	    return ctx.Err()
	}

HTTPServerService wraps the admin/health *http.Server's
ListenAndServe/Shutdown pattern:

	func (h *HTTPServerService) Serve(ctx context.Context) error {
	    go h.server.ListenAndServe()
	    <-ctx.Done()
	    if err := h.server.Shutdown(shutdownCtx); err != nil {
	        return err
	    }
	    return ctx.Err()
	}

# Error Handling

Return nil for a clean stop (no restart), an error for a crash
(restarted per the supervisor's failure policy), or ctx.Err() after a
requested shutdown.

# Service Identification

Both wrappers implement fmt.Stringer so suture can name them in its log
output ("counter-engine", "http-server").

# See Also

  - internal/supervisor: SupervisorTree that manages these services
  - github.com/thejerf/suture/v4: Underlying supervision library
*/
package services
