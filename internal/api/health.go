package api

import (
	"context"
	"net/http"
	"time"
)

// healthProbeTimeout bounds how long the health check waits on the Store
// before reporting unhealthy, independent of any client-supplied timeout.
const healthProbeTimeout = 2 * time.Second

// handleHealth is the legacy combined health check, kept for existing
// callers; it has readiness semantics (pings the store).
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.handleReadiness(w, r)
}

// handleLiveness reports whether the process itself is still running its
// request loop. It never touches the store, so a slow or wedged database
// doesn't take the process out of a load balancer's rotation by itself.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "alive"})
}

// handleReadiness reports whether the service can currently serve traffic,
// which for camcoord means the store is reachable within budget.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
	defer cancel()

	if err := s.Store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unhealthy",
			"reason": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
}
