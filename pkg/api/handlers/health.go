package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger checks that the backing store answers.
type Pinger interface {
	Healthcheck(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	store   Pinger
	started time.Time
}

// NewHealthHandler creates a health handler. store may be nil, in which
// case readiness always fails.
func NewHealthHandler(store Pinger, started time.Time) *HealthHandler {
	return &HealthHandler{store: store, started: started}
}

// Liveness handles GET /health. It succeeds while the process serves HTTP.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service":    "openbbs",
		"started_at": h.started.UTC().Format(time.RFC3339),
		"uptime":     time.Since(h.started).Round(time.Second).String(),
	}))
}

// Readiness handles GET /health/ready. It pings the store and returns 503
// when the ping fails.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("store not initialized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := h.store.Healthcheck(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"store_latency": time.Since(start).String(),
	}))
}
