package handler

import (
	"context"
	"net/http"
	"time"

	"docvault/internal/httputil"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger, e.g. (*sql.DB).PingContext
type PingFunc func(ctx context.Context) error

// Ping calls f(ctx)
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler reports liveness and store reachability
type HealthHandler struct {
	store  Pinger
	driver string
}

// NewHealthHandler creates a health handler. store may be nil for in-memory stores.
func NewHealthHandler(store Pinger, driver string) *HealthHandler {
	return &HealthHandler{store: store, driver: driver}
}

// HealthCheck handles health check requests
// GET /health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			httputil.RespondError(w, http.StatusServiceUnavailable, "store unreachable: "+err.Error())
			return
		}
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"store":  h.driver,
	})
}
