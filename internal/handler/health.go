package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a plain ping function, such as a cache client's.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	db    pinger
	cache pinger
}

// NewHealthHandler takes a nil cache when the ledger cache is disabled.
func NewHealthHandler(db, cache pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"version":   "1.0.0",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	httpStatus := http.StatusOK

	checks["database"] = "ok"
	if err := h.db.PingContext(ctx); err != nil {
		slog.Warn("readiness check failed: database unreachable", "error", err)
		checks["database"] = "down"
		httpStatus = http.StatusServiceUnavailable
	}

	// A cache outage does not fail readiness.
	if h.cache != nil {
		checks["cache"] = "ok"
		if err := h.cache.PingContext(ctx); err != nil {
			slog.Warn("readiness check: cache unreachable", "error", err)
			checks["cache"] = "degraded"
		}
	}

	overallStatus := "ok"
	if httpStatus != http.StatusOK {
		overallStatus = "down"
	}

	RespondJSON(w, httpStatus, map[string]any{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}
