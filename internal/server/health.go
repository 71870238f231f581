package server

import (
	"context"
	"database/sql"
	"net/http"
	"time"
)

const readinessTimeout = 2 * time.Second

type healthHandler struct {
	db    *sql.DB
	cache Pinger
}

func (h *healthHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/healthz", Handler: h.healthz},
		{Method: http.MethodGet, Path: "/readyz", Handler: h.readyz},
	}
}

func (h *healthHandler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, envelope{"status": "ok"})
}

// readyz reports the database and, when configured, the cache. A cache outage is reported but does not fail
// readiness.
func (h *healthHandler) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := map[string]string{"database": "ok"}
	if err := h.db.PingContext(ctx); err != nil {
		checks["database"] = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, envelope{"success": false, "status": "unavailable", "checks": checks})
		return
	}

	if h.cache != nil {
		checks["cache"] = "ok"
		if err := h.cache.Ping(ctx); err != nil {
			checks["cache"] = err.Error()
		}
	}
	writeJSON(w, http.StatusOK, envelope{"status": "ready", "checks": checks})
}
