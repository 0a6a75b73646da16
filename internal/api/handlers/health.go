package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/marketsim/pkg/database"
)

// DatabaseChecker reports database health
type DatabaseChecker interface {
	HealthCheck(ctx context.Context) (*database.HealthStatus, error)
}

// HealthHandler serves /health
type HealthHandler struct {
	db DatabaseChecker // nil when runs are kept in memory
}

// NewHealthHandler creates a health handler. db may be nil.
func NewHealthHandler(db DatabaseChecker) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check returns 200 when every configured dependency answers
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":  "ok",
		"service": "marketsim-api",
		"store":   "memory",
	}
	if h.db == nil {
		respondJSON(w, http.StatusOK, body)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	body["store"] = "postgres"
	status, err := h.db.HealthCheck(ctx)
	body["database"] = status
	if err != nil {
		body["status"] = "degraded"
		respondJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	respondJSON(w, http.StatusOK, body)
}
