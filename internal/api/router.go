package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/marketsim/internal/api/handlers"
	"github.com/wonny/marketsim/pkg/logger"
)

// NewRouter creates and configures the HTTP router.
// limiter may be nil to disable rate limiting.
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(sims *handlers.SimulationHandler, health *handlers.HealthHandler, limiter Limiter, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", health.Check).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	if limiter != nil {
		api.Use(rateLimitMiddleware(limiter, log))
	}

	// Simulation endpoints
	api.HandleFunc("/simulations", sims.Create).Methods("POST")
	api.HandleFunc("/simulations", sims.List).Methods("GET")
	api.HandleFunc("/simulations/stream", sims.Stream).Methods("GET")
	api.HandleFunc("/simulations/{id}", sims.Get).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}
