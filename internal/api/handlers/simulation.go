package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/marketsim/internal/simulation"
	"github.com/wonny/marketsim/internal/store"
	"github.com/wonny/marketsim/pkg/logger"
)

// Runner executes one simulation
type Runner interface {
	Run(ctx context.Context, cfg simulation.Config, opts ...simulation.Option) (*simulation.Result, error)
}

// SimulationHandler serves run, list and fetch of simulations
// ⭐ SSOT: 시뮬레이션 API 핸들러는 이 구조체에서만
type SimulationHandler struct {
	runner   Runner
	store    store.RunStore
	defaults simulation.Config
	logger   *logger.Logger
}

// NewSimulationHandler creates a new simulation handler
func NewSimulationHandler(runner Runner, runs store.RunStore, defaults simulation.Config, log *logger.Logger) *SimulationHandler {
	return &SimulationHandler{
		runner:   runner,
		store:    runs,
		defaults: defaults,
		logger:   log,
	}
}

// runRequest overlays the JSON body on the default config
type runRequest struct {
	simulation.Config
	Name string `json:"name"`
}

// Create runs a simulation, stores it and returns the result
// POST /api/simulations
func (h *SimulationHandler) Create(w http.ResponseWriter, r *http.Request) {
	req := runRequest{Config: h.defaults}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := h.runner.Run(r.Context(), req.Config, simulation.WithName(req.Name))
	if err != nil {
		h.respondRunError(w, err)
		return
	}

	if err := h.store.Save(r.Context(), res); err != nil {
		h.logger.WithError(err).WithField("run_id", res.RunID).Error("Failed to save run")
		respondError(w, http.StatusInternalServerError, "failed to save run")
		return
	}

	respondJSON(w, http.StatusCreated, res)
}

// List returns stored run summaries, newest first
// GET /api/simulations?limit=N
func (h *SimulationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	runs, err := h.store.List(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []store.RunSummary{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// Get returns one stored result
// GET /api/simulations/{id}
func (h *SimulationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	res, err := h.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrRunNotFound) {
		respondError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("run_id", id).Error("Failed to get run")
		respondError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	respondJSON(w, http.StatusOK, res)
}

func (h *SimulationHandler) respondRunError(w http.ResponseWriter, err error) {
	if errors.Is(err, simulation.ErrInvalidConfig) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.WithError(err).Error("Simulation failed")
	respondError(w, http.StatusInternalServerError, "simulation failed")
}
