package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/marketsim/internal/simulation"
)

const streamWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamMessage is one websocket frame of a streamed run
type StreamMessage struct {
	Type    string                `json:"type"` // day, summary, error
	RunID   string                `json:"run_id,omitempty"`
	Day     *simulation.DayRecord `json:"day,omitempty"`
	Summary *simulation.Summary   `json:"summary,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// Stream runs a simulation and pushes one message per day, then the summary.
// Query parameters agents, stocks, days, seed and name override the defaults.
// GET /api/simulations/stream
func (h *SimulationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	cfg, name, err := h.configFromQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := cfg.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	// net/http no longer watches the hijacked conn; a read error means the client left
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	send := func(msg StreamMessage) error {
		conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		return conn.WriteJSON(msg)
	}

	var writeErr error
	res, err := h.runner.Run(ctx, cfg,
		simulation.WithName(name),
		simulation.WithDayHook(func(rec simulation.DayRecord) {
			if writeErr != nil {
				return
			}
			if writeErr = send(StreamMessage{Type: "day", Day: &rec}); writeErr != nil {
				cancel()
			}
		}),
	)
	if err != nil {
		if ctx.Err() != nil {
			h.logger.WithError(err).Debug("Stream client went away, run stopped")
			return
		}
		h.logger.WithError(err).Warn("Streamed simulation failed")
		_ = send(StreamMessage{Type: "error", Error: err.Error()})
		return
	}

	if err := h.store.Save(r.Context(), res); err != nil {
		h.logger.WithError(err).WithField("run_id", res.RunID).Error("Failed to save streamed run")
	}

	_ = send(StreamMessage{Type: "summary", RunID: res.RunID, Summary: &res.Summary})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
		time.Now().Add(time.Second))
}

func (h *SimulationHandler) configFromQuery(r *http.Request) (simulation.Config, string, error) {
	cfg := h.defaults
	q := r.URL.Query()

	ints := []struct {
		key string
		dst *int
	}{
		{"agents", &cfg.Agents},
		{"stocks", &cfg.Stocks},
		{"days", &cfg.Days},
	}
	for _, p := range ints {
		if v := q.Get(p.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return cfg, "", simulation.ConfigError{Field: p.key, Message: "must be an integer"}
			}
			*p.dst = n
		}
	}
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, "", simulation.ConfigError{Field: "seed", Message: "must be an integer"}
		}
		cfg.Seed = seed
	}
	return cfg, q.Get("name"), nil
}
