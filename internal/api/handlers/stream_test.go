package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/marketsim/internal/api/handlers"
	"github.com/wonny/marketsim/internal/simulation"
	"github.com/wonny/marketsim/internal/store/memory"
	"github.com/wonny/marketsim/pkg/logger"
)

// blockingRunner runs until its context is cancelled
type blockingRunner struct {
	started chan struct{}
	stopped chan struct{}
}

func (b *blockingRunner) Run(ctx context.Context, _ simulation.Config, _ ...simulation.Option) (*simulation.Result, error) {
	close(b.started)
	select {
	case <-ctx.Done():
		close(b.stopped)
		return nil, ctx.Err()
	case <-time.After(10 * time.Second):
		return nil, errors.New("run was never cancelled")
	}
}

func TestStream_ClientDisconnectStopsRun(t *testing.T) {
	runner := &blockingRunner{started: make(chan struct{}), stopped: make(chan struct{})}
	runs := memory.New()
	h := handlers.NewSimulationHandler(runner, runs, simulation.DefaultConfig(), logger.Nop())

	srv := httptest.NewServer(http.HandlerFunc(h.Stream))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?days=10000"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	select {
	case <-runner.started:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not start")
	}
	require.NoError(t, conn.Close())

	select {
	case <-runner.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("run kept going after the client left")
	}

	list, err := runs.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}
