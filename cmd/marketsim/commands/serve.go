package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/marketsim/internal/api"
	"github.com/wonny/marketsim/internal/api/handlers"
	"github.com/wonny/marketsim/internal/simulation"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the REST and websocket API.

Endpoints:
  GET  /health                      - Health check
  POST /api/simulations             - Run, store and return a simulation
  GET  /api/simulations             - List stored runs
  GET  /api/simulations/{id}        - Fetch one stored run
  GET  /api/simulations/stream      - Websocket, one message per simulated day

Example:
  go run ./cmd/marketsim serve
  go run ./cmd/marketsim serve --port 9090`,
	RunE: runServer,
}

var (
	servePort string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API server port (default from PORT)")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Port = servePort
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStack(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	runner := simulation.Runner{Source: defaultSource(cfg), Log: log}
	sims := handlers.NewSimulationHandler(runner, st.runs, defaultConfig(cfg), log)

	var health *handlers.HealthHandler
	if st.db != nil {
		health = handlers.NewHealthHandler(st.db)
	} else {
		health = handlers.NewHealthHandler(nil)
	}

	limiter := api.NewLimiter(st.redis, cfg.API.RateLimit, cfg.API.RateBurst)
	router := api.NewRouter(sims, health, limiter, log)
	server := api.New(cfg, log, router)

	fmt.Fprintf(cmd.OutOrStdout(), "Server running on http://localhost:%s (Ctrl+C to stop)\n", cfg.Port)

	if err := server.Run(ctx); err != nil {
		return err
	}
	log.Info("Server stopped")
	return nil
}
