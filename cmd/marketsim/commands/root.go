package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/marketsim/pkg/config"
	"github.com/wonny/marketsim/pkg/logger"
)

var (
	// Global flags
	verbose   bool
	logFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "marketsim",
	Short: "Agent-based stock market simulator",
	Long: `marketsim CLI

Agents trade a small universe of stocks day by day.
Each day prices random-walk, agents re-rank stocks by their own weights
and every agent tries one trade against a matching counterparty.

Usage:
  go run ./cmd/marketsim [command]

Examples:
  go run ./cmd/marketsim run --agents 10 --days 100 --seed 42
  go run ./cmd/marketsim run --scenario scenarios/baseline.yaml --view
  go run ./cmd/marketsim serve
  go run ./cmd/marketsim runs list`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json|console), default from LOG_FORMAT")
}

// bootstrap loads config and builds the logger, applying global flags
func bootstrap() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	return cfg, logger.New(cfg), nil
}
