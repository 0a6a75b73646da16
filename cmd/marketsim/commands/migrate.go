package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/marketsim/internal/store/postgres"
	"github.com/wonny/marketsim/pkg/database"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the run store schema",
	Long: `Create the simulation_runs and simulation_days tables in DATABASE_URL.
Safe to run repeatedly.

Example:
  DATABASE_URL=postgres://localhost/marketsim go run ./cmd/marketsim migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	if !cfg.HasDatabase() {
		return errors.New("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := postgres.NewRepository(db.Pool).Migrate(ctx); err != nil {
		return err
	}

	log.Info("Schema migrated")
	fmt.Fprintln(cmd.OutOrStdout(), "✅ schema up to date")
	return nil
}
