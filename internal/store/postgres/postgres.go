package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/marketsim/internal/simulation"
	"github.com/wonny/marketsim/internal/store"
)

//go:embed schema.sql
var schema string

var dayColumns = []string{"run_id", "day", "price_index", "market_cap_index", "trades", "no_counterparty", "infeasible"}

// Repository stores finished runs in PostgreSQL
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository 새 저장소 생성
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Migrate creates the tables if they do not exist
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Save writes the run row and copies its day series in one transaction.
// Saving an existing run id replaces it.
func (r *Repository) Save(ctx context.Context, res *simulation.Result) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO simulation_runs
			(run_id, name, seed, config, agents, stocks, summary, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (run_id) DO UPDATE SET
			name = EXCLUDED.name,
			seed = EXCLUDED.seed,
			config = EXCLUDED.config,
			agents = EXCLUDED.agents,
			stocks = EXCLUDED.stocks,
			summary = EXCLUDED.summary,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at`

	if _, err := tx.Exec(ctx, query,
		res.RunID, res.Name, res.Seed,
		res.Config, res.Agents, res.Stocks, res.Summary,
		res.StartedAt, res.FinishedAt,
	); err != nil {
		return fmt.Errorf("insert run %s: %w", res.RunID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM simulation_days WHERE run_id = $1`, res.RunID); err != nil {
		return fmt.Errorf("clear days %s: %w", res.RunID, err)
	}

	rows := make([][]any, len(res.Days))
	for i, d := range res.Days {
		rows[i] = []any{res.RunID, d.Day, d.PriceIndex, d.MarketCapIndex, d.Trades, d.NoCounterparty, d.Infeasible}
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"simulation_days"}, dayColumns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("copy days %s: %w", res.RunID, err)
	}

	return tx.Commit(ctx)
}

// Get loads a run with its day series
func (r *Repository) Get(ctx context.Context, runID string) (*simulation.Result, error) {
	query := `
		SELECT run_id, name, seed, config, agents, stocks, summary, started_at, finished_at
		FROM simulation_runs
		WHERE run_id = $1`

	var res simulation.Result
	err := r.pool.QueryRow(ctx, query, runID).Scan(
		&res.RunID, &res.Name, &res.Seed,
		&res.Config, &res.Agents, &res.Stocks, &res.Summary,
		&res.StartedAt, &res.FinishedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, store.ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT day, price_index, market_cap_index, trades, no_counterparty, infeasible
		FROM simulation_days
		WHERE run_id = $1
		ORDER BY day`, runID)
	if err != nil {
		return nil, fmt.Errorf("get days %s: %w", runID, err)
	}
	defer rows.Close()

	res.Days = make([]simulation.DayRecord, 0, res.Summary.Days)
	for rows.Next() {
		var d simulation.DayRecord
		if err := rows.Scan(&d.Day, &d.PriceIndex, &d.MarketCapIndex, &d.Trades, &d.NoCounterparty, &d.Infeasible); err != nil {
			return nil, err
		}
		res.Days = append(res.Days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &res, nil
}

// List returns summaries, most recently finished first
func (r *Repository) List(ctx context.Context, limit int) ([]store.RunSummary, error) {
	query := `
		SELECT run_id, name, seed,
			jsonb_array_length(agents), jsonb_array_length(stocks),
			summary, finished_at
		FROM simulation_runs
		ORDER BY finished_at DESC, run_id
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, store.NormalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []store.RunSummary
	for rows.Next() {
		var (
			s   store.RunSummary
			sum simulation.Summary
		)
		if err := rows.Scan(&s.RunID, &s.Name, &s.Seed, &s.Agents, &s.Stocks, &sum, &s.FinishedAt); err != nil {
			return nil, err
		}
		s.Days = sum.Days
		s.Trades = sum.Trades
		s.FinalPriceIndex = sum.FinalPriceIndex
		s.FinalMarketCapIndex = sum.FinalMarketCapIndex
		out = append(out, s)
	}
	return out, rows.Err()
}
