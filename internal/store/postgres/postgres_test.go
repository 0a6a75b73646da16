package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/wonny/marketsim/internal/loader"
	"github.com/wonny/marketsim/internal/simulation"
	"github.com/wonny/marketsim/internal/store"
	"github.com/wonny/marketsim/pkg/config"
	"github.com/wonny/marketsim/pkg/database"
)

var _ store.RunStore = (*Repository)(nil)

// setupRepository starts a PostgreSQL container and applies the schema
func setupRepository(t *testing.T) *Repository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("marketsim"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Connect(ctx, config.DatabaseConfig{URL: dsn, MaxConns: 4, MinConns: 1})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	repo := NewRepository(db.Pool)
	require.NoError(t, repo.Migrate(ctx))
	// idempotent
	require.NoError(t, repo.Migrate(ctx))
	return repo
}

func runResult(t *testing.T, id string, seed int64) *simulation.Result {
	t.Helper()
	cfg := simulation.DefaultConfig()
	cfg.Seed = seed
	cfg.Days = 7
	cfg.Stocks = 3

	res, err := simulation.Simulate(context.Background(), cfg, loader.Embedded(), nil,
		simulation.WithRunID(id), simulation.WithName("pg"))
	require.NoError(t, err)
	return res
}

func TestRepository_SaveGetList(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	first := runResult(t, "run-a", 1)
	second := runResult(t, "run-b", 2)
	second.FinishedAt = first.FinishedAt.Add(time.Minute)

	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))

	got, err := repo.Get(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, first.Config, got.Config)
	assert.Equal(t, first.Seed, got.Seed)
	assert.Equal(t, first.Days, got.Days)
	assert.Equal(t, first.Agents, got.Agents)
	assert.Equal(t, first.Stocks, got.Stocks)
	assert.Equal(t, first.Summary, got.Summary)
	assert.WithinDuration(t, first.FinishedAt, got.FinishedAt, time.Millisecond)

	list, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "run-b", list[0].RunID)
	assert.Equal(t, 5, list[1].Agents)
	assert.Equal(t, 3, list[1].Stocks)
	assert.Equal(t, 7, list[1].Days)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrRunNotFound)
}

func TestRepository_SaveReplaces(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	res := runResult(t, "run-x", 3)
	require.NoError(t, repo.Save(ctx, res))

	res.Days = res.Days[:2]
	res.Name = "trimmed"
	require.NoError(t, repo.Save(ctx, res))

	got, err := repo.Get(ctx, "run-x")
	require.NoError(t, err)
	assert.Equal(t, "trimmed", got.Name)
	assert.Len(t, got.Days, 2)
}
