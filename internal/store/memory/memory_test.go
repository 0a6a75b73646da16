package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/marketsim/internal/simulation"
	"github.com/wonny/marketsim/internal/store"
)

var _ store.RunStore = (*Store)(nil)

func result(id string, final float64) *simulation.Result {
	return &simulation.Result{
		RunID:   id,
		Summary: simulation.Summary{Days: 3, FinalPriceIndex: final},
	}
}

func TestStore_SaveGet(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Save(ctx, result("a", 1)))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Summary.FinalPriceIndex)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrRunNotFound)

	assert.Error(t, s.Save(ctx, &simulation.Result{}))
}

func TestStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Save(ctx, result(id, float64(i))))
	}
	// replacing keeps the original position
	require.NoError(t, s.Save(ctx, result("a", 10)))

	list, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{list[0].RunID, list[1].RunID, list[2].RunID})
	assert.Equal(t, 10.0, list[2].FinalPriceIndex)

	list, err = s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
