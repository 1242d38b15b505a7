package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tuistat/internal/model"
)

func TestMemoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	log := NewMemory()
	for _, input := range []string{"1,2", "3,4", "1,2"} {
		require.NoError(t, log.Prepend(ctx, model.HistoryEntry{Input: input}))
	}

	entries, err := log.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "1,2", entries[0].Input)
	assert.Equal(t, "3,4", entries[1].Input)
	assert.Equal(t, "1,2", entries[2].Input)
	assert.Equal(t, 3, log.Len())
}

func TestMemoryEntriesIsACopy(t *testing.T) {
	ctx := context.Background()
	log := NewMemory()
	require.NoError(t, log.Prepend(ctx, model.HistoryEntry{Input: "1"}))

	entries, err := log.Entries(ctx)
	require.NoError(t, err)
	entries[0].Input = "changed"

	again, err := log.Entries(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", again[0].Input)
}

func TestMemoryClear(t *testing.T) {
	ctx := context.Background()
	log := NewMemory()
	require.NoError(t, log.Prepend(ctx, model.HistoryEntry{Input: "1"}))
	require.NoError(t, log.Clear(ctx))

	entries, err := log.Entries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
