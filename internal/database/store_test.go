package database_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/dictant/internal/database"
	"github.com/edgard/dictant/internal/sentence"
	"github.com/edgard/dictant/internal/state"
)

func newTestStore(t *testing.T) state.Store {
	t.Helper()
	store, err := database.Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreUsed(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	ids, err := store.LoadUsed(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, store.SaveUsed(ctx, []int64{3, 1, 3}))
	ids, err = store.LoadUsed(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 3}, ids)

	require.NoError(t, store.SaveUsed(ctx, nil))
	ids, err = store.LoadUsed(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStorePending(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.LoadPending(ctx)
	assert.True(t, errors.Is(err, state.ErrNoPending))

	first := &sentence.Sentence{ID: 1, EN: "I like tea", RU: "Я люблю чай", Topic: "Еда", Difficulty: "легко"}
	require.NoError(t, store.SavePending(ctx, first))

	second := &sentence.Sentence{
		ID:          2,
		EN:          "We were late",
		RU:          "Мы опоздали",
		Topic:       "Время",
		Difficulty:  "средне",
		Explanation: "Past Simple от to be.",
	}
	require.NoError(t, store.SavePending(ctx, second))

	got, err := store.LoadPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestOpenFileDatabaseTwice(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	store, err := database.Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, store.SaveUsed(ctx, []int64{9}))
	require.NoError(t, store.Close())

	// Reopening must not fail on already applied migrations.
	store, err = database.Open(path, nil)
	require.NoError(t, err)
	defer store.Close()

	ids, err := store.LoadUsed(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{9}, ids)
}

func TestExtractDBNameFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"state.db", "state.db"},
		{"file:state.db?_pragma=busy_timeout(5000)", "state.db"},
		{"file:my%20state.db", "my state.db"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, database.ExtractDBNameFromPath(tt.input))
	}
}
