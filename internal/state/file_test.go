package state_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/dictant/internal/sentence"
	"github.com/edgard/dictant/internal/state"
)

func TestParseIDList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    []int64
		wantErr bool
	}{
		{name: "empty", input: "", want: nil},
		{name: "single", input: "42", want: []int64{42}},
		{name: "spaces and blanks", input: " 1, 2,,3 ,\n", want: []int64{1, 2, 3}},
		{name: "garbage", input: "1,x,3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := state.ParseIDList(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatIDList(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", state.FormatIDList(nil))
	assert.Equal(t, "3,17,42", state.FormatIDList([]int64{3, 17, 42}))
}

func TestFileStoreUsed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	store := state.NewFileStore(filepath.Join(dir, "data", "used.txt"), filepath.Join(dir, "pending.json"), nil)

	ids, err := store.LoadUsed(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, store.SaveUsed(ctx, []int64{5, 1}))
	ids, err = store.LoadUsed(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 1}, ids)

	raw, err := os.ReadFile(filepath.Join(dir, "data", "used.txt"))
	require.NoError(t, err)
	assert.Equal(t, "5,1", string(raw))
}

func TestFileStorePendingRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	store := state.NewFileStore(filepath.Join(dir, "used.txt"), filepath.Join(dir, "pending.json"), nil)

	_, err := store.LoadPending(ctx)
	assert.True(t, errors.Is(err, state.ErrNoPending))

	want := &sentence.Sentence{
		ID:          12,
		EN:          "I like tea",
		RU:          "Я люблю чай",
		Topic:       "Еда",
		Difficulty:  "легко",
		Explanation: "Present Simple для привычек.",
	}
	require.NoError(t, store.SavePending(ctx, want))

	got, err := store.LoadPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFileStoreCorruptPending(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	pendingPath := filepath.Join(dir, "pending.json")
	require.NoError(t, os.WriteFile(pendingPath, []byte("{not json"), 0o600))

	store := state.NewFileStore(filepath.Join(dir, "used.txt"), pendingPath, nil)
	_, err := store.LoadPending(ctx)
	require.Error(t, err)
	assert.False(t, errors.Is(err, state.ErrNoPending))
}
