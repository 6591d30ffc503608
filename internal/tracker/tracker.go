// Package tracker records which sentences have already been delivered and
// picks the next one without repeats until the catalog is exhausted.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/samber/lo"

	"github.com/edgard/dictant/internal/sentence"
	"github.com/edgard/dictant/internal/state"
)

// ErrEmptyCatalog is returned by Pick when there is nothing to choose from.
var ErrEmptyCatalog = errors.New("catalog is empty")

// Set is a set of delivered sentence identifiers.
type Set map[int64]struct{}

// NewSet builds a Set from ids.
func NewSet(ids ...int64) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s Set) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the members in ascending order.
func (s Set) IDs() []int64 {
	ids := lo.Keys(s)
	slices.Sort(ids)
	return ids
}

// Tracker persists the used set through a state.Store.
type Tracker struct {
	store  state.Store
	logger *slog.Logger
	intn   func(n int) int
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithRand replaces the random index source used by Pick.
func WithRand(intn func(n int) int) Option {
	return func(t *Tracker) { t.intn = intn }
}

// New creates a Tracker over store.
func New(store state.Store, logger *slog.Logger, opts ...Option) *Tracker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	t := &Tracker{
		store:  store,
		logger: logger.With("component", "tracker"),
		intn:   rand.IntN,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// LoadUsed returns the persisted set. Missing or corrupt state is logged and
// treated as empty; it never fails the caller.
func (t *Tracker) LoadUsed(ctx context.Context) Set {
	ids, err := t.store.LoadUsed(ctx)
	if err != nil {
		t.logger.WarnContext(ctx, "Used set unreadable, treating as empty", "error", err)
		return Set{}
	}
	return NewSet(ids...)
}

// SaveUsed overwrites the persisted set.
func (t *Tracker) SaveUsed(ctx context.Context, used Set) error {
	if err := t.store.SaveUsed(ctx, used.IDs()); err != nil {
		return fmt.Errorf("failed to save used set: %w", err)
	}
	return nil
}

// MarkUsed derives the record's id if missing and adds it to the set.
func (t *Tracker) MarkUsed(ctx context.Context, s *sentence.Sentence) error {
	s.EnsureID()
	used := t.LoadUsed(ctx)
	if used.Has(s.ID) {
		return nil
	}
	used[s.ID] = struct{}{}
	if err := t.SaveUsed(ctx, used); err != nil {
		return err
	}
	t.logger.DebugContext(ctx, "Sentence marked as used", "sentence_id", s.ID, "used_count", len(used))
	return nil
}

// IsUsed reports whether the record has already been delivered.
func (t *Tracker) IsUsed(ctx context.Context, s *sentence.Sentence) bool {
	return t.IsUsedID(ctx, s.Key())
}

// IsUsedID reports whether id has already been delivered.
func (t *Tracker) IsUsedID(ctx context.Context, id int64) bool {
	return t.LoadUsed(ctx).Has(id)
}

// Reset clears the persisted set.
func (t *Tracker) Reset(ctx context.Context) error {
	return t.SaveUsed(ctx, Set{})
}

// Pick returns a random catalog entry that has not been used. When every
// entry has been used the set is reset first and the pick is made over the
// whole catalog.
func (t *Tracker) Pick(ctx context.Context, catalog []sentence.Sentence) (sentence.Sentence, error) {
	if len(catalog) == 0 {
		return sentence.Sentence{}, ErrEmptyCatalog
	}

	used := t.LoadUsed(ctx)
	available := Available(catalog, used)

	if len(available) == 0 {
		t.logger.InfoContext(ctx, "All catalog sentences used, starting over", "catalog_size", len(catalog))
		if err := t.Reset(ctx); err != nil {
			t.logger.WarnContext(ctx, "Failed to reset used set", "error", err)
		}
		available = catalog
	}

	chosen := available[t.intn(len(available))]
	chosen.EnsureID()
	t.logger.DebugContext(ctx, "Sentence picked", "sentence_id", chosen.ID, "available", len(available))
	return chosen, nil
}

// Available returns the catalog entries whose ids are not in used.
func Available(catalog []sentence.Sentence, used Set) []sentence.Sentence {
	return lo.Filter(catalog, func(s sentence.Sentence, _ int) bool {
		return !used.Has(s.Key())
	})
}

// Stats summarizes catalog usage.
type Stats struct {
	Total     int
	Used      int
	Remaining int
}

// Stats reports how much of catalog has been delivered.
func (t *Tracker) Stats(ctx context.Context, catalog []sentence.Sentence) Stats {
	used := t.LoadUsed(ctx)
	remaining := len(Available(catalog, used))
	return Stats{
		Total:     len(catalog),
		Used:      len(catalog) - remaining,
		Remaining: remaining,
	}
}
