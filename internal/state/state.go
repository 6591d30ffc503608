// Package state persists what must survive between invocations: the set of
// delivered sentence ids and the pending task awaiting its answer.
package state

import (
	"context"
	"errors"

	"github.com/edgard/dictant/internal/sentence"
)

// ErrNoPending is returned by LoadPending when no task is awaiting an answer.
var ErrNoPending = errors.New("no pending sentence")

// Store defines the persistence operations for cross-run state.
// Implementations are not safe for concurrent processes.
type Store interface {
	// LoadUsed returns the delivered identifiers. A missing store yields an
	// empty slice; unreadable contents yield an error.
	LoadUsed(ctx context.Context) ([]int64, error)

	// SaveUsed replaces the delivered identifiers.
	SaveUsed(ctx context.Context, ids []int64) error

	// LoadPending returns the last issued task, or ErrNoPending.
	LoadPending(ctx context.Context) (*sentence.Sentence, error)

	// SavePending overwrites the pending task.
	SavePending(ctx context.Context, s *sentence.Sentence) error

	// Close releases any held resources.
	Close() error
}
