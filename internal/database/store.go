package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/edgard/dictant/internal/sentence"
	"github.com/edgard/dictant/internal/state"
)

// sqlxStore implements state.Store on top of sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore returns a state.Store backed by db. The store owns db and closes
// it in Close.
func NewStore(db *sqlx.DB, logger *slog.Logger) state.Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Open connects to dbPath, migrates it and returns the store.
func Open(dbPath string, logger *slog.Logger) (state.Store, error) {
	db, err := NewDB(dbPath)
	if err != nil {
		return nil, err
	}
	return NewStore(db, logger), nil
}

func (s *sqlxStore) LoadUsed(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.db.SelectContext(ctx, &ids, `SELECT sentence_id FROM used_sentences ORDER BY used_at, sentence_id;`)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error loading used sentence ids", "error", err)
		return nil, fmt.Errorf("failed to load used ids: %w", err)
	}
	return ids, nil
}

func (s *sqlxStore) SaveUsed(ctx context.Context, ids []int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM used_sentences;`); err != nil {
		return fmt.Errorf("failed to clear used ids: %w", err)
	}

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO used_sentences (sentence_id) VALUES (?);`, id); err != nil {
			return fmt.Errorf("failed to insert used id %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit used ids", "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.DebugContext(ctx, "Used ids saved", "count", len(ids))
	return nil
}

func (s *sqlxStore) LoadPending(ctx context.Context) (*sentence.Sentence, error) {
	var pending sentence.Sentence
	query := `SELECT sentence_id, en, ru, topic, difficulty, explanation FROM pending_items WHERE slot = 1;`

	err := s.db.GetContext(ctx, &pending, query)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, state.ErrNoPending
	case err != nil:
		s.logger.ErrorContext(ctx, "Error loading pending sentence", "error", err)
		return nil, fmt.Errorf("failed to load pending sentence: %w", err)
	}
	return &pending, nil
}

func (s *sqlxStore) SavePending(ctx context.Context, pending *sentence.Sentence) error {
	if pending == nil {
		return errors.New("cannot save nil pending sentence")
	}

	query := `
        INSERT INTO pending_items (slot, sentence_id, en, ru, topic, difficulty, explanation, created_at)
        VALUES (1, :sentence_id, :en, :ru, :topic, :difficulty, :explanation, CURRENT_TIMESTAMP)
        ON CONFLICT (slot) DO UPDATE SET
            sentence_id = excluded.sentence_id,
            en          = excluded.en,
            ru          = excluded.ru,
            topic       = excluded.topic,
            difficulty  = excluded.difficulty,
            explanation = excluded.explanation,
            created_at  = excluded.created_at;
    `
	if _, err := s.db.NamedExecContext(ctx, query, pending); err != nil {
		s.logger.ErrorContext(ctx, "Error saving pending sentence", "sentence_id", pending.ID, "error", err)
		return fmt.Errorf("failed to save pending sentence: %w", err)
	}

	s.logger.DebugContext(ctx, "Pending sentence saved", "sentence_id", pending.ID)
	return nil
}

func (s *sqlxStore) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
