package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/edgard/dictant/internal/sentence"
)

// FileStore keeps the used set as a comma-delimited text file and the
// pending task as a JSON document.
type FileStore struct {
	usedPath    string
	pendingPath string
	logger      *slog.Logger
}

// NewFileStore creates a file-backed Store. Parent directories are created
// on first write.
func NewFileStore(usedPath, pendingPath string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &FileStore{
		usedPath:    usedPath,
		pendingPath: pendingPath,
		logger:      logger.With("component", "file_store"),
	}
}

// LoadUsed parses the comma-delimited id list.
func (s *FileStore) LoadUsed(ctx context.Context) ([]int64, error) {
	data, err := os.ReadFile(s.usedPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read used ids: %w", err)
	}
	return ParseIDList(string(data))
}

// SaveUsed writes the ids as a comma-delimited list.
func (s *FileStore) SaveUsed(ctx context.Context, ids []int64) error {
	if err := writeFile(s.usedPath, []byte(FormatIDList(ids))); err != nil {
		return fmt.Errorf("failed to save used ids: %w", err)
	}
	s.logger.DebugContext(ctx, "Used ids saved", "count", len(ids))
	return nil
}

// LoadPending reads the pending task document.
func (s *FileStore) LoadPending(ctx context.Context) (*sentence.Sentence, error) {
	data, err := os.ReadFile(s.pendingPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoPending
		}
		return nil, fmt.Errorf("failed to read pending sentence: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, ErrNoPending
	}

	var pending sentence.Sentence
	if err := json.Unmarshal(data, &pending); err != nil {
		return nil, fmt.Errorf("failed to parse pending sentence: %w", err)
	}
	return &pending, nil
}

// SavePending overwrites the pending task document.
func (s *FileStore) SavePending(ctx context.Context, pending *sentence.Sentence) error {
	if pending == nil {
		return errors.New("cannot save nil pending sentence")
	}
	data, err := json.MarshalIndent(pending, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode pending sentence: %w", err)
	}
	if err := writeFile(s.pendingPath, data); err != nil {
		return fmt.Errorf("failed to save pending sentence: %w", err)
	}
	s.logger.DebugContext(ctx, "Pending sentence saved", "sentence_id", pending.ID)
	return nil
}

// Close is a no-op for files.
func (s *FileStore) Close() error { return nil }

// ParseIDList parses "1, 2,3" into ids. Empty fields are skipped; any other
// unparsable field fails the whole list.
func ParseIDList(text string) ([]int64, error) {
	var ids []int64
	for _, field := range strings.Split(text, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", field, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// FormatIDList joins ids with commas.
func FormatIDList(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644) //nolint:gosec // state files are not secret
}
