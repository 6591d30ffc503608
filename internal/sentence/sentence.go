// Package sentence defines the bilingual practice sentence record and the
// catalog it is drawn from.
package sentence

import (
	"crypto/md5" //nolint:gosec // used for stable identifiers, not security
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
)

// idRange bounds derived identifiers. Collisions inside the range are accepted.
const idRange = 1_000_000

// Default labels used when a record omits them.
const (
	DefaultTopic      = "Общая тема"
	DefaultDifficulty = "средне"
)

// ErrIncomplete is returned when a record lacks a required field.
var ErrIncomplete = errors.New("sentence is missing required fields")

// Sentence is a single practice item: an English sentence, its Russian
// translation and the metadata shown alongside it.
type Sentence struct {
	ID          int64  `json:"id,omitempty"          yaml:"id,omitempty"          db:"sentence_id"`
	EN          string `json:"en"                    yaml:"en"                    db:"en"`
	RU          string `json:"ru"                    yaml:"ru"                    db:"ru"`
	Topic       string `json:"topic"                 yaml:"topic"                 db:"topic"`
	Difficulty  string `json:"difficulty,omitempty"  yaml:"difficulty,omitempty"  db:"difficulty"`
	Explanation string `json:"explanation,omitempty" yaml:"explanation,omitempty" db:"explanation"`
}

// DeriveID returns the identifier for an English source text: the first
// eight hex digits of its MD5 digest reduced modulo idRange.
func DeriveID(en string) int64 {
	sum := md5.Sum([]byte(en)) //nolint:gosec
	prefix := hex.EncodeToString(sum[:])[:8]
	n, _ := strconv.ParseUint(prefix, 16, 64) // eight hex digits always fit
	return int64(n % idRange)
}

// Key returns the record identifier, deriving it from EN when unset.
func (s *Sentence) Key() int64 {
	if s.ID != 0 {
		return s.ID
	}
	return DeriveID(s.EN)
}

// EnsureID fills in a derived identifier when the record has none.
func (s *Sentence) EnsureID() {
	if s.ID == 0 {
		s.ID = DeriveID(s.EN)
	}
}

// Normalize trims whitespace and fills defaulted labels.
func (s *Sentence) Normalize() {
	s.EN = strings.TrimSpace(s.EN)
	s.RU = strings.TrimSpace(s.RU)
	s.Topic = strings.TrimSpace(s.Topic)
	s.Difficulty = strings.TrimSpace(s.Difficulty)
	s.Explanation = strings.TrimSpace(s.Explanation)
	if s.Difficulty == "" {
		s.Difficulty = DefaultDifficulty
	}
}

// Validate reports ErrIncomplete unless EN, RU and Topic are all present.
func (s *Sentence) Validate() error {
	var missing []string
	if strings.TrimSpace(s.EN) == "" {
		missing = append(missing, "en")
	}
	if strings.TrimSpace(s.RU) == "" {
		missing = append(missing, "ru")
	}
	if strings.TrimSpace(s.Topic) == "" {
		missing = append(missing, "topic")
	}
	if len(missing) > 0 {
		return &IncompleteError{Missing: missing}
	}
	return nil
}

// IncompleteError lists the fields a record is missing.
type IncompleteError struct {
	Missing []string
}

func (e *IncompleteError) Error() string {
	return "sentence is missing required fields: " + strings.Join(e.Missing, ", ")
}

// Is lets errors.Is match ErrIncomplete.
func (e *IncompleteError) Is(target error) bool {
	return target == ErrIncomplete
}
