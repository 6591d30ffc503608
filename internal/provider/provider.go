// Package provider acquires practice sentences from an ordered cascade of
// text-generation backends.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/edgard/dictant/internal/sentence"
)

// DefaultTimeout bounds a single backend call when none is configured.
const DefaultTimeout = 20 * time.Second

// ErrNoCandidate is returned when no backend produced an acceptable sentence.
var ErrNoCandidate = errors.New("no provider produced a usable sentence")

// Provider is a single text-generation backend.
type Provider interface {
	// Name identifies the backend in logs and attempt records.
	Name() string
	// Generate returns the raw completion text for prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}

// UsageChecker reports whether a sentence was already delivered.
type UsageChecker interface {
	IsUsed(ctx context.Context, s *sentence.Sentence) bool
}

// Outcome classifies a single backend attempt.
type Outcome string

// Attempt outcomes.
const (
	OutcomeAccepted   Outcome = "accepted"
	OutcomeFailed     Outcome = "failed"
	OutcomeMalformed  Outcome = "malformed"
	OutcomeIncomplete Outcome = "incomplete"
	OutcomeRepeated   Outcome = "repeated"
)

// Attempt records what happened when one backend was tried.
type Attempt struct {
	Provider string
	Outcome  Outcome
	Err      error
	Duration time.Duration
}

// Result is the cascade's decision together with every attempt made.
type Result struct {
	Sentence *sentence.Sentence
	Attempts []Attempt
}

// Backend pairs a provider with its call timeout.
type Backend struct {
	Provider Provider
	Timeout  time.Duration
}

// Cascade tries backends strictly in order and stops at the first usable
// sentence.
type Cascade struct {
	backends []Backend
	usage    UsageChecker
	logger   *slog.Logger
	prompt   func() string
}

// CascadeOption configures a Cascade.
type CascadeOption func(*Cascade)

// WithPrompt replaces the prompt builder.
func WithPrompt(build func() string) CascadeOption {
	return func(c *Cascade) { c.prompt = build }
}

// NewCascade builds a cascade over backends in priority order. usage may be
// nil, in which case no candidate is considered repeated.
func NewCascade(backends []Backend, usage UsageChecker, logger *slog.Logger, opts ...CascadeOption) *Cascade {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Cascade{
		backends: backends,
		usage:    usage,
		logger:   logger.With("component", "provider_cascade"),
		prompt:   func() string { return BuildPrompt(RandomTopic()) },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Len returns the number of enabled backends.
func (c *Cascade) Len() int {
	return len(c.backends)
}

// Acquire runs the cascade. It returns ErrNoCandidate, together with the
// attempts made, when every backend failed or none is enabled.
func (c *Cascade) Acquire(ctx context.Context) (Result, error) {
	var result Result
	if len(c.backends) == 0 {
		c.logger.DebugContext(ctx, "No generation backends enabled")
		return result, ErrNoCandidate
	}

	prompt := c.prompt()
	for _, b := range c.backends {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("cascade interrupted: %w", err)
		}

		attempt, candidate := c.try(ctx, b, prompt)
		result.Attempts = append(result.Attempts, attempt)

		log := c.logger.With("provider", attempt.Provider, "outcome", attempt.Outcome, "duration", attempt.Duration)
		if attempt.Outcome == OutcomeAccepted {
			log.InfoContext(ctx, "Sentence generated", "sentence_id", candidate.ID, "topic", candidate.Topic)
			result.Sentence = candidate
			return result, nil
		}
		log.WarnContext(ctx, "Provider attempt rejected, trying next", "error", attempt.Err)
	}

	c.logger.WarnContext(ctx, "All providers exhausted", "attempts", len(result.Attempts))
	return result, ErrNoCandidate
}

func (c *Cascade) try(ctx context.Context, b Backend, prompt string) (Attempt, *sentence.Sentence) {
	timeout := b.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	attempt := Attempt{Provider: b.Provider.Name()}
	start := time.Now()
	text, err := b.Provider.Generate(callCtx, prompt)
	attempt.Duration = time.Since(start)
	if err != nil {
		attempt.Outcome = OutcomeFailed
		attempt.Err = err
		return attempt, nil
	}

	candidate, err := Extract(text)
	if err != nil {
		attempt.Outcome = OutcomeMalformed
		attempt.Err = err
		return attempt, nil
	}

	candidate.Normalize()
	if err := candidate.Validate(); err != nil {
		attempt.Outcome = OutcomeIncomplete
		attempt.Err = err
		return attempt, nil
	}
	candidate.EnsureID()

	if c.usage != nil && c.usage.IsUsed(ctx, &candidate) {
		attempt.Outcome = OutcomeRepeated
		attempt.Err = fmt.Errorf("sentence %d already used", candidate.ID)
		return attempt, nil
	}

	attempt.Outcome = OutcomeAccepted
	return attempt, &candidate
}
