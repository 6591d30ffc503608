// Package bot orchestrates a dictation run: choosing a sentence, keeping the
// cross-run state, and delivering the task and answer messages.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/edgard/dictant/internal/config"
	"github.com/edgard/dictant/internal/message"
	"github.com/edgard/dictant/internal/provider"
	"github.com/edgard/dictant/internal/sentence"
	"github.com/edgard/dictant/internal/state"
	"github.com/edgard/dictant/internal/telegram"
	"github.com/edgard/dictant/internal/tracker"
)

// DefaultDemoDelay separates the demo task from its answer.
const DefaultDemoDelay = time.Minute

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, text string) (telegram.Delivery, error)
}

// Acquirer produces a freshly generated sentence.
type Acquirer interface {
	Acquire(ctx context.Context) (provider.Result, error)
}

// Source says where a sentence came from.
type Source string

// Sentence sources.
const (
	SourceProvider Source = "provider"
	SourceCatalog  Source = "catalog"
	SourcePending  Source = "pending"
)

// Deps holds everything a Controller needs.
type Deps struct {
	Catalog  []sentence.Sentence
	Tracker  *tracker.Tracker
	Cascade  Acquirer // optional
	Store    state.Store
	Sender   Sender
	Schedule config.ScheduleConfig
	Logger   *slog.Logger
	Now      func() time.Time // optional, defaults to time.Now
}

// Controller runs one dictation step per call.
type Controller struct {
	catalog  []sentence.Sentence
	tracker  *tracker.Tracker
	cascade  Acquirer
	store    state.Store
	sender   Sender
	schedule config.ScheduleConfig
	logger   *slog.Logger
	now      func() time.Time
}

// NewController creates a Controller from deps.
func NewController(deps Deps) *Controller {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		catalog:  deps.Catalog,
		tracker:  deps.Tracker,
		cascade:  deps.Cascade,
		store:    deps.Store,
		sender:   deps.Sender,
		schedule: deps.Schedule,
		logger:   log.With("component", "controller"),
		now:      now,
	}
}

// Resolve turns auto into a concrete mode using the clock.
func (c *Controller) Resolve(mode Mode) Mode {
	if mode != ModeAuto {
		return mode
	}
	return ModeAt(c.now(), c.schedule)
}

// Run performs a single pass in the given mode.
func (c *Controller) Run(ctx context.Context, mode Mode) error {
	resolved := c.Resolve(mode)
	log := c.logger.With("mode", resolved)
	if mode == ModeAuto {
		log = log.With("requested", mode)
	}

	switch resolved {
	case ModeTask:
		_, err := c.RunTask(ctx)
		return err
	case ModeAnswer:
		_, err := c.RunAnswer(ctx)
		return err
	case ModeIdle:
		log.InfoContext(ctx, "Outside of task and answer windows, nothing to do")
		return nil
	default:
		return fmt.Errorf("unsupported mode %q", resolved)
	}
}

// RunTask acquires a sentence, records it as pending and used, then sends
// the task message. State write failures are logged; only a failed delivery
// is returned as an error.
func (c *Controller) RunTask(ctx context.Context) (sentence.Sentence, error) {
	s, source, err := c.acquire(ctx)
	if err != nil {
		return sentence.Sentence{}, err
	}
	log := c.logger.With("sentence_id", s.ID, "source", source)

	if err := c.store.SavePending(ctx, &s); err != nil {
		log.ErrorContext(ctx, "Failed to save pending sentence", "error", err)
	}
	if err := c.tracker.MarkUsed(ctx, &s); err != nil {
		log.ErrorContext(ctx, "Failed to mark sentence as used", "error", err)
	}

	if err := c.deliver(ctx, log, message.Render(s, message.Task)); err != nil {
		return s, err
	}
	log.InfoContext(ctx, "Task delivered", "topic", s.Topic)
	return s, nil
}

// RunAnswer sends the answer for the pending sentence. Without one, a new
// sentence is acquired so the answer message is never skipped.
func (c *Controller) RunAnswer(ctx context.Context) (sentence.Sentence, error) {
	s, source, err := c.pendingOrFresh(ctx)
	if err != nil {
		return sentence.Sentence{}, err
	}
	log := c.logger.With("sentence_id", s.ID, "source", source)

	if err := c.deliver(ctx, log, message.Render(s, message.Answer)); err != nil {
		return s, err
	}
	log.InfoContext(ctx, "Answer delivered")
	return s, nil
}

// Demo sends a task, waits for delay, then sends the answer for the same
// sentence. The answer is skipped when the task could not be delivered.
// Demo runs do not touch the persisted state.
func (c *Controller) Demo(ctx context.Context, delay time.Duration) error {
	if delay < 0 {
		delay = DefaultDemoDelay
	}

	s, source, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	log := c.logger.With("sentence_id", s.ID, "source", source, "demo", true)

	if err := c.deliver(ctx, log, message.RenderDemo(s, message.Task)); err != nil {
		log.WarnContext(ctx, "Demo task not delivered, skipping answer")
		return err
	}

	log.InfoContext(ctx, "Demo task delivered, waiting before answer", "delay", delay)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("demo interrupted: %w", ctx.Err())
	case <-timer.C:
	}

	if err := c.deliver(ctx, log, message.RenderDemo(s, message.Answer)); err != nil {
		return err
	}
	log.InfoContext(ctx, "Demo answer delivered")
	return nil
}

func (c *Controller) pendingOrFresh(ctx context.Context) (sentence.Sentence, Source, error) {
	pending, err := c.store.LoadPending(ctx)
	switch {
	case err == nil && pending != nil:
		return *pending, SourcePending, nil
	case err == nil, errors.Is(err, state.ErrNoPending):
		c.logger.WarnContext(ctx, "No pending sentence, acquiring a new one")
	default:
		c.logger.WarnContext(ctx, "Pending sentence unreadable, acquiring a new one", "error", err)
	}
	return c.acquire(ctx)
}

// acquire asks the generation cascade first and falls back to the catalog.
func (c *Controller) acquire(ctx context.Context) (sentence.Sentence, Source, error) {
	if c.cascade != nil {
		res, err := c.cascade.Acquire(ctx)
		if err == nil && res.Sentence != nil {
			return *res.Sentence, SourceProvider, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return sentence.Sentence{}, "", fmt.Errorf("acquire interrupted: %w", ctxErr)
		}
		c.logger.InfoContext(ctx, "Falling back to catalog", "attempts", len(res.Attempts), "reason", err)
	}

	s, err := c.tracker.Pick(ctx, c.catalog)
	if err != nil {
		return sentence.Sentence{}, "", fmt.Errorf("failed to pick from catalog: %w", err)
	}
	return s, SourceCatalog, nil
}

func (c *Controller) deliver(ctx context.Context, log *slog.Logger, text string) error {
	d, err := c.sender.Send(ctx, text)
	if err != nil {
		log.ErrorContext(ctx, "Delivery failed", "error", err)
		return fmt.Errorf("delivery failed: %w", err)
	}
	log.DebugContext(ctx, "Delivery confirmed", "message_id", d.MessageID)
	return nil
}
