package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/dictant/internal/provider"
	"github.com/edgard/dictant/internal/sentence"
	"github.com/edgard/dictant/internal/state"
	"github.com/edgard/dictant/internal/telegram"
	"github.com/edgard/dictant/internal/tracker"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingSender struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (r *recordingSender) Send(_ context.Context, text string) (telegram.Delivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return telegram.Delivery{}, r.err
	}
	r.texts = append(r.texts, text)
	return telegram.Delivery{MessageID: len(r.texts)}, nil
}

func (r *recordingSender) sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

type stubCascade struct {
	s     *sentence.Sentence
	calls int
}

func (c *stubCascade) Acquire(context.Context) (provider.Result, error) {
	c.calls++
	if c.s == nil {
		return provider.Result{Attempts: []provider.Attempt{{Provider: "stub", Outcome: provider.OutcomeFailed}}}, provider.ErrNoCandidate
	}
	out := *c.s
	return provider.Result{Sentence: &out}, nil
}

var tea = sentence.Sentence{ID: 1, EN: "I like tea", RU: "Я люблю чай", Topic: "☕ Напитки", Difficulty: "легко"}

type fixture struct {
	ctrl    *Controller
	store   state.Store
	tracker *tracker.Tracker
	sender  *recordingSender
}

func newFixture(t *testing.T, catalog []sentence.Sentence, cascade Acquirer, now time.Time) fixture {
	t.Helper()
	dir := t.TempDir()
	store := state.NewFileStore(filepath.Join(dir, "used.txt"), filepath.Join(dir, "pending.json"), testLogger())
	tr := tracker.New(store, testLogger(), tracker.WithRand(func(int) int { return 0 }))
	sender := &recordingSender{}
	ctrl := NewController(Deps{
		Catalog:  catalog,
		Tracker:  tr,
		Cascade:  cascade,
		Store:    store,
		Sender:   sender,
		Schedule: utcSchedule(),
		Logger:   testLogger(),
		Now:      func() time.Time { return now },
	})
	return fixture{ctrl: ctrl, store: store, tracker: tr, sender: sender}
}

func TestRunTaskFromCatalog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, []sentence.Sentence{tea}, nil, time.Now())

	s, err := f.ctrl.RunTask(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.ID)

	pending, err := f.store.LoadPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, tea.EN, pending.EN)
	assert.Equal(t, tea.RU, pending.RU)
	assert.True(t, f.tracker.IsUsedID(ctx, 1))

	sent := f.sender.sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "<i>I like tea</i>")
	assert.NotContains(t, sent[0], "Я люблю чай")
}

func TestRunTaskWrapsAroundExhaustedCatalog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, []sentence.Sentence{tea}, nil, time.Now())

	_, err := f.ctrl.RunTask(ctx)
	require.NoError(t, err)
	s, err := f.ctrl.RunTask(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.ID)
	assert.Equal(t, []int64{1}, f.tracker.LoadUsed(ctx).IDs())
}

func TestRunTaskPrefersProvider(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	generated := sentence.Sentence{EN: "The sun is shining", RU: "Светит солнце", Topic: "🌤 Погода", Difficulty: "легко"}
	generated.EnsureID()
	cascade := &stubCascade{s: &generated}
	f := newFixture(t, []sentence.Sentence{tea}, cascade, time.Now())

	s, err := f.ctrl.RunTask(ctx)
	require.NoError(t, err)
	assert.Equal(t, generated.ID, s.ID)
	assert.Equal(t, 1, cascade.calls)
	assert.True(t, f.tracker.IsUsedID(ctx, generated.ID))
	assert.False(t, f.tracker.IsUsedID(ctx, 1))
}

func TestRunTaskFallsBackWhenCascadeFails(t *testing.T) {
	t.Parallel()
	f := newFixture(t, []sentence.Sentence{tea}, &stubCascade{}, time.Now())

	s, err := f.ctrl.RunTask(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tea.EN, s.EN)
}

func TestTaskThenAnswerUsesPending(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	second := sentence.Sentence{ID: 2, EN: "We are late", RU: "Мы опаздываем", Topic: "⏰ Время"}
	f := newFixture(t, []sentence.Sentence{tea, second}, nil, time.Now())

	task, err := f.ctrl.RunTask(ctx)
	require.NoError(t, err)
	answer, err := f.ctrl.RunAnswer(ctx)
	require.NoError(t, err)
	assert.Equal(t, task.ID, answer.ID)

	sent := f.sender.sent()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[1], "<i>"+task.RU+"</i>")
}

func TestRunAnswerWithoutPending(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, []sentence.Sentence{tea}, nil, time.Now())

	s, err := f.ctrl.RunAnswer(ctx)
	require.NoError(t, err)
	assert.Equal(t, tea.EN, s.EN)

	sent := f.sender.sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "Я люблю чай")
}

func TestRunDeliveryFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, []sentence.Sentence{tea}, nil, time.Now())
	f.sender.err = telegram.ErrNotConfigured

	_, err := f.ctrl.RunTask(ctx)
	assert.ErrorIs(t, err, telegram.ErrNotConfigured)

	// State is written before delivery, so the evening answer still matches.
	pending, err := f.store.LoadPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, tea.EN, pending.EN)
}

func TestRunResolvesAuto(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name  string
		now   time.Time
		mode  Mode
		sends int
	}{
		{"auto in task window", time.Date(2026, 3, 14, 9, 5, 0, 0, time.UTC), ModeAuto, 1},
		{"auto in answer window", time.Date(2026, 3, 14, 21, 5, 0, 0, time.UTC), ModeAuto, 1},
		{"auto idle", time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC), ModeAuto, 0},
		{"explicit task wins over clock", time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC), ModeTask, 1},
		{"explicit idle", time.Date(2026, 3, 14, 9, 5, 0, 0, time.UTC), ModeIdle, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, []sentence.Sentence{tea}, nil, tt.now)
			require.NoError(t, f.ctrl.Run(ctx, tt.mode))
			assert.Len(t, f.sender.sent(), tt.sends)
		})
	}
}

func TestRunUnknownMode(t *testing.T) {
	t.Parallel()
	f := newFixture(t, []sentence.Sentence{tea}, nil, time.Now())
	assert.Error(t, f.ctrl.Run(context.Background(), Mode("weekly")))
}

func TestRunEmptyCatalog(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil, nil, time.Now())
	_, err := f.ctrl.RunTask(context.Background())
	assert.ErrorIs(t, err, tracker.ErrEmptyCatalog)
}

func TestDemo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, []sentence.Sentence{tea}, nil, time.Now())

	require.NoError(t, f.ctrl.Demo(ctx, 10*time.Millisecond))

	sent := f.sender.sent()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[0], "ТЕСТОВЫЙ ДИКТАНТ")
	assert.Contains(t, sent[1], "ПРОВЕРКА ТЕСТОВОГО ДИКТАНТА")
	assert.Contains(t, sent[1], "Я люблю чай")

	_, err := f.store.LoadPending(ctx)
	assert.ErrorIs(t, err, state.ErrNoPending, "demo must not touch persisted state")
}

func TestDemoSkipsAnswerWhenTaskFails(t *testing.T) {
	t.Parallel()
	f := newFixture(t, []sentence.Sentence{tea}, nil, time.Now())
	f.sender.err = errors.New("chat not found")

	err := f.ctrl.Demo(context.Background(), time.Hour)
	require.Error(t, err)
	assert.Empty(t, f.sender.sent())
}

func TestDemoCancelled(t *testing.T) {
	t.Parallel()
	f := newFixture(t, []sentence.Sentence{tea}, nil, time.Now())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := f.ctrl.Demo(ctx, time.Hour)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, f.sender.sent(), 1)
}
