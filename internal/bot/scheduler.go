package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/edgard/dictant/internal/logger"
)

// JobFunc is the body of a scheduled job. The context is cancelled when the
// scheduler's parent context is.
type JobFunc func(ctx context.Context) error

// Job is a named cron job.
type Job struct {
	Name string
	Cron string
	Run  JobFunc
}

// Scheduler runs jobs on cron expressions using gocron. Jobs run in
// singleton mode, so a slow run is never overlapped by the next one.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	jobs      []Job
	mu        sync.Mutex
	running   bool
	cancel    context.CancelFunc
}

// NewScheduler creates a scheduler evaluating cron expressions in loc.
func NewScheduler(log *slog.Logger, loc *time.Location, jobs []Job) (*Scheduler, error) {
	if log == nil {
		log = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}

	s, err := gocron.NewScheduler(
		gocron.WithLocation(loc),
		gocron.WithLogger(logger.NewGocronLogger(log)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		logger:    log.With("component", "scheduler"),
		jobs:      jobs,
	}, nil
}

// Start registers every job and starts ticking. Job contexts derive from ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	jobCtx, cancel := context.WithCancel(ctx)
	for _, job := range s.jobs {
		if job.Run == nil || job.Cron == "" {
			s.logger.Warn("Skipping incomplete job", "job", job.Name)
			continue
		}

		run := job.Run
		_, err := s.scheduler.NewJob(
			gocron.CronJob(job.Cron, false),
			gocron.NewTask(func(name string) {
				s.logger.Info("Running scheduled job", "job", name)
				startTime := time.Now()
				if err := run(jobCtx); err != nil {
					s.logger.Error("Scheduled job failed", "job", name, "error", err)
				}
				s.logger.Info("Finished scheduled job", "job", name, "duration", time.Since(startTime))
			}, job.Name),
			gocron.WithName(job.Name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			cancel()
			s.removeAll()
			return fmt.Errorf("failed to schedule job %q (%s): %w", job.Name, job.Cron, err)
		}

		s.logger.Info("Scheduled job", "job", job.Name, "cron", job.Cron)
	}

	s.scheduler.Start()
	s.cancel = cancel
	s.running = true
	s.logger.Info("Scheduler started", "jobs", len(s.scheduler.Jobs()))
	return nil
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		s.logger.Debug("Scheduler is not running, shutting down idle instance")
		return s.scheduler.Shutdown()
	}

	s.cancel()
	err := s.scheduler.Shutdown()
	if err != nil {
		s.logger.Error("Error during scheduler shutdown", "error", err)
	} else {
		s.logger.Info("Scheduler stopped gracefully")
	}
	s.running = false
	return err
}

func (s *Scheduler) removeAll() {
	for _, j := range s.scheduler.Jobs() {
		_ = s.scheduler.RemoveJob(j.ID())
	}
}
