package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// DailyJobs returns the task and answer jobs for controller.
func DailyJobs(c *Controller, taskCron, answerCron string) []Job {
	return []Job{
		{Name: "task", Cron: taskCron, Run: func(ctx context.Context) error {
			_, err := c.RunTask(ctx)
			return err
		}},
		{Name: "answer", Cron: answerCron, Run: func(ctx context.Context) error {
			_, err := c.RunAnswer(ctx)
			return err
		}},
	}
}

// Serve runs the scheduler until ctx is cancelled.
func Serve(ctx context.Context, s *Scheduler, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "serve")
	log.Info("Starting scheduler service...")

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.Start(gCtx); err != nil {
			_ = s.Stop()
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		log.Info("Shutdown signal received, stopping scheduler...")
		if err := s.Stop(); err != nil {
			log.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Scheduler service stopped due to error", "error", err)
		return err
	}
	log.Info("Scheduler service stopped gracefully")
	return nil
}
