package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/edgard/dictant/internal/bot"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "dictant",
		Short:         "Daily English to Russian dictation for a Telegram chat",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to configuration file")

	root.AddCommand(
		newRunCmd(&configPath),
		newModeCmd(&configPath, bot.ModeTask, "Send today's task"),
		newModeCmd(&configPath, bot.ModeAnswer, "Send the answer for the pending task"),
		newDemoCmd(&configPath),
		newServeCmd(&configPath),
		newCatalogCmd(&configPath),
	)
	return root
}

func newRunCmd(configPath *string) *cobra.Command {
	var modeName string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one pass; auto mode picks task or answer from the clock",
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := bot.ParseMode(modeName)
			if err != nil {
				return err
			}
			return runMode(cmd, *configPath, mode)
		},
	}
	cmd.Flags().StringVar(&modeName, "mode", string(bot.ModeAuto), "auto, task, answer or idle")
	return cmd
}

func newModeCmd(configPath *string, mode bot.Mode, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(mode),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMode(cmd, *configPath, mode)
		},
	}
}

func runMode(cmd *cobra.Command, configPath string, mode bot.Mode) error {
	ctx := cmd.Context()
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	ctrl, err := a.controller(ctx)
	if err != nil {
		a.log.Error("Failed to build controller", "error", err)
		return err
	}
	return ctrl.Run(ctx, mode)
}

func newDemoCmd(configPath *string) *cobra.Command {
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Send a test task, wait, then send its answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ctrl, err := a.controller(ctx)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("delay") {
				delay = a.cfg.Schedule.DemoDelay
			}
			return ctrl.Demo(ctx, delay)
		},
	}
	cmd.Flags().DurationVar(&delay, "delay", bot.DefaultDemoDelay, "Pause between task and answer")
	return cmd
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run task and answer on their cron schedules until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ctrl, err := a.controller(ctx)
			if err != nil {
				return err
			}
			loc, err := a.cfg.Schedule.Location()
			if err != nil {
				return err
			}

			jobs := bot.DailyJobs(ctrl, a.cfg.Schedule.TaskCron, a.cfg.Schedule.AnswerCron)
			sched, err := bot.NewScheduler(a.log, loc, jobs)
			if err != nil {
				a.log.Error("Failed to create scheduler", "error", err)
				return err
			}
			return bot.Serve(ctx, sched, a.log)
		},
	}
}

func newCatalogCmd(configPath *string) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Show catalog size and usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if reset {
				if err := a.tracker.Reset(ctx); err != nil {
					return fmt.Errorf("failed to reset usage: %w", err)
				}
			}

			stats := a.tracker.Stats(ctx, a.catalog)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "catalog:   %s\n", a.cfg.Storage.CatalogPath)
			fmt.Fprintf(out, "total:     %d\n", stats.Total)
			fmt.Fprintf(out, "used:      %d\n", stats.Used)
			fmt.Fprintf(out, "remaining: %d\n", stats.Remaining)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "Clear the used set before reporting")
	return cmd
}
