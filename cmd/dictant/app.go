package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/edgard/dictant/internal/bot"
	"github.com/edgard/dictant/internal/config"
	"github.com/edgard/dictant/internal/database"
	"github.com/edgard/dictant/internal/logger"
	"github.com/edgard/dictant/internal/provider"
	"github.com/edgard/dictant/internal/sentence"
	"github.com/edgard/dictant/internal/state"
	"github.com/edgard/dictant/internal/telegram"
	"github.com/edgard/dictant/internal/tracker"
)

// app holds the components shared by every command.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	store   state.Store
	tracker *tracker.Tracker
	catalog []sentence.Sentence
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", configPath, "error", err)
		return nil, err
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON).With("run_id", uuid.NewString())
	log.Debug("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	store, err := openStore(cfg.Storage, log)
	if err != nil {
		log.Error("Failed to open state store", "backend", cfg.Storage.Backend, "error", err)
		return nil, err
	}

	return &app{
		cfg:     cfg,
		log:     log,
		store:   store,
		tracker: tracker.New(store, log),
		catalog: sentence.LoadCatalog(cfg.Storage.CatalogPath, log),
	}, nil
}

func openStore(cfg config.StorageConfig, log *slog.Logger) (state.Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		return database.Open(cfg.DBPath, log)
	case config.BackendFile, "":
		return state.NewFileStore(cfg.UsedPath, cfg.PendingPath, log), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// controller wires the generation cascade and the delivery client.
func (a *app) controller(ctx context.Context) (*bot.Controller, error) {
	sender, err := telegram.New(a.cfg.Telegram.Token, a.cfg.Telegram.ChatID, a.cfg.Telegram.Timeout, a.log)
	if err != nil {
		return nil, err
	}

	backends := provider.NewBackends(ctx, a.cfg.Providers, a.log)
	cascade := provider.NewCascade(backends, a.tracker, a.log)

	return bot.NewController(bot.Deps{
		Catalog:  a.catalog,
		Tracker:  a.tracker,
		Cascade:  cascade,
		Store:    a.store,
		Sender:   sender,
		Schedule: a.cfg.Schedule,
		Logger:   a.log,
	}), nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("Failed to close state store", "error", err)
	}
}
