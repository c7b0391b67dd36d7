package main

import (
	"context"
	"fmt"

	"github.com/sifan077/LinkDesk/config"
	apprepository "github.com/sifan077/LinkDesk/internal/app/repository"
	appservice "github.com/sifan077/LinkDesk/internal/app/service"
	"github.com/sifan077/LinkDesk/internal/infra/logger"
	infraPostgres "github.com/sifan077/LinkDesk/internal/infra/postgres"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// env is what every subcommand needs: config, a logger and the database.
type env struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
}

func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.MustInit(logger.Config{
		Development: !cfg.App.IsProduction(),
		Level:       cfg.App.LogLevel,
		Service:     "linkdeskctl",
	})

	// Statement logging is noise on a terminal.
	db, err := infraPostgres.NewGorm(cfg.Postgres, false, log)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, db: db}, nil
}

func (e *env) close() {
	if sqlDB, err := e.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = logger.Sync()
}

// store builds a ModerationStore and loads every record into it.
func (e *env) store(ctx context.Context) (*appservice.ModerationStore, error) {
	store := appservice.NewModerationStore(appservice.StoreDeps{
		Logger:   e.log,
		URLs:     apprepository.NewURLRepository(e.db),
		Settings: apprepository.NewSettingRepository(e.db),
	})
	if _, err := store.FetchAll(ctx); err != nil {
		return nil, fmt.Errorf("load urls: %w", err)
	}
	return store, nil
}
