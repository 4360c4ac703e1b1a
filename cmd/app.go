package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/camden-git/rostertagger/config"
	"github.com/camden-git/rostertagger/database"
	"github.com/camden-git/rostertagger/metrics"
	"github.com/camden-git/rostertagger/repository"
	"github.com/camden-git/rostertagger/vision"
	"gorm.io/gorm"
)

// app holds what every command needs: resolved config and an open store.
type app struct {
	cfg     config.Config
	db      *gorm.DB
	store   *repository.Store
	metrics *metrics.Metrics
}

func newApp() (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}
	db, err := database.Open(cfg.DatabasePath, database.ParseLogLevel(cfg.DBLogLevel))
	if err != nil {
		return nil, err
	}
	log.Printf("Using database: %s", cfg.DatabasePath)

	return &app{
		cfg:     cfg,
		db:      db,
		store:   repository.NewStore(db),
		metrics: metrics.New(),
	}, nil
}

func (a *app) Close() {
	database.Close(a.db)
}

func (a *app) visionClient(ctx context.Context) (*vision.Client, error) {
	return vision.NewClient(ctx, vision.Config{
		APIKey:            a.cfg.GeminiAPIKey,
		Model:             a.cfg.GeminiModel,
		Timeout:           a.cfg.TagTimeout,
		RetryBackoff:      a.cfg.TagRetryBackoff,
		MaxImageSize:      a.cfg.TagMaxImageSize,
		RequestsPerSecond: a.cfg.RequestsPerSecond,
	}, vision.WithMetrics(a.metrics))
}
