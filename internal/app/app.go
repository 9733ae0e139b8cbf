// Package app wires configuration, storage and services together for the
// command line, the HTTP server and the Telegram bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"meal-planner/internal/clipper"
	"meal-planner/internal/config"
	"meal-planner/internal/database"
	"meal-planner/internal/llm"
	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
	"meal-planner/internal/server"
	"meal-planner/internal/shopping"
	"meal-planner/internal/storage"
	"meal-planner/internal/telegram"
)

// App holds the application's dependencies.
type App struct {
	cfg *config.Config
	now func() time.Time

	Docs     storage.Store
	Recipes  *recipe.Store
	Plans    *planner.Service
	Shopping *shopping.Service
	// Clipper is nil when no model is configured.
	Clipper *clipper.Clipper

	closers []func() error
}

// New opens the configured store and builds the services. A missing model
// key only disables recipe extraction.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	var (
		docs    storage.Store
		closers []func() error
	)
	switch cfg.StorageBackend {
	case config.BackendSQLite:
		db, err := database.NewDB(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if v, err := db.SchemaVersion(); err != nil {
			slog.Warn("Could not read schema version", "error", err)
		} else {
			slog.Info("Opened database", "path", cfg.DatabasePath, "schema_version", v)
		}
		docs = database.NewDocumentStore(db.SQL)
		closers = append(closers, db.Close)
	default:
		fs, err := storage.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file store: %w", err)
		}
		docs = fs
	}

	textGen, err := llm.NewFromConfig(ctx, cfg)
	if err != nil {
		slog.Warn("Recipe extraction disabled", "provider", cfg.LLMProvider, "error", err)
	}
	if c, ok := textGen.(llm.Closer); ok {
		closers = append(closers, c.Close)
	}

	a := NewWithStore(cfg, docs, textGen, time.Now)
	a.closers = closers
	return a, nil
}

// NewWithStore builds the services over docs. textGen may be nil.
func NewWithStore(cfg *config.Config, docs storage.Store, textGen llm.TextGenerator, now func() time.Time) *App {
	sampler := planner.RandomSampler()
	if cfg.PlanSeed != nil {
		sampler = planner.NewSampler(*cfg.PlanSeed)
	}

	recipes := recipe.NewStore(docs)
	plans := planner.NewService(docs, recipes, planner.NewAssembler(sampler, now), now)

	a := &App{
		cfg:      cfg,
		now:      now,
		Docs:     docs,
		Recipes:  recipes,
		Plans:    plans,
		Shopping: shopping.NewService(docs, plans, recipes),
	}
	if textGen != nil {
		a.Clipper = clipper.NewClipper(textGen, docs, clipper.Options{
			Timeout:   cfg.ExtractionTimeout,
			CacheSize: cfg.ExtractionCacheSize,
			CacheTTL:  cfg.ExtractionCacheTTL,
		})
	}
	return a
}

// Close releases the store and the model client.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// ServerDeps exposes the services to the HTTP server.
func (a *App) ServerDeps() server.Deps {
	deps := server.Deps{
		Plans:    a.Plans,
		Shopping: a.Shopping,
		Recipes:  a.Recipes,
		Docs:     a.Docs,
		DataDir:  a.cfg.DataDir,
		Now:      a.now,
	}
	if a.Clipper != nil {
		deps.Extractor = a.Clipper
	}
	return deps
}

// BotDeps exposes the services to the Telegram bot.
func (a *App) BotDeps() telegram.Deps {
	deps := telegram.Deps{
		Plans:    a.Plans,
		Shopping: a.Shopping,
		Recipes:  a.Recipes,
		DataDir:  a.cfg.DataDir,
		Now:      a.now,
	}
	if a.Clipper != nil {
		deps.Extractor = a.Clipper
	}
	return deps
}
