// Package app wires configuration into the services shared by the HTTP
// server and the command line tool.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/gnemet/LessonForge/internal/ai"
	"github.com/gnemet/LessonForge/internal/catalog"
	"github.com/gnemet/LessonForge/internal/config"
	"github.com/gnemet/LessonForge/internal/database"
	"github.com/gnemet/LessonForge/internal/engine"
	"github.com/gnemet/LessonForge/internal/i18n"
	"github.com/gnemet/LessonForge/internal/imagesearch"
	"github.com/gnemet/LessonForge/internal/lesson"
	"github.com/gnemet/LessonForge/internal/logger"
	"github.com/gnemet/LessonForge/internal/pptx"
)

type App struct {
	Config  *config.Config
	Log     *logger.Logger
	Catalog *catalog.Catalog
	Engine  *engine.Engine
	Service *lesson.Service
	DB      *sql.DB

	provider ai.Provider
}

// Options turn optional parts off, mostly for the CLI.
type Options struct {
	SkipDatabase bool
	SkipAI       bool
}

// New builds every service from cfg. Missing AI credentials and an unreachable
// database are logged and tolerated; the affected endpoints report errors.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, opts Options) (*App, error) {
	a := &App{Config: cfg, Log: log}

	a.Engine = NewEngine(cfg, log)

	a.Catalog = catalog.New(cfg.Application.Storage.Template, log.With("component", "catalog"),
		pptx.WithGenericPlaceholders(cfg.Template.GenericCapable))
	if err := a.Catalog.Refresh(); err != nil {
		return nil, err
	}

	if !opts.SkipAI {
		p, err := ai.NewFromConfig(ctx, cfg.AI)
		switch {
		case errors.Is(err, ai.ErrNotConfigured):
			log.Warn("AI provider not configured, generation endpoints are disabled", "provider", cfg.AI.ActiveProvider)
		case err != nil:
			return nil, fmt.Errorf("failed to init ai provider: %w", err)
		default:
			a.provider = p
			log.Info("AI provider ready", "provider", p.Name(), "model", p.Model())
		}
	}

	images, err := imagesearch.New(ctx, cfg.ImageSearch, log.With("component", "imagesearch"))
	if err != nil {
		return nil, err
	}

	if !opts.SkipDatabase && cfg.Database.Enabled() {
		db, err := database.NewConnection(cfg.Database.GetConnectStr())
		if err != nil {
			log.Warn("Database unavailable, build history disabled", "error", err)
		} else if err := database.Migrate(ctx, db); err != nil {
			log.Warn("Database migration failed, build history disabled", "error", err)
			db.Close()
		} else {
			log.Info("Database connection established")
			a.DB = db
		}
	}

	a.Service = lesson.NewService(lesson.Deps{
		Catalog:       a.Catalog,
		Generator:     ai.NewGenerator(a.provider, log.With("component", "ai")),
		Images:        images,
		Engine:        a.Engine,
		OutputDir:     cfg.Application.Storage.Output,
		DefaultOutput: cfg.Template.DefaultOutput,
		DB:            a.DB,
		Log:           log.With("component", "lesson"),
	})
	return a, nil
}

// NewEngine builds the deck engine alone; the CLI build command needs nothing else.
func NewEngine(cfg *config.Config, log *logger.Logger) *engine.Engine {
	return engine.New(engine.Options{
		GenericCapable: cfg.Template.GenericCapable,
		Images: &engine.ImageFetcher{
			Client:    &http.Client{Timeout: cfg.Images.FetchTimeout},
			UserAgent: cfg.Images.UserAgent,
			MaxBytes:  cfg.Images.MaxBytes,
		},
		ImageErrorNotice: i18n.T(cfg.Application.Language, "notice.image_error"),
		Log:              log.With("component", "engine"),
	})
}

func (a *App) Close() {
	if a.provider != nil {
		a.provider.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
