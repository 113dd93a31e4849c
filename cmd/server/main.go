package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gnemet/LessonForge/internal/api"
	"github.com/gnemet/LessonForge/internal/app"
	"github.com/gnemet/LessonForge/internal/config"
	"github.com/gnemet/LessonForge/internal/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.EnvFile == "" {
		log.Info("Note: .env file not found, using system environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log, app.Options{})
	if err != nil {
		log.Fatal("Startup failed", "error", err)
	}
	defer a.Close()

	if err := os.MkdirAll(cfg.Application.Storage.Output, 0755); err != nil {
		log.Fatal("Failed to create output directory", "dir", cfg.Application.Storage.Output, "error", err)
	}

	if cfg.Template.Watch {
		if err := a.Catalog.Start(ctx); err != nil {
			log.Warn("Template watcher not started", "error", err)
		}
	}

	handler := api.New(a.Service, log.With("component", "api"), cfg.Application.Language, cfg.Application.Storage.Output)
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Application.Host, cfg.Application.Port),
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("LessonForge starting", "addr", srv.Addr, "version", cfg.Application.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
	}
}
