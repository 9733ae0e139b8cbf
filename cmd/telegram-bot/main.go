package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"meal-planner/internal/app"
	"meal-planner/internal/config"
	"meal-planner/internal/logger"
	"meal-planner/internal/server"
	"meal-planner/internal/telegram"
)

func main() {
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Setup(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "telegram-bot"})

	if err := run(cfg); err != nil {
		log.Fatalf("telegram-bot: %v", err)
	}
}

// run serves the webhook next to the REST API until SIGINT or SIGTERM.
func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	bot, err := telegram.NewBot(cfg, application.BotDeps())
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	bot.RegisterHandlers(mux)
	mux.Handle("/", server.NewRouter(application.ServerDeps()))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Bot webhook listening", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down bot webhook")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
