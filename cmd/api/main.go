package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/bryanwahyu/storelens/internal/app"
	"github.com/bryanwahyu/storelens/internal/config"
	"github.com/bryanwahyu/storelens/internal/infra/httpserver"
	"github.com/bryanwahyu/storelens/internal/logger"
	"github.com/bryanwahyu/storelens/internal/middleware"
	"github.com/bryanwahyu/storelens/internal/validation"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("config load error: %w", err)
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log, app.Options{})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("close adapters", zap.Error(err))
		}
	}()

	schema, err := validation.New()
	if err != nil {
		return err
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSecond)
	defer limiter.Close()

	deps := httpserver.Deps{
		Analysis:       a.Service,
		Schema:         schema,
		Log:            log,
		Health:         a.Health,
		Ready:          a.Ready,
		APIKeys:        cfg.Auth.APIKeys,
		Limiter:        limiter,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
	}
	if a.Objects != nil {
		deps.Media = a.Objects
	}
	if len(cfg.Auth.APIKeys) == 0 {
		log.Warn("no API keys configured, authentication is disabled")
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpserver.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  2 * cfg.Server.ReadTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", addr), zap.String("database", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}
