package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"networth/internal/cli"
	apphttp "networth/internal/http"
	applog "networth/internal/log"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		applog.New(applog.DefaultConfig()).Error("Configuration validation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}

	logger, flush := cli.SetupLogger(cfg, applog.ComponentApp)
	defer flush()

	result, err := cli.OpenBackend(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err.Error(), "backend", cfg.DataBackend)
		flush()
		os.Exit(1)
	}
	b := result.Backend

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Entries:  b.Entries,
		Goals:    b.Goals,
		Reports:  b.Reports,
		Registry: b.Registry,
		Store:    b.Store,
		Currency: cfg.Currency,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err.Error())
		}
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err.Error())
		}
	})

	logger.Info("Starting networth server",
		"port", cfg.Port,
		"backend", b.Type.String(),
		"amqp_enabled", b.Publisher != nil,
		"goal_limit", b.Goals.Limit())

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err.Error(), "port", cfg.Port)
		flush()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
