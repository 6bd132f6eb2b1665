package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"networth/internal/amqp"
	"networth/internal/cli"
	"networth/internal/config"
	applog "networth/internal/log"
	"networth/internal/ports"
	"networth/internal/sheets"
	gsheet "networth/internal/sheets/google"
	memsheets "networth/internal/sheets/memory"
	"networth/internal/storage"
	"networth/internal/storage/memory"
	"networth/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		applog.New(applog.DefaultConfig()).Error("Configuration validation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}

	logger, flush := cli.SetupLogger(cfg, applog.ComponentWorker)
	defer flush()

	logger.Info("Starting networth-worker")

	if err := run(cfg, logger); err != nil {
		logger.Error("Worker failed", applog.FieldError, err.Error())
		flush()
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func run(cfg *config.Config, logger *applog.Logger) error {
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	sink, err := openSink(cfg, logger)
	if err != nil {
		return err
	}

	exportWorker := worker.NewExportWorker(store, sink)
	periodic := worker.NewPeriodicExporter(exportWorker, cfg.ExportInterval)

	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return err
		}
		defer amqpClient.Close()
	} else {
		logger.Info("AMQP disabled, relying on periodic export only", "interval", cfg.ExportInterval.String())
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := periodic.Stop(ctx); err != nil {
			logger.Warn("Periodic exporter stop", applog.FieldError, err.Error())
		}
	})

	g, gctx := errgroup.WithContext(ctx)

	if err := periodic.Start(gctx); err != nil {
		return err
	}

	if amqpClient != nil {
		g.Go(func() error {
			err := amqpClient.ConsumeLedgerChanges(gctx, exportWorker.HandleChange)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	err = g.Wait()
	if err == nil {
		cli.WaitForShutdown(ctx, done)
	}
	return err
}

func openStore(cfg *config.Config, logger *applog.Logger) (ports.Store, error) {
	if cfg.DataBackend == "memory" {
		logger.Warn("Memory backend selected; the worker sees only its own empty store")
		return memory.New(), nil
	}
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, err
	}
	logger.Info("Opened SQLite store", "path", cfg.SQLiteDBPath)
	return repo, nil
}

func openSink(cfg *config.Config, logger *applog.Logger) (sheets.EntryExporter, error) {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, exporting to memory")
		return memsheets.New(), nil
	}
	client, err := gsheet.New(context.Background(), gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	return client, nil
}
