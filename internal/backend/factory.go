package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"networth/internal/amqp"
	"networth/internal/categories"
	"networth/internal/ports"
	"networth/internal/services"
	"networth/internal/storage"
	"networth/internal/storage/memory"
)

type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	registry := categories.Default()
	if config.CategoriesFile != "" {
		var err error
		registry, err = categories.Load(config.CategoriesFile)
		if err != nil {
			return nil, fmt.Errorf("load categories: %w", err)
		}
		f.logger.InfoContext(ctx, "Loaded categories file", "path", config.CategoriesFile)
	}

	store, err := f.createStore(config)
	if err != nil {
		return nil, err
	}

	opts := []services.EntryOption{services.WithEntryDateUpdates(config.UpdateEntryDate)}

	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without notifications", "error", err)
			amqpClient = nil
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			opts = append(opts, services.WithPublisher(amqpClient))
		}
	}

	b := &Backend{
		Store:     store,
		Registry:  registry,
		Entries:   services.NewEntryService(store, registry, opts...),
		Goals:     services.NewGoalService(store, store, registry, config.GoalLimit),
		Reports:   services.NewReportService(store),
		Publisher: amqpClient,
		Type:      config.Type,
	}

	f.logger.InfoContext(ctx, "Initialized backend",
		"type", config.Type,
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", amqpClient != nil,
		"update_entry_date", config.UpdateEntryDate)

	cleanup := func() error {
		var errs []error
		if amqpClient != nil {
			errs = append(errs, amqpClient.Close())
		}
		errs = append(errs, store.Close())
		return errors.Join(errs...)
	}
	return &BackendResult{Backend: b, Cleanup: cleanup}, nil
}

func (f *DefaultFactory) createStore(config Config) (ports.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		return repo, nil
	case MemoryBackend:
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
}
