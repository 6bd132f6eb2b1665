package backend

import (
	"context"

	"networth/internal/amqp"
	"networth/internal/categories"
	"networth/internal/ports"
	"networth/internal/services"
)

// Backend bundles a store with the services built on top of it.
type Backend struct {
	Store     ports.Store
	Registry  *categories.Registry
	Entries   *services.EntryService
	Goals     *services.GoalService
	Reports   *services.ReportService
	Publisher *amqp.Client // nil when AMQP is disabled or unreachable
	Type      BackendType
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and its cleanup function.
type BackendResult struct {
	Backend *Backend
	Cleanup CleanupFunc
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
