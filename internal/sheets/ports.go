package sheets

import (
	"context"

	"networth/internal/core"
)

// Ports for outbound adapters.
type (
	// EntryExporter replaces the remote copy of the ledger with entries.
	EntryExporter interface {
		ExportEntries(ctx context.Context, entries []core.Entry) error
	}
)
