package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"networth/internal/amqp"
	"networth/internal/core"
	"networth/internal/ports"
	"networth/internal/sheets"
)

// ExportWorker mirrors the ledger into a spreadsheet. The sheet is always a
// full snapshot, so any change message triggers a complete rewrite.
type ExportWorker struct {
	ledger ports.Ledger
	sink   sheets.EntryExporter
	now    func() time.Time

	mu         sync.Mutex
	lastExport time.Time
}

func NewExportWorker(ledger ports.Ledger, sink sheets.EntryExporter) *ExportWorker {
	return &ExportWorker{ledger: ledger, sink: sink, now: time.Now}
}

// HandleChange processes one ledger change message. Messages published
// before the last successful export are already reflected in the sheet.
func (w *ExportWorker) HandleChange(ctx context.Context, msg *amqp.LedgerChangeMessage) error {
	slog.InfoContext(ctx, "Processing ledger change",
		"entry_id", msg.EntryID,
		"operation", msg.Operation,
		"class", msg.Class)

	w.mu.Lock()
	covered := !w.lastExport.IsZero() && msg.Timestamp.Before(w.lastExport)
	w.mu.Unlock()
	if covered {
		slog.DebugContext(ctx, "Change already exported", "entry_id", msg.EntryID)
		return nil
	}

	if err := w.ExportAll(ctx); err != nil {
		return fmt.Errorf("export after %s of entry %d: %w", msg.Operation, msg.EntryID, err)
	}
	return nil
}

// ExportAll writes every entry to the sink.
func (w *ExportWorker) ExportAll(ctx context.Context) error {
	started := w.now()
	entries, err := w.ledger.ListEntries(ctx, "")
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}
	if entries == nil {
		entries = []core.Entry{}
	}

	if err := w.sink.ExportEntries(ctx, entries); err != nil {
		slog.ErrorContext(ctx, "Failed to export entries", "count", len(entries), "error", err)
		return fmt.Errorf("export entries: %w", err)
	}

	w.mu.Lock()
	w.lastExport = started
	w.mu.Unlock()

	slog.InfoContext(ctx, "Exported ledger snapshot", "count", len(entries))
	return nil
}

// LastExport returns when the most recent successful export started.
func (w *ExportWorker) LastExport() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastExport
}
