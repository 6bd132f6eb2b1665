package memory

import (
	"context"
	"slices"
	"sync"

	"networth/internal/core"
	"networth/internal/sheets"
)

var _ sheets.EntryExporter = (*Exporter)(nil)

// Exporter keeps the last exported snapshot in process. It backs the worker
// when no spreadsheet is configured and doubles as a test fake.
type Exporter struct {
	mu      sync.Mutex
	last    []core.Entry
	exports int
	err     error
}

func New() *Exporter {
	return &Exporter{}
}

// FailWith makes every following export return err. Pass nil to clear.
func (x *Exporter) FailWith(err error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.err = err
}

func (x *Exporter) ExportEntries(_ context.Context, entries []core.Entry) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.err != nil {
		return x.err
	}
	x.last = slices.Clone(entries)
	x.exports++
	return nil
}

// Snapshot returns a copy of the most recent export.
func (x *Exporter) Snapshot() []core.Entry {
	x.mu.Lock()
	defer x.mu.Unlock()
	return slices.Clone(x.last)
}

// Exports reports how many exports succeeded.
func (x *Exporter) Exports() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.exports
}
