package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const DefaultExportInterval = 5 * time.Minute

// PeriodicExporter runs ExportAll on a fixed interval so that lost change
// messages are eventually reflected in the sheet.
type PeriodicExporter struct {
	worker   *ExportWorker
	interval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewPeriodicExporter(worker *ExportWorker, interval time.Duration) *PeriodicExporter {
	if interval <= 0 {
		interval = DefaultExportInterval
	}
	return &PeriodicExporter{worker: worker, interval: interval}
}

// Start begins the export loop. Returns an error if already running.
func (p *PeriodicExporter) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("periodic exporter is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Periodic exporter started", "interval", p.interval)
	return nil
}

// Stop signals the loop and waits for the current export to finish.
func (p *PeriodicExporter) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.running = false
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Periodic exporter stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Periodic exporter stop timed out")
		return ctx.Err()
	}
}

func (p *PeriodicExporter) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *PeriodicExporter) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Export immediately on startup
	p.export(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.export(ctx)
		}
	}
}

func (p *PeriodicExporter) export(ctx context.Context) {
	if err := p.worker.ExportAll(ctx); err != nil {
		slog.ErrorContext(ctx, "Periodic export failed", "error", err)
	}
}
