package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"networth/internal/amqp"
	"networth/internal/core"
	sheetsmem "networth/internal/sheets/memory"
	"networth/internal/storage/memory"
)

func seed(t *testing.T, store *memory.Store, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, _, err := store.CreateEntry(context.Background(), core.Entry{
			Date:        core.NewDate(2024, 1, i+1),
			Class:       core.Asset,
			Subcategory: "Cash",
			Value:       core.Money{Cents: int64(100 * (i + 1))},
		})
		require.NoError(t, err)
	}
}

func TestExportWorker_ExportAll(t *testing.T) {
	store := memory.New()
	sink := sheetsmem.New()
	w := NewExportWorker(store, sink)

	require.NoError(t, w.ExportAll(context.Background()))
	assert.Empty(t, sink.Snapshot())
	assert.Equal(t, 1, sink.Exports())

	seed(t, store, 3)
	require.NoError(t, w.ExportAll(context.Background()))
	snap := sink.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, int64(300), snap[2].Value.Cents)
}

func TestExportWorker_HandleChangeSkipsCoveredMessages(t *testing.T) {
	store := memory.New()
	sink := sheetsmem.New()
	w := NewExportWorker(store, sink)

	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	seed(t, store, 1)
	stale := &amqp.LedgerChangeMessage{EntryID: 1, Operation: amqp.OpCreate, Class: core.Asset, Timestamp: clock.Add(-time.Minute)}

	require.NoError(t, w.HandleChange(context.Background(), stale))
	assert.Equal(t, 1, sink.Exports(), "first message always exports")

	require.NoError(t, w.HandleChange(context.Background(), stale))
	assert.Equal(t, 1, sink.Exports(), "message older than the last export is skipped")

	fresh := &amqp.LedgerChangeMessage{EntryID: 1, Operation: amqp.OpUpdate, Class: core.Asset, Timestamp: clock.Add(time.Second)}
	require.NoError(t, w.HandleChange(context.Background(), fresh))
	assert.Equal(t, 2, sink.Exports())
}

func TestExportWorker_SinkFailure(t *testing.T) {
	store := memory.New()
	sink := sheetsmem.New()
	boom := errors.New("sheets unavailable")
	sink.FailWith(boom)
	w := NewExportWorker(store, sink)

	err := w.HandleChange(context.Background(), amqp.NewLedgerChangeMessage(1, amqp.OpDelete, core.Liability))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, w.LastExport().IsZero(), "failed export must not advance the watermark")
}

func TestPeriodicExporter_Lifecycle(t *testing.T) {
	store := memory.New()
	sink := sheetsmem.New()
	seed(t, store, 2)

	p := NewPeriodicExporter(NewExportWorker(store, sink), 10*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, p.Start(ctx))
	assert.True(t, p.IsRunning())
	assert.Error(t, p.Start(ctx), "second start is rejected")

	require.Eventually(t, func() bool { return sink.Exports() >= 2 }, time.Second, 5*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, p.Stop(stopCtx))
	assert.False(t, p.IsRunning())
	require.NoError(t, p.Stop(stopCtx), "stopping twice is a no-op")

	assert.Len(t, sink.Snapshot(), 2)
}

func TestNewPeriodicExporter_DefaultInterval(t *testing.T) {
	p := NewPeriodicExporter(nil, 0)
	assert.Equal(t, DefaultExportInterval, p.interval)
}
