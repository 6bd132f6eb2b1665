package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"networth/internal/core"
	"networth/internal/ports"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func cash(value int64, y, m, d int) core.Entry {
	return core.Entry{
		Date:        core.NewDate(y, m, d),
		Class:       core.Asset,
		Subcategory: "Cash",
		Description: "wallet",
		Value:       core.Money{Cents: value},
	}
}

func TestMigrationsApplied(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	// Reopening runs migrations again without error.
	repo, err = NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	v, dirty, err := SchemaVersion(DSN(path))
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
	assert.False(t, dirty)
}

func TestCreateEntryAppendsCreatedRecord(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	e, rec, err := repo.CreateEntry(ctx, cash(100000, 2024, 1, 1))
	require.NoError(t, err)
	assert.NotZero(t, e.ID)
	assert.Equal(t, e.ID, rec.EntryID)
	assert.Equal(t, core.KindCreated, rec.Kind)
	assert.Equal(t, int64(0), rec.OldValue.Cents)
	assert.Equal(t, int64(100000), rec.NewValue.Cents)
	assert.Equal(t, int64(100000), rec.Difference.Cents)

	got, err := repo.GetEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e, got)

	hist, err := repo.HistoryFor(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, rec, hist[0])
}

func TestUpdateEntry(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	e, _, err := repo.CreateEntry(ctx, cash(100000, 2024, 1, 1))
	require.NoError(t, err)

	updated, rec, err := repo.UpdateEntry(ctx, ports.EntryUpdate{
		ID:          e.ID,
		Value:       core.Money{Cents: 150000},
		Description: "after payday",
		Date:        core.NewDate(2024, 1, 3),
		MoveDate:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(50000), rec.Difference.Cents)
	assert.Equal(t, core.KindUpdated, rec.Kind)
	assert.Equal(t, "2024-01-03", rec.Date.String())
	assert.Equal(t, "2024-01-03", updated.Date.String())
	assert.Equal(t, int64(150000), updated.Value.Cents)

	// Keep the entry date, history still carries the new date.
	updated, rec, err = repo.UpdateEntry(ctx, ports.EntryUpdate{
		ID:          e.ID,
		Value:       core.Money{Cents: 120000},
		Description: "rent",
		Date:        core.NewDate(2024, 1, 5),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(-30000), rec.Difference.Cents)
	assert.Equal(t, "2024-01-05", rec.Date.String())
	assert.Equal(t, "2024-01-03", updated.Date.String())

	hist, err := repo.HistoryFor(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	for i := 1; i < len(hist); i++ {
		assert.Equal(t, hist[i-1].NewValue, hist[i].OldValue, "history chain broken at %d", i)
	}
}

func TestUpdateMissingEntry(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, _, err := repo.UpdateEntry(ctx, ports.EntryUpdate{ID: 42, Date: core.NewDate(2024, 1, 1)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrNotFound))

	all, err := repo.AllHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

// failHistoryInserts makes every later history insert abort, after the entry
// statement of the same transaction has already run.
func failHistoryInserts(t *testing.T, repo *SQLiteRepository) {
	t.Helper()
	_, err := repo.db.Exec(`CREATE TRIGGER fail_history BEFORE INSERT ON history
		BEGIN SELECT RAISE(ABORT, 'history insert rejected'); END`)
	require.NoError(t, err)
}

func TestCreateEntryRollsBackWhenHistoryFails(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	failHistoryInserts(t, repo)

	_, _, err := repo.CreateEntry(ctx, cash(100000, 2024, 1, 1))
	require.Error(t, err)

	entries, err := repo.ListEntries(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, entries)
	all, err := repo.AllHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpdateEntryRollsBackWhenHistoryFails(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	e, rec, err := repo.CreateEntry(ctx, cash(100000, 2024, 1, 1))
	require.NoError(t, err)
	failHistoryInserts(t, repo)

	_, _, err = repo.UpdateEntry(ctx, ports.EntryUpdate{
		ID:          e.ID,
		Value:       core.Money{Cents: 150000},
		Description: "after payday",
		Date:        core.NewDate(2024, 1, 3),
		MoveDate:    true,
	})
	require.Error(t, err)

	got, err := repo.GetEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e, got)
	hist, err := repo.HistoryFor(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, []core.HistoryRecord{rec}, hist)
}

func TestDeleteEntryCascades(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	e, _, err := repo.CreateEntry(ctx, cash(100, 2024, 1, 1))
	require.NoError(t, err)
	keep, _, err := repo.CreateEntry(ctx, cash(200, 2024, 1, 2))
	require.NoError(t, err)
	_, _, err = repo.UpdateEntry(ctx, ports.EntryUpdate{ID: e.ID, Value: core.Money{Cents: 300}, Date: core.NewDate(2024, 1, 3)})
	require.NoError(t, err)

	deleted, err := repo.DeleteEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	hist, err := repo.HistoryFor(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, hist)

	entries, err := repo.ListEntries(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, keep.ID, entries[0].ID)

	// Absent id is a no-op.
	deleted, err = repo.DeleteEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestListEntriesAndHistoryOrdering(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	late, _, err := repo.CreateEntry(ctx, cash(1, 2024, 3, 1))
	require.NoError(t, err)
	early, _, err := repo.CreateEntry(ctx, cash(2, 2024, 1, 1))
	require.NoError(t, err)
	loan := core.Entry{Date: core.NewDate(2024, 2, 1), Class: core.Liability, Subcategory: "Student Loans", Value: core.Money{Cents: 3}}
	loan, _, err = repo.CreateEntry(ctx, loan)
	require.NoError(t, err)

	entries, err := repo.ListEntries(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []int64{early.ID, loan.ID, late.ID}, []int64{entries[0].ID, entries[1].ID, entries[2].ID})

	liabilities, err := repo.ListEntries(ctx, core.Liability)
	require.NoError(t, err)
	require.Len(t, liabilities, 1)
	assert.Equal(t, loan.ID, liabilities[0].ID)

	all, err := repo.AllHistory(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2024-01-01", all[0].Date.String())
	assert.Equal(t, "2024-02-01", all[1].Date.String())
	assert.Equal(t, "2024-03-01", all[2].Date.String())
}

func TestGoalCapacity(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for i := 0; i < 3; i++ {
		g, err := repo.CreateGoal(ctx, core.Goal{Type: core.GoalNetWorth, Target: core.Money{Cents: int64(i)}, Progress: core.Money{Cents: -5}}, 3)
		require.NoError(t, err)
		assert.NotZero(t, g.ID)
		assert.False(t, g.CreatedAt.IsZero())
	}

	_, err := repo.CreateGoal(ctx, core.Goal{Type: core.GoalNetWorth}, 3)
	var capErr *core.CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 3, capErr.Limit)

	goals, err := repo.ListGoals(ctx)
	require.NoError(t, err)
	require.Len(t, goals, 3)
	assert.Equal(t, int64(-5), goals[0].Progress.Cents)
	assert.Less(t, goals[0].ID, goals[1].ID)

	deleted, err := repo.DeleteGoal(ctx, goals[0].ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = repo.DeleteGoal(ctx, goals[0].ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = repo.CreateGoal(ctx, core.Goal{Type: core.GoalAsset, Subcategory: "Cash"}, 3)
	require.NoError(t, err)
}
