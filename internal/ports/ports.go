package ports

import (
	"context"

	"networth/internal/core"
)

// Ports for the storage adapters.
type (
	// Ledger is the Entry Store together with its History Log. Every mutation
	// and the history record it produces commit together or not at all.
	Ledger interface {
		// CreateEntry inserts e and its created record. The returned values carry
		// the assigned ids.
		CreateEntry(ctx context.Context, e core.Entry) (core.Entry, core.HistoryRecord, error)

		// UpdateEntry changes an entry and appends the updated record. It returns
		// *core.NotFoundError when the entry does not exist.
		UpdateEntry(ctx context.Context, u EntryUpdate) (core.Entry, core.HistoryRecord, error)

		// DeleteEntry removes an entry with its history and reports whether it existed.
		DeleteEntry(ctx context.Context, id int64) (bool, error)

		GetEntry(ctx context.Context, id int64) (core.Entry, error)

		// ListEntries returns entries ordered by date then id. An empty class lists all.
		ListEntries(ctx context.Context, class core.Class) ([]core.Entry, error)

		// AllHistory returns every record ordered by date, ties by insertion.
		AllHistory(ctx context.Context) ([]core.HistoryRecord, error)

		// HistoryFor returns the records of one entry in insertion order.
		HistoryFor(ctx context.Context, entryID int64) ([]core.HistoryRecord, error)
	}

	// GoalStore persists goals.
	GoalStore interface {
		// CreateGoal inserts g unless limit goals already exist, in which case it
		// returns *core.CapacityError.
		CreateGoal(ctx context.Context, g core.Goal, limit int) (core.Goal, error)

		// DeleteGoal reports whether the goal existed.
		DeleteGoal(ctx context.Context, id int64) (bool, error)

		// ListGoals returns goals ordered by id.
		ListGoals(ctx context.Context) ([]core.Goal, error)
	}

	// Store is what a backend provides.
	Store interface {
		Ledger
		GoalStore
		Close() error
	}
)

// EntryUpdate describes an update of an entry's mutable fields.
type EntryUpdate struct {
	ID          int64
	Value       core.Money
	Description string
	Date        core.Date

	// MoveDate sets the entry's own date to Date. The history record always
	// carries Date regardless.
	MoveDate bool
}
