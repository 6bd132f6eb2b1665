package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"networth/internal/core"
	"networth/internal/ports"
)

// SQLiteRepository implements ports.Store on a single SQLite file.
type SQLiteRepository struct {
	db *sqlx.DB
}

var _ ports.Store = (*SQLiteRepository)(nil)

// DSN returns the connection string used for path. Writers take the lock at
// BEGIN so the read-then-write sequences inside a transaction never race.
func DSN(path string) string {
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type entryRow struct {
	ID          int64  `db:"id"`
	Date        string `db:"date"`
	Class       string `db:"class"`
	Subcategory string `db:"subcategory"`
	Description string `db:"description"`
	ValueCents  int64  `db:"value_cents"`
}

func (row entryRow) toEntry() (core.Entry, error) {
	d, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Entry{}, fmt.Errorf("entry %d: %w", row.ID, err)
	}
	return core.Entry{
		ID:          row.ID,
		Date:        d,
		Class:       core.Class(row.Class),
		Subcategory: row.Subcategory,
		Description: row.Description,
		Value:       core.Money{Cents: row.ValueCents},
	}, nil
}

type historyRow struct {
	ID              int64  `db:"id"`
	EntryID         int64  `db:"entry_id"`
	Kind            string `db:"kind"`
	Date            string `db:"date"`
	OldValueCents   int64  `db:"old_value_cents"`
	NewValueCents   int64  `db:"new_value_cents"`
	DifferenceCents int64  `db:"difference_cents"`
	Description     string `db:"description"`
}

func (row historyRow) toRecord() (core.HistoryRecord, error) {
	d, err := core.ParseDate(row.Date)
	if err != nil {
		return core.HistoryRecord{}, fmt.Errorf("history %d: %w", row.ID, err)
	}
	return core.HistoryRecord{
		ID:          row.ID,
		EntryID:     row.EntryID,
		Kind:        core.HistoryKind(row.Kind),
		Date:        d,
		OldValue:    core.Money{Cents: row.OldValueCents},
		NewValue:    core.Money{Cents: row.NewValueCents},
		Difference:  core.Money{Cents: row.DifferenceCents},
		Description: row.Description,
	}, nil
}

type goalRow struct {
	ID            int64  `db:"id"`
	Type          string `db:"type"`
	Subcategory   string `db:"subcategory"`
	TargetCents   int64  `db:"target_cents"`
	ProgressCents int64  `db:"progress_cents"`
	CreatedAt     string `db:"created_at"`
}

func (row goalRow) toGoal() (core.Goal, error) {
	created, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
	if err != nil {
		return core.Goal{}, fmt.Errorf("goal %d: parse created_at: %w", row.ID, err)
	}
	return core.Goal{
		ID:          row.ID,
		Type:        core.GoalType(row.Type),
		Subcategory: row.Subcategory,
		Target:      core.Money{Cents: row.TargetCents},
		Progress:    core.Money{Cents: row.ProgressCents},
		CreatedAt:   created,
	}, nil
}

const (
	entryColumns   = `id, date, class, subcategory, description, value_cents`
	historyColumns = `id, entry_id, kind, date, old_value_cents, new_value_cents, difference_cents, description`
	goalColumns    = `id, type, subcategory, target_cents, progress_cents, created_at`
)

// withTx runs fn in one transaction and commits when fn returns nil.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func insertHistory(ctx context.Context, tx *sqlx.Tx, rec core.HistoryRecord) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO history (entry_id, kind, date, old_value_cents, new_value_cents, difference_cents, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.EntryID, string(rec.Kind), rec.Date.String(),
		rec.OldValue.Cents, rec.NewValue.Cents, rec.Difference.Cents, rec.Description)
	if err != nil {
		return 0, fmt.Errorf("insert history: %w", err)
	}
	return res.LastInsertId()
}

// CreateEntry implements ports.Ledger
func (r *SQLiteRepository) CreateEntry(ctx context.Context, e core.Entry) (core.Entry, core.HistoryRecord, error) {
	var rec core.HistoryRecord
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO entries (date, class, subcategory, description, value_cents) VALUES (?, ?, ?, ?, ?)`,
			e.Date.String(), string(e.Class), e.Subcategory, e.Description, e.Value.Cents)
		if err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
		if e.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("entry id: %w", err)
		}

		rec = core.NewCreatedRecord(e)
		rec.ID, err = insertHistory(ctx, tx, rec)
		return err
	})
	if err != nil {
		return core.Entry{}, core.HistoryRecord{}, err
	}

	slog.InfoContext(ctx, "Entry saved to SQLite",
		"id", e.ID,
		"class", e.Class,
		"subcategory", e.Subcategory,
		"value_cents", e.Value.Cents)

	return e, rec, nil
}

// UpdateEntry implements ports.Ledger
func (r *SQLiteRepository) UpdateEntry(ctx context.Context, u ports.EntryUpdate) (core.Entry, core.HistoryRecord, error) {
	var (
		entry core.Entry
		rec   core.HistoryRecord
	)
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		var row entryRow
		err := tx.GetContext(ctx, &row, `SELECT `+entryColumns+` FROM entries WHERE id = ?`, u.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return &core.NotFoundError{Kind: "entry", ID: u.ID}
		}
		if err != nil {
			return fmt.Errorf("get entry: %w", err)
		}
		if entry, err = row.toEntry(); err != nil {
			return err
		}

		rec = core.NewUpdatedRecord(entry.ID, entry.Value, u.Value, u.Description, u.Date)

		entry.Value = u.Value
		entry.Description = u.Description
		if u.MoveDate {
			entry.Date = u.Date
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE entries SET value_cents = ?, description = ?, date = ? WHERE id = ?`,
			entry.Value.Cents, entry.Description, entry.Date.String(), entry.ID); err != nil {
			return fmt.Errorf("update entry: %w", err)
		}

		rec.ID, err = insertHistory(ctx, tx, rec)
		return err
	})
	if err != nil {
		return core.Entry{}, core.HistoryRecord{}, err
	}

	slog.InfoContext(ctx, "Entry updated in SQLite",
		"id", entry.ID,
		"difference_cents", rec.Difference.Cents)

	return entry, rec, nil
}

// DeleteEntry implements ports.Ledger
func (r *SQLiteRepository) DeleteEntry(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM history WHERE entry_id = ?`, id); err != nil {
			return fmt.Errorf("delete history: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete entry: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		deleted = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	if deleted {
		slog.InfoContext(ctx, "Entry deleted from SQLite", "id", id)
	}
	return deleted, nil
}

// GetEntry implements ports.Ledger
func (r *SQLiteRepository) GetEntry(ctx context.Context, id int64) (core.Entry, error) {
	var row entryRow
	err := r.db.GetContext(ctx, &row, `SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, &core.NotFoundError{Kind: "entry", ID: id}
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("get entry: %w", err)
	}
	return row.toEntry()
}

// ListEntries implements ports.Ledger
func (r *SQLiteRepository) ListEntries(ctx context.Context, class core.Class) ([]core.Entry, error) {
	var (
		rows []entryRow
		err  error
	)
	if class == "" {
		err = r.db.SelectContext(ctx, &rows, `SELECT `+entryColumns+` FROM entries ORDER BY date, id`)
	} else {
		err = r.db.SelectContext(ctx, &rows, `SELECT `+entryColumns+` FROM entries WHERE class = ? ORDER BY date, id`, string(class))
	}
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	entries := make([]core.Entry, 0, len(rows))
	for _, row := range rows {
		e, err := row.toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// AllHistory implements ports.Ledger
func (r *SQLiteRepository) AllHistory(ctx context.Context) ([]core.HistoryRecord, error) {
	var rows []historyRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+historyColumns+` FROM history ORDER BY date, id`); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return toRecords(rows)
}

// HistoryFor implements ports.Ledger
func (r *SQLiteRepository) HistoryFor(ctx context.Context, entryID int64) ([]core.HistoryRecord, error) {
	var rows []historyRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+historyColumns+` FROM history WHERE entry_id = ? ORDER BY id`, entryID); err != nil {
		return nil, fmt.Errorf("list history for entry %d: %w", entryID, err)
	}
	return toRecords(rows)
}

func toRecords(rows []historyRow) ([]core.HistoryRecord, error) {
	out := make([]core.HistoryRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// CreateGoal implements ports.GoalStore
func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal, limit int) (core.Goal, error) {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		var count int
		if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM goals`); err != nil {
			return fmt.Errorf("count goals: %w", err)
		}
		if count >= limit {
			return &core.CapacityError{Limit: limit}
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO goals (type, subcategory, target_cents, progress_cents, created_at) VALUES (?, ?, ?, ?, ?)`,
			string(g.Type), g.Subcategory, g.Target.Cents, g.Progress.Cents, g.CreatedAt.Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("insert goal: %w", err)
		}
		g.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return core.Goal{}, err
	}

	slog.InfoContext(ctx, "Goal saved to SQLite",
		"id", g.ID,
		"type", g.Type,
		"progress_cents", g.Progress.Cents)

	return g, nil
}

// DeleteGoal implements ports.GoalStore
func (r *SQLiteRepository) DeleteGoal(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete goal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ListGoals implements ports.GoalStore
func (r *SQLiteRepository) ListGoals(ctx context.Context) ([]core.Goal, error) {
	var rows []goalRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+goalColumns+` FROM goals ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	goals := make([]core.Goal, 0, len(rows))
	for _, row := range rows {
		g, err := row.toGoal()
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, nil
}
