// Package memory is an in-process ports.Store. State is lost on exit.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"networth/internal/core"
	"networth/internal/ports"
)

type Store struct {
	mu      sync.Mutex
	entries map[int64]core.Entry
	history []core.HistoryRecord
	goals   []core.Goal

	nextEntry   int64
	nextHistory int64
	nextGoal    int64
}

var _ ports.Store = (*Store)(nil)

func New() *Store {
	return &Store{entries: make(map[int64]core.Entry)}
}

func (s *Store) Close() error { return nil }

// CreateEntry stores the entry and its created record.
func (s *Store) CreateEntry(_ context.Context, e core.Entry) (core.Entry, core.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextEntry++
	e.ID = s.nextEntry
	s.entries[e.ID] = e

	rec := s.appendLocked(core.NewCreatedRecord(e))
	return e, rec, nil
}

func (s *Store) UpdateEntry(_ context.Context, u ports.EntryUpdate) (core.Entry, core.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[u.ID]
	if !ok {
		return core.Entry{}, core.HistoryRecord{}, &core.NotFoundError{Kind: "entry", ID: u.ID}
	}

	rec := core.NewUpdatedRecord(e.ID, e.Value, u.Value, u.Description, u.Date)
	e.Value = u.Value
	e.Description = u.Description
	if u.MoveDate {
		e.Date = u.Date
	}
	s.entries[e.ID] = e

	return e, s.appendLocked(rec), nil
}

func (s *Store) appendLocked(rec core.HistoryRecord) core.HistoryRecord {
	s.nextHistory++
	rec.ID = s.nextHistory
	s.history = append(s.history, rec)
	return rec
}

func (s *Store) DeleteEntry(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = slices.DeleteFunc(s.history, func(r core.HistoryRecord) bool { return r.EntryID == id })
	if _, ok := s.entries[id]; !ok {
		return false, nil
	}
	delete(s.entries, id)
	return true, nil
}

func (s *Store) GetEntry(_ context.Context, id int64) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return core.Entry{}, &core.NotFoundError{Kind: "entry", ID: id}
	}
	return e, nil
}

// ListEntries returns entries ordered by date then id.
func (s *Store) ListEntries(_ context.Context, class core.Class) ([]core.Entry, error) {
	s.mu.Lock()
	out := make([]core.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if class == "" || e.Class == class {
			out = append(out, e)
		}
	}
	s.mu.Unlock()

	slices.SortFunc(out, func(a, b core.Entry) int {
		if c := a.Date.Compare(b.Date.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// AllHistory returns records ordered by date, ties by insertion.
func (s *Store) AllHistory(_ context.Context) ([]core.HistoryRecord, error) {
	s.mu.Lock()
	out := slices.Clone(s.history)
	s.mu.Unlock()

	slices.SortStableFunc(out, func(a, b core.HistoryRecord) int {
		return a.Date.Compare(b.Date.Time)
	})
	return out, nil
}

func (s *Store) HistoryFor(_ context.Context, entryID int64) ([]core.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []core.HistoryRecord{}
	for _, r := range s.history {
		if r.EntryID == entryID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) CreateGoal(_ context.Context, g core.Goal, limit int) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.goals) >= limit {
		return core.Goal{}, &core.CapacityError{Limit: limit}
	}
	s.nextGoal++
	g.ID = s.nextGoal
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	s.goals = append(s.goals, g)
	return g, nil
}

func (s *Store) DeleteGoal(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.goals)
	s.goals = slices.DeleteFunc(s.goals, func(g core.Goal) bool { return g.ID == id })
	return len(s.goals) < n, nil
}

// ListGoals returns goals ordered by id.
func (s *Store) ListGoals(_ context.Context) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.goals), nil
}
