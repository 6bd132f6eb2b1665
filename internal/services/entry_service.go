package services

import (
	"context"
	"fmt"
	"log/slog"

	"networth/internal/amqp"
	"networth/internal/categories"
	"networth/internal/core"
	"networth/internal/ports"
)

// Publisher sends change notifications after committed mutations.
type Publisher interface {
	PublishLedgerChange(ctx context.Context, msg *amqp.LedgerChangeMessage) error
}

// EntryService validates entry mutations and runs them against the ledger.
type EntryService struct {
	ledger    ports.Ledger
	registry  *categories.Registry
	publisher Publisher
	moveDate  bool
}

type EntryOption func(*EntryService)

// WithPublisher attaches a change publisher. A nil publisher is ignored.
func WithPublisher(p Publisher) EntryOption {
	return func(s *EntryService) { s.publisher = p }
}

// WithEntryDateUpdates controls whether an update moves the entry's own date
// to the new date. It does by default.
func WithEntryDateUpdates(move bool) EntryOption {
	return func(s *EntryService) { s.moveDate = move }
}

func NewEntryService(ledger ports.Ledger, registry *categories.Registry, opts ...EntryOption) *EntryService {
	if registry == nil {
		registry = categories.Default()
	}
	s := &EntryService{
		ledger:   ledger,
		registry: registry,
		moveDate: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the category registry used for validation.
func (s *EntryService) Registry() *categories.Registry {
	return s.registry
}

// Create validates e and stores it with its created record. e.ID is ignored.
func (s *EntryService) Create(ctx context.Context, e core.Entry) (core.Entry, error) {
	e.ID = 0
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	if err := s.registry.Check(e.Class, e.Subcategory); err != nil {
		return core.Entry{}, err
	}

	created, _, err := s.ledger.CreateEntry(ctx, e)
	if err != nil {
		return core.Entry{}, fmt.Errorf("create entry: %w", err)
	}

	s.notify(ctx, created.ID, amqp.OpCreate, created.Class)
	return created, nil
}

// Update sets value, description and date of entry id and returns the
// appended history record.
func (s *EntryService) Update(ctx context.Context, id int64, value core.Money, description string, date core.Date) (core.HistoryRecord, error) {
	if err := core.ValidateChange(value, description, date); err != nil {
		return core.HistoryRecord{}, err
	}

	entry, rec, err := s.ledger.UpdateEntry(ctx, ports.EntryUpdate{
		ID:          id,
		Value:       value,
		Description: description,
		Date:        date,
		MoveDate:    s.moveDate,
	})
	if err != nil {
		return core.HistoryRecord{}, fmt.Errorf("update entry %d: %w", id, err)
	}

	s.notify(ctx, entry.ID, amqp.OpUpdate, entry.Class)
	return rec, nil
}

// Delete removes the entry and its history. Unknown ids are a no-op.
func (s *EntryService) Delete(ctx context.Context, id int64) error {
	entry, err := s.ledger.GetEntry(ctx, id)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("get entry %d: %w", id, err)
	}

	deleted, err := s.ledger.DeleteEntry(ctx, id)
	if err != nil {
		return fmt.Errorf("delete entry %d: %w", id, err)
	}
	if deleted {
		s.notify(ctx, id, amqp.OpDelete, entry.Class)
	}
	return nil
}

func (s *EntryService) Get(ctx context.Context, id int64) (core.Entry, error) {
	return s.ledger.GetEntry(ctx, id)
}

// List returns entries ordered by date then id. An empty class lists all.
func (s *EntryService) List(ctx context.Context, class core.Class) ([]core.Entry, error) {
	if class != "" && !class.IsValid() {
		return nil, &core.ValidationError{Field: "class", Reason: fmt.Sprintf("unknown class %q", class)}
	}
	entries, err := s.ledger.ListEntries(ctx, class)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	if entries == nil {
		entries = []core.Entry{}
	}
	return entries, nil
}

// History returns the records of one entry in insertion order.
func (s *EntryService) History(ctx context.Context, id int64) ([]core.HistoryRecord, error) {
	recs, err := s.ledger.HistoryFor(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("history for entry %d: %w", id, err)
	}
	if recs == nil {
		recs = []core.HistoryRecord{}
	}
	return recs, nil
}

// AllHistory returns every record ordered by date, ties by insertion.
func (s *EntryService) AllHistory(ctx context.Context) ([]core.HistoryRecord, error) {
	recs, err := s.ledger.AllHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	if recs == nil {
		recs = []core.HistoryRecord{}
	}
	return recs, nil
}

func (s *EntryService) notify(ctx context.Context, id int64, op amqp.Operation, class core.Class) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No publisher configured, skipping ledger change message", "entry_id", id)
		return
	}
	if err := s.publisher.PublishLedgerChange(ctx, amqp.NewLedgerChangeMessage(id, op, class)); err != nil {
		// The mutation is committed; the worker's periodic export catches up.
		slog.ErrorContext(ctx, "Failed to publish ledger change message",
			"entry_id", id,
			"operation", op,
			"error", err)
	}
}
