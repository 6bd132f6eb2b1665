package services

import (
	"context"
	"fmt"
	"log/slog"

	"networth/internal/categories"
	"networth/internal/core"
	"networth/internal/ports"
)

// DefaultGoalLimit is the number of goals that may exist at once.
const DefaultGoalLimit = 3

// GoalService manages the bounded goal set.
type GoalService struct {
	goals    ports.GoalStore
	ledger   ports.Ledger
	registry *categories.Registry
	limit    int
}

func NewGoalService(goals ports.GoalStore, ledger ports.Ledger, registry *categories.Registry, limit int) *GoalService {
	if registry == nil {
		registry = categories.Default()
	}
	if limit <= 0 {
		limit = DefaultGoalLimit
	}
	return &GoalService{goals: goals, ledger: ledger, registry: registry, limit: limit}
}

// Limit returns the configured goal capacity.
func (s *GoalService) Limit() int { return s.limit }

// SetGoal validates and stores a goal with its progress computed from the
// current entry values. Progress is never recomputed afterwards. A full goal
// list is reported before any input problem; the store checks the limit again
// inside the insert.
func (s *GoalService) SetGoal(ctx context.Context, typ core.GoalType, subcategory string, target core.Money) (core.Goal, error) {
	existing, err := s.goals.ListGoals(ctx)
	if err != nil {
		return core.Goal{}, fmt.Errorf("list goals: %w", err)
	}
	if len(existing) >= s.limit {
		return core.Goal{}, &core.CapacityError{Limit: s.limit}
	}

	if !typ.IsValid() {
		return core.Goal{}, &core.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown goal type %q", typ)}
	}
	if err := target.Validate(); err != nil {
		return core.Goal{}, &core.ValidationError{Field: "target_amount", Reason: err.Error()}
	}

	class, scoped := typ.Class()
	if scoped {
		if err := s.registry.Check(class, subcategory); err != nil {
			return core.Goal{}, err
		}
	} else {
		subcategory = ""
	}

	entries, err := s.ledger.ListEntries(ctx, "")
	if err != nil {
		return core.Goal{}, fmt.Errorf("list entries: %w", err)
	}

	g := core.Goal{
		Type:        typ,
		Subcategory: subcategory,
		Target:      target,
		Progress:    Progress(typ, subcategory, target, entries),
	}

	created, err := s.goals.CreateGoal(ctx, g, s.limit)
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}

	slog.InfoContext(ctx, "Goal set",
		"id", created.ID,
		"type", created.Type,
		"subcategory", created.Subcategory,
		"progress", created.Progress.String())

	return created, nil
}

// DeleteGoal removes a goal. Unknown ids are a no-op.
func (s *GoalService) DeleteGoal(ctx context.Context, id int64) error {
	if _, err := s.goals.DeleteGoal(ctx, id); err != nil {
		return fmt.Errorf("delete goal %d: %w", id, err)
	}
	return nil
}

// ListGoals returns goals ordered by id.
func (s *GoalService) ListGoals(ctx context.Context) ([]core.Goal, error) {
	goals, err := s.goals.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	if goals == nil {
		goals = []core.Goal{}
	}
	return goals, nil
}

// Progress computes the snapshot progress of a goal against entries:
//
//	asset:     target - sum(asset values in subcategory)
//	liability: target + sum(liability values in subcategory)
//	cash-flow: target - sum(cash-flow values in subcategory)
//	net-worth: (assets - liabilities) - target
func Progress(typ core.GoalType, subcategory string, target core.Money, entries []core.Entry) core.Money {
	if typ == core.GoalNetWorth {
		return TotalsOf(entries).NetWorth.Sub(target)
	}

	class, _ := typ.Class()
	var sum core.Money
	for _, e := range entries {
		if e.Class == class && e.Subcategory == subcategory {
			sum = sum.Add(e.Value)
		}
	}

	if typ == core.GoalLiability {
		return target.Add(sum)
	}
	return target.Sub(sum)
}
