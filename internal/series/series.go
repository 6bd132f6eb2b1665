// Package series replays the history log into running balances per class.
package series

import (
	"cmp"
	"slices"

	"networth/internal/core"
)

// Point holds the running balances as of Date.
type Point struct {
	Date        core.Date  `json:"date"`
	Assets      core.Money `json:"assets"`
	Liabilities core.Money `json:"liabilities"`
	CashFlow    core.Money `json:"cash_flow"`
	NetWorth    core.Money `json:"net_worth"`
}

// Series has one point per date on which a change occurred, ascending.
type Series []Point

type delta struct {
	assets, liabilities, cashFlow int64
}

func (d *delta) add(class core.Class, cents int64) {
	switch class {
	case core.Asset:
		d.assets += cents
	case core.Liability:
		d.liabilities += cents
	case core.CashFlow:
		d.cashFlow += cents
	}
}

// Build replays records into a series. classes maps entry ids to their
// class; records whose entry is missing from it are skipped. The input is not
// modified and may be in any order.
//
// The earliest record of each entry contributes its old value as an initial
// event on its own date, then every record contributes its difference. With a
// well-formed chain this sums to the entry's current value.
func Build(records []core.HistoryRecord, classes map[int64]core.Class) Series {
	sorted := slices.Clone(records)
	slices.SortFunc(sorted, func(a, b core.HistoryRecord) int {
		if c := a.Date.Compare(b.Date.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	byDate := make(map[string]*delta)
	var dates []core.Date
	seen := make(map[int64]bool)

	for _, r := range sorted {
		class, ok := classes[r.EntryID]
		if !ok {
			continue
		}
		key := r.Date.String()
		d, ok := byDate[key]
		if !ok {
			d = &delta{}
			byDate[key] = d
			dates = append(dates, r.Date)
		}
		if !seen[r.EntryID] {
			seen[r.EntryID] = true
			d.add(class, r.OldValue.Cents)
		}
		d.add(class, r.Difference.Cents)
	}

	out := make(Series, 0, len(dates))
	var run delta
	for _, date := range dates {
		d := byDate[date.String()]
		run.assets += d.assets
		run.liabilities += d.liabilities
		run.cashFlow += d.cashFlow
		out = append(out, Point{
			Date:        date,
			Assets:      core.Money{Cents: run.assets},
			Liabilities: core.Money{Cents: run.liabilities},
			CashFlow:    core.Money{Cents: run.cashFlow},
			NetWorth:    core.Money{Cents: run.assets - run.liabilities},
		})
	}
	return out
}

// ClassIndex maps entry ids to classes for Build.
func ClassIndex(entries []core.Entry) map[int64]core.Class {
	m := make(map[int64]core.Class, len(entries))
	for _, e := range entries {
		m[e.ID] = e.Class
	}
	return m
}

// Latest returns the last point, if any.
func (s Series) Latest() (Point, bool) {
	if len(s) == 0 {
		return Point{}, false
	}
	return s[len(s)-1], true
}
