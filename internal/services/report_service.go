package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"networth/internal/core"
	"networth/internal/ports"
	"networth/internal/series"
)

const (
	topSubcategories = 5
	recentEntries    = 10
)

// ReportService derives read-only views from the ledger. Nothing is cached;
// every call reads current state.
type ReportService struct {
	ledger ports.Ledger
}

func NewReportService(ledger ports.Ledger) *ReportService {
	return &ReportService{ledger: ledger}
}

// BuildSeries replays the full history into running balances.
func (s *ReportService) BuildSeries(ctx context.Context) (series.Series, error) {
	entries, err := s.ledger.ListEntries(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	records, err := s.ledger.AllHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return series.Build(records, series.ClassIndex(entries)), nil
}

// Totals sums current entry values per class.
func (s *ReportService) Totals(ctx context.Context) (core.Totals, error) {
	entries, err := s.ledger.ListEntries(ctx, "")
	if err != nil {
		return core.Totals{}, fmt.Errorf("list entries: %w", err)
	}
	return TotalsOf(entries), nil
}

// Analytics computes the aggregate views over current entries.
func (s *ReportService) Analytics(ctx context.Context) (core.Analytics, error) {
	entries, err := s.ledger.ListEntries(ctx, "")
	if err != nil {
		return core.Analytics{}, fmt.Errorf("list entries: %w", err)
	}
	return AnalyticsOf(entries), nil
}

// TotalsOf sums entry values per class.
func TotalsOf(entries []core.Entry) core.Totals {
	var t core.Totals
	for _, e := range entries {
		switch e.Class {
		case core.Asset:
			t.Assets = t.Assets.Add(e.Value)
		case core.Liability:
			t.Liabilities = t.Liabilities.Add(e.Value)
		case core.CashFlow:
			t.CashFlow = t.CashFlow.Add(e.Value)
		}
	}
	t.NetWorth = t.Assets.Sub(t.Liabilities)
	return t
}

// AnalyticsOf computes analytics over entries.
func AnalyticsOf(entries []core.Entry) core.Analytics {
	a := core.Analytics{
		Counts:           make(map[core.Class]int, 3),
		Distribution:     make(map[core.Class][]core.CategoryAmount, 3),
		TopSubcategories: make(map[core.Class][]core.CategoryAmount, 3),
		DebtToAssetRatio: decimal.Zero,
		Monthly:          []core.PeriodAmount{},
		Yearly:           []core.PeriodAmount{},
	}

	totals := TotalsOf(entries)
	for _, c := range core.Classes() {
		a.Counts[c] = 0
	}
	for _, e := range entries {
		a.Counts[e.Class]++
	}

	a.AverageAsset = average(totals.Assets, a.Counts[core.Asset])
	a.AverageLiability = average(totals.Liabilities, a.Counts[core.Liability])
	if totals.Assets.Cents > 0 {
		a.DebtToAssetRatio = totals.Liabilities.Decimal().Div(totals.Assets.Decimal()).Round(4)
	}

	for _, c := range core.Classes() {
		dist := distribution(entries, c)
		a.Distribution[c] = dist
		a.TopSubcategories[c] = dist[:min(len(dist), topSubcategories)]
	}

	a.Monthly = periodSums(entries, "2006-01")
	a.Yearly = periodSums(entries, "2006")
	a.SubcategoryTrend = subcategoryTrend(entries)

	recent := slices.Clone(entries)
	slices.SortFunc(recent, func(x, y core.Entry) int {
		if c := y.Date.Compare(x.Date.Time); c != 0 {
			return c
		}
		return cmp.Compare(y.ID, x.ID)
	})
	a.Recent = recent[:min(len(recent), recentEntries)]
	if a.Recent == nil {
		a.Recent = []core.Entry{}
	}

	return a
}

// average rounds half-up to cents.
func average(sum core.Money, n int) core.Money {
	if n == 0 {
		return core.Money{}
	}
	return core.MoneyFromDecimal(sum.Decimal().Div(decimal.NewFromInt(int64(n))))
}

// distribution sums values per subcategory of class, largest first.
func distribution(entries []core.Entry, class core.Class) []core.CategoryAmount {
	idx := map[string]int{}
	out := []core.CategoryAmount{}
	for _, e := range entries {
		if e.Class != class {
			continue
		}
		i, ok := idx[e.Subcategory]
		if !ok {
			i = len(out)
			idx[e.Subcategory] = i
			out = append(out, core.CategoryAmount{Name: e.Subcategory})
		}
		out[i].Amount = out[i].Amount.Add(e.Value)
		out[i].Count++
	}
	slices.SortFunc(out, func(x, y core.CategoryAmount) int {
		if c := cmp.Compare(y.Amount.Cents, x.Amount.Cents); c != 0 {
			return c
		}
		return cmp.Compare(x.Name, y.Name)
	})
	return out
}

// periodSums sums values per (period, class) keyed by the entry date
// formatted with layout, ordered by period then class.
func periodSums(entries []core.Entry, layout string) []core.PeriodAmount {
	type key struct {
		period string
		class  core.Class
	}
	sums := map[key]core.Money{}
	for _, e := range entries {
		k := key{e.Date.Format(layout), e.Class}
		sums[k] = sums[k].Add(e.Value)
	}

	out := make([]core.PeriodAmount, 0, len(sums))
	for k, v := range sums {
		out = append(out, core.PeriodAmount{Period: k.period, Class: k.class, Amount: v})
	}
	slices.SortFunc(out, func(x, y core.PeriodAmount) int {
		if c := cmp.Compare(x.Period, y.Period); c != 0 {
			return c
		}
		return cmp.Compare(classOrder[x.Class], classOrder[y.Class])
	})
	return out
}

var classOrder = map[core.Class]int{core.Asset: 0, core.Liability: 1, core.CashFlow: 2}

// subcategoryTrend sums values per (date, class, subcategory), ordered by date
// then class then subcategory.
func subcategoryTrend(entries []core.Entry) []core.DatedCategoryAmount {
	type key struct {
		date  string
		class core.Class
		sub   string
	}
	idx := map[key]int{}
	out := []core.DatedCategoryAmount{}
	for _, e := range entries {
		k := key{e.Date.String(), e.Class, e.Subcategory}
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, core.DatedCategoryAmount{Date: e.Date, Class: e.Class, Subcategory: e.Subcategory})
		}
		out[i].Amount = out[i].Amount.Add(e.Value)
	}
	slices.SortFunc(out, func(x, y core.DatedCategoryAmount) int {
		if c := x.Date.Compare(y.Date.Time); c != 0 {
			return c
		}
		if c := cmp.Compare(classOrder[x.Class], classOrder[y.Class]); c != 0 {
			return c
		}
		return cmp.Compare(x.Subcategory, y.Subcategory)
	})
	return out
}

func isNotFound(err error) bool {
	return errors.Is(err, core.ErrNotFound)
}
