package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"networth/internal/core"
	"networth/internal/storage/memory"
)

func TestReportService_BuildSeriesScenario(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	entries := NewEntryService(store, nil)
	reports := NewReportService(store)

	s, err := reports.BuildSeries(ctx)
	require.NoError(t, err)
	assert.Empty(t, s)

	cash, err := entries.Create(ctx, newEntry(core.Asset, "Cash", 100000, 2024, 1, 1))
	require.NoError(t, err)
	_, err = entries.Create(ctx, newEntry(core.Liability, "Student Loans", 20000, 2024, 1, 2))
	require.NoError(t, err)

	s, err = reports.BuildSeries(ctx)
	require.NoError(t, err)
	require.Len(t, s, 2)
	assert.Equal(t, int64(100000), s[0].NetWorth.Cents)
	assert.Equal(t, int64(80000), s[1].NetWorth.Cents)

	rec, err := entries.Update(ctx, cash.ID, core.Money{Cents: 150000}, "", core.NewDate(2024, 1, 3))
	require.NoError(t, err)
	assert.Equal(t, int64(50000), rec.Difference.Cents)

	first, err := reports.BuildSeries(ctx)
	require.NoError(t, err)
	second, err := reports.BuildSeries(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	require.Len(t, first, 3)
	assert.Equal(t, int64(130000), first[2].NetWorth.Cents)

	// Deleting an entry drops its contribution from every point.
	require.NoError(t, entries.Delete(ctx, cash.ID))
	s, err = reports.BuildSeries(ctx)
	require.NoError(t, err)
	require.Len(t, s, 1)
	assert.Equal(t, int64(-20000), s[0].NetWorth.Cents)
}

func TestTotalsOf(t *testing.T) {
	totals := TotalsOf([]core.Entry{
		newEntry(core.Asset, "Cash", 1000, 2024, 1, 1),
		newEntry(core.Asset, "Stocks", 500, 2024, 1, 1),
		newEntry(core.Liability, "Mortgage", 700, 2024, 1, 1),
		newEntry(core.CashFlow, "Salary", 300, 2024, 1, 1),
	})
	assert.Equal(t, int64(1500), totals.Assets.Cents)
	assert.Equal(t, int64(700), totals.Liabilities.Cents)
	assert.Equal(t, int64(300), totals.CashFlow.Cents)
	assert.Equal(t, int64(800), totals.NetWorth.Cents)
}

func TestAnalyticsOf(t *testing.T) {
	var entries []core.Entry
	id := int64(0)
	add := func(class core.Class, sub string, value int64, y, m, d int) {
		id++
		e := newEntry(class, sub, value, y, m, d)
		e.ID = id
		entries = append(entries, e)
	}
	add(core.Asset, "Cash", 1000, 2024, 1, 5)
	add(core.Asset, "Cash", 1001, 2024, 2, 5)
	add(core.Asset, "Stocks", 5000, 2023, 12, 1)
	add(core.Liability, "Mortgage", 3000, 2024, 1, 5)
	add(core.Asset, "Cash", 500, 2024, 1, 5)

	a := AnalyticsOf(entries)

	assert.Equal(t, 4, a.Counts[core.Asset])
	assert.Equal(t, 1, a.Counts[core.Liability])
	assert.Equal(t, 0, a.Counts[core.CashFlow])

	// 7501 / 4 = 1875.25 rounded half-up
	assert.Equal(t, int64(1875), a.AverageAsset.Cents)
	assert.Equal(t, int64(3000), a.AverageLiability.Cents)
	assert.Equal(t, "0.3999", a.DebtToAssetRatio.String())

	require.Len(t, a.TopSubcategories[core.Asset], 2)
	assert.Equal(t, core.CategoryAmount{Name: "Stocks", Amount: core.Money{Cents: 5000}, Count: 1}, a.TopSubcategories[core.Asset][0])
	assert.Equal(t, core.CategoryAmount{Name: "Cash", Amount: core.Money{Cents: 2501}, Count: 3}, a.TopSubcategories[core.Asset][1])
	assert.Empty(t, a.TopSubcategories[core.CashFlow])

	require.Len(t, a.Yearly, 3)
	assert.Equal(t, core.PeriodAmount{Period: "2023", Class: core.Asset, Amount: core.Money{Cents: 5000}}, a.Yearly[0])
	assert.Equal(t, core.PeriodAmount{Period: "2024", Class: core.Asset, Amount: core.Money{Cents: 2501}}, a.Yearly[1])
	assert.Equal(t, core.PeriodAmount{Period: "2024", Class: core.Liability, Amount: core.Money{Cents: 3000}}, a.Yearly[2])

	require.Len(t, a.Monthly, 4)
	assert.Equal(t, "2023-12", a.Monthly[0].Period)
	assert.Equal(t, "2024-02", a.Monthly[3].Period)

	require.Len(t, a.Recent, 5)
	assert.Equal(t, int64(2), a.Recent[0].ID)
	assert.Equal(t, int64(5), a.Recent[1].ID, "same date: newest id first")
	assert.Equal(t, int64(4), a.Recent[2].ID)
	assert.Equal(t, int64(3), a.Recent[4].ID)

	// Same-day entries of one subcategory are summed; days stay apart.
	assert.Equal(t, []core.DatedCategoryAmount{
		{Date: core.NewDate(2023, 12, 1), Class: core.Asset, Subcategory: "Stocks", Amount: core.Money{Cents: 5000}},
		{Date: core.NewDate(2024, 1, 5), Class: core.Asset, Subcategory: "Cash", Amount: core.Money{Cents: 1500}},
		{Date: core.NewDate(2024, 1, 5), Class: core.Liability, Subcategory: "Mortgage", Amount: core.Money{Cents: 3000}},
		{Date: core.NewDate(2024, 2, 5), Class: core.Asset, Subcategory: "Cash", Amount: core.Money{Cents: 1001}},
	}, a.SubcategoryTrend)
}

func TestAnalyticsOfEmpty(t *testing.T) {
	a := AnalyticsOf(nil)
	assert.True(t, a.DebtToAssetRatio.IsZero())
	assert.Equal(t, int64(0), a.AverageAsset.Cents)
	assert.NotNil(t, a.Recent)
	assert.NotNil(t, a.Monthly)
	assert.NotNil(t, a.SubcategoryTrend)
}
