package core

import "github.com/shopspring/decimal"

// Totals are the sums of current entry values per class.
type Totals struct {
	Assets      Money `json:"assets"`
	Liabilities Money `json:"liabilities"`
	CashFlow    Money `json:"cash_flow"`
	NetWorth    Money `json:"net_worth"`
}

// CategoryAmount represents an amount aggregated by subcategory name.
type CategoryAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"amount"`
	Count  int    `json:"count"`
}

// PeriodAmount is the value sum of the entries of one class dated in a period.
type PeriodAmount struct {
	Period string `json:"period"` // "2024-01" or "2024"
	Class  Class  `json:"class"`
	Amount Money  `json:"amount"`
}

// DatedCategoryAmount is the value sum of the entries of one subcategory
// dated on one day.
type DatedCategoryAmount struct {
	Date        Date   `json:"date"`
	Class       Class  `json:"class"`
	Subcategory string `json:"subcategory"`
	Amount      Money  `json:"amount"`
}

// Analytics collects the aggregate views of the analytics page.
type Analytics struct {
	Counts           map[Class]int              `json:"counts"`
	AverageAsset     Money                      `json:"average_asset"`
	AverageLiability Money                      `json:"average_liability"`
	DebtToAssetRatio decimal.Decimal            `json:"debt_to_asset_ratio"`
	Distribution     map[Class][]CategoryAmount `json:"distribution"`
	TopSubcategories map[Class][]CategoryAmount `json:"top_subcategories"`
	Monthly          []PeriodAmount             `json:"monthly"`
	Yearly           []PeriodAmount             `json:"yearly"`
	SubcategoryTrend []DatedCategoryAmount      `json:"subcategory_trend"`
	Recent           []Entry                    `json:"recent"`
}
