package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/printmine/backend-printshop/internal/expense"
)

const dateLayout = "2006-01-02"

// ManualEntry is a hand-entered daily adjustment kept separately from the
// expense journal and folded into the summary at read time.
type ManualEntry struct {
	Date       time.Time       `json:"date"`
	PaperCount int             `json:"paperCount"`
	Amount     decimal.Decimal `json:"amount"`
}

// SummaryRow is one calendar date's aggregate. ManualIndex is -1 unless a manual
// entry fed the row, in which case it holds the index of the last one folded in
// so the operator can delete it.
type SummaryRow struct {
	DateKey     string          `json:"dateKey"`
	PaperCount  int             `json:"paperCount"`
	Amount      decimal.Decimal `json:"amount"`
	IsManual    bool            `json:"isManual"`
	ManualIndex int             `json:"manualIndex"`
}

// DateKey reduces a timestamp to its local calendar date. Two sales at different
// times of the same day share a key.
func DateKey(t time.Time) string {
	return t.Local().Format(dateLayout)
}

// Summarize groups Sale journal entries by calendar date, summing quantity into
// the paper count and amount into the day's takings, then folds manual entries
// into the same buckets. The result is sorted most recent date first, one row per
// date. The aggregation is rebuilt from scratch on every call; nothing is
// maintained incrementally.
func Summarize(sales []expense.Entry, manual []ManualEntry) []SummaryRow {
	buckets := make(map[string]*SummaryRow)
	get := func(key string) *SummaryRow {
		row, ok := buckets[key]
		if !ok {
			row = &SummaryRow{DateKey: key, Amount: decimal.Zero, ManualIndex: -1}
			buckets[key] = row
		}
		return row
	}

	for _, sale := range sales {
		row := get(DateKey(sale.Date))
		row.PaperCount += sale.Quantity
		row.Amount = row.Amount.Add(sale.Amount)
	}
	for i, m := range manual {
		row := get(DateKey(m.Date))
		row.PaperCount += m.PaperCount
		row.Amount = row.Amount.Add(m.Amount)
		row.IsManual = true
		row.ManualIndex = i
	}

	rows := make([]SummaryRow, 0, len(buckets))
	for _, row := range buckets {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].DateKey > rows[j].DateKey
	})
	return rows
}
