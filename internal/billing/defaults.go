package billing

import "github.com/printmine/backend-printshop/internal/pricing"

// defaultRows are the canonical products of the billing page, seeded on first
// load. Their order is load-bearing: the stock ledger maps rows to categories by
// index (rows 0-3 consume A4 paper, row 4 photo paper, row 5 filament, row 6
// binding coils; row 7 has no auto-updated stock).
var defaultRows = []struct {
	Name  string
	Price string
}{
	{"B/W Print", "2"},
	{"Color Print", "10"},
	{"Xerox Copy", "1.5"},
	{"Lamination", "15"},
	{"Photo Print", "30"},
	{"3D Print (per gram)", "8"},
	{"Spiral Binding", "40"},
	{"Sticker Label", "25"},
}

// ProtectedRows is the length of the default prefix that cannot be deleted.
var ProtectedRows = len(defaultRows)

// DefaultRows builds the seeded bill with consistent discount chains.
func DefaultRows() []pricing.LineItem {
	rows := make([]pricing.LineItem, 0, len(defaultRows))
	for _, d := range defaultRows {
		item := pricing.LineItem{Name: d.Name, ActualPrice: pricing.ParseAmount(d.Price)}
		rows = append(rows, pricing.Recompute(item, pricing.FieldActualPrice))
	}
	return rows
}
