package stock

import "github.com/printmine/backend-printshop/internal/pricing"

// rowCategory fixes which stock category each canonical bill row draws from.
// Rows beyond the table (operator-appended rows) and categories outside it (the
// Label category) are never auto-updated; they are maintained by hand. Adding a
// new canonical row means extending this table.
var rowCategory = map[int]int{
	0: 0,
	1: 0,
	2: 0,
	3: 0,
	4: 1,
	5: 2,
	6: 3,
}

// CategoryForRow reports the stock category index a bill row is wired to.
func CategoryForRow(row int) (int, bool) {
	cat, ok := rowCategory[row]
	return cat, ok
}

// ApplyBill folds a saved bill into the stock ledger: every mapped row with a
// positive quantity increments its category's sold count by the row quantity and
// earned amount by the row's final price. The input slice is never mutated.
func ApplyBill(items []pricing.LineItem, categories []Category) []Category {
	updated := make([]Category, len(categories))
	copy(updated, categories)
	for row, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		cat, ok := CategoryForRow(row)
		if !ok || cat < 0 || cat >= len(updated) {
			continue
		}
		updated[cat].Sold += item.Quantity
		updated[cat].Earned = updated[cat].Earned.Add(item.FinalPrice)
	}
	return updated
}
