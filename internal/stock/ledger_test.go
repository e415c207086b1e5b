package stock

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/printmine/backend-printshop/internal/pricing"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestApplyBillIncrementsMappedCategories(t *testing.T) {
	items := make([]pricing.LineItem, 7)
	items[0] = pricing.LineItem{Quantity: 2, FinalPrice: dec("14.00")}
	items[4] = pricing.LineItem{Quantity: 1, FinalPrice: dec("30.00")}

	updated := ApplyBill(items, DefaultCategories())

	if updated[0].Sold != 2 || !updated[0].Earned.Equal(dec("14.00")) {
		t.Fatalf("category 0: sold=%d earned=%s", updated[0].Sold, updated[0].Earned)
	}
	if updated[1].Sold != 1 || !updated[1].Earned.Equal(dec("30.00")) {
		t.Fatalf("category 1: sold=%d earned=%s", updated[1].Sold, updated[1].Earned)
	}
	for i := 2; i < len(updated); i++ {
		if updated[i].Sold != 0 || !updated[i].Earned.IsZero() {
			t.Fatalf("category %d should be untouched: %+v", i, updated[i])
		}
	}
}

func TestApplyBillSkipsUnmappedRows(t *testing.T) {
	items := make([]pricing.LineItem, 9)
	// row 7 (Label) and row 8 (operator-added) are outside the static table
	items[7] = pricing.LineItem{Quantity: 5, FinalPrice: dec("25.00")}
	items[8] = pricing.LineItem{Quantity: 3, FinalPrice: dec("9.00")}

	before := DefaultCategories()
	updated := ApplyBill(items, before)

	for i := range updated {
		if updated[i].Sold != before[i].Sold || !updated[i].Earned.Equal(before[i].Earned) {
			t.Fatalf("category %d modified by unmapped rows: %+v", i, updated[i])
		}
	}
}

func TestApplyBillSkipsZeroQuantity(t *testing.T) {
	items := []pricing.LineItem{{Quantity: 0, FinalPrice: dec("99.00")}}
	updated := ApplyBill(items, DefaultCategories())
	if updated[0].Sold != 0 || !updated[0].Earned.IsZero() {
		t.Fatalf("zero-quantity row must not move the ledger: %+v", updated[0])
	}
}

func TestApplyBillDoesNotMutateInput(t *testing.T) {
	categories := DefaultCategories()
	items := []pricing.LineItem{{Quantity: 2, FinalPrice: dec("10.00")}}
	_ = ApplyBill(items, categories)
	if categories[0].Sold != 0 {
		t.Fatal("input slice was mutated")
	}
}

func TestCategoryForRow(t *testing.T) {
	for row, want := range map[int]int{0: 0, 3: 0, 4: 1, 5: 2, 6: 3} {
		got, ok := CategoryForRow(row)
		if !ok || got != want {
			t.Fatalf("row %d: got %d %v, want %d", row, got, ok, want)
		}
	}
	if _, ok := CategoryForRow(7); ok {
		t.Fatal("row 7 should not be mapped")
	}
}
