package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func row(actual, base, extra string, qty int) LineItem {
	item := LineItem{
		ActualPrice:          dec(actual),
		BaseDiscountPercent:  dec(base),
		ExtraDiscountPercent: dec(extra),
		Quantity:             qty,
	}
	return Recompute(item, FieldBaseDiscountPercent)
}

func mustEqual(t *testing.T, label string, got, want decimal.Decimal) {
	t.Helper()
	if !got.Equal(want) {
		t.Fatalf("%s: got %s, want %s", label, got, want)
	}
}

func TestEditBasePercent(t *testing.T) {
	item := row("10", "30", "0", 2)
	mustEqual(t, "discountAmount", item.DiscountAmount, dec("3.00"))
	mustEqual(t, "discountedPrice", item.DiscountedPrice, dec("7.00"))
	mustEqual(t, "finalPrice", item.FinalPrice, dec("14.00"))
}

func TestEditExtraPercent(t *testing.T) {
	item := row("10", "30", "0", 2)
	item.ExtraDiscountPercent = dec("10")
	item = Recompute(item, FieldExtraDiscountPercent)
	mustEqual(t, "discountAmount", item.DiscountAmount, dec("4.00"))
	mustEqual(t, "discountedPrice", item.DiscountedPrice, dec("6.00"))
	mustEqual(t, "finalPrice", item.FinalPrice, dec("12.00"))
	// base percent is not the edited field, so it stays put
	mustEqual(t, "baseDiscountPercent", item.BaseDiscountPercent, dec("30"))
}

func TestEditDiscountedPriceBackDerivesPercents(t *testing.T) {
	item := row("10", "0", "0", 1)
	item.DiscountedPrice = dec("8.00")
	item = Recompute(item, FieldDiscountedPrice)
	mustEqual(t, "discountAmount", item.DiscountAmount, dec("2.00"))
	mustEqual(t, "baseDiscountPercent", item.BaseDiscountPercent, dec("20.00"))
	mustEqual(t, "discountedPrice", item.DiscountedPrice, dec("8.00"))
}

func TestEditDiscountAmountHoldsExtraPercent(t *testing.T) {
	item := row("200", "0", "5", 1)
	item.DiscountAmount = dec("30")
	item = Recompute(item, FieldDiscountAmount)
	// 30/200*100 = 15 total, extra 5 held fixed
	mustEqual(t, "baseDiscountPercent", item.BaseDiscountPercent, dec("10.00"))
	mustEqual(t, "extraDiscountPercent", item.ExtraDiscountPercent, dec("5"))
	mustEqual(t, "discountedPrice", item.DiscountedPrice, dec("170.00"))
}

func TestZeroActualPriceAmountEdit(t *testing.T) {
	item := LineItem{ActualPrice: decimal.Zero, ExtraDiscountPercent: dec("7"), Quantity: 1}
	item.DiscountAmount = dec("5")
	item = Recompute(item, FieldDiscountAmount)
	// percent back-derivation substitutes 0 instead of dividing by zero
	mustEqual(t, "baseDiscountPercent", item.BaseDiscountPercent, dec("-7"))
	mustEqual(t, "discountedPrice", item.DiscountedPrice, dec("-5.00"))
}

func TestNegativeBasePercentPreserved(t *testing.T) {
	// a direct amount edit larger than base+extra can express positively is an
	// accepted manual override, not clamped
	item := row("10", "0", "50", 1)
	item.DiscountAmount = dec("2")
	item = Recompute(item, FieldDiscountAmount)
	mustEqual(t, "baseDiscountPercent", item.BaseDiscountPercent, dec("-30.00"))
}

func TestPercentAboveHundredPreserved(t *testing.T) {
	item := row("10", "150", "0", 1)
	mustEqual(t, "discountedPrice", item.DiscountedPrice, dec("-5.00"))
	mustEqual(t, "finalPrice", item.FinalPrice, dec("-5.00"))
}

func TestActualPriceEditKeepsPercents(t *testing.T) {
	item := row("10", "30", "10", 3)
	item.ActualPrice = dec("20")
	item = Recompute(item, FieldActualPrice)
	mustEqual(t, "baseDiscountPercent", item.BaseDiscountPercent, dec("30"))
	mustEqual(t, "extraDiscountPercent", item.ExtraDiscountPercent, dec("10"))
	mustEqual(t, "discountAmount", item.DiscountAmount, dec("8.00"))
	mustEqual(t, "discountedPrice", item.DiscountedPrice, dec("12.00"))
	mustEqual(t, "finalPrice", item.FinalPrice, dec("36.00"))
}

func TestQuantityEditOnlyMovesFinalPrice(t *testing.T) {
	item := row("10", "30", "0", 2)
	before := item
	item.Quantity = 5
	item = Recompute(item, FieldQuantity)
	mustEqual(t, "discountAmount", item.DiscountAmount, before.DiscountAmount)
	mustEqual(t, "discountedPrice", item.DiscountedPrice, before.DiscountedPrice)
	mustEqual(t, "finalPrice", item.FinalPrice, dec("35.00"))
}

func TestRecomputeIdempotent(t *testing.T) {
	fields := []Field{
		FieldActualPrice,
		FieldBaseDiscountPercent,
		FieldExtraDiscountPercent,
		FieldDiscountAmount,
		FieldDiscountedPrice,
		FieldQuantity,
	}
	item := row("33.33", "12.5", "2.5", 4)
	for _, f := range fields {
		once := Recompute(item, f)
		twice := Recompute(once, f)
		if !once.DiscountAmount.Equal(twice.DiscountAmount) ||
			!once.DiscountedPrice.Equal(twice.DiscountedPrice) ||
			!once.BaseDiscountPercent.Equal(twice.BaseDiscountPercent) ||
			!once.FinalPrice.Equal(twice.FinalPrice) {
			t.Fatalf("recompute not idempotent for field %s: %+v vs %+v", f, once, twice)
		}
	}
}

func TestChainInvariantHolds(t *testing.T) {
	cases := []LineItem{
		row("10", "30", "0", 2),
		row("99.99", "12.34", "5.66", 7),
		row("0", "50", "50", 1),
		row("250", "0", "110", 3),
	}
	eps := dec("0.01")
	for _, item := range cases {
		diff := item.DiscountedPrice.Sub(item.ActualPrice.Sub(item.DiscountAmount)).Abs()
		if diff.GreaterThan(eps) {
			t.Fatalf("discountedPrice drifted from actual-amount by %s: %+v", diff, item)
		}
		want := item.DiscountedPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
		mustEqual(t, "finalPrice", item.FinalPrice, want)
	}
}

func TestApplyNormalizesGarbageInput(t *testing.T) {
	item := row("10", "30", "0", 2)
	item = Apply(item, FieldActualPrice, "not-a-number")
	mustEqual(t, "actualPrice", item.ActualPrice, decimal.Zero)
	mustEqual(t, "discountAmount", item.DiscountAmount, decimal.Zero)
	mustEqual(t, "finalPrice", item.FinalPrice, decimal.Zero)

	item = Apply(item, FieldQuantity, "-3")
	if item.Quantity != 0 {
		t.Fatalf("negative quantity should normalize to 0, got %d", item.Quantity)
	}
}

func TestBillTotal(t *testing.T) {
	if !BillTotal(nil).IsZero() {
		t.Fatal("empty bill should total zero")
	}
	items := []LineItem{
		row("10", "30", "0", 2),  // 14.00
		row("30", "0", "0", 1),   // 30.00
		row("5", "0", "0", 0),    // zero quantity contributes nothing
	}
	mustEqual(t, "total", BillTotal(items), dec("44.00"))

	reordered := []LineItem{items[2], items[0], items[1]}
	mustEqual(t, "reordered total", BillTotal(reordered), BillTotal(items))
}

func TestParseField(t *testing.T) {
	if f, ok := ParseField("discountedPrice"); !ok || f != FieldDiscountedPrice {
		t.Fatalf("parse discountedPrice: got %v %v", f, ok)
	}
	if _, ok := ParseField("subtotal"); ok {
		t.Fatal("unknown field should not parse")
	}
}
