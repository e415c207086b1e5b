package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Recompute reconciles a line item's discount chain after a single field edit and
// re-derives FinalPrice. The edited field is the source of truth for that pass:
//
//   - base/extra percent or actual price edited: the percent sum drives the
//     discount amount and discounted price.
//   - discount amount edited: the percent sum is back-derived from the amount and
//     the base percent absorbs the difference, holding the extra percent fixed.
//     This can drive the base percent negative; that is preserved, not clamped.
//   - discounted price edited: the amount is re-derived first, then percents as
//     above.
//   - name or quantity edited: the discount chain is left alone.
//
// Derived currency and percent values are rounded to two decimal places. The
// function is pure and never fails; inputs are already normalized by the parse
// helpers.
func Recompute(item LineItem, edited Field) LineItem {
	switch edited {
	case FieldActualPrice, FieldBaseDiscountPercent, FieldExtraDiscountPercent:
		total := item.BaseDiscountPercent.Add(item.ExtraDiscountPercent)
		item.DiscountAmount = item.ActualPrice.Mul(total).Div(hundred).Round(2)
		item.DiscountedPrice = item.ActualPrice.Sub(item.DiscountAmount).Round(2)
	case FieldDiscountAmount:
		item = rederiveFromAmount(item)
	case FieldDiscountedPrice:
		item.DiscountAmount = item.ActualPrice.Sub(item.DiscountedPrice).Round(2)
		item = rederiveFromAmount(item)
	}
	item.FinalPrice = item.DiscountedPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
	return item
}

// rederiveFromAmount treats DiscountAmount as authoritative: the total percent is
// back-derived (zero when the actual price is zero, avoiding division by zero) and
// the base percent takes whatever the extra percent does not cover.
func rederiveFromAmount(item LineItem) LineItem {
	total := decimal.Zero
	if !item.ActualPrice.IsZero() {
		total = item.DiscountAmount.Div(item.ActualPrice).Mul(hundred)
	}
	item.BaseDiscountPercent = total.Sub(item.ExtraDiscountPercent).Round(2)
	item.DiscountedPrice = item.ActualPrice.Sub(item.DiscountAmount).Round(2)
	return item
}

// Apply parses raw operator input for the edited field, assigns it, and runs
// Recompute. Unknown fields recompute nothing beyond FinalPrice.
func Apply(item LineItem, edited Field, raw string) LineItem {
	switch edited {
	case FieldName:
		item.Name = raw
	case FieldActualPrice:
		item.ActualPrice = ParseAmount(raw)
	case FieldBaseDiscountPercent:
		item.BaseDiscountPercent = ParseAmount(raw)
	case FieldExtraDiscountPercent:
		item.ExtraDiscountPercent = ParseAmount(raw)
	case FieldDiscountAmount:
		item.DiscountAmount = ParseAmount(raw)
	case FieldDiscountedPrice:
		item.DiscountedPrice = ParseAmount(raw)
	case FieldQuantity:
		item.Quantity = ParseCount(raw)
	}
	return Recompute(item, edited)
}

// BillTotal sums FinalPrice across all rows. Rows with zero quantity contribute
// nothing; the sum is recomputed in full on every call.
func BillTotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.FinalPrice)
	}
	return total.Round(2)
}
