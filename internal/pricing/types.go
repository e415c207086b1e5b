package pricing

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// LineItem is one row of a bill: a product label, its price/discount chain, and a
// quantity. The discount chain is kept mutually consistent by Recompute; FinalPrice
// is always derived, never edited directly.
type LineItem struct {
	Name                 string          `json:"name"`
	ActualPrice          decimal.Decimal `json:"actualPrice"`
	BaseDiscountPercent  decimal.Decimal `json:"baseDiscountPercent"`
	ExtraDiscountPercent decimal.Decimal `json:"extraDiscountPercent"`
	DiscountAmount       decimal.Decimal `json:"discountAmount"`
	DiscountedPrice      decimal.Decimal `json:"discountedPrice"`
	Quantity             int             `json:"quantity"`
	FinalPrice           decimal.Decimal `json:"finalPrice"`
}

// Field identifies which line item field the operator just edited. It drives which
// side of the discount chain is treated as the source of truth during Recompute.
type Field int

const (
	FieldNone Field = iota
	FieldName
	FieldActualPrice
	FieldBaseDiscountPercent
	FieldExtraDiscountPercent
	FieldDiscountAmount
	FieldDiscountedPrice
	FieldQuantity
)

var fieldNames = map[string]Field{
	"name":                 FieldName,
	"actualPrice":          FieldActualPrice,
	"baseDiscountPercent":  FieldBaseDiscountPercent,
	"extraDiscountPercent": FieldExtraDiscountPercent,
	"discountAmount":       FieldDiscountAmount,
	"discountedPrice":      FieldDiscountedPrice,
	"quantity":             FieldQuantity,
}

// ParseField maps a wire-level field name onto a Field. It reports false for
// unknown names.
func ParseField(name string) (Field, bool) {
	f, ok := fieldNames[strings.TrimSpace(name)]
	return f, ok
}

// String returns the wire-level name of the field.
func (f Field) String() string {
	for name, field := range fieldNames {
		if field == f {
			return name
		}
	}
	return "none"
}

// ParseAmount converts raw operator input into a decimal amount. Anything that does
// not parse as a number becomes zero; this is a presentation-tool convention, not
// error masking.
func ParseAmount(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseCount converts raw operator input into a non-negative quantity, defaulting
// to zero for unparsable or negative input.
func ParseCount(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
