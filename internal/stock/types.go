package stock

import "github.com/shopspring/decimal"

// Category tracks one physical material type: counts bought and sold plus the
// money invested and earned against it.
type Category struct {
	Type     string          `json:"type"`
	Invested decimal.Decimal `json:"invested"`
	Earned   decimal.Decimal `json:"earned"`
	Bought   int             `json:"bought"`
	Sold     int             `json:"sold"`
}

// Remaining is the derived on-hand count.
func (c Category) Remaining() int {
	return c.Bought - c.Sold
}

// ProtectedCategories is the length of the default prefix that cannot be deleted.
const ProtectedCategories = 5

// DefaultCategories seeds a tenant's stock ledger on first load. The order
// matters: the bill row mapping in ledger.go addresses these by index.
func DefaultCategories() []Category {
	return []Category{
		{Type: "A4 Paper"},
		{Type: "Photo Paper"},
		{Type: "PLA Filament"},
		{Type: "Binding Coils"},
		{Type: "Label"},
	}
}
