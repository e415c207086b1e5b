package expense

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category buckets an entry by what kind of money movement it records.
type Category string

const (
	CategorySale       Category = "Sale"
	CategoryInvestment Category = "Investment"
	CategoryExpense    Category = "Expense"
)

// EntryType records the settlement state of the amount.
type EntryType string

const (
	TypeEarned EntryType = "Earned"
	TypePaid   EntryType = "Paid"
	TypeDue    EntryType = "Due"
)

// Entry is one immutable journal record. Entries are never mutated in place; an
// edit deletes the old entry and appends a replacement.
type Entry struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Category    Category        `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Type        EntryType       `json:"type"`
	Quantity    int             `json:"quantity,omitempty"`
}

// EntryInput carries a new journal record from the operator or the bill-save flow.
type EntryInput struct {
	Date        *time.Time      `json:"date"`
	Description string          `json:"description"`
	Category    Category        `json:"category" validate:"required,oneof=Sale Investment Expense"`
	Amount      decimal.Decimal `json:"amount"`
	Type        EntryType       `json:"type" validate:"required,oneof=Earned Paid Due"`
	Quantity    int             `json:"quantity" validate:"gte=0"`
}
