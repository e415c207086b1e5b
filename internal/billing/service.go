package billing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/printmine/backend-printshop/internal/common"
	"github.com/printmine/backend-printshop/internal/expense"
	"github.com/printmine/backend-printshop/internal/kv"
	"github.com/printmine/backend-printshop/internal/obs"
	"github.com/printmine/backend-printshop/internal/pricing"
	"github.com/printmine/backend-printshop/internal/queue"
	"github.com/printmine/backend-printshop/internal/stock"
)

// Service owns the per-tenant bill row list. Every edit loads the full list,
// mutates one row through the pricing engine, recomputes the total, and persists
// the whole bucket; there is exactly one logical writer at a time.
type Service struct {
	KV       *kv.Store
	Stock    *stock.Service
	Expenses *expense.Service
	Tasks    *queue.Enqueuer
	Now      func() time.Time
}

// SaveResult reports what a bill save produced.
type SaveResult struct {
	EntryID    string           `json:"entryId"`
	Total      decimal.Decimal  `json:"total"`
	PaperCount int              `json:"paperCount"`
	Stock      []stock.Category `json:"stock"`
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Rows returns the tenant's bill rows, seeding the canonical defaults on first
// use.
func (s *Service) Rows(ctx context.Context, tenant string) ([]pricing.LineItem, error) {
	if s == nil || s.KV == nil {
		return nil, errors.New("billing service not configured")
	}
	var rows []pricing.LineItem
	found, err := s.KV.Load(ctx, tenant, kv.BucketBillItems, &rows)
	if err != nil {
		return nil, err
	}
	if !found || len(rows) == 0 {
		rows = DefaultRows()
		if err := s.KV.Save(ctx, tenant, kv.BucketBillItems, rows); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// EditField applies a single-field edit to one row and returns the updated row
// together with the recomputed bill total.
func (s *Service) EditField(ctx context.Context, tenant string, index int, field, raw string) (pricing.LineItem, decimal.Decimal, error) {
	f, ok := pricing.ParseField(field)
	if !ok {
		return pricing.LineItem{}, decimal.Zero, common.NewAppError("VALIDATION_ERROR", "unknown field: "+field, http.StatusBadRequest, nil)
	}
	rows, err := s.Rows(ctx, tenant)
	if err != nil {
		return pricing.LineItem{}, decimal.Zero, err
	}
	if index < 0 || index >= len(rows) {
		return pricing.LineItem{}, decimal.Zero, common.NewAppError("NOT_FOUND", "bill row not found", http.StatusNotFound, nil)
	}
	rows[index] = pricing.Apply(rows[index], f, raw)
	if err := s.KV.Save(ctx, tenant, kv.BucketBillItems, rows); err != nil {
		return pricing.LineItem{}, decimal.Zero, err
	}
	if obs.RowsRepricedTotal != nil {
		obs.RowsRepricedTotal.WithLabelValues(f.String()).Inc()
	}
	return rows[index], pricing.BillTotal(rows), nil
}

// AddRow appends a blank row beyond the protected prefix.
func (s *Service) AddRow(ctx context.Context, tenant string) ([]pricing.LineItem, error) {
	rows, err := s.Rows(ctx, tenant)
	if err != nil {
		return nil, err
	}
	rows = append(rows, pricing.Recompute(pricing.LineItem{}, pricing.FieldNone))
	if err := s.KV.Save(ctx, tenant, kv.BucketBillItems, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteRow removes an operator-added row. Canonical rows are refused.
func (s *Service) DeleteRow(ctx context.Context, tenant string, index int) error {
	rows, err := s.Rows(ctx, tenant)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(rows) {
		return common.NewAppError("NOT_FOUND", "bill row not found", http.StatusNotFound, nil)
	}
	if index < ProtectedRows {
		return common.NewAppError("PROTECTED_ROW", "default bill rows cannot be deleted", http.StatusUnprocessableEntity, nil)
	}
	rows = append(rows[:index], rows[index+1:]...)
	return s.KV.Save(ctx, tenant, kv.BucketBillItems, rows)
}

// Total recomputes the bill total from scratch.
func (s *Service) Total(ctx context.Context, tenant string) (decimal.Decimal, error) {
	rows, err := s.Rows(ctx, tenant)
	if err != nil {
		return decimal.Zero, err
	}
	return pricing.BillTotal(rows), nil
}

// Save turns the current bill into a Sale journal entry and folds it into the
// stock ledger. An empty bill (no row with a positive quantity) is refused with
// no partial writes.
func (s *Service) Save(ctx context.Context, tenant string) (SaveResult, error) {
	if s == nil || s.Stock == nil || s.Expenses == nil {
		return SaveResult{}, errors.New("billing service not configured")
	}
	rows, err := s.Rows(ctx, tenant)
	if err != nil {
		return SaveResult{}, err
	}
	paperCount := 0
	for _, row := range rows {
		paperCount += row.Quantity
	}
	if paperCount == 0 {
		return SaveResult{}, common.NewAppError("EMPTY_BILL", "cannot save a bill with no quantities", http.StatusUnprocessableEntity, nil)
	}
	total := pricing.BillTotal(rows)

	date := s.now()
	entry, err := s.Expenses.Append(ctx, tenant, expense.EntryInput{
		Date:        &date,
		Description: "Bill sale",
		Category:    expense.CategorySale,
		Amount:      total,
		Type:        expense.TypeEarned,
		Quantity:    paperCount,
	})
	if err != nil {
		return SaveResult{}, err
	}
	updatedStock, err := s.Stock.ApplySale(ctx, tenant, rows)
	if err != nil {
		return SaveResult{}, err
	}
	if s.Tasks != nil {
		payload, _ := json.Marshal(map[string]string{
			"tenant":  tenant,
			"entryId": entry.ID,
			"total":   total.StringFixed(2),
		})
		_ = s.Tasks.Enqueue(ctx, queue.Task{
			Kind:           queue.KindBillSaved,
			IdempotencyKey: entry.ID,
			Payload:        payload,
		})
	}
	if obs.BillsSavedTotal != nil {
		obs.BillsSavedTotal.Inc()
	}
	return SaveResult{EntryID: entry.ID, Total: total, PaperCount: paperCount, Stock: updatedStock}, nil
}
