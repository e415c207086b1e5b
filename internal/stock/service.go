package stock

import (
	"context"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/printmine/backend-printshop/internal/common"
	"github.com/printmine/backend-printshop/internal/kv"
	"github.com/printmine/backend-printshop/internal/pricing"
)

// Service owns the per-tenant stock ledger persisted as a single kv bucket.
type Service struct {
	KV *kv.Store
}

// CategoryInput carries operator edits for a stock category.
type CategoryInput struct {
	Type     string          `json:"type" validate:"required"`
	Invested decimal.Decimal `json:"invested"`
	Earned   decimal.Decimal `json:"earned"`
	Bought   int             `json:"bought" validate:"gte=0"`
	Sold     int             `json:"sold" validate:"gte=0"`
}

// List returns the tenant's categories, seeding the defaults on first use.
func (s *Service) List(ctx context.Context, tenant string) ([]Category, error) {
	if s == nil || s.KV == nil {
		return nil, errors.New("stock service not configured")
	}
	var categories []Category
	found, err := s.KV.Load(ctx, tenant, kv.BucketStock, &categories)
	if err != nil {
		return nil, err
	}
	if !found || len(categories) == 0 {
		categories = DefaultCategories()
		if err := s.KV.Save(ctx, tenant, kv.BucketStock, categories); err != nil {
			return nil, err
		}
	}
	return categories, nil
}

// Add appends a user-defined category and returns the full list.
func (s *Service) Add(ctx context.Context, tenant string, in CategoryInput) ([]Category, error) {
	categories, err := s.List(ctx, tenant)
	if err != nil {
		return nil, err
	}
	categories = append(categories, Category{
		Type:     in.Type,
		Invested: in.Invested,
		Earned:   in.Earned,
		Bought:   in.Bought,
		Sold:     in.Sold,
	})
	if err := s.KV.Save(ctx, tenant, kv.BucketStock, categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// Update overwrites a category in place. Protected defaults stay editable; only
// deletion is guarded.
func (s *Service) Update(ctx context.Context, tenant string, index int, in CategoryInput) (Category, error) {
	categories, err := s.List(ctx, tenant)
	if err != nil {
		return Category{}, err
	}
	if index < 0 || index >= len(categories) {
		return Category{}, common.NewAppError("NOT_FOUND", "stock category not found", http.StatusNotFound, nil)
	}
	categories[index] = Category{
		Type:     in.Type,
		Invested: in.Invested,
		Earned:   in.Earned,
		Bought:   in.Bought,
		Sold:     in.Sold,
	}
	if err := s.KV.Save(ctx, tenant, kv.BucketStock, categories); err != nil {
		return Category{}, err
	}
	return categories[index], nil
}

// Delete removes a user-added category. The default prefix is refused, not
// silently dropped.
func (s *Service) Delete(ctx context.Context, tenant string, index int) error {
	categories, err := s.List(ctx, tenant)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(categories) {
		return common.NewAppError("NOT_FOUND", "stock category not found", http.StatusNotFound, nil)
	}
	if index < ProtectedCategories {
		return common.NewAppError("PROTECTED_CATEGORY", "default stock categories cannot be deleted", http.StatusUnprocessableEntity, nil)
	}
	categories = append(categories[:index], categories[index+1:]...)
	return s.KV.Save(ctx, tenant, kv.BucketStock, categories)
}

// ApplySale folds a saved bill into the ledger and persists the result.
func (s *Service) ApplySale(ctx context.Context, tenant string, items []pricing.LineItem) ([]Category, error) {
	categories, err := s.List(ctx, tenant)
	if err != nil {
		return nil, err
	}
	updated := ApplyBill(items, categories)
	if err := s.KV.Save(ctx, tenant, kv.BucketStock, updated); err != nil {
		return nil, err
	}
	return updated, nil
}
