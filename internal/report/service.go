package report

import (
	"context"
	"errors"
	"net/http"

	"github.com/printmine/backend-printshop/internal/common"
	"github.com/printmine/backend-printshop/internal/expense"
	"github.com/printmine/backend-printshop/internal/kv"
)

// Service builds daily summaries from the expense journal plus the tenant's
// manual adjustment bucket.
type Service struct {
	Expenses *expense.Service
	KV       *kv.Store
}

// Daily returns the daily summary, rebuilt in full from current state.
func (s *Service) Daily(ctx context.Context, tenant string) ([]SummaryRow, error) {
	if s == nil || s.Expenses == nil || s.KV == nil {
		return nil, errors.New("report service not configured")
	}
	sales, err := s.Expenses.Sales(ctx, tenant)
	if err != nil {
		return nil, err
	}
	manual, err := s.ListManual(ctx, tenant)
	if err != nil {
		return nil, err
	}
	return Summarize(sales, manual), nil
}

// ListManual returns the manual adjustment list in insertion order.
func (s *Service) ListManual(ctx context.Context, tenant string) ([]ManualEntry, error) {
	if s == nil || s.KV == nil {
		return nil, errors.New("report service not configured")
	}
	var manual []ManualEntry
	if _, err := s.KV.Load(ctx, tenant, kv.BucketManualDaily, &manual); err != nil {
		return nil, err
	}
	return manual, nil
}

// AddManual appends a manual adjustment and returns the refreshed summary.
func (s *Service) AddManual(ctx context.Context, tenant string, entry ManualEntry) ([]SummaryRow, error) {
	manual, err := s.ListManual(ctx, tenant)
	if err != nil {
		return nil, err
	}
	manual = append(manual, entry)
	if err := s.KV.Save(ctx, tenant, kv.BucketManualDaily, manual); err != nil {
		return nil, err
	}
	return s.Daily(ctx, tenant)
}

// DeleteManual removes the manual entry at the recorded index and returns the
// re-run summary. Bucket membership can shift, so there is no incremental patch.
func (s *Service) DeleteManual(ctx context.Context, tenant string, index int) ([]SummaryRow, error) {
	manual, err := s.ListManual(ctx, tenant)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(manual) {
		return nil, common.NewAppError("NOT_FOUND", "manual entry not found", http.StatusNotFound, nil)
	}
	manual = append(manual[:index], manual[index+1:]...)
	if err := s.KV.Save(ctx, tenant, kv.BucketManualDaily, manual); err != nil {
		return nil, err
	}
	return s.Daily(ctx, tenant)
}
