package expense

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/printmine/backend-printshop/internal/common"
	"github.com/printmine/backend-printshop/internal/kv"
)

// Service owns the append-only expense journal for each tenant.
type Service struct {
	KV  *kv.Store
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// List returns the full journal, oldest first.
func (s *Service) List(ctx context.Context, tenant string) ([]Entry, error) {
	if s == nil || s.KV == nil {
		return nil, errors.New("expense service not configured")
	}
	var entries []Entry
	if _, err := s.KV.Load(ctx, tenant, kv.BucketExpenses, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Sales returns only Sale entries, the input to the daily summary.
func (s *Service) Sales(ctx context.Context, tenant string) ([]Entry, error) {
	entries, err := s.List(ctx, tenant)
	if err != nil {
		return nil, err
	}
	sales := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Category == CategorySale {
			sales = append(sales, e)
		}
	}
	return sales, nil
}

// Append records a new entry and returns it.
func (s *Service) Append(ctx context.Context, tenant string, in EntryInput) (Entry, error) {
	entries, err := s.List(ctx, tenant)
	if err != nil {
		return Entry{}, err
	}
	date := s.now()
	if in.Date != nil && !in.Date.IsZero() {
		date = *in.Date
	}
	entry := Entry{
		ID:          uuid.NewString(),
		Date:        date,
		Description: in.Description,
		Category:    in.Category,
		Amount:      in.Amount,
		Type:        in.Type,
		Quantity:    in.Quantity,
	}
	entries = append(entries, entry)
	if err := s.KV.Save(ctx, tenant, kv.BucketExpenses, entries); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Delete removes an entry by id.
func (s *Service) Delete(ctx context.Context, tenant, id string) error {
	entries, err := s.List(ctx, tenant)
	if err != nil {
		return err
	}
	kept := entries[:0]
	removed := false
	for _, e := range entries {
		if e.ID == id {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	if !removed {
		return common.NewAppError("NOT_FOUND", "expense entry not found", http.StatusNotFound, nil)
	}
	return s.KV.Save(ctx, tenant, kv.BucketExpenses, kept)
}

// Replace edits an entry as delete-then-reinsert: the old record disappears and a
// fresh one (new id) is appended.
func (s *Service) Replace(ctx context.Context, tenant, id string, in EntryInput) (Entry, error) {
	if err := s.Delete(ctx, tenant, id); err != nil {
		return Entry{}, err
	}
	return s.Append(ctx, tenant, in)
}
