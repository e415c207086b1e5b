package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/printmine/backend-printshop/internal/common"
	"github.com/printmine/backend-printshop/internal/tenant"
)

// Lister is the subset of Store the service needs. Split out so tests can
// substitute an in-memory fake.
type Lister interface {
	List(ctx context.Context, tenant string, params ListParams) ([]Product, int64, error)
	Categories(ctx context.Context, tenant string) ([]string, error)
	GetBySlug(ctx context.Context, tenant, slug string) (Product, error)
	Create(ctx context.Context, tenant string, in ProductInput) (Product, error)
	Update(ctx context.Context, tenant, id string, in ProductInput) (Product, error)
	Delete(ctx context.Context, tenant, id string) error
}

// Service layers caching and error mapping over the product store.
type Service struct {
	Store        Lister
	Cache        *Cache
	DefaultLimit int
	MaxLimit     int
}

func (s *Service) limits(params ListParams) ListParams {
	def := s.DefaultLimit
	if def < 1 {
		def = 20
	}
	max := s.MaxLimit
	if max < 1 {
		max = 100
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = def
	}
	if params.Limit > max {
		params.Limit = max
	}
	return params
}

func (s *Service) listCacheKey(slug string, params ListParams) (string, bool) {
	// only the unfiltered first page is hot enough to cache
	if params.Query != "" || params.Category != "" || params.Page != 1 {
		return "", false
	}
	return tenant.PrefixKey(slug, "catalog:list"), true
}

// List returns one page of the tenant's products.
func (s *Service) List(ctx context.Context, slug string, params ListParams) (ListResult, error) {
	params = s.limits(params)
	key, cacheable := s.listCacheKey(slug, params)
	if cacheable {
		var cached ListResult
		if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok && cached.Limit == params.Limit {
			return cached, nil
		}
	}
	items, total, err := s.Store.List(ctx, slug, params)
	if err != nil {
		return ListResult{}, err
	}
	result := ListResult{Items: items, Total: total, Page: params.Page, Limit: params.Limit}
	if cacheable {
		_ = s.Cache.SetJSON(ctx, key, result)
	}
	return result, nil
}

// Categories returns the distinct product categories in use by the tenant.
func (s *Service) Categories(ctx context.Context, slug string) ([]string, error) {
	key := tenant.PrefixKey(slug, "catalog:categories")
	var cached []string
	if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	categories, err := s.Store.Categories(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	_ = s.Cache.SetJSON(ctx, key, categories)
	return categories, nil
}

// Get returns a single product by slug.
func (s *Service) Get(ctx context.Context, slug, productSlug string) (Product, error) {
	productSlug = strings.TrimSpace(productSlug)
	if productSlug == "" {
		return Product{}, common.NewAppError("VALIDATION_ERROR", "product slug is required", http.StatusBadRequest, nil)
	}
	key := tenant.PrefixKey(slug, "catalog:product:"+productSlug)
	var cached Product
	if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	p, err := s.Store.GetBySlug(ctx, slug, productSlug)
	if err != nil {
		return Product{}, mapStoreErr(err)
	}
	_ = s.Cache.SetJSON(ctx, key, p)
	return p, nil
}

// Create adds a product and invalidates the listing cache.
func (s *Service) Create(ctx context.Context, slug string, in ProductInput) (Product, error) {
	p, err := s.Store.Create(ctx, slug, normalize(in))
	if err != nil {
		return Product{}, mapStoreErr(err)
	}
	s.Cache.Invalidate(ctx,
		tenant.PrefixKey(slug, "catalog:list"),
		tenant.PrefixKey(slug, "catalog:categories"))
	return p, nil
}

// Update rewrites a product and invalidates affected cache entries.
func (s *Service) Update(ctx context.Context, slug, id string, in ProductInput) (Product, error) {
	p, err := s.Store.Update(ctx, slug, id, normalize(in))
	if err != nil {
		return Product{}, mapStoreErr(err)
	}
	s.Cache.Invalidate(ctx,
		tenant.PrefixKey(slug, "catalog:list"),
		tenant.PrefixKey(slug, "catalog:categories"),
		tenant.PrefixKey(slug, "catalog:product:"+p.Slug))
	return p, nil
}

// Delete removes a product and invalidates the listing cache.
func (s *Service) Delete(ctx context.Context, slug, id string) error {
	if err := s.Store.Delete(ctx, slug, id); err != nil {
		return mapStoreErr(err)
	}
	s.Cache.Invalidate(ctx,
		tenant.PrefixKey(slug, "catalog:list"),
		tenant.PrefixKey(slug, "catalog:categories"))
	return nil
}

func normalize(in ProductInput) ProductInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = slugify(in.Slug)
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	return in
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return common.NewAppError("NOT_FOUND", "product not found", http.StatusNotFound, err)
	case errors.Is(err, ErrSlugTaken):
		return common.NewAppError("CONFLICT", "a product with this slug already exists", http.StatusConflict, err)
	default:
		return fmt.Errorf("catalog: %w", err)
	}
}
