package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrSlugTaken is returned when a product slug already exists for the tenant.
var ErrSlugTaken = errors.New("catalog: slug already taken")

// ErrNotFound is returned when a product does not exist.
var ErrNotFound = errors.New("catalog: product not found")

const uniqueViolation = "23505"

// Store persists products in Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

const productColumns = `id, tenant, name, slug, description, category, price, image_url, in_stock, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Tenant, &p.Name, &p.Slug, &p.Description, &p.Category,
		&p.Price, &p.ImageURL, &p.InStock, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// List returns one page of products for the tenant plus the unpaged count.
func (s *Store) List(ctx context.Context, tenant string, params ListParams) ([]Product, int64, error) {
	where := []string{"tenant = $1"}
	args := []any{tenant}
	if q := strings.TrimSpace(params.Query); q != "" {
		args = append(args, "%"+strings.ToLower(q)+"%")
		where = append(where, fmt.Sprintf("lower(name) LIKE $%d", len(args)))
	}
	if c := strings.TrimSpace(params.Category); c != "" {
		args = append(args, c)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := s.Pool.QueryRow(ctx, "SELECT count(*) FROM products WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	offset := (params.Page - 1) * params.Limit
	if offset < 0 {
		offset = 0
	}
	args = append(args, params.Limit, offset)
	query := fmt.Sprintf("SELECT %s FROM products WHERE %s ORDER BY name LIMIT $%d OFFSET $%d",
		productColumns, cond, len(args)-1, len(args))
	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	items := make([]Product, 0, params.Limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

// Categories lists the distinct non-empty categories the tenant's products use.
func (s *Store) Categories(ctx context.Context, tenant string) ([]string, error) {
	rows, err := s.Pool.Query(ctx,
		"SELECT DISTINCT category FROM products WHERE tenant = $1 AND category <> '' ORDER BY category", tenant)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetBySlug looks up a single product by its tenant-scoped slug.
func (s *Store) GetBySlug(ctx context.Context, tenant, slug string) (Product, error) {
	row := s.Pool.QueryRow(ctx,
		"SELECT "+productColumns+" FROM products WHERE tenant = $1 AND slug = $2", tenant, slug)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// Create inserts a product and returns it with generated fields populated.
func (s *Store) Create(ctx context.Context, tenant string, in ProductInput) (Product, error) {
	id := uuid.NewString()
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO products (id, tenant, name, slug, description, category, price, image_url, in_stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+productColumns,
		id, tenant, in.Name, in.Slug, in.Description, in.Category, in.Price, in.ImageURL, in.InStock)
	p, err := scanProduct(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Product{}, ErrSlugTaken
		}
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// Update rewrites a product identified by id.
func (s *Store) Update(ctx context.Context, tenant, id string, in ProductInput) (Product, error) {
	row := s.Pool.QueryRow(ctx, `
		UPDATE products
		SET name = $3, slug = $4, description = $5, category = $6, price = $7,
		    image_url = $8, in_stock = $9, updated_at = now()
		WHERE tenant = $1 AND id = $2
		RETURNING `+productColumns,
		tenant, id, in.Name, in.Slug, in.Description, in.Category, in.Price, in.ImageURL, in.InStock)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		if isUniqueViolation(err) {
			return Product{}, ErrSlugTaken
		}
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

// Delete removes a product.
func (s *Store) Delete(ctx context.Context, tenant, id string) error {
	tag, err := s.Pool.Exec(ctx, "DELETE FROM products WHERE tenant = $1 AND id = $2", tenant, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
