// Package cart keeps a guest shopping cart in Redis, keyed by a session
// token the storefront generates on first use.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/printmine/backend-printshop/internal/catalog"
	"github.com/printmine/backend-printshop/internal/common"
	"github.com/printmine/backend-printshop/internal/tenant"
)

// Item is a single cart line. UnitPrice is captured at add time.
type Item struct {
	ProductID string `json:"productId"`
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Qty       int    `json:"qty"`
	Subtotal  int64  `json:"subtotal"`
}

// Cart is the stored payload.
type Cart struct {
	Token     string    `json:"token"`
	Items     []Item    `json:"items"`
	Total     int64     `json:"total"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Catalog is the product lookup the cart needs when adding items.
type Catalog interface {
	Get(ctx context.Context, slug, productSlug string) (catalog.Product, error)
}

// Service encapsulates cart operations.
type Service struct {
	R        *redis.Client
	Products Catalog
	TTL      time.Duration
	Now      func() time.Time
}

func (s *Service) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func cartKey(slug, token string) string {
	return tenant.PrefixKey(slug, "cart:"+token)
}

// NewToken mints a cart session token.
func NewToken() string {
	return uuid.NewString()
}

// Get loads the cart for the token, returning an empty cart when none exists.
func (s *Service) Get(ctx context.Context, slug, token string) (Cart, error) {
	if s == nil || s.R == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Cart{}, common.NewAppError("VALIDATION_ERROR", "cart token is required", http.StatusBadRequest, nil)
	}
	data, err := s.R.Get(ctx, cartKey(slug, token)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return Cart{Token: token, Items: []Item{}}, nil
		}
		return Cart{}, fmt.Errorf("load cart: %w", err)
	}
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return Cart{}, fmt.Errorf("decode cart: %w", err)
	}
	return c, nil
}

func (s *Service) save(ctx context.Context, slug string, c Cart) (Cart, error) {
	c.Total = 0
	for i := range c.Items {
		c.Items[i].Subtotal = int64(c.Items[i].Qty) * c.Items[i].UnitPrice
		c.Total += c.Items[i].Subtotal
	}
	c.UpdatedAt = s.now()
	data, err := json.Marshal(c)
	if err != nil {
		return Cart{}, fmt.Errorf("encode cart: %w", err)
	}
	if err := s.R.Set(ctx, cartKey(slug, c.Token), data, s.ttl()).Err(); err != nil {
		return Cart{}, fmt.Errorf("save cart: %w", err)
	}
	return c, nil
}

// AddItem puts qty units of the product into the cart, merging with an
// existing line for the same product.
func (s *Service) AddItem(ctx context.Context, slug, token, productSlug string, qty int) (Cart, error) {
	if qty <= 0 {
		return Cart{}, common.NewAppError("VALIDATION_ERROR", "qty must be positive", http.StatusBadRequest, nil)
	}
	c, err := s.Get(ctx, slug, token)
	if err != nil {
		return Cart{}, err
	}
	product, err := s.Products.Get(ctx, slug, productSlug)
	if err != nil {
		return Cart{}, err
	}
	if !product.InStock {
		return Cart{}, common.NewAppError("OUT_OF_STOCK", "product is out of stock", http.StatusUnprocessableEntity, nil)
	}
	merged := false
	for i := range c.Items {
		if c.Items[i].ProductID == product.ID {
			c.Items[i].Qty += qty
			merged = true
			break
		}
	}
	if !merged {
		c.Items = append(c.Items, Item{
			ProductID: product.ID,
			Slug:      product.Slug,
			Name:      product.Name,
			UnitPrice: product.Price,
			Qty:       qty,
		})
	}
	return s.save(ctx, slug, c)
}

// UpdateQty sets the quantity for a cart line. Zero removes the line.
func (s *Service) UpdateQty(ctx context.Context, slug, token, productID string, qty int) (Cart, error) {
	if qty < 0 {
		return Cart{}, common.NewAppError("VALIDATION_ERROR", "qty cannot be negative", http.StatusBadRequest, nil)
	}
	c, err := s.Get(ctx, slug, token)
	if err != nil {
		return Cart{}, err
	}
	for i := range c.Items {
		if c.Items[i].ProductID != productID {
			continue
		}
		if qty == 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		} else {
			c.Items[i].Qty = qty
		}
		return s.save(ctx, slug, c)
	}
	return Cart{}, common.NewAppError("NOT_FOUND", "item not in cart", http.StatusNotFound, nil)
}

// Clear drops the cart entirely.
func (s *Service) Clear(ctx context.Context, slug, token string) error {
	if s == nil || s.R == nil {
		return errors.New("cart service not configured")
	}
	return s.R.Del(ctx, cartKey(slug, token)).Err()
}
