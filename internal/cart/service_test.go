package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/printmine/backend-printshop/internal/catalog"
)

type fakeCatalog struct {
	products map[string]catalog.Product
}

func (f fakeCatalog) Get(_ context.Context, _, productSlug string) (catalog.Product, error) {
	p, ok := f.products[productSlug]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func newService(t *testing.T) *Service {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return &Service{
		R: redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		Products: fakeCatalog{products: map[string]catalog.Product{
			"a4-paper": {ID: "p1", Slug: "a4-paper", Name: "A4 Paper", Price: 500, InStock: true},
			"mug":      {ID: "p2", Slug: "mug", Name: "Mug Print", Price: 25000, InStock: false},
		}},
		Now: func() time.Time { return time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC) },
	}
}

func TestGetEmptyCart(t *testing.T) {
	svc := newService(t)
	c, err := svc.Get(context.Background(), "shopa", "tok1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(c.Items) != 0 || c.Total != 0 {
		t.Fatalf("want empty cart, got %+v", c)
	}
}

func TestAddItemMergesLines(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "shopa", "tok1", "a4-paper", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	c, err := svc.AddItem(ctx, "shopa", "tok1", "a4-paper", 3)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(c.Items) != 1 {
		t.Fatalf("want merged line, got %d lines", len(c.Items))
	}
	if c.Items[0].Qty != 5 || c.Items[0].Subtotal != 2500 {
		t.Fatalf("line %+v", c.Items[0])
	}
	if c.Total != 2500 {
		t.Fatalf("total %d", c.Total)
	}
}

func TestAddOutOfStockRejected(t *testing.T) {
	svc := newService(t)
	if _, err := svc.AddItem(context.Background(), "shopa", "tok1", "mug", 1); err == nil {
		t.Fatal("want out of stock error")
	}
}

func TestUpdateQtyZeroRemovesLine(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	if _, err := svc.AddItem(ctx, "shopa", "tok1", "a4-paper", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	c, err := svc.UpdateQty(ctx, "shopa", "tok1", "p1", 0)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(c.Items) != 0 || c.Total != 0 {
		t.Fatalf("want empty cart, got %+v", c)
	}
}

func TestCartsAreTenantScoped(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	if _, err := svc.AddItem(ctx, "shopa", "tok1", "a4-paper", 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	c, err := svc.Get(ctx, "shopb", "tok1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(c.Items) != 0 {
		t.Fatal("cart leaked across tenants")
	}
}
