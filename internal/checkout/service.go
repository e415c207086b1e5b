// Package checkout turns a cart into a WhatsApp order: the storefront has
// no payment gateway, the shop finishes the sale in chat.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/printmine/backend-printshop/internal/cart"
	"github.com/printmine/backend-printshop/internal/common"
	"github.com/printmine/backend-printshop/internal/kv"
	"github.com/printmine/backend-printshop/internal/obs"
	"github.com/printmine/backend-printshop/internal/queue"
	"github.com/printmine/backend-printshop/internal/settings"
)

// Order is the logged record of a WhatsApp handoff.
type Order struct {
	ID        string      `json:"id"`
	Token     string      `json:"token"`
	Customer  string      `json:"customer,omitempty"`
	Note      string      `json:"note,omitempty"`
	Items     []cart.Item `json:"items"`
	Total     int64       `json:"total"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Result is returned to the storefront so it can redirect the buyer.
type Result struct {
	Order       Order  `json:"order"`
	WhatsAppURL string `json:"whatsappUrl"`
}

// Input carries the optional customer details attached to the order.
type Input struct {
	Customer string `json:"customer" validate:"max=120"`
	Note     string `json:"note" validate:"max=500"`
}

// Service composes the order message and logs the order.
// WhatsAppNumber is the fallback when the tenant has no number in its settings.
type Service struct {
	KV             *kv.Store
	Carts          *cart.Service
	Tasks          *queue.Enqueuer
	Settings       *settings.Service
	WhatsAppNumber string
	Now            func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Checkout converts the cart behind token into an order, returning the
// wa.me link carrying the composed message. The cart is cleared on success.
func (s *Service) Checkout(ctx context.Context, tenant, token string, in Input) (Result, error) {
	if s == nil || s.KV == nil || s.Carts == nil {
		return Result{}, errors.New("checkout service not configured")
	}
	c, err := s.Carts.Get(ctx, tenant, token)
	if err != nil {
		return Result{}, err
	}
	if len(c.Items) == 0 {
		return Result{}, common.NewAppError("EMPTY_CART", "cart has no items", http.StatusUnprocessableEntity, nil)
	}

	order := Order{
		ID:        uuid.NewString(),
		Token:     token,
		Customer:  strings.TrimSpace(in.Customer),
		Note:      strings.TrimSpace(in.Note),
		Items:     c.Items,
		Total:     c.Total,
		CreatedAt: s.now(),
	}

	var orders []Order
	if _, err := s.KV.Load(ctx, tenant, kv.BucketOrders, &orders); err != nil {
		return Result{}, err
	}
	orders = append(orders, order)
	if err := s.KV.Save(ctx, tenant, kv.BucketOrders, orders); err != nil {
		return Result{}, err
	}

	if s.Tasks != nil {
		payload, _ := json.Marshal(map[string]string{
			"tenant":  tenant,
			"orderId": order.ID,
		})
		_ = s.Tasks.Enqueue(ctx, queue.Task{
			Kind:           queue.KindOrderLogged,
			IdempotencyKey: order.ID,
			Payload:        payload,
		})
	}
	if err := s.Carts.Clear(ctx, tenant, token); err != nil {
		return Result{}, err
	}
	if obs.CheckoutOrdersTotal != nil {
		obs.CheckoutOrdersTotal.Inc()
	}
	return Result{Order: order, WhatsAppURL: s.waLink(ctx, tenant, order)}, nil
}

// Orders lists logged orders, newest first.
func (s *Service) Orders(ctx context.Context, tenant string) ([]Order, error) {
	var orders []Order
	if _, err := s.KV.Load(ctx, tenant, kv.BucketOrders, &orders); err != nil {
		return nil, err
	}
	for i, j := 0, len(orders)-1; i < j; i, j = i+1, j-1 {
		orders[i], orders[j] = orders[j], orders[i]
	}
	return orders, nil
}

func (s *Service) waLink(ctx context.Context, tenant string, o Order) string {
	number := s.WhatsAppNumber
	shopName := ""
	if s.Settings != nil {
		if prof, err := s.Settings.Get(ctx, tenant); err == nil {
			shopName = prof.ShopName
			if prof.WhatsAppNumber != "" {
				number = prof.WhatsAppNumber
			}
		}
	}
	number = strings.TrimLeft(strings.TrimSpace(number), "+")
	msg := ComposeMessage(o, shopName)
	if number == "" {
		return "https://wa.me/?text=" + url.QueryEscape(msg)
	}
	return fmt.Sprintf("https://wa.me/%s?text=%s", number, url.QueryEscape(msg))
}

// ComposeMessage renders the order as the WhatsApp text the buyer sends.
func ComposeMessage(o Order, shopName string) string {
	var b strings.Builder
	if shopName != "" {
		fmt.Fprintf(&b, "Hello %s! I would like to place an order:\n\n", shopName)
	} else {
		b.WriteString("Hello! I would like to place an order:\n\n")
	}
	for _, item := range o.Items {
		fmt.Fprintf(&b, "- %s x%d = %s\n", item.Name, item.Qty, formatAmount(item.Subtotal))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", formatAmount(o.Total))
	if o.Customer != "" {
		fmt.Fprintf(&b, "Name: %s\n", o.Customer)
	}
	if o.Note != "" {
		fmt.Fprintf(&b, "Note: %s\n", o.Note)
	}
	fmt.Fprintf(&b, "Order ref: %s", o.ID)
	return b.String()
}

// formatAmount renders minor units as a decimal amount for the message text.
func formatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
