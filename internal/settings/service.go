// Package settings stores the per-shop profile shown on the storefront.
package settings

import (
	"context"
	"errors"
	"strings"

	"github.com/printmine/backend-printshop/internal/kv"
)

// Settings is the shop profile.
type Settings struct {
	ShopName       string `json:"shopName"`
	Address        string `json:"address,omitempty"`
	WhatsAppNumber string `json:"whatsappNumber,omitempty"`
	UPIID          string `json:"upiId,omitempty"`
	Currency       string `json:"currency"`
	OpeningHours   string `json:"openingHours,omitempty"`
	Announcement   string `json:"announcement,omitempty"`
}

// Input carries an admin settings update.
type Input struct {
	ShopName       string `json:"shopName" validate:"required,max=120"`
	Address        string `json:"address" validate:"max=300"`
	WhatsAppNumber string `json:"whatsappNumber" validate:"max=20"`
	UPIID          string `json:"upiId" validate:"max=80"`
	Currency       string `json:"currency" validate:"required,len=3,alpha"`
	OpeningHours   string `json:"openingHours" validate:"max=120"`
	Announcement   string `json:"announcement" validate:"max=300"`
}

// Service reads and writes the settings bucket.
type Service struct {
	KV *kv.Store
}

// Defaults returned before the shop saves a profile.
func Defaults() Settings {
	return Settings{ShopName: "Print Shop", Currency: "INR"}
}

// Get returns the shop settings, falling back to defaults.
func (s *Service) Get(ctx context.Context, tenant string) (Settings, error) {
	if s == nil || s.KV == nil {
		return Settings{}, errors.New("settings service not configured")
	}
	var out Settings
	found, err := s.KV.Load(ctx, tenant, kv.BucketSettings, &out)
	if err != nil {
		return Settings{}, err
	}
	if !found {
		return Defaults(), nil
	}
	return out, nil
}

// Update replaces the shop settings.
func (s *Service) Update(ctx context.Context, tenant string, in Input) (Settings, error) {
	if s == nil || s.KV == nil {
		return Settings{}, errors.New("settings service not configured")
	}
	out := Settings{
		ShopName:       strings.TrimSpace(in.ShopName),
		Address:        strings.TrimSpace(in.Address),
		WhatsAppNumber: strings.TrimSpace(in.WhatsAppNumber),
		UPIID:          strings.TrimSpace(in.UPIID),
		Currency:       strings.ToUpper(strings.TrimSpace(in.Currency)),
		OpeningHours:   strings.TrimSpace(in.OpeningHours),
		Announcement:   strings.TrimSpace(in.Announcement),
	}
	if err := s.KV.Save(ctx, tenant, kv.BucketSettings, out); err != nil {
		return Settings{}, err
	}
	return out, nil
}
