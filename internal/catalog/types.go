// Package catalog serves the public product listing for a shop and the
// admin CRUD behind it. Prices are stored in minor currency units.
package catalog

import "time"

// Product is a storefront item: a print service or a stationery good.
type Product struct {
	ID          string    `json:"id"`
	Tenant      string    `json:"-"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	Price       int64     `json:"price"`
	ImageURL    *string   `json:"imageUrl,omitempty"`
	InStock     bool      `json:"inStock"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProductInput carries admin create/update payloads.
type ProductInput struct {
	Name        string  `json:"name" validate:"required,max=160"`
	Slug        string  `json:"slug" validate:"required,max=160"`
	Description string  `json:"description" validate:"max=2000"`
	Category    string  `json:"category" validate:"required,max=80"`
	Price       int64   `json:"price" validate:"gte=0"`
	ImageURL    *string `json:"imageUrl" validate:"omitempty,url"`
	InStock     bool    `json:"inStock"`
}

// ListParams filters the public product listing.
type ListParams struct {
	Query    string
	Category string
	Page     int
	Limit    int
}

// ListResult holds one page of products plus the unpaged total.
type ListResult struct {
	Items []Product `json:"items"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}
