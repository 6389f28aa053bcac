package model

import "time"

// Item represents a warehouse stock-keeping unit.
type Item struct {
	ID               int64     `json:"id"`
	SKU              string    `json:"sku"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	Category         string    `json:"category,omitempty"`
	Location         string    `json:"location,omitempty"`
	ExpectedQuantity int       `json:"expected_quantity"`
	Unit             string    `json:"unit,omitempty"`
	Barcodes         []string  `json:"barcodes"`
	ImageMime        string    `json:"image_mime,omitempty"`
	IsActive         bool      `json:"is_active"`
	CreatedBy        int64     `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ItemFilter narrows item listings. Zero values mean "no constraint";
// use ActiveOnly to restrict to active items.
type ItemFilter struct {
	Query      string
	Category   string
	Location   string
	ActiveOnly bool
}
