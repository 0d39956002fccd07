package domain

import (
	"regexp"
	"strings"
	"time"
)

type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         int64     `json:"price"` // major currency units, no fractions
	OriginalPrice int64     `json:"original_price,omitempty"`
	Image         string    `json:"image"`
	Category      string    `json:"category"`
	Stock         int       `json:"stock"`
	Rating        float64   `json:"rating"`
	SKU           string    `json:"sku"`
	Slug          string    `json:"slug"`
	Featured      bool      `json:"featured"`
	CreatedAt     time.Time `json:"created_at"`
}

type ProductPage struct {
	Products   []Product `json:"products"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"total_pages"`
	HasNext    bool      `json:"has_next"`
	HasPrev    bool      `json:"has_prev"`
}

var slugStrip = regexp.MustCompile(`[^a-z0-9\s-]`)
var slugDashes = regexp.MustCompile(`-+`)

// Slugify builds a URL-safe slug from a product name.
func Slugify(name string) string {
	s := strings.ToLower(name)
	s = slugStrip.ReplaceAllString(s, "")
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "-")
	return slugDashes.ReplaceAllString(s, "-")
}
