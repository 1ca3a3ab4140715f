// Package retailers defines the source adapter contract and the Amazon,
// eBay, and curated static-feed implementations behind it. Adapters fetch raw
// listings; normalization into catalog products happens in the pipeline.
package retailers

import "context"

// RawItem is a listing exactly as a source returned it, before identity
// canonicalization and price normalization.
type RawItem struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Image       string   `json:"image,omitempty"`
	Price       string   `json:"price,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	Category    string   `json:"category,omitempty"`
	Rating      float64  `json:"rating,omitempty"`
	ReviewCount int      `json:"review_count,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// Adapter is a product source. SearchItems returns up to count listings for
// the given keywords; DecorateURL applies the source's affiliate parameters.
type Adapter interface {
	Slug() string
	Name() string
	CTA() string
	Homepage() string
	SearchItems(ctx context.Context, keywords []string, count int) ([]RawItem, error)
	DecorateURL(rawURL string) string
}
