package models

import (
	"math"
	"time"
)

// priceEpsilon is the smallest amount movement that counts as a real price
// change; anything below it refreshes the latest point instead of appending.
const priceEpsilon = 0.009

// PricePoint is an immutable snapshot of a product price at capture time.
type PricePoint struct {
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency,omitempty"`
	Display    string    `json:"display,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
}

// Product is a single catalog item sourced from a retailer. The ID is the
// canonical source-qualified identity and stays stable across re-ingestion of
// the same physical listing. Products are never hard-deleted, only filtered
// from views.
type Product struct {
	ID           string       `json:"id"`
	Source       string       `json:"source"`
	Title        string       `json:"title"`
	URL          string       `json:"url"`
	Image        string       `json:"image,omitempty"`
	Price        string       `json:"price,omitempty"`
	Brand        string       `json:"brand,omitempty"`
	Category     string       `json:"category,omitempty"`
	Rating       float64      `json:"rating,omitempty"`
	ReviewCount  int          `json:"review_count,omitempty"`
	Keywords     []string     `json:"keywords,omitempty"`
	PriceHistory []PricePoint `json:"price_history,omitempty"`
	ClickCount   int          `json:"click_count,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Touch refreshes the liveness timestamp.
func (p *Product) Touch(now time.Time) {
	p.UpdatedAt = now
}

// LatestPricePoint returns the most recent history entry, or nil when the
// product has never carried a parseable price.
func (p *Product) LatestPricePoint() *PricePoint {
	if len(p.PriceHistory) == 0 {
		return nil
	}
	return &p.PriceHistory[len(p.PriceHistory)-1]
}

// RecordPrice appends a new history point when the amount moved beyond the
// epsilon, otherwise it refreshes the latest point's display and timestamp.
func (p *Product) RecordPrice(amount float64, currency, display string, now time.Time) {
	latest := p.LatestPricePoint()
	if latest != nil && math.Abs(latest.Amount-amount) <= priceEpsilon {
		latest.Display = display
		latest.CapturedAt = now
		if currency != "" {
			latest.Currency = currency
		}
		return
	}
	p.PriceHistory = append(p.PriceHistory, PricePoint{
		Amount:     amount,
		Currency:   currency,
		Display:    display,
		CapturedAt: now,
	})
}

// PriceDropPercent reports how far the latest price sits below the historical
// maximum, as a percentage. Zero when there is no drop or no history.
func (p *Product) PriceDropPercent() float64 {
	latest := p.LatestPricePoint()
	if latest == nil {
		return 0
	}
	peak := 0.0
	for _, point := range p.PriceHistory {
		if point.Amount > peak {
			peak = point.Amount
		}
	}
	if peak <= 0 || latest.Amount >= peak {
		return 0
	}
	return (peak - latest.Amount) / peak * 100
}

// CooldownEntry suppresses re-ingestion of a recently added listing. It is
// active while now - added_at is inside the configured cooldown window.
type CooldownEntry struct {
	Retailer string    `json:"retailer"`
	ID       string    `json:"id"`
	Category string    `json:"category,omitempty"`
	AddedAt  time.Time `json:"added_at"`
}

// Key identifies the listing the entry guards.
func (e CooldownEntry) Key() string {
	return e.Retailer + "|" + e.ID
}

// IsActive reports whether the entry still suppresses ingestion at now.
func (e CooldownEntry) IsActive(window time.Duration, now time.Time) bool {
	return now.Sub(e.AddedAt) < window
}
