// Package selection ranks catalog products for editorial slots using a
// weighted heuristic over recency, clicks, review sentiment, price fit,
// category affinity, and holiday keywords.
package selection

import (
	"sort"
	"strings"
	"time"

	"github.com/grabgifts/giftgrab/internal/models"
	"github.com/grabgifts/giftgrab/internal/normalize"
)

// Weights are the hand-tuned scoring constants. They are preserved as
// configuration rather than re-derived; DefaultWeights matches the values the
// editorial team settled on.
type Weights struct {
	RecencyWindowDays   float64
	RecencyFactor       float64
	PriceFitBase        float64
	PriceOverBase       float64
	PriceOverPenalty    float64
	CategoryBonus       float64
	HolidayTitleBonus   float64
	HolidayKeywordBonus float64
}

// DefaultWeights is the production scoring configuration.
var DefaultWeights = Weights{
	RecencyWindowDays:   30,
	RecencyFactor:       4.0,
	PriceFitBase:        120.0,
	PriceOverBase:       80.0,
	PriceOverPenalty:    2.5,
	CategoryBonus:       40.0,
	HolidayTitleBonus:   65.0,
	HolidayKeywordBonus: 55.0,
}

// Options narrows scoring to an editorial context. A zero PriceCap means no
// cap; an empty Holiday disables the holiday bonus.
type Options struct {
	PriceCap            float64
	PreferredCategories []string
	Holiday             string
}

// Result is the outcome of a selection pass: the chosen items, an overflow
// pool of related products, and the three most frequent category hub slugs.
type Result struct {
	Items    []models.Product
	Related  []models.Product
	HubSlugs []string
}

// Score computes the weighted sum for a single product.
func Score(product models.Product, now time.Time, weights Weights, opts Options) float64 {
	score := 0.0

	// Recency: linear decay over the window from updated_at, clamped.
	if !product.UpdatedAt.IsZero() {
		days := now.Sub(product.UpdatedAt).Hours() / 24
		if days < 0 {
			days = 0
		}
		if days > weights.RecencyWindowDays {
			days = weights.RecencyWindowDays
		}
		score += (weights.RecencyWindowDays - days) * weights.RecencyFactor
	}

	// Popularity: raw click count, unscaled.
	score += float64(product.ClickCount)

	// Sentiment: rating x review volume, un-normalized.
	score += product.Rating * float64(product.ReviewCount)

	// Price fit against the cap, when one is set and the price parses.
	if opts.PriceCap > 0 {
		if amount, ok := productAmount(product); ok {
			if amount <= opts.PriceCap {
				score += weights.PriceFitBase - (opts.PriceCap - amount)
			} else {
				over := weights.PriceOverBase - (amount-opts.PriceCap)*weights.PriceOverPenalty
				if over > 0 {
					score += over
				}
			}
		}
	}

	// Category affinity.
	if len(opts.PreferredCategories) > 0 {
		for _, category := range opts.PreferredCategories {
			if category != "" && category == product.Category {
				score += weights.CategoryBonus
				break
			}
		}
	}

	// Holiday keyword bonus, guides only: title matches outrank keyword
	// matches.
	if opts.Holiday != "" {
		needle := holidayNeedle(opts.Holiday)
		if needle != "" {
			if strings.Contains(strings.ToLower(product.Title), needle) {
				score += weights.HolidayTitleBonus
			} else {
				for _, keyword := range product.Keywords {
					if strings.Contains(strings.ToLower(keyword), needle) {
						score += weights.HolidayKeywordBonus
						break
					}
				}
			}
		}
	}

	return score
}

// holidayNeedle reduces "Valentine's Day" to "valentine" so possessives and
// the trailing "day" do not defeat substring matching.
func holidayNeedle(holiday string) string {
	lowered := strings.ToLower(strings.TrimSpace(holiday))
	lowered = strings.TrimSuffix(lowered, " day")
	if idx := strings.IndexAny(lowered, "'’"); idx > 0 {
		lowered = lowered[:idx]
	}
	return strings.TrimSpace(lowered)
}

func productAmount(product models.Product) (float64, bool) {
	if amount, _, ok := normalize.ParsePrice(product.Price); ok {
		return amount, true
	}
	if latest := product.LatestPricePoint(); latest != nil {
		return latest.Amount, true
	}
	return 0, false
}

// dedupeKey collapses near-duplicate listings of the same physical item sold
// under different sellers: brand plus the title up to the first parenthetical.
func dedupeKey(product models.Product) string {
	brand := strings.ToLower(strings.TrimSpace(product.Brand))
	title := product.Title
	if idx := strings.Index(title, "("); idx >= 0 {
		title = title[:idx]
	}
	return normalize.Slugify(brand + "-" + title)
}

func filterCandidates(products []models.Product, now time.Time, windowDays float64) []models.Product {
	cutoff := now.Add(-time.Duration(windowDays*24) * time.Hour)
	recent := make([]models.Product, 0, len(products))
	for _, product := range products {
		if !product.UpdatedAt.IsZero() && product.UpdatedAt.Before(cutoff) {
			continue
		}
		if strings.TrimSpace(product.Image) == "" {
			continue
		}
		recent = append(recent, product)
	}
	return recent
}

func hubSlugs(items []models.Product, limit int) []string {
	counts := make(map[string]int)
	order := make([]string, 0, len(items))
	for _, item := range items {
		if item.Category == "" {
			continue
		}
		if _, seen := counts[item.Category]; !seen {
			order = append(order, item.Category)
		}
		counts[item.Category]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > limit {
		order = order[:limit]
	}
	return order
}

// pick filters, scores, sorts, and deduplicates, then splits the ranking into
// items and a related overflow pool.
func pick(products []models.Product, now time.Time, weights Weights, opts Options, limit, relatedLimit int) Result {
	candidates := filterCandidates(products, now, weights.RecencyWindowDays)

	type scored struct {
		product models.Product
		score   float64
	}
	ranked := make([]scored, 0, len(candidates))
	for _, candidate := range candidates {
		ranked = append(ranked, scored{candidate, Score(candidate, now, weights, opts)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	seen := make(map[string]struct{}, len(ranked))
	deduped := make([]models.Product, 0, len(ranked))
	for _, entry := range ranked {
		key := dedupeKey(entry.product)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, entry.product)
	}

	items := deduped
	if len(items) > limit {
		items = items[:limit]
	}
	related := deduped[len(items):]
	if len(related) > relatedLimit {
		related = related[:relatedLimit]
	}

	return Result{Items: items, Related: related, HubSlugs: hubSlugs(items, 3)}
}

// Roundup selects top scoring products for a priced roundup topic.
func Roundup(priceCap float64, products []models.Product, now time.Time, weights Weights) Result {
	return pick(products, now, weights, Options{PriceCap: priceCap}, 15, 18)
}

// Weekly selects the weekly picks slate. Weekly editions run shorter than the
// other formats.
func Weekly(products []models.Product, now time.Time, weights Weights) Result {
	return pick(products, now, weights, Options{}, 12, 16)
}

// Seasonal selects products for an upcoming calendar event, boosting the
// preferred categories.
func Seasonal(categories []string, products []models.Product, now time.Time, weights Weights) Result {
	return pick(products, now, weights, Options{PreferredCategories: categories}, 15, 18)
}

// Guide selects products for a persona gift guide, applying the price cap,
// category affinity, and holiday bonus together.
func Guide(priceCap float64, preferredCategories []string, holiday string, products []models.Product, now time.Time, weights Weights) Result {
	opts := Options{
		PriceCap:            priceCap,
		PreferredCategories: preferredCategories,
		Holiday:             holiday,
	}
	return pick(products, now, weights, opts, 15, 18)
}
