// Package report aggregates inventory and guide health figures for the check
// command's human-readable output.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/grabgifts/giftgrab/internal/models"
	"github.com/grabgifts/giftgrab/internal/normalize"
)

// InventorySummary is a snapshot of catalog health.
type InventorySummary struct {
	Total         int
	BySource      map[string]int
	ByCategory    map[string]int
	PriceMin      float64
	PriceMax      float64
	PriceAvg      float64
	Priced        int
	MissingImages int
}

// SummarizeInventory aggregates counts, distributions, and price stats over
// the catalog.
func SummarizeInventory(products []models.Product) InventorySummary {
	summary := InventorySummary{
		Total:      len(products),
		BySource:   make(map[string]int),
		ByCategory: make(map[string]int),
	}
	sum := 0.0
	for _, product := range products {
		if product.Source != "" {
			summary.BySource[product.Source]++
		}
		if product.Category != "" {
			summary.ByCategory[product.Category]++
		}
		if product.Image == "" || normalize.IsPlaceholderImage(product.Image) {
			summary.MissingImages++
		}
		amount, _, ok := normalize.ParsePrice(product.Price)
		if !ok {
			continue
		}
		if summary.Priced == 0 || amount < summary.PriceMin {
			summary.PriceMin = amount
		}
		if amount > summary.PriceMax {
			summary.PriceMax = amount
		}
		sum += amount
		summary.Priced++
	}
	if summary.Priced > 0 {
		summary.PriceAvg = sum / float64(summary.Priced)
	}
	return summary
}

// Render formats the summary as indented lines for terminal output.
func (s InventorySummary) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "inventory: %d products, %d missing images\n", s.Total, s.MissingImages)
	if s.Priced > 0 {
		fmt.Fprintf(&b, "prices: $%.2f - $%.2f, avg $%.2f across %d priced listings\n",
			s.PriceMin, s.PriceMax, s.PriceAvg, s.Priced)
	}
	fmt.Fprintf(&b, "sources:%s\n", renderCounts(s.BySource))
	fmt.Fprintf(&b, "categories:%s", renderCounts(s.ByCategory))
	return b.String()
}

// GuideSummary is a snapshot of the guide pool.
type GuideSummary struct {
	Total     int
	MinItems  int
	MaxItems  int
	AvgItems  float64
	ThinSlugs []string
}

// SummarizeGuides aggregates item counts across the stored guides. Guides
// under minItems are listed as thin.
func SummarizeGuides(guides []models.Guide, minItems int) GuideSummary {
	summary := GuideSummary{Total: len(guides)}
	if len(guides) == 0 {
		return summary
	}
	total := 0
	for i, guide := range guides {
		count := len(guide.Products)
		if i == 0 || count < summary.MinItems {
			summary.MinItems = count
		}
		if count > summary.MaxItems {
			summary.MaxItems = count
		}
		if count < minItems {
			summary.ThinSlugs = append(summary.ThinSlugs, guide.Slug)
		}
		total += count
	}
	summary.AvgItems = float64(total) / float64(len(guides))
	sort.Strings(summary.ThinSlugs)
	return summary
}

// Render formats the guide summary for terminal output.
func (s GuideSummary) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "guides: %d total", s.Total)
	if s.Total > 0 {
		fmt.Fprintf(&b, ", items %d-%d (avg %.1f)", s.MinItems, s.MaxItems, s.AvgItems)
	}
	if len(s.ThinSlugs) > 0 {
		fmt.Fprintf(&b, "\nthin guides: %s", strings.Join(s.ThinSlugs, ", "))
	}
	return b.String()
}

func renderCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%d", key, counts[key])
	}
	return b.String()
}
