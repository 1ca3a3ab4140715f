// Package ingest merges freshly fetched retailer batches into the stored
// catalog. A batch either lands completely or not at all: the catalog file is
// rewritten only after every merge rule has been applied and the size floor
// holds.
package ingest

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/grabgifts/giftgrab/internal/models"
	"github.com/grabgifts/giftgrab/internal/normalize"
	"github.com/grabgifts/giftgrab/internal/repository"
	"github.com/grabgifts/giftgrab/internal/repository/jsonstore"
)

// Options tunes the merge behaviour. Zero values fall back to the production
// defaults.
type Options struct {
	CooldownWindow    time.Duration
	CooldownRetention time.Duration
	MinCatalogSize    int
}

const (
	defaultCooldownWindow    = 14 * 24 * time.Hour
	defaultCooldownRetention = 30 * 24 * time.Hour
	defaultMinCatalogSize    = 50
)

func (o Options) withDefaults() Options {
	if o.CooldownWindow <= 0 {
		o.CooldownWindow = defaultCooldownWindow
	}
	if o.CooldownRetention <= 0 {
		o.CooldownRetention = defaultCooldownRetention
	}
	if o.MinCatalogSize <= 0 {
		o.MinCatalogSize = defaultMinCatalogSize
	}
	return o
}

// Service merges incoming product batches into the persisted catalog.
type Service struct {
	log   *slog.Logger
	store *jsonstore.Store
	opts  Options
}

// New returns an ingest service over the given store.
func New(log *slog.Logger, store *jsonstore.Store, opts Options) *Service {
	return &Service{log: log, store: store, opts: opts.withDefaults()}
}

// Summary reports what a merge pass did.
type Summary struct {
	Added   int
	Merged  int
	Dropped int
	Total   int
}

// Merge folds the incoming batch into the stored catalog and persists the
// result. Listings under an active cooldown that are not already stored are
// dropped. When the merged catalog would fall below the size floor, neither
// the catalog nor the cooldown ledger is written and
// repository.ErrInventoryTooSmall is returned.
func (s *Service) Merge(incoming []models.Product, now time.Time) (Summary, error) {
	const opn = "ingest.Merge"

	existing, err := s.store.LoadProducts()
	if err != nil {
		return Summary{}, fmt.Errorf("%s: %w", opn, err)
	}
	stored, err := s.store.LoadCooldowns()
	if err != nil {
		return Summary{}, fmt.Errorf("%s: %w", opn, err)
	}
	// Entries past retention drop out here, in memory only. The ledger file
	// is rewritten together with the catalog after the floor check passes.
	cooldowns := make([]models.CooldownEntry, 0, len(stored))
	for _, entry := range stored {
		if now.Sub(entry.AddedAt) < s.opts.CooldownRetention {
			cooldowns = append(cooldowns, entry)
		}
	}

	byID := make(map[string]int, len(existing))
	for i, product := range existing {
		byID[product.ID] = i
	}
	activeCooldown := make(map[string]struct{}, len(cooldowns))
	for _, entry := range cooldowns {
		if entry.IsActive(s.opts.CooldownWindow, now) {
			activeCooldown[entry.Key()] = struct{}{}
		}
	}

	var summary Summary
	merged := existing
	for _, item := range incoming {
		if item.ID == "" || item.Title == "" {
			summary.Dropped++
			s.log.Warn("dropping incomplete listing", "op", opn, "source", item.Source, "title", item.Title)
			continue
		}

		idx, known := byID[item.ID]
		if !known {
			key := item.Source + "|" + item.ID
			if _, cooling := activeCooldown[key]; cooling {
				summary.Dropped++
				s.log.Debug("dropping listing under cooldown", "op", opn, "id", item.ID)
				continue
			}
			item.CreatedAt = now
			item.Touch(now)
			if amount, currency, ok := normalize.ParsePrice(item.Price); ok {
				item.RecordPrice(amount, currency, item.Price, now)
			}
			merged = append(merged, item)
			byID[item.ID] = len(merged) - 1
			cooldowns = append(cooldowns, models.CooldownEntry{
				Retailer: item.Source,
				ID:       item.ID,
				Category: item.Category,
				AddedAt:  now,
			})
			summary.Added++
			continue
		}

		mergeProduct(&merged[idx], item, now)
		summary.Merged++
	}
	summary.Total = len(merged)

	if summary.Total < s.opts.MinCatalogSize {
		s.log.Error("refusing to shrink catalog below floor",
			"op", opn, "total", summary.Total, "floor", s.opts.MinCatalogSize)
		return summary, fmt.Errorf("%s: merged %d products: %w",
			opn, summary.Total, repository.ErrInventoryTooSmall)
	}

	if err := s.store.SaveProducts(merged, now); err != nil {
		return summary, fmt.Errorf("%s: %w", opn, err)
	}
	if err := s.store.SaveCooldowns(cooldowns); err != nil {
		return summary, fmt.Errorf("%s: %w", opn, err)
	}

	s.log.Info("catalog merge complete",
		"op", opn, "added", summary.Added, "merged", summary.Merged,
		"dropped", summary.Dropped, "total", summary.Total)
	return summary, nil
}

// mergeProduct folds the incoming listing into the stored one in place.
// The stored added_at and created_at survive; updated_at is always refreshed.
func mergeProduct(stored *models.Product, incoming models.Product, now time.Time) {
	stored.Title = betterString(stored.Title, incoming.Title)
	stored.URL = betterString(stored.URL, incoming.URL)
	stored.Brand = betterString(stored.Brand, incoming.Brand)
	stored.Category = betterString(stored.Category, incoming.Category)
	stored.Image = betterImage(stored.Image, incoming.Image)

	if incoming.Rating > 0 {
		stored.Rating = incoming.Rating
	}
	if incoming.ReviewCount > 0 {
		stored.ReviewCount = incoming.ReviewCount
	}
	if incoming.ClickCount > stored.ClickCount {
		stored.ClickCount = incoming.ClickCount
	}

	stored.Keywords = unionKeywords(stored.Keywords, incoming.Keywords)

	if incoming.Price != "" {
		stored.Price = incoming.Price
		if amount, currency, ok := normalize.ParsePrice(incoming.Price); ok {
			stored.RecordPrice(amount, currency, incoming.Price, now)
		}
	}
	stored.Touch(now)
}

// betterString keeps the longer non-empty value, so a truncated re-crawl never
// degrades a stored field.
func betterString(current, candidate string) string {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return current
	}
	if len(candidate) > len(current) {
		return candidate
	}
	return current
}

// betterImage prefers any real image over a placeholder, then the longer URL.
func betterImage(current, candidate string) string {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" || normalize.IsPlaceholderImage(candidate) {
		return current
	}
	if current == "" || normalize.IsPlaceholderImage(current) {
		return candidate
	}
	if len(candidate) > len(current) {
		return candidate
	}
	return current
}

// unionKeywords merges both lists preserving first-seen order, matching
// case-insensitively.
func unionKeywords(current, candidate []string) []string {
	if len(candidate) == 0 {
		return current
	}
	seen := make(map[string]struct{}, len(current)+len(candidate))
	out := make([]string, 0, len(current)+len(candidate))
	for _, lists := range [][]string{current, candidate} {
		for _, keyword := range lists {
			keyword = strings.TrimSpace(keyword)
			if keyword == "" {
				continue
			}
			lowered := strings.ToLower(keyword)
			if _, dup := seen[lowered]; dup {
				continue
			}
			seen[lowered] = struct{}{}
			out = append(out, keyword)
		}
	}
	return out
}
