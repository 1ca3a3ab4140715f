// Package pipeline drives an update run end to end: fetch from every source
// in a fixed order, normalize listings into catalog products, merge them
// through the cooldown gate, produce the day's articles, and rebuild the site.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/grabgifts/giftgrab/internal/models"
	"github.com/grabgifts/giftgrab/internal/normalize"
	"github.com/grabgifts/giftgrab/internal/repository/jsonstore"
	"github.com/grabgifts/giftgrab/internal/retailers"
	"github.com/grabgifts/giftgrab/internal/services/ingest"
	"github.com/grabgifts/giftgrab/internal/services/scheduler"
	"github.com/grabgifts/giftgrab/internal/site"
)

// defaultSearchKeywords seed the source queries on every update run.
var defaultSearchKeywords = []string{
	"gift ideas", "unique gifts", "stocking stuffers", "gadget gifts",
}

// minArticleBody filters near-empty articles out of published site views.
const minArticleBody = 800

// Service wires the update workflow together. Adapters run in the order they
// are given; the caller fixes that order at construction.
type Service struct {
	log      *slog.Logger
	store    *jsonstore.Store
	adapters []retailers.Adapter
	ingest   *ingest.Service
	sched    *scheduler.Scheduler
	builder  *site.Builder
}

// New returns the update pipeline.
func New(log *slog.Logger, store *jsonstore.Store, adapters []retailers.Adapter,
	ingestSvc *ingest.Service, sched *scheduler.Scheduler, builder *site.Builder) *Service {
	return &Service{
		log:      log,
		store:    store,
		adapters: adapters,
		ingest:   ingestSvc,
		sched:    sched,
		builder:  builder,
	}
}

// Update runs one full pass. Source fetch failures are transient: logged,
// skipped, and the run continues. Merge and persistence failures abort.
func (s *Service) Update(ctx context.Context, itemCount int, now time.Time) error {
	const opn = "pipeline.Update"

	batch := s.fetch(ctx, itemCount)
	if _, err := s.ingest.Merge(batch, now); err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}

	products, err := s.store.LoadProducts()
	if err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}
	if _, err := s.sched.Generate(products, now, false); err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}

	return s.BuildSite(now)
}

// BuildSite renders the static site from the current stores.
func (s *Service) BuildSite(now time.Time) error {
	const opn = "pipeline.BuildSite"

	articles, err := s.store.ListPublishedArticles(minArticleBody)
	if err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}
	guides, err := s.store.LoadGuides()
	if err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}
	if err := s.builder.Build(articles, guides, now); err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}
	return nil
}

// fetch pulls up to itemCount listings from each adapter in order and
// normalizes them. A failing source contributes nothing.
func (s *Service) fetch(ctx context.Context, itemCount int) []models.Product {
	const opn = "pipeline.fetch"

	var batch []models.Product
	for _, adapter := range s.adapters {
		items, err := adapter.SearchItems(ctx, defaultSearchKeywords, itemCount)
		if err != nil {
			s.log.Warn("source fetch failed, skipping",
				"op", opn, "source", adapter.Slug(), "error", err)
			continue
		}
		for _, item := range items {
			batch = append(batch, normalizeRaw(item, adapter))
		}
		s.log.Info("source fetched", "op", opn, "source", adapter.Slug(), "items", len(items))
	}
	return batch
}

// normalizeRaw turns a source listing into a catalog product: canonical
// identity, decorated outbound URL, scrubbed placeholder image, slugged
// category.
func normalizeRaw(item retailers.RawItem, adapter retailers.Adapter) models.Product {
	id, canonicalURL := normalize.CanonicalIdentity(item.ID, item.URL, adapter.Slug())

	image := item.Image
	if normalize.IsPlaceholderImage(image) {
		image = ""
	}
	category := item.Category
	if category != "" {
		category = normalize.Slugify(category)
	}

	return models.Product{
		ID:          id,
		Source:      adapter.Slug(),
		Title:       item.Title,
		URL:         adapter.DecorateURL(canonicalURL),
		Image:       image,
		Price:       item.Price,
		Brand:       item.Brand,
		Category:    category,
		Rating:      item.Rating,
		ReviewCount: item.ReviewCount,
		Keywords:    item.Keywords,
	}
}
