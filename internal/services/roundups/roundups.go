// Package roundups derives guide topics from the live inventory and builds
// the daily roundup guides: ranked product lists with data-driven
// descriptions, persisted next to the articles.
package roundups

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/grabgifts/giftgrab/internal/models"
	"github.com/grabgifts/giftgrab/internal/normalize"
	"github.com/grabgifts/giftgrab/internal/repository"
	"github.com/grabgifts/giftgrab/internal/repository/jsonstore"
)

const (
	topicCooldown    = 30 * 24 * time.Hour
	minCategoryCount = 6
	minBrandCount    = 4
	guideTargetItems = 20
	guideMinItems    = 10
)

var priceBreaks = []float64{25, 50}

// fallbackTopics keeps the generator productive when the inventory is too
// uniform to bucket.
var fallbackTopics = []models.Topic{
	{Title: "Last-Minute Gift Ideas", Slug: "last-minute-gift-ideas"},
	{Title: "Gifts Under $25", Slug: "gifts-under-25", PriceCap: 25},
	{Title: "Trending Gifts Right Now", Slug: "trending-gifts-right-now"},
	{Title: "Stocking Stuffers", Slug: "stocking-stuffers", PriceCap: 30},
	{Title: "Gifts for People Who Have Everything", Slug: "gifts-for-people-who-have-everything"},
}

// Options tunes guide generation. Zero values fall back to defaults.
type Options struct {
	MinCatalogSize int
}

func (o Options) withDefaults() Options {
	if o.MinCatalogSize <= 0 {
		o.MinCatalogSize = 50
	}
	return o
}

// Service builds topics and guides over the persisted catalog.
type Service struct {
	log   *slog.Logger
	store *jsonstore.Store
	opts  Options
}

// New returns a roundup guide service.
func New(log *slog.Logger, store *jsonstore.Store, opts Options) *Service {
	return &Service{log: log, store: store, opts: opts.withDefaults()}
}

// GenerateTopics derives up to limit topics from the inventory: category
// buckets, price-break variants, brand buckets, then fallbacks. Topics used
// within the cooldown window are excluded. When fewer than limit survive, the
// available topics are returned together with ErrTopicsExhausted.
func GenerateTopics(products []models.Product, history []models.TopicHistoryEntry, now time.Time, limit int) ([]models.Topic, error) {
	recentlyUsed := make(map[string]struct{})
	for _, entry := range history {
		if now.Sub(entry.Date) < topicCooldown {
			recentlyUsed[entry.Slug] = struct{}{}
		}
	}

	categoryCounts := make(map[string]int)
	categoryOrder := make([]string, 0)
	brandCounts := make(map[string]int)
	brandOrder := make([]string, 0)
	for _, product := range products {
		if product.Category != "" {
			if _, seen := categoryCounts[product.Category]; !seen {
				categoryOrder = append(categoryOrder, product.Category)
			}
			categoryCounts[product.Category]++
		}
		if product.Brand != "" {
			if _, seen := brandCounts[product.Brand]; !seen {
				brandOrder = append(brandOrder, product.Brand)
			}
			brandCounts[product.Brand]++
		}
	}
	sort.SliceStable(categoryOrder, func(i, j int) bool {
		return categoryCounts[categoryOrder[i]] > categoryCounts[categoryOrder[j]]
	})
	sort.SliceStable(brandOrder, func(i, j int) bool {
		return brandCounts[brandOrder[i]] > brandCounts[brandOrder[j]]
	})

	var candidates []models.Topic
	for _, category := range categoryOrder {
		if categoryCounts[category] < minCategoryCount {
			continue
		}
		title := fmt.Sprintf("Best %s Gifts", titleCase(category))
		candidates = append(candidates, models.Topic{
			Title:    title,
			Slug:     normalize.Slugify(title),
			Category: category,
		})
		for _, cap := range priceBreaks {
			variant := fmt.Sprintf("Best %s Gifts Under $%.0f", titleCase(category), cap)
			candidates = append(candidates, models.Topic{
				Title:    variant,
				Slug:     normalize.Slugify(variant),
				Category: category,
				PriceCap: cap,
			})
		}
	}
	for _, brand := range brandOrder {
		if brandCounts[brand] < minBrandCount {
			continue
		}
		title := fmt.Sprintf("Top %s Picks", brand)
		candidates = append(candidates, models.Topic{
			Title: title,
			Slug:  normalize.Slugify(title),
			Brand: brand,
		})
	}
	candidates = append(candidates, fallbackTopics...)

	topics := make([]models.Topic, 0, limit)
	seen := make(map[string]struct{}, limit)
	for _, topic := range candidates {
		if len(topics) == limit {
			break
		}
		if _, used := recentlyUsed[topic.Slug]; used {
			continue
		}
		if _, dup := seen[topic.Slug]; dup {
			continue
		}
		seen[topic.Slug] = struct{}{}
		topics = append(topics, topic)
	}

	if len(topics) < limit {
		return topics, fmt.Errorf("generated %d of %d topics: %w", len(topics), limit, repository.ErrTopicsExhausted)
	}
	return topics, nil
}

func titleCase(value string) string {
	words := strings.Fields(strings.ReplaceAll(value, "-", " "))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// GenerateGuides builds limit guides from the current catalog and persists
// them. The catalog must hold at least the configured floor of products.
func (s *Service) GenerateGuides(limit int, now time.Time) ([]models.Guide, error) {
	const opn = "roundups.GenerateGuides"

	products, err := s.store.LoadProducts()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	if len(products) < s.opts.MinCatalogSize {
		return nil, fmt.Errorf("%s: catalog holds %d products, need %d: %w",
			opn, len(products), s.opts.MinCatalogSize, repository.ErrInventoryTooSmall)
	}

	history, err := s.store.TopicHistory()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	topics, err := GenerateTopics(products, history, now, limit)
	if err != nil {
		s.log.Warn("topic pool short of the requested limit",
			"op", opn, "available", len(topics), "requested", limit)
	}

	ranked := rankProducts(products)
	guides := make([]models.Guide, 0, len(topics))
	for _, topic := range topics {
		picks := matchTopic(topic, ranked)
		if len(picks) > guideTargetItems {
			picks = picks[:guideTargetItems]
		}
		if len(picks) < guideMinItems {
			picks = backfill(picks, ranked, guideMinItems)
		}
		if len(picks) < guideMinItems {
			s.log.Warn("skipping guide, not enough products", "op", opn, "topic", topic.Slug, "picks", len(picks))
			continue
		}
		guides = append(guides, models.Guide{
			Slug:        topic.Slug,
			Title:       topic.Title,
			Description: describeGuide(topic, picks),
			Products:    picks,
			CreatedAt:   now,
		})
	}

	if err := s.persist(guides, now); err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	s.log.Info("guides generated", "op", opn, "count", len(guides))
	return guides, nil
}

// rankProducts orders by rating, then review volume, then freshness.
func rankProducts(products []models.Product) []models.Product {
	ranked := append([]models.Product(nil), products...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Rating != ranked[j].Rating {
			return ranked[i].Rating > ranked[j].Rating
		}
		if ranked[i].ReviewCount != ranked[j].ReviewCount {
			return ranked[i].ReviewCount > ranked[j].ReviewCount
		}
		return ranked[i].UpdatedAt.After(ranked[j].UpdatedAt)
	})
	return ranked
}

// matchTopic keeps ranked products that satisfy the topic's narrowing rules:
// price cap, brand, category, then title token overlap for themed topics.
func matchTopic(topic models.Topic, ranked []models.Product) []models.Product {
	tokens := topicTokens(topic)
	matched := make([]models.Product, 0, guideTargetItems)
	for _, product := range ranked {
		if topic.PriceCap > 0 {
			amount, _, ok := normalize.ParsePrice(product.Price)
			if !ok || amount > topic.PriceCap {
				continue
			}
		}
		if topic.Brand != "" && !strings.EqualFold(product.Brand, topic.Brand) {
			continue
		}
		if topic.Category != "" && product.Category != topic.Category {
			continue
		}
		if topic.Brand == "" && topic.Category == "" && len(tokens) > 0 && !overlaps(tokens, product) {
			continue
		}
		matched = append(matched, product)
	}
	return matched
}

// topicTokens extracts the meaningful words from a themed topic title.
func topicTokens(topic models.Topic) []string {
	if topic.Brand != "" || topic.Category != "" {
		return nil
	}
	skip := map[string]struct{}{
		"best": {}, "gifts": {}, "gift": {}, "under": {}, "for": {}, "the": {},
		"top": {}, "picks": {}, "ideas": {}, "right": {}, "now": {},
	}
	var tokens []string
	for _, word := range strings.Fields(strings.ToLower(topic.Title)) {
		word = strings.Trim(word, "$0123456789.,")
		if word == "" {
			continue
		}
		if _, skipped := skip[word]; skipped {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

func overlaps(tokens []string, product models.Product) bool {
	haystack := strings.ToLower(product.Title + " " + strings.Join(product.Keywords, " ") + " " + product.Category)
	for _, token := range tokens {
		if strings.Contains(haystack, token) {
			return true
		}
	}
	return false
}

// backfill tops a thin pick list up to the minimum with the best generic
// products not already included.
func backfill(picks, ranked []models.Product, minimum int) []models.Product {
	included := make(map[string]struct{}, len(picks))
	for _, product := range picks {
		included[product.ID] = struct{}{}
	}
	for _, product := range ranked {
		if len(picks) >= minimum {
			break
		}
		if _, dup := included[product.ID]; dup {
			continue
		}
		included[product.ID] = struct{}{}
		picks = append(picks, product)
	}
	return picks
}

// describeGuide builds the guide description from the picks themselves: top
// brands, the price spread, and where the listings come from.
func describeGuide(topic models.Topic, picks []models.Product) string {
	var sentences []string
	sentences = append(sentences, fmt.Sprintf("%s, ranked by shopper ratings and review volume across %d picks.", topic.Title, len(picks)))

	if brands := topBrands(picks, 3); len(brands) > 0 {
		sentences = append(sentences, fmt.Sprintf("Featured brands include %s.", strings.Join(brands, ", ")))
	}
	if low, high, median, ok := priceSpread(picks); ok {
		if high-low < 0.01 {
			sentences = append(sentences, fmt.Sprintf("Every pick sits at $%.2f.", median))
		} else {
			sentences = append(sentences, fmt.Sprintf("Prices run from $%.2f to $%.2f with a median of $%.2f.", low, high, median))
		}
	}
	if sources := sourceList(picks); len(sources) > 0 {
		sentences = append(sentences, fmt.Sprintf("Listings sourced from %s.", strings.Join(sources, ", ")))
	}
	return strings.Join(sentences, " ")
}

func topBrands(picks []models.Product, limit int) []string {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, product := range picks {
		if product.Brand == "" {
			continue
		}
		if _, seen := counts[product.Brand]; !seen {
			order = append(order, product.Brand)
		}
		counts[product.Brand]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > limit {
		order = order[:limit]
	}
	return order
}

func priceSpread(picks []models.Product) (low, high, median float64, ok bool) {
	amounts := make([]float64, 0, len(picks))
	for _, product := range picks {
		if amount, _, parsed := normalize.ParsePrice(product.Price); parsed {
			amounts = append(amounts, amount)
		}
	}
	if len(amounts) == 0 {
		return 0, 0, 0, false
	}
	sort.Float64s(amounts)
	return amounts[0], amounts[len(amounts)-1], amounts[len(amounts)/2], true
}

func sourceList(picks []models.Product) []string {
	seen := make(map[string]struct{})
	var sources []string
	for _, product := range picks {
		if product.Source == "" {
			continue
		}
		if _, dup := seen[product.Source]; dup {
			continue
		}
		seen[product.Source] = struct{}{}
		sources = append(sources, product.Source)
	}
	sort.Strings(sources)
	return sources
}

// persist merges the new guides into the stored set by slug and records topic
// usage for the cooldown.
func (s *Service) persist(guides []models.Guide, now time.Time) error {
	stored, err := s.store.LoadGuides()
	if err != nil {
		return err
	}
	bySlug := make(map[string]int, len(stored))
	for i, guide := range stored {
		bySlug[guide.Slug] = i
	}
	for _, guide := range guides {
		if idx, exists := bySlug[guide.Slug]; exists {
			stored[idx] = guide
			continue
		}
		bySlug[guide.Slug] = len(stored)
		stored = append(stored, guide)
	}
	if err := s.store.SaveGuides(stored); err != nil {
		return err
	}
	for _, guide := range guides {
		if err := s.store.AppendTopicHistory(guide.Slug, guide.Title, now); err != nil {
			return err
		}
	}
	return nil
}
