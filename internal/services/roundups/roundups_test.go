package roundups

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grabgifts/giftgrab/internal/models"
	"github.com/grabgifts/giftgrab/internal/repository"
	"github.com/grabgifts/giftgrab/internal/repository/jsonstore"
)

var testNow = time.Date(2025, 11, 10, 7, 0, 0, 0, time.UTC)

func inventory(n int) []models.Product {
	categories := []string{"kitchen", "tech", "outdoors"}
	brands := []string{"Acme", "Borealis", "Cast Iron Co", "Driftwood"}
	products := make([]models.Product, 0, n)
	for i := 0; i < n; i++ {
		products = append(products, models.Product{
			ID:          fmt.Sprintf("curated-%03d", i),
			Source:      "curated",
			Title:       fmt.Sprintf("Gift Item Number %03d", i),
			URL:         fmt.Sprintf("https://example.com/%03d", i),
			Image:       fmt.Sprintf("https://cdn.example.com/%03d.jpg", i),
			Price:       fmt.Sprintf("$%d.99", 10+i%40),
			Brand:       brands[i%len(brands)],
			Category:    categories[i%len(categories)],
			Rating:      3.5 + float64(i%3)*0.5,
			ReviewCount: 10 * (i + 1),
			CreatedAt:   testNow.AddDate(0, 0, -10),
			UpdatedAt:   testNow.AddDate(0, 0, -1),
		})
	}
	return products
}

func TestGenerateTopicsBucketsInventory(t *testing.T) {
	topics, err := GenerateTopics(inventory(60), nil, testNow, 10)
	require.NoError(t, err)
	require.Len(t, topics, 10)

	slugs := make([]string, 0, len(topics))
	for _, topic := range topics {
		slugs = append(slugs, topic.Slug)
	}
	assert.Contains(t, slugs, "best-kitchen-gifts")
	assert.Contains(t, slugs, "best-kitchen-gifts-under-25")
	assert.Contains(t, slugs, "top-acme-picks")

	for _, topic := range topics {
		if topic.Slug == "best-kitchen-gifts-under-25" {
			assert.InDelta(t, 25, topic.PriceCap, 0.001)
			assert.Equal(t, "kitchen", topic.Category)
		}
	}
}

func TestGenerateTopicsHonorsCooldown(t *testing.T) {
	history := []models.TopicHistoryEntry{
		{Slug: "best-kitchen-gifts", Date: testNow.AddDate(0, 0, -5)},
		{Slug: "best-tech-gifts", Date: testNow.AddDate(0, 0, -45)},
	}

	topics, err := GenerateTopics(inventory(60), history, testNow, 8)
	require.NoError(t, err)

	slugs := make([]string, 0, len(topics))
	for _, topic := range topics {
		slugs = append(slugs, topic.Slug)
	}
	assert.NotContains(t, slugs, "best-kitchen-gifts", "recent usage suppresses the topic")
	assert.Contains(t, slugs, "best-tech-gifts", "expired history no longer suppresses")
}

func TestGenerateTopicsExhaustion(t *testing.T) {
	topics, err := GenerateTopics(inventory(4), nil, testNow, 50)
	require.ErrorIs(t, err, repository.ErrTopicsExhausted)
	assert.NotEmpty(t, topics, "available topics still come back with the error")
}

func TestGenerateGuidesRequiresCatalogFloor(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := jsonstore.New(log, t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.SaveProducts(inventory(10), testNow))

	svc := New(log, store, Options{MinCatalogSize: 50})
	_, err = svc.GenerateGuides(5, testNow)
	require.ErrorIs(t, err, repository.ErrInventoryTooSmall)
}

func TestGenerateGuidesBuildsAndPersists(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := jsonstore.New(log, t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.SaveProducts(inventory(60), testNow))

	svc := New(log, store, Options{MinCatalogSize: 50})
	guides, err := svc.GenerateGuides(5, testNow)
	require.NoError(t, err)
	require.Len(t, guides, 5)

	for _, guide := range guides {
		assert.GreaterOrEqual(t, len(guide.Products), guideMinItems, guide.Slug)
		assert.LessOrEqual(t, len(guide.Products), guideTargetItems, guide.Slug)
		assert.NotEmpty(t, guide.Description)
		assert.Contains(t, guide.Description, "ranked by shopper ratings")
	}

	stored, err := store.LoadGuides()
	require.NoError(t, err)
	assert.Len(t, stored, 5)

	history, err := store.TopicHistory()
	require.NoError(t, err)
	require.Len(t, history, 5)
	assert.Equal(t, testNow, history[0].Date)
}

func TestGenerateGuidesRotatesTopicsAcrossRuns(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := jsonstore.New(log, t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.SaveProducts(inventory(60), testNow))

	svc := New(log, store, Options{MinCatalogSize: 50})
	first, err := svc.GenerateGuides(3, testNow)
	require.NoError(t, err)

	second, err := svc.GenerateGuides(3, testNow.AddDate(0, 0, 1))
	require.NoError(t, err)

	used := make(map[string]struct{})
	for _, guide := range first {
		used[guide.Slug] = struct{}{}
	}
	for _, guide := range second {
		_, dup := used[guide.Slug]
		assert.False(t, dup, "topic %s reused inside the cooldown window", guide.Slug)
	}
}

func TestDescribeGuidePriceSpread(t *testing.T) {
	picks := []models.Product{
		{Title: "A", Brand: "Acme", Source: "curated", Price: "$10.00"},
		{Title: "B", Brand: "Acme", Source: "ebay", Price: "$30.00"},
		{Title: "C", Brand: "Borealis", Source: "curated", Price: "$20.00"},
	}

	got := describeGuide(models.Topic{Title: "Test Topic"}, picks)
	assert.Contains(t, got, "Prices run from $10.00 to $30.00 with a median of $20.00.")
	assert.Contains(t, got, "Featured brands include Acme, Borealis.")
	assert.Contains(t, got, "Listings sourced from curated, ebay.")
}

func TestMatchTopicAppliesPriceCap(t *testing.T) {
	ranked := rankProducts(inventory(60))
	picks := matchTopic(models.Topic{Title: "Best Kitchen Gifts Under $25", Slug: "x", Category: "kitchen", PriceCap: 25}, ranked)
	require.NotEmpty(t, picks)
	for _, product := range picks {
		assert.Equal(t, "kitchen", product.Category)
	}
}
