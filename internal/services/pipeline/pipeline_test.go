package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grabgifts/giftgrab/internal/repository/jsonstore"
	"github.com/grabgifts/giftgrab/internal/retailers"
	"github.com/grabgifts/giftgrab/internal/services/content"
	"github.com/grabgifts/giftgrab/internal/services/ingest"
	"github.com/grabgifts/giftgrab/internal/services/scheduler"
	"github.com/grabgifts/giftgrab/internal/site"

	"github.com/grabgifts/giftgrab/internal/config"
)

var testNow = time.Date(2025, 11, 10, 5, 0, 0, 0, time.UTC)

type fakeAdapter struct {
	slug  string
	items []retailers.RawItem
	err   error
	calls int
}

func (f *fakeAdapter) Slug() string     { return f.slug }
func (f *fakeAdapter) Name() string     { return f.slug }
func (f *fakeAdapter) CTA() string      { return "View" }
func (f *fakeAdapter) Homepage() string { return "https://example.com" }

func (f *fakeAdapter) SearchItems(_ context.Context, _ []string, count int) ([]retailers.RawItem, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.items) > count {
		return f.items[:count], nil
	}
	return f.items, nil
}

func (f *fakeAdapter) DecorateURL(rawURL string) string { return rawURL + "?aff=test" }

func feedItems(prefix string, n int) []retailers.RawItem {
	items := make([]retailers.RawItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, retailers.RawItem{
			Title:       fmt.Sprintf("%s Gift %02d", prefix, i),
			URL:         fmt.Sprintf("https://example.com/%s/%02d", prefix, i),
			Image:       fmt.Sprintf("https://cdn.example.com/%s-%02d.jpg", prefix, i),
			Price:       "$21.50",
			Brand:       fmt.Sprintf("%s Brand %02d", prefix, i),
			Category:    "Desk Accessories",
			Rating:      4.3,
			ReviewCount: 40 + i,
		})
	}
	return items
}

func newTestPipeline(t *testing.T, adapters []retailers.Adapter, minCatalog int) (*Service, *jsonstore.Store) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := jsonstore.New(log, t.TempDir())
	require.NoError(t, err)

	ingestSvc := ingest.New(log, store, ingest.Options{MinCatalogSize: minCatalog})
	sched := scheduler.New(log, store, content.NewGenerator(log), scheduler.Options{})
	builder := site.NewBuilder(log, config.Site{
		BaseURL: "https://www.grabgifts.net", Title: "GrabGifts", Description: "Gifts.",
	}, t.TempDir())
	return New(log, store, adapters, ingestSvc, sched, builder), store
}

func TestUpdateRunsSourcesInOrder(t *testing.T) {
	curated := &fakeAdapter{slug: "curated", items: feedItems("curated", 20)}
	ebay := &fakeAdapter{slug: "ebay", items: feedItems("ebay", 20)}
	svc, store := newTestPipeline(t, []retailers.Adapter{curated, ebay}, 10)

	require.NoError(t, svc.Update(context.Background(), 20, testNow))
	assert.Equal(t, 1, curated.calls)
	assert.Equal(t, 1, ebay.calls)

	products, err := store.LoadProducts()
	require.NoError(t, err)
	assert.Len(t, products, 40)
	assert.Equal(t, "curated", products[0].Source)
	assert.Contains(t, products[0].URL, "aff=test", "outbound URLs are decorated")
	assert.Equal(t, "desk-accessories", products[0].Category, "categories are slugged")
}

func TestUpdateSkipsFailingSource(t *testing.T) {
	broken := &fakeAdapter{slug: "ebay", err: errors.New("503 upstream")}
	curated := &fakeAdapter{slug: "curated", items: feedItems("curated", 20)}
	svc, store := newTestPipeline(t, []retailers.Adapter{curated, broken}, 10)

	require.NoError(t, svc.Update(context.Background(), 20, testNow))

	products, err := store.LoadProducts()
	require.NoError(t, err)
	assert.Len(t, products, 20, "failing source contributes nothing but does not abort")
}

func TestUpdatePropagatesSizeFloor(t *testing.T) {
	curated := &fakeAdapter{slug: "curated", items: feedItems("curated", 5)}
	svc, _ := newTestPipeline(t, []retailers.Adapter{curated}, 50)

	err := svc.Update(context.Background(), 5, testNow)
	require.Error(t, err)
}

func TestNormalizeRawScrubsPlaceholders(t *testing.T) {
	adapter := &fakeAdapter{slug: "curated"}
	got := normalizeRaw(retailers.RawItem{
		Title: "Mug",
		URL:   "https://example.com/mug",
		Image: "https://images.unsplash.com/photo-999",
	}, adapter)

	assert.Empty(t, got.Image, "stock photos are scrubbed")
	assert.Equal(t, "curated", got.Source)
	assert.NotEmpty(t, got.ID)
}

func TestNormalizeRawCanonicalizesEbayIdentity(t *testing.T) {
	adapter := &fakeAdapter{slug: "ebay"}
	first := normalizeRaw(retailers.RawItem{
		Title: "Gadget",
		URL:   "https://www.ebay.com/itm/cool-gadget-123456789012?mkcid=1&campid=5338&toolid=10001",
	}, adapter)
	second := normalizeRaw(retailers.RawItem{
		Title: "Gadget",
		URL:   "https://www.ebay.com/itm/cool-gadget-123456789012?mkcid=2",
	}, adapter)

	assert.Equal(t, first.ID, second.ID, "tracking params must not split identity")
	assert.Equal(t, "ebay-123456789012", first.ID)
}