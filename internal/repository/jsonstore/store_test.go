package jsonstore

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grabgifts/giftgrab/internal/models"
	"github.com/grabgifts/giftgrab/internal/repository"
)

var testNow = time.Date(2025, 11, 10, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := New(log, t.TempDir())
	require.NoError(t, err)
	return store
}

func TestLoadProductsMissingFileIsEmpty(t *testing.T) {
	store := newTestStore(t)

	products, err := store.LoadProducts()
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestSaveAndLoadProducts(t *testing.T) {
	store := newTestStore(t)
	in := []models.Product{
		{ID: "a", Source: "curated", Title: "Alpha", URL: "https://example.com/a", CreatedAt: testNow, UpdatedAt: testNow},
		{ID: "", Source: "curated", Title: "Broken"},
		{ID: "b", Source: "ebay", Title: "Bravo", URL: "https://example.com/b", CreatedAt: testNow, UpdatedAt: testNow},
	}

	require.NoError(t, store.SaveProducts(in, testNow))

	out, err := store.LoadProducts()
	require.NoError(t, err)
	require.Len(t, out, 2, "products without an id are skipped on load")
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "b", out[1].ID)
}

func TestSaveProductsLeavesNoTempFiles(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SaveProducts([]models.Product{{ID: "a", Title: "Alpha"}}, testNow))

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), ".tmp-")
	}
	_, err = os.Stat(filepath.Join(store.Dir(), "products.json"))
	assert.NoError(t, err)
}

func TestCooldownRoundTrip(t *testing.T) {
	store := newTestStore(t)
	entries := []models.CooldownEntry{
		{Retailer: "ebay", ID: "old", AddedAt: testNow.AddDate(0, 0, -40)},
		{Retailer: "ebay", ID: "fresh", AddedAt: testNow.AddDate(0, 0, -2)},
	}
	require.NoError(t, store.SaveCooldowns(entries))

	reloaded, err := store.LoadCooldowns()
	require.NoError(t, err)
	require.Len(t, reloaded, 2)
	assert.Equal(t, "old", reloaded[0].ID)
	assert.Equal(t, "fresh", reloaded[1].ID)
}

func validStoredArticle(id, slug string) models.Article {
	return models.Article{
		ID:     id,
		Slug:   slug,
		Kind:   models.KindRoundup,
		Status: models.StatusDraft,
		Title:  "Stored Article",
		Intro:  []string{"A paragraph."},
		Items: []models.ArticleItem{
			{Title: "Item", ProductSlug: "item", Blurb: "Blurb."},
		},
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
}

func TestUpsertArticleReplacesById(t *testing.T) {
	store := newTestStore(t)
	original := validStoredArticle("id-1", "slug-one")
	require.NoError(t, store.UpsertArticle(original))

	updated := original
	updated.Title = "Updated Title"
	require.NoError(t, store.UpsertArticle(updated))

	articles, err := store.LoadArticles()
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Updated Title", articles[0].Title)
}

func TestFindArticleBySlug(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.UpsertArticle(validStoredArticle("id-1", "My-Slug")))

	found, err := store.FindArticleBySlug("my-slug")
	require.NoError(t, err)
	assert.Equal(t, "id-1", found.ID)

	_, err = store.FindArticleBySlug("missing")
	assert.ErrorIs(t, err, repository.ErrArticleNotFound)
}

func TestListPublishedArticlesFiltersAndSorts(t *testing.T) {
	store := newTestStore(t)

	draft := validStoredArticle("id-draft", "draft-one")
	older := validStoredArticle("id-old", "old-one")
	older.MarkPublished(testNow.AddDate(0, 0, -2))
	newer := validStoredArticle("id-new", "new-one")
	newer.MarkPublished(testNow)

	for _, article := range []models.Article{draft, older, newer} {
		require.NoError(t, store.UpsertArticle(article))
	}

	published, err := store.ListPublishedArticles(0)
	require.NoError(t, err)
	require.Len(t, published, 2)
	assert.Equal(t, "id-new", published[0].ID, "newest first")

	none, err := store.ListPublishedArticles(1 << 20)
	require.NoError(t, err)
	assert.Empty(t, none, "body length floor filters thin articles")
}

func TestRotationMetaRoundTrip(t *testing.T) {
	store := newTestStore(t)

	index, err := store.RoundupIndex()
	require.NoError(t, err)
	assert.Zero(t, index)

	require.NoError(t, store.SetRoundupIndex(7))
	index, err = store.RoundupIndex()
	require.NoError(t, err)
	assert.Equal(t, 7, index)

	require.NoError(t, store.SetGuideIndex(3))
	guideIndex, err := store.GuideIndex()
	require.NoError(t, err)
	assert.Equal(t, 3, guideIndex)

	last, err := store.GuideLastPublished()
	require.NoError(t, err)
	assert.Nil(t, last)

	stamp := testNow
	require.NoError(t, store.SetGuideLastPublished(&stamp))
	last, err = store.GuideLastPublished()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, stamp, last.UTC())
}

func TestMetaSurvivesArticleSaves(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SetRoundupIndex(4))

	require.NoError(t, store.UpsertArticle(validStoredArticle("id-1", "slug-one")))

	index, err := store.RoundupIndex()
	require.NoError(t, err)
	assert.Equal(t, 4, index, "article writes must not reset rotation state")
}

func TestGuidesAndTopicHistoryRoundTrip(t *testing.T) {
	store := newTestStore(t)
	guides := []models.Guide{
		{Slug: "alpha", Title: "Alpha Guide", CreatedAt: testNow},
		{Slug: "", Title: "Broken"},
	}
	require.NoError(t, store.SaveGuides(guides))

	loaded, err := store.LoadGuides()
	require.NoError(t, err)
	require.Len(t, loaded, 1, "guides without a slug are skipped")
	assert.Equal(t, "alpha", loaded[0].Slug)

	require.NoError(t, store.AppendTopicHistory("alpha", "Alpha Guide", testNow))
	history, err := store.TopicHistory()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "alpha", history[0].Slug)
}
