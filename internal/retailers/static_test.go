package retailers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFeed(t *testing.T, path string, items []RawItem) {
	t.Helper()
	raw, err := json.Marshal(items)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewStaticSingleFile(t *testing.T) {
	dir := t.TempDir()
	writeFeed(t, filepath.Join(dir, "uncommongoods.json"), []RawItem{
		{Title: "Star Map Print", URL: "https://example.com/star-map"},
		{Title: "Whiskey Stones", URL: "https://example.com/whiskey-stones"},
	})

	adapter, err := NewStatic(discard(), dir, "uncommongoods")
	require.NoError(t, err)
	assert.Equal(t, "uncommongoods", adapter.Slug())
	assert.Equal(t, "Uncommongoods", adapter.Name())

	items, err := adapter.SearchItems(context.Background(), nil, 10)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestNewStaticDirectoryWithMeta(t *testing.T) {
	dir := t.TempDir()
	feedDir := filepath.Join(dir, "etsy")
	require.NoError(t, os.MkdirAll(feedDir, 0o755))
	writeFeed(t, filepath.Join(feedDir, "jewelry.json"), []RawItem{
		{Title: "Birthstone Necklace", URL: "https://example.com/necklace", Keywords: []string{"jewelry"}},
	})
	writeFeed(t, filepath.Join(feedDir, "home.json"), []RawItem{
		{Title: "Ceramic Vase", URL: "https://example.com/vase", Category: "home"},
	})
	require.NoError(t, os.WriteFile(filepath.Join(feedDir, "meta.json"),
		[]byte(`{"name":"Etsy","cta":"View on Etsy","homepage":"https://www.etsy.com"}`), 0o644))

	adapter, err := NewStatic(discard(), dir, "etsy")
	require.NoError(t, err)
	assert.Equal(t, "Etsy", adapter.Name())
	assert.Equal(t, "View on Etsy", adapter.CTA())
	assert.Equal(t, "https://www.etsy.com", adapter.Homepage())

	items, err := adapter.SearchItems(context.Background(), nil, 10)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestNewStaticMissingFeed(t *testing.T) {
	_, err := NewStatic(discard(), t.TempDir(), "nope")
	require.Error(t, err)
}

func TestStaticSearchKeywordPriorityAndBackfill(t *testing.T) {
	dir := t.TempDir()
	writeFeed(t, filepath.Join(dir, "curated.json"), []RawItem{
		{Title: "Desk Lamp", URL: "https://example.com/1"},
		{Title: "Coffee Grinder", URL: "https://example.com/2"},
		{Title: "Pour Over Kettle", URL: "https://example.com/3", Keywords: []string{"coffee"}},
		{Title: "Notebook", URL: "https://example.com/4"},
	})

	adapter, err := NewStatic(discard(), dir, "curated")
	require.NoError(t, err)

	items, err := adapter.SearchItems(context.Background(), []string{"coffee"}, 3)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Coffee Grinder", items[0].Title, "keyword matches come first")
	assert.Equal(t, "Pour Over Kettle", items[1].Title)
	assert.Equal(t, "Desk Lamp", items[2].Title, "remainder backfills the slate")
}

func TestStaticSearchRespectsCount(t *testing.T) {
	dir := t.TempDir()
	writeFeed(t, filepath.Join(dir, "curated.json"), []RawItem{
		{Title: "A", URL: "https://example.com/a"},
		{Title: "B", URL: "https://example.com/b"},
	})

	adapter, err := NewStatic(discard(), dir, "curated")
	require.NoError(t, err)

	items, err := adapter.SearchItems(context.Background(), nil, 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	items, err = adapter.SearchItems(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAmazonRequiresCredentials(t *testing.T) {
	_, err := NewAmazon(discard(), nil, AmazonCredentials{})
	require.ErrorIs(t, err, ErrMissingCredentials)
}

func TestAmazonDecorateURL(t *testing.T) {
	adapter, err := NewAmazon(discard(), nil, AmazonCredentials{
		AccessKey: "ak", SecretKey: "sk", AssociateTag: "grabgifts-20",
	})
	require.NoError(t, err)

	got := adapter.DecorateURL("https://www.amazon.com/dp/B000TEST?ref=xyz")
	assert.Contains(t, got, "tag=grabgifts-20")
	assert.Contains(t, got, "ref=xyz")
}

func TestEbayRequiresCredentials(t *testing.T) {
	_, err := NewEbay(discard(), nil, EbayCredentials{ClientID: "only-id"})
	require.ErrorIs(t, err, ErrMissingCredentials)
}
