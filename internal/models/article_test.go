package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validArticle() Article {
	return Article{
		ID:     "a1",
		Slug:   "test-article",
		Kind:   KindRoundup,
		Status: StatusDraft,
		Title:  "Test Article",
		Intro:  []string{"  First paragraph.  ", "", "Second paragraph."},
		Items: []ArticleItem{
			{Title: "Item One", ProductSlug: "item-one", Blurb: "Blurb one."},
			{Title: "", ProductSlug: "dropped"},
			{Title: "Item Two", ProductSlug: "item-two", Blurb: "Blurb two."},
		},
	}
}

func TestArticleValidate(t *testing.T) {
	article := validArticle()
	require.NoError(t, article.Validate())

	assert.Equal(t, []string{"First paragraph.", "Second paragraph."}, article.Intro,
		"blank paragraphs are trimmed away")
	require.Len(t, article.Items, 2, "items without a title are dropped")
}

func TestArticleValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Article)
		want   error
	}{
		{"empty intro", func(a *Article) { a.Intro = []string{"   "} }, ErrEmptyIntro},
		{"no items", func(a *Article) { a.Items = nil }, ErrNoItems},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			article := validArticle()
			tc.mutate(&article)
			assert.ErrorIs(t, article.Validate(), tc.want)
		})
	}

	t.Run("bad kind", func(t *testing.T) {
		article := validArticle()
		article.Kind = "newsletter"
		assert.Error(t, article.Validate())
	})

	t.Run("bad status", func(t *testing.T) {
		article := validArticle()
		article.Status = "archived"
		assert.Error(t, article.Validate())
	})
}

func TestMarkPublished(t *testing.T) {
	article := validArticle()
	when := time.Date(2025, 11, 10, 9, 0, 0, 0, time.UTC)

	article.MarkPublished(when)

	assert.Equal(t, StatusPublished, article.Status)
	require.NotNil(t, article.PublishedAt)
	assert.Equal(t, when, *article.PublishedAt)
	assert.Equal(t, when, article.UpdatedAt)
}

func TestBodyMDXStructure(t *testing.T) {
	article := validArticle()
	article.WhoFor = "Everyone."
	article.Consider = "Prices move."
	article.HubSlugs = []string{"kitchen"}
	article.RelatedProductSlugs = []string{"bonus-pick"}
	article.Items[0].Specs = []string{"Spec A", ""}

	body := article.BodyMDX()

	assert.Contains(t, body, "First paragraph.")
	assert.Contains(t, body, "- /categories/kitchen/")
	assert.Contains(t, body, "### Item One")
	assert.Contains(t, body, "- Spec A")
	assert.Contains(t, body, "Link: /products/item-one/")
	assert.Contains(t, body, "### Who it's for")
	assert.Contains(t, body, "- /products/bonus-pick/")
	assert.Equal(t, len(body), article.BodyLength())
	assert.Positive(t, article.WordCount())
}
