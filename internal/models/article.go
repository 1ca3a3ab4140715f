package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ArticleKind enumerates the editorial formats the scheduler rotates through.
type ArticleKind string

const (
	KindRoundup  ArticleKind = "roundup"
	KindSeasonal ArticleKind = "seasonal"
	KindWeekly   ArticleKind = "weekly"
	KindGuide    ArticleKind = "guide"
)

// ArticleStatus is the publication state of an article.
type ArticleStatus string

const (
	StatusDraft     ArticleStatus = "draft"
	StatusPublished ArticleStatus = "published"
)

var (
	ErrEmptyIntro = errors.New("article intro must contain at least one paragraph")
	ErrNoItems    = errors.New("article requires at least one item section")
)

// ArticleItem is a single product section referenced within an article.
type ArticleItem struct {
	Anchor      string   `json:"anchor"`
	Title       string   `json:"title"`
	ProductSlug string   `json:"product_slug"`
	Image       string   `json:"image,omitempty"`
	Blurb       string   `json:"blurb"`
	Specs       []string `json:"specs,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	OutboundURL string   `json:"outbound_url,omitempty"`
}

// Article is a long-form editorial piece associated with the site. The slug is
// stable once published; regeneration of the same logical article reuses the
// stored id and created_at.
type Article struct {
	ID                  string        `json:"id"`
	Slug                string        `json:"slug"`
	Path                string        `json:"path"`
	Kind                ArticleKind   `json:"kind"`
	Title               string        `json:"title"`
	Description         string        `json:"description"`
	HeroImage           string        `json:"hero_image,omitempty"`
	Intro               []string      `json:"intro"`
	WhoFor              string        `json:"who_for,omitempty"`
	Consider            string        `json:"consider,omitempty"`
	Items               []ArticleItem `json:"items"`
	HubSlugs            []string      `json:"hub_slugs,omitempty"`
	RelatedProductSlugs []string      `json:"related_product_slugs,omitempty"`
	Tags                []string      `json:"tags,omitempty"`
	Status              ArticleStatus `json:"status"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
	PublishedAt         *time.Time    `json:"published_at,omitempty"`
}

// Validate enforces the structural invariants every stored article carries.
func (a *Article) Validate() error {
	switch a.Kind {
	case KindRoundup, KindSeasonal, KindWeekly, KindGuide:
	default:
		return fmt.Errorf("unsupported article kind: %q", a.Kind)
	}
	switch a.Status {
	case StatusDraft, StatusPublished:
	default:
		return fmt.Errorf("unsupported article status: %q", a.Status)
	}
	intro := make([]string, 0, len(a.Intro))
	for _, paragraph := range a.Intro {
		if trimmed := strings.TrimSpace(paragraph); trimmed != "" {
			intro = append(intro, trimmed)
		}
	}
	if len(intro) == 0 {
		return ErrEmptyIntro
	}
	a.Intro = intro
	items := make([]ArticleItem, 0, len(a.Items))
	for _, item := range a.Items {
		if item.Title != "" && item.ProductSlug != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return ErrNoItems
	}
	a.Items = items
	return nil
}

// MarkPublished transitions the article to published and stamps timestamps.
func (a *Article) MarkPublished(when time.Time) {
	a.Status = StatusPublished
	stamp := when
	a.PublishedAt = &stamp
	a.UpdatedAt = when
}

// Touch refreshes the updated_at timestamp.
func (a *Article) Touch(when time.Time) {
	a.UpdatedAt = when
}

// BodyMDX renders a markdown-like body used for quality gates and the site
// writer.
func (a *Article) BodyMDX() string {
	sections := make([]string, 0, len(a.Items)+5)
	sections = append(sections, strings.Join(a.Intro, "\n\n"))
	if len(a.HubSlugs) > 0 {
		hubLines := []string{"Explore these related hubs:"}
		for _, slug := range a.HubSlugs {
			hubLines = append(hubLines, fmt.Sprintf("- /categories/%s/", slug))
		}
		sections = append(sections, strings.Join(hubLines, "\n"))
	}
	for _, item := range a.Items {
		specLines := make([]string, 0, len(item.Specs))
		for _, spec := range item.Specs {
			if spec != "" {
				specLines = append(specLines, "- "+spec)
			}
		}
		sections = append(sections, fmt.Sprintf(
			"### %s\n\n%s\n\n%s\n\nLink: /products/%s/",
			item.Title, item.Blurb, strings.Join(specLines, "\n"), item.ProductSlug,
		))
	}
	sections = append(sections, "### Who it's for\n\n"+a.WhoFor)
	sections = append(sections, "### Consider\n\n"+a.Consider)
	if len(a.RelatedProductSlugs) > 0 {
		relatedLines := []string{"Related picks:"}
		for _, slug := range a.RelatedProductSlugs {
			relatedLines = append(relatedLines, fmt.Sprintf("- /products/%s/", slug))
		}
		sections = append(sections, strings.Join(relatedLines, "\n"))
	}
	return strings.TrimSpace(strings.Join(sections, "\n\n"))
}

// BodyLength is the rendered body size in bytes.
func (a *Article) BodyLength() int {
	return len(a.BodyMDX())
}

// WordCount counts whitespace-separated words in the rendered body.
func (a *Article) WordCount() int {
	return len(strings.Fields(a.BodyMDX()))
}
