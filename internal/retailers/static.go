package retailers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// staticMeta is the optional meta.json sitting next to a feed directory.
type staticMeta struct {
	Name     string `json:"name"`
	CTA      string `json:"cta"`
	Homepage string `json:"homepage"`
}

// Static serves curated listings from JSON feed files on disk. A retailer
// slug maps to either <dir>/<slug>.json or a <dir>/<slug>/ directory of feed
// files with an optional meta.json.
type Static struct {
	log   *slog.Logger
	slug  string
	meta  staticMeta
	items []RawItem
}

// NewStatic loads the feed for the slug from the feeds directory.
func NewStatic(log *slog.Logger, feedsDir, slug string) (*Static, error) {
	const opn = "retailers.NewStatic"

	adapter := &Static{
		log:  log,
		slug: slug,
		meta: staticMeta{Name: defaultName(slug), CTA: "View Deal"},
	}

	single := filepath.Join(feedsDir, slug+".json")
	if _, err := os.Stat(single); err == nil {
		items, err := loadFeedFile(single)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", opn, err)
		}
		adapter.items = items
		return adapter, nil
	}

	dir := filepath.Join(feedsDir, slug)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%s: no feed for %q under %s: %w", opn, slug, feedsDir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if entry.Name() == "meta.json" {
			raw, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", opn, err)
			}
			if err := json.Unmarshal(raw, &adapter.meta); err != nil {
				return nil, fmt.Errorf("%s: bad meta.json for %q: %w", opn, slug, err)
			}
			continue
		}
		items, err := loadFeedFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", opn, err)
		}
		adapter.items = append(adapter.items, items...)
	}
	return adapter, nil
}

// DiscoverStatic loads an adapter for every feed in the directory: each
// <slug>.json file and each <slug>/ subdirectory becomes one source. A
// missing feeds directory yields no adapters.
func DiscoverStatic(log *slog.Logger, feedsDir string) ([]*Static, error) {
	const opn = "retailers.DiscoverStatic"

	entries, err := os.ReadDir(feedsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	var adapters []*Static
	for _, entry := range entries {
		slug := entry.Name()
		if !entry.IsDir() {
			if !strings.HasSuffix(slug, ".json") {
				continue
			}
			slug = strings.TrimSuffix(slug, ".json")
		}
		adapter, err := NewStatic(log, feedsDir, slug)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", opn, err)
		}
		adapters = append(adapters, adapter)
	}
	return adapters, nil
}

func defaultName(slug string) string {
	if slug == "" {
		return slug
	}
	return strings.ToUpper(slug[:1]) + slug[1:]
}

func loadFeedFile(path string) ([]RawItem, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []RawItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("bad feed file %s: %w", filepath.Base(path), err)
	}
	return items, nil
}

func (s *Static) Slug() string { return s.slug }
func (s *Static) Name() string { return s.meta.Name }
func (s *Static) CTA() string  { return s.meta.CTA }
func (s *Static) Homepage() string {
	return s.meta.Homepage
}

// DecorateURL passes curated links through; feeds carry their affiliate
// parameters inline.
func (s *Static) DecorateURL(rawURL string) string { return rawURL }

// SearchItems returns keyword-matching items first, backfilled with the rest
// of the feed up to count. An empty keyword list returns the feed head.
func (s *Static) SearchItems(_ context.Context, keywords []string, count int) ([]RawItem, error) {
	if count <= 0 || len(s.items) == 0 {
		return nil, nil
	}

	matched := make([]RawItem, 0, count)
	rest := make([]RawItem, 0, len(s.items))
	for _, item := range s.items {
		if matchesKeywords(item, keywords) {
			matched = append(matched, item)
		} else {
			rest = append(rest, item)
		}
	}
	matched = append(matched, rest...)
	if len(matched) > count {
		matched = matched[:count]
	}
	return matched, nil
}

func matchesKeywords(item RawItem, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	haystack := strings.ToLower(item.Title + " " + strings.Join(item.Keywords, " ") + " " + item.Category)
	for _, keyword := range keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword != "" && strings.Contains(haystack, keyword) {
			return true
		}
	}
	return false
}
