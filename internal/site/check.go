package site

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/grabgifts/giftgrab/internal/models"
)

// minPublishedGuides is the floor the guide pool must hold before the site is
// considered healthy.
const minPublishedGuides = 15

// Checker validates the generated site and the data behind it.
type Checker struct {
	log          *slog.Logger
	out          string
	minInventory int
}

// NewChecker returns a checker over the output directory.
func NewChecker(log *slog.Logger, outputDir string, minInventory int) *Checker {
	return &Checker{log: log, out: outputDir, minInventory: minInventory}
}

// Check runs every health validation and returns the full list of problems
// found. An empty list means the site is ready to deploy.
func (c *Checker) Check(products []models.Product, guides []models.Guide) []string {
	const opn = "site.Check"

	var problems []string

	if len(products) < c.minInventory {
		problems = append(problems, fmt.Sprintf(
			"inventory holds %d products, need at least %d", len(products), c.minInventory))
	}
	if len(guides) < minPublishedGuides {
		problems = append(problems, fmt.Sprintf(
			"guide pool holds %d guides, need at least %d", len(guides), minPublishedGuides))
	}

	for _, artifact := range []string{indexFile, sitemapFile, robotsFile, rssFile} {
		if _, err := os.Stat(filepath.Join(c.out, artifact)); err != nil {
			problems = append(problems, fmt.Sprintf("missing artifact %s", artifact))
		}
	}

	problems = append(problems, c.checkRSS()...)
	problems = append(problems, c.checkGuidePages(guides)...)

	if len(problems) > 0 {
		c.log.Warn("site check found problems", "op", opn, "count", len(problems))
	} else {
		c.log.Info("site check passed", "op", opn)
	}
	return problems
}

// checkRSS parses the generated feed and validates its items.
func (c *Checker) checkRSS() []string {
	file, err := os.Open(filepath.Join(c.out, rssFile))
	if err != nil {
		return []string{fmt.Sprintf("cannot open %s: %v", rssFile, err)}
	}
	defer file.Close()

	feed, err := gofeed.NewParser().Parse(file)
	if err != nil {
		return []string{fmt.Sprintf("%s does not parse: %v", rssFile, err)}
	}

	var problems []string
	if feed.Title == "" {
		problems = append(problems, rssFile+" has an empty channel title")
	}
	if len(feed.Items) == 0 {
		problems = append(problems, rssFile+" carries no items")
	}
	for _, item := range feed.Items {
		if item.Link == "" {
			problems = append(problems, fmt.Sprintf("%s item %q has no link", rssFile, item.Title))
		}
	}
	return problems
}

// checkGuidePages parses each generated guide page and asserts it renders at
// least one product card.
func (c *Checker) checkGuidePages(guides []models.Guide) []string {
	var problems []string
	for _, guide := range guides {
		page := filepath.Join(c.out, "guides", guide.Slug, indexFile)
		file, err := os.Open(page)
		if err != nil {
			problems = append(problems, fmt.Sprintf("missing guide page for %s", guide.Slug))
			continue
		}
		doc, err := goquery.NewDocumentFromReader(file)
		file.Close()
		if err != nil {
			problems = append(problems, fmt.Sprintf("guide page %s does not parse: %v", guide.Slug, err))
			continue
		}
		cards := doc.Find("section.product-card")
		if cards.Length() == 0 {
			problems = append(problems, fmt.Sprintf("guide page %s renders no product cards", guide.Slug))
			continue
		}
		missingLinks := 0
		cards.Each(func(_ int, card *goquery.Selection) {
			if href, ok := card.Find("a").Attr("href"); !ok || href == "" {
				missingLinks++
			}
		})
		if missingLinks > 0 {
			problems = append(problems, fmt.Sprintf(
				"guide page %s has %d product cards without outbound links", guide.Slug, missingLinks))
		}
	}
	return problems
}
