// Package site renders the static marketing site from the stored articles,
// guides, and catalog, and validates the generated artifacts.
package site

import (
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/grabgifts/giftgrab/internal/config"
	"github.com/grabgifts/giftgrab/internal/models"
)

const (
	indexFile   = "index.html"
	sitemapFile = "sitemap.xml"
	robotsFile  = "robots.txt"
	rssFile     = "rss.xml"
)

// Builder writes the static site into the output directory.
type Builder struct {
	log  *slog.Logger
	site config.Site
	out  string
}

// NewBuilder returns a site builder rooted at the output directory.
func NewBuilder(log *slog.Logger, site config.Site, outputDir string) *Builder {
	return &Builder{log: log, site: site, out: outputDir}
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Site.Title}}</title>
<meta name="description" content="{{.Site.Description}}">
</head>
<body>
<h1>{{.Site.Title}}</h1>
<section class="articles">
{{range .Articles}}<article class="article-teaser">
<a href="{{.Path}}">{{.Title}}</a>
<p>{{.Description}}</p>
</article>
{{end}}</section>
<section class="guides">
{{range .Guides}}<article class="guide-teaser">
<a href="/guides/{{.Slug}}/">{{.Title}}</a>
</article>
{{end}}</section>
</body>
</html>
`))

var articleTemplate = template.Must(template.New("article").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Article.Title}} | {{.Site.Title}}</title>
<meta name="description" content="{{.Article.Description}}">
</head>
<body>
<article>
<h1>{{.Article.Title}}</h1>
{{if .Article.HeroImage}}<img class="hero" src="{{.Article.HeroImage}}" alt="{{.Article.Title}}">{{end}}
{{range .Article.Intro}}<p>{{.}}</p>
{{end}}{{range .Article.Items}}<section class="product-card" id="{{.Anchor}}">
<h2>{{.Title}}</h2>
{{if .Image}}<img src="{{.Image}}" alt="{{.Title}}">{{end}}
<p>{{.Blurb}}</p>
{{if .OutboundURL}}<a rel="sponsored nofollow" href="{{.OutboundURL}}">See the listing</a>{{end}}
</section>
{{end}}<section class="who-for"><h2>Who it's for</h2><p>{{.Article.WhoFor}}</p></section>
<section class="consider"><h2>Consider</h2><p>{{.Article.Consider}}</p></section>
</article>
</body>
</html>
`))

var guideTemplate = template.Must(template.New("guide").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Guide.Title}} | {{.Site.Title}}</title>
<meta name="description" content="{{.Guide.Description}}">
</head>
<body>
<h1>{{.Guide.Title}}</h1>
<p>{{.Guide.Description}}</p>
{{range .Guide.Products}}<section class="product-card">
<h2>{{.Title}}</h2>
{{if .Image}}<img src="{{.Image}}" alt="{{.Title}}">{{end}}
{{if .Price}}<span class="price">{{.Price}}</span>{{end}}
<a rel="sponsored nofollow" href="{{.URL}}">See the listing</a>
</section>
{{end}}</body>
</html>
`))

// Build renders every page and feed artifact. Output is rewritten in place;
// failed page writes abort the build.
func (b *Builder) Build(articles []models.Article, guides []models.Guide, now time.Time) error {
	const opn = "site.Build"

	if err := os.MkdirAll(b.out, 0o755); err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}

	if err := b.renderTo(indexFile, indexTemplate, map[string]any{
		"Site": b.site, "Articles": articles, "Guides": guides,
	}); err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}

	for _, article := range articles {
		page := filepath.Join("articles", article.Slug, indexFile)
		if err := b.renderTo(page, articleTemplate, map[string]any{
			"Site": b.site, "Article": article,
		}); err != nil {
			return fmt.Errorf("%s: article %s: %w", opn, article.Slug, err)
		}
	}
	for _, guide := range guides {
		page := filepath.Join("guides", guide.Slug, indexFile)
		if err := b.renderTo(page, guideTemplate, map[string]any{
			"Site": b.site, "Guide": guide,
		}); err != nil {
			return fmt.Errorf("%s: guide %s: %w", opn, guide.Slug, err)
		}
	}

	if err := b.writeSitemap(articles, guides, now); err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}
	if err := b.writeRobots(); err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}
	if err := b.writeRSS(articles, now); err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}

	b.log.Info("site build complete", "op", opn,
		"articles", len(articles), "guides", len(guides), "output", b.out)
	return nil
}

func (b *Builder) renderTo(relPath string, tmpl *template.Template, data any) error {
	path := filepath.Join(b.out, relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := tmpl.Execute(file, data); err != nil {
		file.Close()
		return fmt.Errorf("failed to render %s: %w", relPath, err)
	}
	return file.Close()
}

func (b *Builder) writeSitemap(articles []models.Article, guides []models.Guide, now time.Time) error {
	base := strings.TrimRight(b.site.BaseURL, "/")
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	sb.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	writeURL := func(loc string, lastmod time.Time) {
		fmt.Fprintf(&sb, "<url><loc>%s</loc><lastmod>%s</lastmod></url>\n",
			loc, lastmod.Format("2006-01-02"))
	}
	writeURL(base+"/", now)
	for _, article := range articles {
		writeURL(base+article.Path, article.UpdatedAt)
	}
	for _, guide := range guides {
		writeURL(base+"/guides/"+guide.Slug+"/", guide.CreatedAt)
	}
	sb.WriteString("</urlset>\n")
	return os.WriteFile(filepath.Join(b.out, sitemapFile), []byte(sb.String()), 0o644)
}

func (b *Builder) writeRobots() error {
	base := strings.TrimRight(b.site.BaseURL, "/")
	content := "User-agent: *\nAllow: /\n\nSitemap: " + base + "/" + sitemapFile + "\n"
	return os.WriteFile(filepath.Join(b.out, robotsFile), []byte(content), 0o644)
}

func (b *Builder) writeRSS(articles []models.Article, now time.Time) error {
	base := strings.TrimRight(b.site.BaseURL, "/")
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	sb.WriteString(`<rss version="2.0"><channel>` + "\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", escapeXML(b.site.Title))
	fmt.Fprintf(&sb, "<link>%s/</link>\n", base)
	fmt.Fprintf(&sb, "<description>%s</description>\n", escapeXML(b.site.Description))
	fmt.Fprintf(&sb, "<lastBuildDate>%s</lastBuildDate>\n", now.Format(time.RFC1123Z))
	for _, article := range articles {
		published := article.UpdatedAt
		if article.PublishedAt != nil {
			published = *article.PublishedAt
		}
		sb.WriteString("<item>\n")
		fmt.Fprintf(&sb, "<title>%s</title>\n", escapeXML(article.Title))
		fmt.Fprintf(&sb, "<link>%s%s</link>\n", base, article.Path)
		fmt.Fprintf(&sb, "<guid>%s%s</guid>\n", base, article.Path)
		fmt.Fprintf(&sb, "<description>%s</description>\n", escapeXML(article.Description))
		fmt.Fprintf(&sb, "<pubDate>%s</pubDate>\n", published.Format(time.RFC1123Z))
		sb.WriteString("</item>\n")
	}
	sb.WriteString("</channel></rss>\n")
	return os.WriteFile(filepath.Join(b.out, rssFile), []byte(sb.String()), 0o644)
}

func escapeXML(value string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;",
	)
	return replacer.Replace(value)
}
