// Package content turns a selection result into a publishable article:
// intro paragraphs, per-item blurbs, meta description, tags, and hero image.
// Every draft passes through the quality gates before the caller may publish.
package content

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/grabgifts/giftgrab/internal/models"
	"github.com/grabgifts/giftgrab/internal/normalize"
	"github.com/grabgifts/giftgrab/internal/repository"
	"github.com/grabgifts/giftgrab/internal/services/selection"
)

const (
	maxTitleLength = 60
	descMinLength  = 140
	descMaxLength  = 160
	introMinWords  = 120
	introMaxWords  = 200
	minBodyLength  = 800
	maxBlurbDupes  = 0.2
)

// MinItems returns the publication floor for the given article kind.
func MinItems(kind models.ArticleKind) int {
	if kind == models.KindWeekly {
		return 8
	}
	return 10
}

// Params describes the article to build. Topic is the human-readable subject
// ("EDC", "Holiday", "Week 46 Picks"); PriceCap and Holiday are zero/empty
// when the kind does not use them.
type Params struct {
	Kind      models.ArticleKind
	Slug      string
	Topic     string
	PriceCap  float64
	Holiday   string
	Selection selection.Result
	Now       time.Time
}

// Generator builds article drafts.
type Generator struct {
	log *slog.Logger
}

// NewGenerator returns a content generator.
func NewGenerator(log *slog.Logger) *Generator {
	return &Generator{log: log}
}

// Build assembles a draft article from the selection result. The draft carries
// a fresh id; callers reusing an existing slug overwrite id and created_at
// afterwards. Drafts that cannot pass the quality gates are returned with the
// gate error.
func (g *Generator) Build(params Params) (models.Article, error) {
	const opn = "content.Build"

	items := make([]models.ArticleItem, 0, len(params.Selection.Items))
	for _, product := range params.Selection.Items {
		items = append(items, g.itemFor(product))
	}
	related := make([]string, 0, len(params.Selection.Related))
	for _, product := range params.Selection.Related {
		related = append(related, normalize.Slugify(product.Title))
	}

	hero := ""
	for _, product := range params.Selection.Items {
		if !normalize.IsPlaceholderImage(product.Image) {
			hero = product.Image
			break
		}
	}

	article := models.Article{
		ID:                  uuid.NewString(),
		Slug:                params.Slug,
		Path:                "/articles/" + params.Slug + "/",
		Kind:                params.Kind,
		Title:               g.title(params),
		Description:         g.description(params),
		HeroImage:           hero,
		Intro:               g.intro(params),
		WhoFor:              g.whoFor(params),
		Consider:            g.consider(params),
		Items:               items,
		HubSlugs:            params.Selection.HubSlugs,
		RelatedProductSlugs: related,
		Tags:                g.tags(params),
		Status:              models.StatusDraft,
		CreatedAt:           params.Now,
		UpdatedAt:           params.Now,
	}

	if err := EnsureQuality(article); err != nil {
		return models.Article{}, fmt.Errorf("%s: slug %s: %w", opn, params.Slug, err)
	}
	return article, nil
}

func (g *Generator) title(params Params) string {
	var title string
	switch params.Kind {
	case models.KindRoundup:
		title = fmt.Sprintf("%d Best %s Gifts Under $%.0f", len(params.Selection.Items), params.Topic, params.PriceCap)
	case models.KindSeasonal:
		title = fmt.Sprintf("%s Gift Ideas for %d", params.Topic, params.Now.Year())
	case models.KindWeekly:
		title = fmt.Sprintf("This Week's Best Gift Finds: %s", params.Now.Format("Jan 2, 2006"))
	case models.KindGuide:
		if params.PriceCap > 0 {
			title = fmt.Sprintf("Gifts for %s Under $%.0f", params.Topic, params.PriceCap)
		} else {
			title = fmt.Sprintf("The Best Gifts for %s", params.Topic)
		}
	}
	return truncateTitle(title)
}

func truncateTitle(title string) string {
	if len(title) <= maxTitleLength {
		return title
	}
	cut := strings.LastIndex(title[:maxTitleLength], " ")
	if cut <= 0 {
		cut = maxTitleLength
	}
	return strings.TrimRight(title[:cut], " ,:-")
}

func (g *Generator) description(params Params) string {
	count := len(params.Selection.Items)
	var base string
	switch params.Kind {
	case models.KindRoundup:
		base = fmt.Sprintf("We ranked %d %s gifts under $%.0f by reviews, price fit, and freshness so you can pick a winner fast.",
			count, strings.ToLower(params.Topic), params.PriceCap)
	case models.KindSeasonal:
		base = fmt.Sprintf("Our %s %d shortlist: %d gift ideas ranked by shopper reviews and price, with quick blurbs on who each one suits.",
			params.Topic, params.Now.Year(), count)
	case models.KindWeekly:
		base = fmt.Sprintf("The %d best gift finds we spotted this week, ranked by reviews and recent price moves, with notes on who each pick suits.",
			count)
	case models.KindGuide:
		base = fmt.Sprintf("A hand-built gift guide for %s: %d picks ranked by reviews and budget fit, each with a short note on who it suits.",
			params.Topic, count)
	}
	return fitDescription(base)
}

// fitDescription pads or trims the meta description into the 140-160 char
// window search snippets expect.
func fitDescription(base string) string {
	fillers := []string{
		" Updated with fresh picks.",
		" Every pick links straight to the seller.",
		" Prices checked at publish time.",
		" Ranked by real shopper reviews.",
		" No sponsored placements, just the data.",
	}
	desc := strings.TrimSpace(base)
	for i := 0; len(desc) < descMinLength && i < len(fillers); i++ {
		desc += fillers[i]
	}
	if len(desc) > descMaxLength {
		cut := strings.LastIndex(desc[:descMaxLength-1], " ")
		if cut < descMinLength {
			cut = descMaxLength - 1
		}
		desc = strings.TrimRight(desc[:cut], " ,;.") + "."
	}
	return desc
}

func (g *Generator) intro(params Params) []string {
	count := len(params.Selection.Items)
	subject := params.Topic
	if subject == "" {
		subject = "gift"
	}

	var opener string
	switch params.Kind {
	case models.KindRoundup:
		opener = fmt.Sprintf(
			"Finding a genuinely good %s gift under $%.0f takes more time than most shoppers have, so we did the digging and narrowed the field to %d picks worth your money.",
			strings.ToLower(subject), params.PriceCap, count)
	case models.KindSeasonal:
		opener = fmt.Sprintf(
			"%s sneaks up on everyone, and the scramble for a thoughtful gift usually ends in a panic buy, so this year we pulled together %d ideas early enough to actually ship.",
			subject, count)
	case models.KindWeekly:
		opener = fmt.Sprintf(
			"Every week we comb new arrivals, price drops, and trending listings across our sources, and this edition surfaces the %d finds that cleared our bar.",
			count)
	case models.KindGuide:
		opener = fmt.Sprintf(
			"Shopping for %s is easier with a shortlist, so we ranked our current catalog against their tastes and kept the %d picks that earned a spot.",
			strings.ToLower(subject), count)
	}

	method := fmt.Sprintf(
		"Each product below was scored on recent shopper reviews, how well the price fits the budget, and how fresh the listing is, then near-duplicates from the same brand were collapsed so you see %d genuinely different options instead of one product in five colors.",
		count)

	closer := "Every link goes straight to the seller's current listing, prices were accurate when we published, and we re-check availability on every site rebuild so dead listings rotate out quickly."

	paragraphs := []string{opener, method, closer}

	extras := []string{
		"If nothing here lands, the related picks at the bottom of the page pull from the same ranked pool and are one notch below the cut line.",
		"We also tag each pick with the categories it belongs to, so the hub links above the list are a fast way to browse deeper in one lane.",
		"Star ratings shown in the blurbs come from the seller's own review counts at the time we captured the listing.",
	}
	for i := 0; countWords(paragraphs) < introMinWords && i < len(extras); i++ {
		paragraphs = append(paragraphs, extras[i])
	}
	return paragraphs
}

func countWords(paragraphs []string) int {
	total := 0
	for _, paragraph := range paragraphs {
		total += len(strings.Fields(paragraph))
	}
	return total
}

func (g *Generator) whoFor(params Params) string {
	switch params.Kind {
	case models.KindRoundup:
		return fmt.Sprintf("Anyone shopping for a %s fan on a $%.0f budget who wants the research already done.",
			strings.ToLower(params.Topic), params.PriceCap)
	case models.KindSeasonal:
		return fmt.Sprintf("Shoppers planning ahead for %s who want ideas that still arrive on time.", params.Topic)
	case models.KindWeekly:
		return "Regulars who check in for what moved this week: price drops, new arrivals, and risers."
	default:
		return fmt.Sprintf("Anyone buying for %s who would rather pick from a vetted list than scroll a marketplace.",
			strings.ToLower(params.Topic))
	}
}

func (g *Generator) consider(params Params) string {
	if params.PriceCap > 0 {
		return fmt.Sprintf("Prices move, especially near the $%.0f line. Double-check the listing before checkout, and watch shipping cut-off dates if this is for an occasion.", params.PriceCap)
	}
	return "Prices and stock move daily. Double-check the live listing before checkout, and watch shipping cut-off dates if this is for an occasion."
}

func (g *Generator) tags(params Params) []string {
	tags := []string{"gifts", string(params.Kind)}
	if params.Topic != "" {
		tags = append(tags, normalize.Slugify(params.Topic))
	}
	if params.PriceCap > 0 {
		tags = append(tags, fmt.Sprintf("under-%.0f", params.PriceCap))
	}
	if params.Holiday != "" {
		tags = append(tags, normalize.Slugify(params.Holiday))
	}
	return tags
}

// itemFor builds the per-product section. Blurbs lead with the product's own
// signals so no two items read the same.
func (g *Generator) itemFor(product models.Product) models.ArticleItem {
	slug := normalize.Slugify(product.Title)
	var blurb strings.Builder
	fmt.Fprintf(&blurb, "%s", strings.TrimSpace(product.Title))
	if product.Brand != "" {
		fmt.Fprintf(&blurb, " from %s", product.Brand)
	}
	switch {
	case product.Rating > 0 && product.ReviewCount > 0:
		fmt.Fprintf(&blurb, " holds a %.1f-star average across %d reviews", product.Rating, product.ReviewCount)
	case product.Rating > 0:
		fmt.Fprintf(&blurb, " carries a %.1f-star rating", product.Rating)
	default:
		blurb.WriteString(" is a newer listing that earned its spot on price and fit")
	}
	if product.Price != "" {
		fmt.Fprintf(&blurb, ", currently listed at %s", product.Price)
	}
	blurb.WriteString(".")
	if drop := product.PriceDropPercent(); drop >= 5 {
		fmt.Fprintf(&blurb, " It's sitting %.0f%% below its recent high.", drop)
	}

	specs := make([]string, 0, 3)
	if product.Category != "" {
		specs = append(specs, "Category: "+product.Category)
	}
	if product.Source != "" {
		specs = append(specs, "Sold via "+product.Source)
	}
	if product.Price != "" {
		specs = append(specs, "Price: "+product.Price)
	}

	tags := make([]string, 0, len(product.Keywords))
	for _, keyword := range product.Keywords {
		if keyword != "" {
			tags = append(tags, normalize.Slugify(keyword))
		}
		if len(tags) == 5 {
			break
		}
	}

	return models.ArticleItem{
		Anchor:      slug,
		Title:       product.Title,
		ProductSlug: slug,
		Image:       product.Image,
		Blurb:       blurb.String(),
		Specs:       specs,
		Tags:        tags,
		OutboundURL: product.URL,
	}
}

// EnsureQuality runs the publication gates. Violations wrap
// repository.ErrQualityGate so callers can branch on the class of failure.
func EnsureQuality(article models.Article) error {
	var problems []string

	if length := len(article.Title); length == 0 || length > maxTitleLength {
		problems = append(problems, fmt.Sprintf("title length %d outside 1-%d", length, maxTitleLength))
	}
	if length := len(article.Description); length < descMinLength || length > descMaxLength {
		problems = append(problems, fmt.Sprintf("description length %d outside %d-%d", length, descMinLength, descMaxLength))
	}
	if words := countWords(article.Intro); words < introMinWords || words > introMaxWords {
		problems = append(problems, fmt.Sprintf("intro %d words outside %d-%d", words, introMinWords, introMaxWords))
	}
	if minimum := MinItems(article.Kind); len(article.Items) < minimum {
		problems = append(problems, fmt.Sprintf("%d items below minimum %d", len(article.Items), minimum))
	}
	if article.HeroImage == "" {
		problems = append(problems, "missing hero image")
	}
	if article.BodyLength() < minBodyLength {
		problems = append(problems, fmt.Sprintf("body %d bytes below minimum %d", article.BodyLength(), minBodyLength))
	}
	if ratio := duplicateBlurbRatio(article.Items); ratio > maxBlurbDupes {
		problems = append(problems, fmt.Sprintf("duplicate blurb ratio %.2f above %.2f", ratio, maxBlurbDupes))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", repository.ErrQualityGate, strings.Join(problems, "; "))
	}
	return nil
}

func duplicateBlurbRatio(items []models.ArticleItem) float64 {
	if len(items) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(items))
	dupes := 0
	for _, item := range items {
		key := strings.ToLower(strings.TrimSpace(item.Blurb))
		if _, dup := seen[key]; dup {
			dupes++
			continue
		}
		seen[key] = struct{}{}
	}
	return float64(dupes) / float64(len(items))
}
