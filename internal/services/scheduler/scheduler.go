// Package scheduler decides which article to produce on each run: a rotating
// priced roundup, the nearest seasonal event, the ISO-week picks, and a
// persona guide on a publishing cadence. Rotation state lives in the article
// store so runs are stateless between invocations.
package scheduler

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/grabgifts/giftgrab/internal/models"
	"github.com/grabgifts/giftgrab/internal/normalize"
	"github.com/grabgifts/giftgrab/internal/repository"
	"github.com/grabgifts/giftgrab/internal/repository/jsonstore"
	"github.com/grabgifts/giftgrab/internal/services/content"
	"github.com/grabgifts/giftgrab/internal/services/selection"
)

// roundupTopic pairs an editorial subject with its price ceiling.
type roundupTopic struct {
	Topic    string
	PriceCap float64
}

// roundupRotation is the fixed roundup calendar. Order matters: the persisted
// index walks it round-robin.
var roundupRotation = []roundupTopic{
	{"EDC", 25},
	{"Camper Gadgets", 50},
	{"Coworker Gag", 30},
	{"Tech Stocking Stuffers", 40},
	{"Gifts for Gamers", 60},
	{"Fitness Gifts", 55},
	{"Coffee Lover Gear", 45},
	{"Pet Owner", 35},
}

// seasonalEvent is a fixed-date gifting occasion.
type seasonalEvent struct {
	Name  string
	Month time.Month
	Day   int
}

var seasonalCalendar = []seasonalEvent{
	{"Valentine's Day", time.February, 14},
	{"Mother's Day", time.May, 12},
	{"Father's Day", time.June, 16},
	{"Prime Day", time.July, 12},
	{"Back to School", time.August, 5},
	{"Halloween", time.October, 31},
	{"Black Friday", time.November, 29},
	{"Holiday", time.December, 5},
}

// seasonalCategories is the site's full category set. Seasonal selection
// boosts every categorized product in it, whatever the event.
var seasonalCategories = []string{
	"desk", "home", "jewelry", "kitchen", "outdoors", "tech", "tools", "toys",
}

// seasonalLookahead is how far ahead an event may sit and still get coverage.
const seasonalLookahead = 60 * 24 * time.Hour

// guideRotation enumerates persona and cap combinations persona-major, so
// consecutive guides cover different audiences before revisiting budgets.
var guidePersonas = []string{
	"New Parents",
	"Remote Workers",
	"College Students",
	"Grandparents",
	"Teen Gamers",
	"Outdoor Enthusiasts",
	"Home Cooks",
	"Book Lovers",
}

var guidePriceCaps = []float64{25, 50, 75, 100}

func guideRotationAt(index int) (string, float64) {
	persona := guidePersonas[index%len(guidePersonas)]
	cap := guidePriceCaps[(index/len(guidePersonas))%len(guidePriceCaps)]
	return persona, cap
}

// Options tunes the scheduler. Zero values fall back to defaults.
type Options struct {
	GuideCadence time.Duration
	Weights      selection.Weights
}

const defaultGuideCadence = 3 * 24 * time.Hour

func (o Options) withDefaults() Options {
	if o.GuideCadence <= 0 {
		o.GuideCadence = defaultGuideCadence
	}
	if o.Weights == (selection.Weights{}) {
		o.Weights = selection.DefaultWeights
	}
	return o
}

// Scheduler produces and publishes the day's articles.
type Scheduler struct {
	log   *slog.Logger
	store *jsonstore.Store
	gen   *content.Generator
	opts  Options
}

// New returns a scheduler over the given store and generator.
func New(log *slog.Logger, store *jsonstore.Store, gen *content.Generator, opts Options) *Scheduler {
	return &Scheduler{log: log, store: store, gen: gen, opts: opts.withDefaults()}
}

// Generate runs every kind for the day. Skipped kinds produce no article and
// no error; persistence failures abort.
func (s *Scheduler) Generate(products []models.Product, now time.Time, force bool) ([]models.Article, error) {
	const opn = "scheduler.Generate"

	var published []models.Article
	steps := []func() (*models.Article, error){
		func() (*models.Article, error) { return s.EnsureRoundup(products, now) },
		func() (*models.Article, error) { return s.EnsureSeasonal(products, now) },
		func() (*models.Article, error) { return s.EnsureWeekly(products, now) },
		func() (*models.Article, error) { return s.EnsureGuide(products, now, force) },
	}
	for _, step := range steps {
		article, err := step()
		if err != nil {
			return published, fmt.Errorf("%s: %w", opn, err)
		}
		if article != nil {
			published = append(published, *article)
		}
	}
	return published, nil
}

// EnsureRoundup publishes the next roundup in the rotation. The rotation index
// advances even when the selection is too thin, so a starved topic does not
// stall the calendar.
func (s *Scheduler) EnsureRoundup(products []models.Product, now time.Time) (*models.Article, error) {
	const opn = "scheduler.EnsureRoundup"

	index, err := s.store.RoundupIndex()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	entry := roundupRotation[index%len(roundupRotation)]
	if err := s.store.SetRoundupIndex(index + 1); err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	picked := selection.Roundup(entry.PriceCap, products, now, s.opts.Weights)
	if len(picked.Items) < content.MinItems(models.KindRoundup) {
		s.log.Warn("skipping roundup, selection too thin",
			"op", opn, "topic", entry.Topic, "items", len(picked.Items))
		return nil, nil
	}

	slug := fmt.Sprintf("%s-gifts-under-%.0f-%s",
		normalize.Slugify(entry.Topic), entry.PriceCap, now.Format("2006-01-02"))
	draft, err := s.gen.Build(content.Params{
		Kind:      models.KindRoundup,
		Slug:      slug,
		Topic:     entry.Topic,
		PriceCap:  entry.PriceCap,
		Selection: picked,
		Now:       now,
	})
	if err != nil {
		if errors.Is(err, repository.ErrQualityGate) {
			s.log.Warn("skipping roundup, draft failed quality gates", "op", opn, "slug", slug, "error", err)
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	return s.publish(draft, now)
}

// EnsureSeasonal publishes coverage for the nearest calendar event inside the
// lookahead window, if any.
func (s *Scheduler) EnsureSeasonal(products []models.Product, now time.Time) (*models.Article, error) {
	const opn = "scheduler.EnsureSeasonal"

	event, year, ok := nearestEvent(now)
	if !ok {
		s.log.Debug("no seasonal event inside the lookahead window", "op", opn)
		return nil, nil
	}

	picked := selection.Seasonal(seasonalCategories, products, now, s.opts.Weights)
	if len(picked.Items) < content.MinItems(models.KindSeasonal) {
		s.log.Warn("skipping seasonal, selection too thin",
			"op", opn, "event", event.Name, "items", len(picked.Items))
		return nil, nil
	}

	slug := fmt.Sprintf("%s-%d-gift-ideas", normalize.Slugify(event.Name), year)
	draft, err := s.gen.Build(content.Params{
		Kind:      models.KindSeasonal,
		Slug:      slug,
		Topic:     event.Name,
		Holiday:   event.Name,
		Selection: picked,
		Now:       now,
	})
	if err != nil {
		if errors.Is(err, repository.ErrQualityGate) {
			s.log.Warn("skipping seasonal, draft failed quality gates", "op", opn, "slug", slug, "error", err)
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	return s.publish(draft, now)
}

// nearestEvent returns the closest upcoming calendar event and its year, or
// ok=false when nothing falls inside the lookahead window.
func nearestEvent(now time.Time) (seasonalEvent, int, bool) {
	var (
		best     seasonalEvent
		bestYear int
		bestGap  time.Duration
		found    bool
	)
	for _, event := range seasonalCalendar {
		when := time.Date(now.Year(), event.Month, event.Day, 0, 0, 0, 0, now.Location())
		if when.Before(now.Truncate(24 * time.Hour)) {
			when = when.AddDate(1, 0, 0)
		}
		gap := when.Sub(now)
		if gap > seasonalLookahead {
			continue
		}
		if !found || gap < bestGap {
			best, bestYear, bestGap, found = event, when.Year(), gap, true
		}
	}
	return best, bestYear, found
}

// EnsureWeekly publishes the picks for the current ISO week. An already
// published weekly is returned unchanged.
func (s *Scheduler) EnsureWeekly(products []models.Product, now time.Time) (*models.Article, error) {
	const opn = "scheduler.EnsureWeekly"

	year, week := now.ISOWeek()
	slug := fmt.Sprintf("week-%d-%d", week, year)

	existing, err := s.store.FindArticleBySlug(slug)
	switch {
	case err == nil && existing.Status == models.StatusPublished:
		return &existing, nil
	case err != nil && !errors.Is(err, repository.ErrArticleNotFound):
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	picked := selection.Weekly(products, now, s.opts.Weights)
	if len(picked.Items) < content.MinItems(models.KindWeekly) {
		s.log.Warn("skipping weekly, selection too thin", "op", opn, "items", len(picked.Items))
		return nil, nil
	}

	draft, err := s.gen.Build(content.Params{
		Kind:      models.KindWeekly,
		Slug:      slug,
		Topic:     fmt.Sprintf("Week %d Picks", week),
		Selection: picked,
		Now:       now,
	})
	if err != nil {
		if errors.Is(err, repository.ErrQualityGate) {
			s.log.Warn("skipping weekly, draft failed quality gates", "op", opn, "slug", slug, "error", err)
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	return s.publish(draft, now)
}

// EnsureGuide publishes the next persona guide when the cadence allows it.
// force bypasses the cadence but not the selection minimum.
func (s *Scheduler) EnsureGuide(products []models.Product, now time.Time, force bool) (*models.Article, error) {
	const opn = "scheduler.EnsureGuide"

	if !force {
		last, err := s.store.GuideLastPublished()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", opn, err)
		}
		if last != nil && now.Sub(*last) < s.opts.GuideCadence {
			s.log.Debug("guide cadence not reached", "op", opn, "last_published", *last)
			return nil, nil
		}
	}

	article, err := s.produceGuide(products, now)
	if err != nil || article == nil {
		return article, err
	}
	if err := s.store.SetGuideLastPublished(&article.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	return article, nil
}

// produceGuide builds and publishes a guide dated at now, advancing the
// rotation index. Cadence bookkeeping is the caller's job.
func (s *Scheduler) produceGuide(products []models.Product, now time.Time) (*models.Article, error) {
	const opn = "scheduler.produceGuide"

	index, err := s.store.GuideIndex()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	persona, priceCap := guideRotationAt(index)
	if err := s.store.SetGuideIndex(index + 1); err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	holiday := ""
	if event, _, ok := nearestEvent(now); ok {
		holiday = event.Name
	}

	picked := selection.Guide(priceCap, nil, holiday, products, now, s.opts.Weights)
	if len(picked.Items) < content.MinItems(models.KindGuide) {
		s.log.Warn("skipping guide, selection too thin",
			"op", opn, "persona", persona, "items", len(picked.Items))
		return nil, nil
	}

	slug := fmt.Sprintf("%s-gifts-under-%.0f-%s",
		normalize.Slugify(persona), priceCap, now.Format("2006-01-02"))
	draft, err := s.gen.Build(content.Params{
		Kind:      models.KindGuide,
		Slug:      slug,
		Topic:     persona,
		PriceCap:  priceCap,
		Holiday:   holiday,
		Selection: picked,
		Now:       now,
	})
	if err != nil {
		if errors.Is(err, repository.ErrQualityGate) {
			s.log.Warn("skipping guide, draft failed quality gates", "op", opn, "slug", slug, "error", err)
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	return s.publish(draft, now)
}

// BackfillGuides walks backward from endDate over the given number of days in
// cadence-sized steps and produces the guides missing from that range. Dates
// that already have a published guide are skipped. Returns how many guides
// were produced.
func (s *Scheduler) BackfillGuides(products []models.Product, days int, endDate time.Time) (int, error) {
	const opn = "scheduler.BackfillGuides"

	if days <= 0 {
		return 0, nil
	}
	step := int(s.opts.GuideCadence / (24 * time.Hour))
	if step <= 0 {
		step = 1
	}

	articles, err := s.store.LoadArticles()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", opn, err)
	}
	publishedDates := make(map[string]struct{})
	for _, article := range articles {
		if article.Kind == models.KindGuide && article.Status == models.StatusPublished {
			if len(article.Slug) >= 10 {
				publishedDates[article.Slug[len(article.Slug)-10:]] = struct{}{}
			}
		}
	}

	produced := 0
	var latest time.Time
	start := endDate.AddDate(0, 0, -days)
	for day := start; !day.After(endDate); day = day.AddDate(0, 0, step) {
		if _, exists := publishedDates[day.Format("2006-01-02")]; exists {
			continue
		}
		article, err := s.produceGuide(products, day)
		if err != nil {
			return produced, fmt.Errorf("%s: %w", opn, err)
		}
		if article == nil {
			continue
		}
		produced++
		if day.After(latest) {
			latest = day
		}
	}

	if produced > 0 {
		if err := s.store.SetGuideLastPublished(&latest); err != nil {
			return produced, fmt.Errorf("%s: %w", opn, err)
		}
	}
	s.log.Info("guide backfill complete", "op", opn, "produced", produced, "days", days)
	return produced, nil
}

// publish stores the draft as published. A stored article with the same slug
// keeps its identity: id and created_at survive regeneration.
func (s *Scheduler) publish(draft models.Article, now time.Time) (*models.Article, error) {
	const opn = "scheduler.publish"

	existing, err := s.store.FindArticleBySlug(draft.Slug)
	switch {
	case err == nil:
		draft.ID = existing.ID
		draft.CreatedAt = existing.CreatedAt
	case !errors.Is(err, repository.ErrArticleNotFound):
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	draft.MarkPublished(now)
	if err := s.store.UpsertArticle(draft); err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	s.log.Info("article published", "op", opn, "kind", draft.Kind, "slug", draft.Slug)
	return &draft, nil
}
