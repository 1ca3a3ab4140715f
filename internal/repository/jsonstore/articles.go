package jsonstore

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/grabgifts/giftgrab/internal/models"
	"github.com/grabgifts/giftgrab/internal/repository"
)

// articleMeta carries the rotation state the scheduler persists between runs.
type articleMeta struct {
	RoundupIndex       int        `json:"roundup_index"`
	GuideIndex         int        `json:"guide_index"`
	GuideLastPublished *time.Time `json:"guide_last_published"`
}

// articleDocument is the persisted article store shape:
// {"articles": [...], "meta": {...}, "guides": [...], "topic_history": [...]}.
type articleDocument struct {
	Articles     []models.Article           `json:"articles"`
	Meta         articleMeta                `json:"meta"`
	Guides       []models.Guide             `json:"guides"`
	TopicHistory []models.TopicHistoryEntry `json:"topic_history,omitempty"`
	LastSaved    time.Time                  `json:"last_saved,omitempty"`
}

func (s *Store) loadArticleDocument() (articleDocument, error) {
	var doc articleDocument
	if err := s.readJSON(articlesFile, &doc); err != nil {
		if isNotExist(err) {
			return articleDocument{}, nil
		}
		return articleDocument{}, err
	}
	return doc, nil
}

func (s *Store) saveArticleDocument(doc articleDocument) error {
	doc.LastSaved = time.Now().UTC()
	return s.writeJSON(articlesFile, doc)
}

// LoadArticles returns every structurally valid stored article.
func (s *Store) LoadArticles() ([]models.Article, error) {
	const opn = "jsonstore.LoadArticles"

	doc, err := s.loadArticleDocument()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	articles := make([]models.Article, 0, len(doc.Articles))
	for _, article := range doc.Articles {
		if err := article.Validate(); err != nil {
			s.log.Warn("skipping invalid article payload", "op", opn, "slug", article.Slug, "error", err)
			continue
		}
		articles = append(articles, article)
	}
	return articles, nil
}

// SaveArticles rewrites the article list, preserving meta and guides.
func (s *Store) SaveArticles(articles []models.Article) error {
	const opn = "jsonstore.SaveArticles"

	doc, err := s.loadArticleDocument()
	if err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}
	doc.Articles = articles
	if err := s.saveArticleDocument(doc); err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}
	return nil
}

// UpsertArticle replaces the article with a matching id or appends it.
func (s *Store) UpsertArticle(article models.Article) error {
	const opn = "jsonstore.UpsertArticle"

	articles, err := s.LoadArticles()
	if err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}
	replaced := false
	for i := range articles {
		if articles[i].ID == article.ID {
			articles[i] = article
			replaced = true
			break
		}
	}
	if !replaced {
		articles = append(articles, article)
	}
	if err := s.SaveArticles(articles); err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}
	return nil
}

// FindArticleBySlug returns the stored article with the given slug, or
// repository.ErrArticleNotFound.
func (s *Store) FindArticleBySlug(slug string) (models.Article, error) {
	const opn = "jsonstore.FindArticleBySlug"

	articles, err := s.LoadArticles()
	if err != nil {
		return models.Article{}, fmt.Errorf("%s: %w", opn, err)
	}
	needle := strings.ToLower(strings.TrimSpace(slug))
	for _, article := range articles {
		if strings.ToLower(article.Slug) == needle {
			return article, nil
		}
	}
	return models.Article{}, repository.ErrArticleNotFound
}

// ListPublishedArticles returns published articles whose rendered body meets
// the minimum length, newest first.
func (s *Store) ListPublishedArticles(minBodyLength int) ([]models.Article, error) {
	const opn = "jsonstore.ListPublishedArticles"

	articles, err := s.LoadArticles()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	published := make([]models.Article, 0, len(articles))
	for _, article := range articles {
		if article.Status == models.StatusPublished && article.BodyLength() >= minBodyLength {
			published = append(published, article)
		}
	}
	sort.SliceStable(published, func(i, j int) bool {
		return published[i].UpdatedAt.After(published[j].UpdatedAt)
	})
	return published, nil
}

// RoundupIndex returns the persisted roundup rotation counter.
func (s *Store) RoundupIndex() (int, error) {
	doc, err := s.loadArticleDocument()
	if err != nil {
		return 0, fmt.Errorf("jsonstore.RoundupIndex: %w", err)
	}
	return doc.Meta.RoundupIndex, nil
}

// SetRoundupIndex persists the roundup rotation counter.
func (s *Store) SetRoundupIndex(value int) error {
	const opn = "jsonstore.SetRoundupIndex"

	doc, err := s.loadArticleDocument()
	if err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}
	doc.Meta.RoundupIndex = value
	if err := s.saveArticleDocument(doc); err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}
	return nil
}

// GuideIndex returns the persisted guide rotation counter.
func (s *Store) GuideIndex() (int, error) {
	doc, err := s.loadArticleDocument()
	if err != nil {
		return 0, fmt.Errorf("jsonstore.GuideIndex: %w", err)
	}
	return doc.Meta.GuideIndex, nil
}

// SetGuideIndex persists the guide rotation counter.
func (s *Store) SetGuideIndex(value int) error {
	const opn = "jsonstore.SetGuideIndex"

	doc, err := s.loadArticleDocument()
	if err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}
	doc.Meta.GuideIndex = value
	if err := s.saveArticleDocument(doc); err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}
	return nil
}

// GuideLastPublished returns the persisted cadence marker, or nil when no
// guide has ever been published.
func (s *Store) GuideLastPublished() (*time.Time, error) {
	doc, err := s.loadArticleDocument()
	if err != nil {
		return nil, fmt.Errorf("jsonstore.GuideLastPublished: %w", err)
	}
	return doc.Meta.GuideLastPublished, nil
}

// SetGuideLastPublished persists the cadence marker; nil clears it.
func (s *Store) SetGuideLastPublished(when *time.Time) error {
	const opn = "jsonstore.SetGuideLastPublished"

	doc, err := s.loadArticleDocument()
	if err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}
	doc.Meta.GuideLastPublished = when
	if err := s.saveArticleDocument(doc); err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}
	return nil
}

// LoadGuides returns the stored roundup guides.
func (s *Store) LoadGuides() ([]models.Guide, error) {
	const opn = "jsonstore.LoadGuides"

	doc, err := s.loadArticleDocument()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	guides := make([]models.Guide, 0, len(doc.Guides))
	for _, guide := range doc.Guides {
		if guide.Slug == "" {
			s.log.Warn("skipping invalid guide payload", "op", opn, "title", guide.Title)
			continue
		}
		guides = append(guides, guide)
	}
	return guides, nil
}

// SaveGuides rewrites the guide list, preserving articles and meta.
func (s *Store) SaveGuides(guides []models.Guide) error {
	const opn = "jsonstore.SaveGuides"

	doc, err := s.loadArticleDocument()
	if err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}
	doc.Guides = guides
	if err := s.saveArticleDocument(doc); err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}
	return nil
}

// TopicHistory returns the recorded topic usage, newest last.
func (s *Store) TopicHistory() ([]models.TopicHistoryEntry, error) {
	doc, err := s.loadArticleDocument()
	if err != nil {
		return nil, fmt.Errorf("jsonstore.TopicHistory: %w", err)
	}
	return doc.TopicHistory, nil
}

// AppendTopicHistory records that a topic slug was used at the given time.
func (s *Store) AppendTopicHistory(slug, title string, when time.Time) error {
	const opn = "jsonstore.AppendTopicHistory"

	doc, err := s.loadArticleDocument()
	if err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}
	doc.TopicHistory = append(doc.TopicHistory, models.TopicHistoryEntry{
		Slug:  slug,
		Title: title,
		Date:  when,
	})
	if err := s.saveArticleDocument(doc); err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}
	return nil
}
