package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"
	"unicode/utf8"

	"trustnet/internal/logging"
	"trustnet/internal/model"
)

const (
	defaultFeedLimit      = 20
	maxFeedLimit          = 50
	relatedItems          = 3
	trendingTopics        = 3
	maxEngagementFeedback = 500
)

// TimeRanges accepted by Trends.
var TimeRanges = []string{"24h", "7d", "30d"}

type FeedQuery struct {
	Language string
	Category string
	Limit    int
	Offset   int
}

type TrendingTopic struct {
	Topic    string  `json:"topic"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

type EducationalFeed struct {
	FeedItems      []model.FeedItem `json:"feed_items"`
	TrendingTopics []TrendingTopic  `json:"trending_topics"`
	TotalCount     int              `json:"total_count"`
}

type FeedItemDetail struct {
	model.FeedItem
	RelatedItems []model.FeedItem `json:"related_items"`
}

type FeedCategory struct {
	Name      string `json:"name"`
	ItemCount int    `json:"item_count"`
}

type TrendingPatterns struct {
	Patterns    []model.TrendingPattern `json:"patterns"`
	TimeRange   string                  `json:"time_range"`
	Language    string                  `json:"language"`
	GeneratedAt time.Time               `json:"generated_at"`
}

type EngagementRequest struct {
	UserID           string `json:"user_id,omitempty"`
	EngagementType   string `json:"engagement_type"`
	FeedbackText     string `json:"feedback_text,omitempty"`
	Rating           int    `json:"rating,omitempty"`
	TimeSpentSeconds int    `json:"time_spent_seconds,omitempty"`
}

// EngagementStats aggregates every engagement recorded for a feed item.
type EngagementStats struct {
	Total         int            `json:"total"`
	ByType        map[string]int `json:"by_type"`
	AverageRating float64        `json:"average_rating"`
	Ratings       int            `json:"ratings"`
}

type EngagementReceipt struct {
	EngagementID    string           `json:"engagement_id"`
	Message         string           `json:"message"`
	Contribution    string           `json:"contribution"`
	Stats           EngagementStats  `json:"engagement_stats"`
	Recommendations []model.FeedItem `json:"recommendations"`
}

// FeedService serves the educational feed.
type FeedService interface {
	// Feed returns a page of items, newest first, cached per language, category and page.
	Feed(ctx context.Context, q FeedQuery) (*EducationalFeed, error)
	Item(ctx context.Context, id string) (*FeedItemDetail, error)
	Categories(ctx context.Context) []FeedCategory
	Trends(ctx context.Context, language, timeRange string) (*TrendingPatterns, error)
	// Engage records a user interaction with a feed item and returns the item's updated stats.
	Engage(ctx context.Context, itemID string, req EngagementRequest) (*EngagementReceipt, error)
}

type feedService struct {
	d Deps
}

func NewFeedService(d Deps) FeedService {
	d.Log = d.Log.With("feed")
	return &feedService{d: d}
}

func validLanguage(lang string) (string, error) {
	if lang == "" {
		return "en", nil
	}
	if !slices.Contains(model.Languages, lang) {
		return "", invalid("unsupported language %q", lang)
	}
	return lang, nil
}

func (s *feedService) Feed(ctx context.Context, q FeedQuery) (_ *EducationalFeed, err error) {
	ctx, span := startSpan(ctx, "feed.Feed")
	defer func() { endSpan(span, err) }()

	if q.Language, err = validLanguage(q.Language); err != nil {
		return nil, err
	}
	if q.Category != "" && !slices.Contains(s.d.Lexicon.Categories, q.Category) {
		return nil, invalid("unsupported category %q", q.Category)
	}
	switch {
	case q.Limit == 0:
		q.Limit = defaultFeedLimit
	case q.Limit < 0 || q.Limit > maxFeedLimit:
		return nil, invalid("limit must be between 1 and %d", maxFeedLimit)
	}
	if q.Offset < 0 {
		return nil, invalid("offset must not be negative")
	}

	key := fmt.Sprintf("%s:%s:%d:%d", q.Language, q.Category, q.Limit, q.Offset)
	var cached EducationalFeed
	hit, err := s.d.Cache.GetFeed(ctx, key, &cached)
	if err != nil {
		return nil, err
	}
	if hit {
		return &cached, nil
	}

	items := s.items(q.Language, q.Category)
	feed := &EducationalFeed{
		FeedItems:      page(items, q.Offset, q.Limit),
		TrendingTopics: s.topics(),
		TotalCount:     len(items),
	}
	if _, err := s.d.Cache.CacheFeed(ctx, key, feed); err != nil {
		return nil, err
	}
	return feed, nil
}

// items returns the matching items newest first. A language without any items falls back to English.
func (s *feedService) items(lang, category string) []model.FeedItem {
	filter := func(lang string) []model.FeedItem {
		var out []model.FeedItem
		for _, it := range s.d.Lexicon.FeedItems {
			itLang := cmp.Or(it.Language, "en")
			if itLang == lang && (category == "" || it.Category == category) {
				out = append(out, it)
			}
		}
		return out
	}
	out := filter(lang)
	if len(out) == 0 && lang != "en" {
		out = filter("en")
	}
	slices.SortStableFunc(out, func(a, b model.FeedItem) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})
	return out
}

func page(items []model.FeedItem, offset, limit int) []model.FeedItem {
	if offset >= len(items) {
		return []model.FeedItem{}
	}
	end := min(offset+limit, len(items))
	return slices.Clone(items[offset:end])
}

func (s *feedService) sortedPatterns() []model.TrendingPattern {
	ps := slices.Clone(s.d.Lexicon.TrendingPatterns)
	slices.SortStableFunc(ps, func(a, b model.TrendingPattern) int {
		return cmp.Compare(b.TrendScore, a.TrendScore)
	})
	return ps
}

func (s *feedService) topics() []TrendingTopic {
	out := []TrendingTopic{}
	for _, p := range s.sortedPatterns() {
		if len(out) == trendingTopics {
			break
		}
		out = append(out, TrendingTopic{Topic: p.Pattern, Category: p.Category, Score: p.TrendScore})
	}
	return out
}

func (s *feedService) Item(ctx context.Context, id string) (_ *FeedItemDetail, err error) {
	_, span := startSpan(ctx, "feed.Item")
	defer func() { endSpan(span, err) }()

	item, ok := s.find(id)
	if !ok {
		return nil, notFound("feed item")
	}
	return &FeedItemDetail{FeedItem: item, RelatedItems: s.related(item)}, nil
}

func (s *feedService) find(id string) (model.FeedItem, bool) {
	i := slices.IndexFunc(s.d.Lexicon.FeedItems, func(it model.FeedItem) bool { return it.ID == id })
	if i < 0 {
		return model.FeedItem{}, false
	}
	return s.d.Lexicon.FeedItems[i], true
}

func (s *feedService) related(item model.FeedItem) []model.FeedItem {
	out := []model.FeedItem{}
	for _, it := range s.items(cmp.Or(item.Language, "en"), item.Category) {
		if it.ID != item.ID && len(out) < relatedItems {
			out = append(out, it)
		}
	}
	return out
}

func (s *feedService) Categories(ctx context.Context) []FeedCategory {
	_, span := startSpan(ctx, "feed.Categories")
	defer span.End()

	out := make([]FeedCategory, 0, len(s.d.Lexicon.Categories))
	for _, c := range s.d.Lexicon.Categories {
		n := 0
		for _, it := range s.d.Lexicon.FeedItems {
			if it.Category == c {
				n++
			}
		}
		out = append(out, FeedCategory{Name: c, ItemCount: n})
	}
	return out
}

func (s *feedService) Trends(ctx context.Context, language, timeRange string) (_ *TrendingPatterns, err error) {
	_, span := startSpan(ctx, "feed.Trends")
	defer func() { endSpan(span, err) }()

	if language, err = validLanguage(language); err != nil {
		return nil, err
	}
	if timeRange == "" {
		timeRange = "7d"
	}
	if !slices.Contains(TimeRanges, timeRange) {
		return nil, invalid("time_range must be one of 24h, 7d, 30d")
	}
	return &TrendingPatterns{
		Patterns:    s.sortedPatterns(),
		TimeRange:   timeRange,
		Language:    language,
		GeneratedAt: s.d.now(),
	}, nil
}

func validateEngagement(req EngagementRequest) error {
	if !slices.Contains(model.EngagementTypes, req.EngagementType) {
		return invalid("unsupported engagement_type %q", req.EngagementType)
	}
	if utf8.RuneCountInString(req.FeedbackText) > maxEngagementFeedback {
		return invalid("feedback_text must be at most %d characters", maxEngagementFeedback)
	}
	if req.Rating != 0 && (req.Rating < 1 || req.Rating > 5) {
		return invalid("rating must be between 1 and 5")
	}
	if req.TimeSpentSeconds < 0 {
		return invalid("time_spent_seconds must not be negative")
	}
	return nil
}

func engagementStats(es []model.Engagement) EngagementStats {
	st := EngagementStats{Total: len(es), ByType: map[string]int{}}
	sum := 0
	for _, e := range es {
		st.ByType[e.EngagementType]++
		if e.Rating > 0 {
			st.Ratings++
			sum += e.Rating
		}
	}
	if st.Ratings > 0 {
		st.AverageRating = round(float64(sum)/float64(st.Ratings), 2)
	}
	return st
}

func (s *feedService) Engage(ctx context.Context, itemID string, req EngagementRequest) (_ *EngagementReceipt, err error) {
	ctx, span := startSpan(ctx, "feed.Engage")
	defer func() { endSpan(span, err) }()

	item, ok := s.find(itemID)
	if !ok {
		return nil, notFound("feed item")
	}
	if err := validateEngagement(req); err != nil {
		return nil, err
	}
	e, err := s.d.Repo.CreateEngagement(ctx, &model.Engagement{
		ItemID:           item.ID,
		UserID:           req.UserID,
		EngagementType:   req.EngagementType,
		FeedbackText:     req.FeedbackText,
		Rating:           req.Rating,
		TimeSpentSeconds: req.TimeSpentSeconds,
		CreatedAt:        s.d.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("create engagement: %w", err)
	}
	all, err := s.d.Repo.ListEngagementsByItem(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("list engagements: %w", err)
	}
	s.d.Log.Info("feed_engagement_recorded", logging.Fields{
		"engagement_id":   e.ID,
		"item_id":         item.ID,
		"engagement_type": e.EngagementType,
	})
	return &EngagementReceipt{
		EngagementID:    e.ID,
		Message:         "Thank you for your feedback!",
		Contribution:    "Your feedback helps improve content quality for all users",
		Stats:           engagementStats(all),
		Recommendations: s.related(item),
	}, nil
}
