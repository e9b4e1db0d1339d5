package model

import "time"

// FeedItem is an entry of the educational feed.
type FeedItem struct {
	ID                string         `json:"id" yaml:"id"`
	Title             string         `json:"title" yaml:"title"`
	Type              string         `json:"type" yaml:"type"`
	Summary           string         `json:"summary" yaml:"summary"`
	OriginalClaim     string         `json:"original_claim,omitempty" yaml:"original_claim"`
	Verdict           string         `json:"verdict,omitempty" yaml:"verdict"`
	EvidenceSummary   string         `json:"evidence_summary,omitempty" yaml:"evidence_summary"`
	LearningPoints    []string       `json:"learning_points" yaml:"learning_points"`
	VisualElements    map[string]any `json:"visual_elements,omitempty" yaml:"visual_elements"`
	EngagementScore   float64        `json:"engagement_score" yaml:"engagement_score"`
	PublishedAt       time.Time      `json:"published_at" yaml:"published_at"`
	SourceAttribution string         `json:"source_attribution,omitempty" yaml:"source_attribution"`
	Category          string         `json:"category,omitempty" yaml:"category"`
	Language          string         `json:"language,omitempty" yaml:"language"`
}

// TrendingPattern is an aggregated misinformation pattern shown alongside the feed.
type TrendingPattern struct {
	Pattern     string   `json:"pattern" yaml:"pattern"`
	Category    string   `json:"category" yaml:"category"`
	Frequency   int      `json:"frequency" yaml:"frequency"`
	TrendScore  float64  `json:"trend_score" yaml:"trend_score"`
	Description string   `json:"description" yaml:"description"`
	Examples    []string `json:"examples" yaml:"examples"`
}

// Engagement is one user interaction with a feed item.
type Engagement struct {
	ID               string    `json:"id"`
	ItemID           string    `json:"item_id"`
	UserID           string    `json:"user_id,omitempty"`
	EngagementType   string    `json:"engagement_type"`
	FeedbackText     string    `json:"feedback_text,omitempty"`
	Rating           int       `json:"rating,omitempty"`
	TimeSpentSeconds int       `json:"time_spent_seconds,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// EngagementTypes accepted on feed items.
var EngagementTypes = []string{
	"like", "dislike", "share", "save", "helpful", "not_helpful",
	"confusing", "learned_something", "share_worthy",
}
