package model

import "time"

// ManipulationTechnique is one technique found by the detector.
type ManipulationTechnique struct {
	TechniqueID     string   `json:"technique_id"`
	TechniqueName   string   `json:"technique_name"`
	ConfidenceScore float64  `json:"confidence_score"`
	Description     string   `json:"description"`
	Indicators      []string `json:"indicators"`
	Severity        string   `json:"severity"`
}

// QuickFindings are the surface features gathered by quick analysis.
type QuickFindings struct {
	ContentLength       int  `json:"content_length"`
	EmotionalIndicators bool `json:"emotional_indicators"`
	SourceMentions      int  `json:"source_mentions"`
	UrgencyLanguage     bool `json:"urgency_language"`
}

// QuickAnalysis is the fast, keyword-based assessment of a piece of content.
type QuickAnalysis struct {
	ContentHash             string                  `json:"content_hash"`
	QuickFindings           QuickFindings           `json:"quick_findings"`
	ManipulationTechniques  []ManipulationTechnique `json:"manipulation_techniques"`
	TrustScore              float64                 `json:"trust_score"`
	ConfidenceScore         float64                 `json:"confidence_score"`
	RedFlags                []string                `json:"red_flags"`
	VerificationSuggestions []string                `json:"verification_suggestions"`
	AnalyzedAt              time.Time               `json:"analyzed_at"`
}

// TrustScore is the cached credibility score of a content hash.
type TrustScore struct {
	ContentHash       string             `json:"content_hash"`
	OverallScore      float64            `json:"overall_score"`
	Components        map[string]float64 `json:"components"`
	Confidence        float64            `json:"confidence"`
	Factors           []string           `json:"factors"`
	CalculationMethod string             `json:"calculation_method"`
	GeneratedAt       time.Time          `json:"generated_at"`
}

// AnalysisRecord is the stored state of a standalone or batch analysis.
type AnalysisRecord struct {
	AnalysisID   string          `json:"analysis_id"`
	ContentHash  string          `json:"content_hash,omitempty"`
	Content      string          `json:"content,omitempty"`
	AnalysisType string          `json:"analysis_type,omitempty"`
	Priority     string          `json:"priority,omitempty"`
	Status       string          `json:"status"`
	Total        int             `json:"total,omitempty"`
	Completed    int             `json:"completed,omitempty"`
	Results      []QuickAnalysis `json:"results,omitempty"`
	Error        string          `json:"error,omitempty"`
	FailedAt     *time.Time      `json:"failed_at,omitempty"`
	Metadata     map[string]any  `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    *time.Time      `json:"updated_at,omitempty"`
}

// Analysis statuses.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusPending    = "pending"
	StatusReviewed   = "reviewed"
)
