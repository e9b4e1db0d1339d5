package model

import "time"

// ManipulationIndicator is a detected persuasion technique attached to a verdict.
type ManipulationIndicator struct {
	Type        string  `json:"type"`
	Severity    string  `json:"severity"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

type DetectionScores struct {
	MisinformationProbability float64 `json:"misinformation_probability"`
	ToxicityScore             float64 `json:"toxicity_score"`
	SpamScore                 float64 `json:"spam_score"`
	ManipulationScore         float64 `json:"manipulation_score"`
}

// Verdict is the outcome of analysing a claim. Human review fields are set
// once a quarantine reviewer has weighed in.
type Verdict struct {
	ID                     string                  `json:"id"`
	ClaimID                string                  `json:"claim_id"`
	Rating                 string                  `json:"rating"`
	ConfidenceScore        float64                 `json:"confidence_score"`
	Rationale              string                  `json:"rationale"`
	EvidenceIDs            []string                `json:"evidence_ids"`
	FactCheckMatches       []map[string]any        `json:"fact_check_matches"`
	EducationTips          []string                `json:"education_tips"`
	ManipulationIndicators []ManipulationIndicator `json:"manipulation_indicators"`
	DetectionScores        *DetectionScores        `json:"detection_scores,omitempty"`
	ModelVersion           string                  `json:"model_version"`
	ProcessingTimeMs       int64                   `json:"processing_time_ms"`

	HumanVerdict    string   `json:"human_verdict,omitempty"`
	HumanConfidence int      `json:"human_confidence,omitempty"`
	HumanReasoning  string   `json:"human_reasoning,omitempty"`
	ConsensusScore  *float64 `json:"consensus_score,omitempty"`
	UpdatedByHuman  bool     `json:"updated_by_human"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// UserVerdict is a quarantine reviewer's judgement. Confidence is on a 1..5 scale.
type UserVerdict struct {
	UserVerdict   string `json:"user_verdict"`
	Confidence    int    `json:"confidence"`
	Reasoning     string `json:"reasoning,omitempty"`
	UserExpertise string `json:"user_expertise"`
}

// RecordTypeQuarantine marks quarantine records among the stored analyses.
const RecordTypeQuarantine = "quarantine"

// QuarantineRecord tracks the human review of a low-confidence verdict.
// Techniques holds the ids of the manipulation techniques found in the claim.
type QuarantineRecord struct {
	RecordType       string     `json:"record_type"`
	ClaimID          string     `json:"claim_id"`
	VerdictID        string     `json:"verdict_id"`
	Reason           string     `json:"reason"`
	ConfidenceScore  float64    `json:"confidence_score"`
	AutomatedVerdict string     `json:"automated_verdict"`
	Techniques       []string   `json:"techniques,omitempty"`
	Status           string     `json:"status"`
	UserVerdict      string     `json:"user_verdict,omitempty"`
	UserConfidence   int        `json:"user_confidence,omitempty"`
	UserReasoning    string     `json:"user_reasoning,omitempty"`
	UserExpertise    string     `json:"user_expertise,omitempty"`
	ReviewedAt       *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Feedback is a user's assessment of a published verdict.
type Feedback struct {
	ID               string    `json:"id"`
	VerdictID        string    `json:"verdict_id"`
	UserID           string    `json:"user_id,omitempty"`
	UserRating       string    `json:"user_rating"`
	FeedbackType     string    `json:"feedback_type"`
	Comments         string    `json:"comments,omitempty"`
	UserExpertise    string    `json:"user_expertise"`
	PointsAwarded    int       `json:"points_awarded"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	CreatedAt        time.Time `json:"created_at"`
}
