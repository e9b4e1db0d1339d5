package model

import "time"

// Claim is a piece of content submitted for verification.
type Claim struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	URLs        []string   `json:"urls,omitempty"`
	Images      []string   `json:"images,omitempty"`
	Language    string     `json:"language"`
	SourceType  string     `json:"source_type"`
	ContentHash string     `json:"content_hash"`
	PIIRedacted bool       `json:"pii_redacted"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Evidence is a source snippet attached to a claim.
type Evidence struct {
	ID             string    `json:"id"`
	ClaimID        string    `json:"claim_id"`
	Snippet        string    `json:"snippet"`
	SourceURL      string    `json:"source_url"`
	SourceTitle    string    `json:"source_title,omitempty"`
	SourceDomain   string    `json:"source_domain,omitempty"`
	RelevanceScore float64   `json:"relevance_score"`
	EvidenceType   string    `json:"evidence_type"`
	Language       string    `json:"language,omitempty"`
	ExtractedAt    time.Time `json:"extracted_at"`
	CreatedAt      time.Time `json:"created_at"`
}
