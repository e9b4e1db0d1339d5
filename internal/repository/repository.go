// Package repository contains data access abstractions for the verification records.
// Implementations live in subpackages (e.g. documents) and contain no business logic.
// Lookups of absent records return (nil, nil); errors are reserved for storage failures.
package repository

import (
	"context"

	"trustnet/internal/model"
)

type ClaimRepository interface {
	// CreateClaim stores c, assigning an ID and CreatedAt when they are empty.
	CreateClaim(ctx context.Context, c *model.Claim) (*model.Claim, error)
	GetClaim(ctx context.Context, id string) (*model.Claim, error)
	// UpdateClaim merges fields into the claim and stamps updated_at.
	UpdateClaim(ctx context.Context, id string, fields map[string]any) error
}

type EvidenceRepository interface {
	CreateEvidence(ctx context.Context, e *model.Evidence) (*model.Evidence, error)
	// ListEvidenceByClaim returns the claim's evidence in insertion order.
	ListEvidenceByClaim(ctx context.Context, claimID string) ([]model.Evidence, error)
}

type VerdictRepository interface {
	CreateVerdict(ctx context.Context, v *model.Verdict) (*model.Verdict, error)
	GetVerdict(ctx context.Context, id string) (*model.Verdict, error)
	// GetVerdictByClaim returns the first verdict stored for claimID.
	GetVerdictByClaim(ctx context.Context, claimID string) (*model.Verdict, error)
	UpdateVerdict(ctx context.Context, id string, fields map[string]any) error
}

type FeedbackRepository interface {
	CreateFeedback(ctx context.Context, f *model.Feedback) (*model.Feedback, error)
	ListFeedbackByVerdict(ctx context.Context, verdictID string) ([]model.Feedback, error)
	// ListFeedbackByUser returns the user's feedback in insertion order.
	ListFeedbackByUser(ctx context.Context, userID string) ([]model.Feedback, error)
}

type EngagementRepository interface {
	CreateEngagement(ctx context.Context, e *model.Engagement) (*model.Engagement, error)
	ListEngagementsByItem(ctx context.Context, itemID string) ([]model.Engagement, error)
}

// AnalysisRepository stores free-form records (analysis runs, batch progress,
// quarantine reviews) keyed by caller-chosen ids.
type AnalysisRepository interface {
	StoreAnalysis(ctx context.Context, id string, record any) error
	// GetAnalysis decodes the record into dst and reports whether it exists.
	GetAnalysis(ctx context.Context, id string, dst any) (bool, error)
	UpdateAnalysis(ctx context.Context, id string, fields map[string]any) error
	// FindAnalysisByContentHash decodes the first record whose content_hash matches.
	FindAnalysisByContentHash(ctx context.Context, hash string, dst any) (bool, error)
	// ListQuarantineRecords returns every stored quarantine record in insertion order.
	ListQuarantineRecords(ctx context.Context) ([]model.QuarantineRecord, error)
}

// Repository is the full data access surface used by the services.
type Repository interface {
	ClaimRepository
	EvidenceRepository
	VerdictRepository
	FeedbackRepository
	EngagementRepository
	AnalysisRepository
}
