// Package model contains the domain records exchanged between the HTTP,
// service and repository layers. The JSON tags are the stored field names.
package model

// Verdict ratings.
const (
	RatingTrue                 = "True"
	RatingFalse                = "False"
	RatingMixture              = "Mixture"
	RatingUnproven             = "Unproven"
	RatingInsufficientEvidence = "Insufficient_Evidence"
)

// Severity levels for manipulation indicators.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Processing priorities.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// Evidence classification.
const (
	EvidenceSupporting = "supporting"
	EvidenceRefuting   = "refuting"
	EvidenceContextual = "contextual"
	EvidenceNeutral    = "neutral"
)

// Feedback types and user ratings.
const (
	FeedbackRatingDisagreement = "rating_disagreement"
	FeedbackMissingEvidence    = "missing_evidence"
	FeedbackPoorExplanation    = "poor_explanation"
	FeedbackFactualError       = "factual_error"

	UserRatingAccurate          = "accurate"
	UserRatingInaccurate        = "inaccurate"
	UserRatingPartiallyAccurate = "partially_accurate"
)

// User expertise levels.
const (
	ExpertiseExpert        = "expert"
	ExpertiseKnowledgeable = "knowledgeable"
	ExpertiseGeneralPublic = "general_public"
)

// Quarantine reviewer verdicts.
const (
	UserVerdictLegit         = "legit"
	UserVerdictMisleading    = "misleading"
	UserVerdictNeedsMoreInfo = "needs_more_info"
)

// UserVerdictOptions lists the verdicts a quarantine reviewer may choose from.
var UserVerdictOptions = []string{UserVerdictLegit, UserVerdictMisleading, UserVerdictNeedsMoreInfo}

// Languages accepted on claims and feeds.
var Languages = []string{"hi", "bn", "te", "mr", "ta", "kn", "ml", "gu", "or", "pa", "ur", "en"}

// SourceTypes accepted on claims.
var SourceTypes = []string{"social_media", "news", "messaging", "email", "web"}

// FeedCategories are the topical groupings of the educational feed.
var FeedCategories = []string{"health", "politics", "finance", "social"}
