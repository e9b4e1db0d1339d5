package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"trustnet/internal/logging"
	"trustnet/internal/model"
)

const (
	maxCommentLength         = 1000
	defaultContributionLimit = 10
	maxContributionLimit     = 50
)

var (
	feedbackTypes = []string{
		model.FeedbackRatingDisagreement,
		model.FeedbackMissingEvidence,
		model.FeedbackPoorExplanation,
		model.FeedbackFactualError,
	}
	userRatings = []string{
		model.UserRatingAccurate,
		model.UserRatingInaccurate,
		model.UserRatingPartiallyAccurate,
	}
	feedbackPoints = map[string]int{
		model.FeedbackFactualError:       15,
		model.FeedbackMissingEvidence:    10,
		model.FeedbackRatingDisagreement: 8,
		model.FeedbackPoorExplanation:    6,
	}
	followUpActions = map[string][]string{
		model.FeedbackFactualError: {
			"Factual error report forwarded to the review team",
			"The verdict will be re-examined against its evidence",
		},
		model.FeedbackMissingEvidence: {
			"Evidence suggestion queued for source verification",
		},
		model.FeedbackRatingDisagreement: {
			"Rating disagreement recorded for community review",
			"Accuracy feedback will improve future results",
		},
		model.FeedbackPoorExplanation: {
			"Explanation feedback shared with the content team",
		},
	}
)

type FeedbackRequest struct {
	UserID        string `json:"user_id,omitempty"`
	VerdictID     string `json:"verdict_id"`
	UserRating    string `json:"user_rating"`
	FeedbackType  string `json:"feedback_type"`
	Comments      string `json:"comments,omitempty"`
	UserExpertise string `json:"user_expertise,omitempty"`
}

type FeedbackReceipt struct {
	FeedbackID      string   `json:"feedback_id"`
	Status          string   `json:"status"`
	PointsAwarded   int      `json:"points_awarded"`
	FollowUpActions []string `json:"follow_up_actions"`
	Message         string   `json:"message"`
}

type UserContribution struct {
	ContributionID       string    `json:"contribution_id"`
	ContributionType     string    `json:"contribution_type"`
	ContentDescription   string    `json:"content_description"`
	VerdictID            string    `json:"verdict_id"`
	FeedbackType         string    `json:"feedback_type"`
	PointsAwarded        int       `json:"points_awarded"`
	ImpactScore          float64   `json:"impact_score"`
	ContributionDate     time.Time `json:"contribution_date"`
	ContributionCategory string    `json:"contribution_category"`
}

type Milestone struct {
	Milestone    string `json:"milestone"`
	PointsNeeded int    `json:"points_needed"`
}

type ContributionStats struct {
	TotalContributions  int            `json:"total_contributions"`
	ByType              map[string]int `json:"by_type"`
	DetailedComments    int            `json:"detailed_comments"`
	ExpertContributions int            `json:"expert_contributions"`
}

// ReputationScore is derived from every feedback a user has submitted.
type ReputationScore struct {
	UserID             string            `json:"user_id"`
	ReputationScore    int               `json:"reputation_score"`
	TrustLevel         string            `json:"trust_level"`
	ContributionStats  ContributionStats `json:"contribution_stats"`
	NextMilestone      *Milestone        `json:"next_milestone,omitempty"`
	LastContributionAt time.Time         `json:"last_contribution_at"`
}

// trustLevels are ordered by the minimum reputation they require.
var trustLevels = []struct {
	name string
	min  int
}{
	{"New Contributor", 0},
	{"Contributor", 50},
	{"Trusted Contributor", 150},
	{"Advanced Contributor", 400},
}

// FeedbackService collects user assessments of published verdicts.
type FeedbackService interface {
	Submit(ctx context.Context, req FeedbackRequest) (*FeedbackReceipt, error)
	ListByVerdict(ctx context.Context, verdictID string) ([]model.Feedback, error)
	// Contributions returns the user's most recent feedback, newest first.
	Contributions(ctx context.Context, userID string, limit int) ([]UserContribution, error)
	Reputation(ctx context.Context, userID string) (*ReputationScore, error)
}

type feedbackService struct {
	d Deps
}

func NewFeedbackService(d Deps) FeedbackService {
	d.Log = d.Log.With("feedback")
	return &feedbackService{d: d}
}

func validateFeedback(req *FeedbackRequest) error {
	if req.VerdictID == "" {
		return invalid("verdict_id is required")
	}
	if !slices.Contains(userRatings, req.UserRating) {
		return invalid("user_rating must be one of accurate, inaccurate, partially_accurate")
	}
	if !slices.Contains(feedbackTypes, req.FeedbackType) {
		return invalid("unsupported feedback_type %q", req.FeedbackType)
	}
	if utf8.RuneCountInString(req.Comments) > maxCommentLength {
		return invalid("comments must be at most %d characters", maxCommentLength)
	}
	switch req.UserExpertise {
	case "":
		req.UserExpertise = model.ExpertiseGeneralPublic
	case model.ExpertiseExpert, model.ExpertiseKnowledgeable, model.ExpertiseGeneralPublic:
	default:
		return invalid("unsupported user_expertise %q", req.UserExpertise)
	}
	return nil
}

// feedbackScore awards points per type, with bonuses for detailed comments and declared expertise.
func feedbackScore(req FeedbackRequest) int {
	points := feedbackPoints[req.FeedbackType]
	if utf8.RuneCountInString(req.Comments) > 100 {
		points += 5
	}
	if req.UserExpertise != model.ExpertiseGeneralPublic {
		points += 3
	}
	return points
}

func (s *feedbackService) Submit(ctx context.Context, req FeedbackRequest) (_ *FeedbackReceipt, err error) {
	ctx, span := startSpan(ctx, "feedback.Submit")
	defer func() { endSpan(span, err) }()

	start := time.Now()
	if err := validateFeedback(&req); err != nil {
		return nil, err
	}
	v, err := s.d.Repo.GetVerdict(ctx, req.VerdictID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, notFound("verdict")
	}

	points := feedbackScore(req)
	f, err := s.d.Repo.CreateFeedback(ctx, &model.Feedback{
		UserID:           req.UserID,
		VerdictID:        req.VerdictID,
		UserRating:       req.UserRating,
		FeedbackType:     req.FeedbackType,
		Comments:         req.Comments,
		UserExpertise:    req.UserExpertise,
		PointsAwarded:    points,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		CreatedAt:        s.d.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("create feedback: %w", err)
	}

	s.d.publish(ctx, s.d.Topics.Verdicts, map[string]any{
		"verdict_id":    v.ID,
		"claim_id":      v.ClaimID,
		"feedback_id":   f.ID,
		"feedback_type": f.FeedbackType,
		"user_rating":   f.UserRating,
	}, map[string]string{"source": "feedback"})
	s.d.Log.Info("feedback_received", logging.Fields{
		"feedback_id":   f.ID,
		"verdict_id":    v.ID,
		"feedback_type": f.FeedbackType,
	})

	return &FeedbackReceipt{
		FeedbackID:      f.ID,
		Status:          "received",
		PointsAwarded:   points,
		FollowUpActions: followUpActions[req.FeedbackType],
		Message:         "Thank you for your feedback!",
	}, nil
}

func (s *feedbackService) ListByVerdict(ctx context.Context, verdictID string) (_ []model.Feedback, err error) {
	ctx, span := startSpan(ctx, "feedback.ListByVerdict")
	defer func() { endSpan(span, err) }()

	if verdictID == "" {
		return nil, invalid("verdict_id is required")
	}
	out, err := s.d.Repo.ListFeedbackByVerdict(ctx, verdictID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Feedback{}
	}
	return out, nil
}

func (s *feedbackService) Contributions(ctx context.Context, userID string, limit int) (_ []UserContribution, err error) {
	ctx, span := startSpan(ctx, "feedback.Contributions")
	defer func() { endSpan(span, err) }()

	if userID == "" {
		return nil, invalid("user_id is required")
	}
	switch {
	case limit == 0:
		limit = defaultContributionLimit
	case limit < 0 || limit > maxContributionLimit:
		return nil, invalid("limit must be between 1 and %d", maxContributionLimit)
	}
	fbs, err := s.d.Repo.ListFeedbackByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]UserContribution, 0, min(limit, len(fbs)))
	for _, f := range slices.Backward(fbs) {
		if len(out) == limit {
			break
		}
		out = append(out, UserContribution{
			ContributionID:       f.ID,
			ContributionType:     "verification_feedback",
			ContentDescription:   fmt.Sprintf("Reported %s on verdict %s", strings.ReplaceAll(f.FeedbackType, "_", " "), f.VerdictID),
			VerdictID:            f.VerdictID,
			FeedbackType:         f.FeedbackType,
			PointsAwarded:        f.PointsAwarded,
			ImpactScore:          round(clamp01(float64(f.PointsAwarded)/20), 2),
			ContributionDate:     f.CreatedAt,
			ContributionCategory: "quality_improvement",
		})
	}
	return out, nil
}

func (s *feedbackService) Reputation(ctx context.Context, userID string) (_ *ReputationScore, err error) {
	ctx, span := startSpan(ctx, "feedback.Reputation")
	defer func() { endSpan(span, err) }()

	if userID == "" {
		return nil, invalid("user_id is required")
	}
	fbs, err := s.d.Repo.ListFeedbackByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(fbs) == 0 {
		return nil, notFound("user reputation")
	}

	rep := &ReputationScore{
		UserID:            userID,
		ContributionStats: ContributionStats{TotalContributions: len(fbs), ByType: map[string]int{}},
	}
	for _, f := range fbs {
		rep.ReputationScore += f.PointsAwarded
		rep.ContributionStats.ByType[f.FeedbackType]++
		if utf8.RuneCountInString(f.Comments) > 100 {
			rep.ContributionStats.DetailedComments++
		}
		if f.UserExpertise != "" && f.UserExpertise != model.ExpertiseGeneralPublic {
			rep.ContributionStats.ExpertContributions++
		}
		if f.CreatedAt.After(rep.LastContributionAt) {
			rep.LastContributionAt = f.CreatedAt
		}
	}
	for _, lvl := range trustLevels {
		if rep.ReputationScore < lvl.min {
			rep.NextMilestone = &Milestone{Milestone: lvl.name, PointsNeeded: lvl.min - rep.ReputationScore}
			break
		}
		rep.TrustLevel = lvl.name
	}
	return rep, nil
}
