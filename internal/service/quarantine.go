package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"trustnet/internal/lexicon"
	"trustnet/internal/logging"
	"trustnet/internal/model"
)

const (
	maxReasoningLength = 500
	maxSimilarCases    = 5
)

// QuarantineDetails is everything a reviewer needs to judge a quarantined claim.
type QuarantineDetails struct {
	Claim    *model.Claim            `json:"claim"`
	Verdict  *model.Verdict          `json:"verdict"`
	Evidence []model.Evidence        `json:"evidence"`
	Record   *model.QuarantineRecord `json:"record,omitempty"`
}

type QuarantineItem struct {
	VerificationID     string                     `json:"verification_id"`
	QuarantineItem     QuarantineDetails          `json:"quarantine_item"`
	UserActionRequired bool                       `json:"user_action_required"`
	VerdictOptions     []string                   `json:"verdict_options"`
	EducationalContext lexicon.EducationalContext `json:"educational_context"`
}

// QuarantineOutcome reports the effect of a reviewer's verdict.
type QuarantineOutcome struct {
	VerdictID             string  `json:"verdict_id"`
	Message               string  `json:"message"`
	ContributionImpact    string  `json:"contribution_impact"`
	QuarantineResolved    bool    `json:"quarantine_resolved"`
	ConsensusReached      bool    `json:"consensus_reached"`
	ConsensusScore        float64 `json:"consensus_score"`
	ConfidenceImprovement float64 `json:"confidence_improvement"`
}

type Consensus struct {
	VerificationID      string         `json:"verification_id"`
	TotalReviews        int            `json:"total_reviews"`
	ConsensusVerdict    string         `json:"consensus_verdict"`
	AgreementPercentage float64        `json:"agreement_percentage"`
	ConsensusScore      float64        `json:"consensus_score"`
	ReviewerExpertise   map[string]int `json:"reviewer_expertise"`
	GeneratedAt         time.Time      `json:"generated_at"`
}

// SimilarCase is a reviewed quarantine case sharing manipulation techniques with another claim.
type SimilarCase struct {
	CaseID           string     `json:"case_id"`
	Claim            string     `json:"claim"`
	Verdict          string     `json:"verdict"`
	AutomatedVerdict string     `json:"automated_verdict"`
	Confidence       float64    `json:"confidence"`
	ResolutionMethod string     `json:"resolution_method"`
	SimilarityScore  float64    `json:"similarity_score"`
	SharedTechniques []string   `json:"shared_techniques"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
}

type PatternInsights struct {
	CommonVerdicts    map[string]int `json:"common_verdicts"`
	AverageConfidence float64        `json:"average_confidence"`
	ResolutionMethods map[string]int `json:"resolution_methods"`
}

type SimilarCases struct {
	SimilarCases     []SimilarCase   `json:"similar_cases"`
	EducationalValue string          `json:"educational_value"`
	PatternInsights  PatternInsights `json:"pattern_insights"`
}

// QuarantineStats summarizes the stored quarantine records.
type QuarantineStats struct {
	TotalCases                   int            `json:"total_quarantine_cases"`
	ResolvedCases                int            `json:"resolved_cases"`
	PendingCases                 int            `json:"pending_cases"`
	ResolutionRate               float64        `json:"resolution_rate"`
	AverageConfidenceImprovement float64        `json:"average_confidence_improvement"`
	VerdictBreakdown             map[string]int `json:"verdict_breakdown"`
	ReviewerExpertise            map[string]int `json:"reviewer_expertise"`
	GeneratedAt                  time.Time      `json:"generated_at"`
}

// QuarantineService manages human review of low-confidence verdicts.
type QuarantineService interface {
	Item(ctx context.Context, id string) (*QuarantineItem, error)
	// SubmitVerdict records a reviewer's judgement and folds it into the verdict.
	SubmitVerdict(ctx context.Context, id string, uv model.UserVerdict) (*QuarantineOutcome, error)
	Consensus(ctx context.Context, id string) (*Consensus, error)
	// Similar returns reviewed cases ranked by the overlap of their manipulation techniques with the claim's.
	Similar(ctx context.Context, id string) (*SimilarCases, error)
	CommunityStats(ctx context.Context) (*QuarantineStats, error)
}

type quarantineService struct {
	d Deps
}

func NewQuarantineService(d Deps) QuarantineService {
	d.Log = d.Log.With("quarantine")
	return &quarantineService{d: d}
}

// contextKey maps an automated rating to the educational context shown to reviewers.
func contextKey(rating string) string {
	switch rating {
	case model.RatingFalse:
		return "misleading"
	case model.RatingMixture:
		return "disputed"
	case model.RatingInsufficientEvidence, model.RatingUnproven:
		return "unverified"
	}
	return rating
}

// consensusScore averages the automated confidence with the reviewer's 1..5 confidence scaled to [0,1].
func consensusScore(verdictConfidence float64, userConfidence int) float64 {
	return round((verdictConfidence+float64(userConfidence)/5)/2, 4)
}

func (s *quarantineService) load(ctx context.Context, id string) (*model.Claim, *model.Verdict, error) {
	claim, err := loadClaim(ctx, s.d, id)
	if err != nil {
		return nil, nil, err
	}
	v, err := s.d.Repo.GetVerdictByClaim(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if v == nil {
		return nil, nil, notFound("verdict")
	}
	return claim, v, nil
}

func (s *quarantineService) record(ctx context.Context, id string) (*model.QuarantineRecord, error) {
	var rec model.QuarantineRecord
	ok, err := s.d.Repo.GetAnalysis(ctx, quarantineID(id), &rec)
	if err != nil || !ok {
		return nil, err
	}
	return &rec, nil
}

func (s *quarantineService) Item(ctx context.Context, id string) (_ *QuarantineItem, err error) {
	ctx, span := startSpan(ctx, "quarantine.Item")
	defer func() { endSpan(span, err) }()

	claim, v, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	evidence, err := loadEvidence(ctx, s.d, id)
	if err != nil {
		return nil, err
	}
	rec, err := s.record(ctx, id)
	if err != nil {
		return nil, err
	}
	return &QuarantineItem{
		VerificationID: id,
		QuarantineItem: QuarantineDetails{
			Claim:    claim,
			Verdict:  v,
			Evidence: evidence,
			Record:   rec,
		},
		UserActionRequired: rec == nil || rec.Status != model.StatusReviewed,
		VerdictOptions:     model.UserVerdictOptions,
		EducationalContext: s.d.Lexicon.Context(contextKey(v.Rating)),
	}, nil
}

func validateUserVerdict(uv *model.UserVerdict) error {
	if !slices.Contains(model.UserVerdictOptions, uv.UserVerdict) {
		return invalid("user_verdict must be one of legit, misleading, needs_more_info")
	}
	if uv.Confidence < 1 || uv.Confidence > 5 {
		return invalid("confidence must be between 1 and 5")
	}
	if len([]rune(uv.Reasoning)) > maxReasoningLength {
		return invalid("reasoning must be at most %d characters", maxReasoningLength)
	}
	switch uv.UserExpertise {
	case "":
		uv.UserExpertise = model.ExpertiseGeneralPublic
	case model.ExpertiseExpert, model.ExpertiseKnowledgeable, model.ExpertiseGeneralPublic:
	default:
		return invalid("unsupported user_expertise %q", uv.UserExpertise)
	}
	return nil
}

func (s *quarantineService) SubmitVerdict(ctx context.Context, id string, uv model.UserVerdict) (_ *QuarantineOutcome, err error) {
	ctx, span := startSpan(ctx, "quarantine.SubmitVerdict")
	defer func() { endSpan(span, err) }()

	if err := validateUserVerdict(&uv); err != nil {
		return nil, err
	}
	_, v, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.ConfidenceScore >= s.d.Rules.QuarantineThreshold {
		return nil, ErrNotQuarantined
	}

	now := s.d.now()
	rec, err := s.record(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = &model.QuarantineRecord{
			RecordType:       model.RecordTypeQuarantine,
			ClaimID:          id,
			VerdictID:        v.ID,
			Reason:           "low_confidence",
			ConfidenceScore:  v.ConfidenceScore,
			AutomatedVerdict: v.Rating,
			Techniques:       indicatorTypes(v),
			CreatedAt:        now,
		}
	}
	rec.Status = model.StatusReviewed
	rec.UserVerdict = uv.UserVerdict
	rec.UserConfidence = uv.Confidence
	rec.UserReasoning = uv.Reasoning
	rec.UserExpertise = uv.UserExpertise
	rec.ReviewedAt = &now
	rec.UpdatedAt = now
	if err := s.d.Repo.StoreAnalysis(ctx, quarantineID(id), rec); err != nil {
		return nil, fmt.Errorf("store review: %w", err)
	}

	score := consensusScore(v.ConfidenceScore, uv.Confidence)
	if err := s.d.Repo.UpdateVerdict(ctx, v.ID, map[string]any{
		"human_verdict":    uv.UserVerdict,
		"human_confidence": uv.Confidence,
		"human_reasoning":  uv.Reasoning,
		"consensus_score":  score,
		"updated_by_human": true,
	}); err != nil {
		return nil, fmt.Errorf("update verdict: %w", err)
	}
	if err := s.d.Cache.InvalidateClaim(ctx, id); err != nil {
		return nil, err
	}

	resolved := uv.UserVerdict != model.UserVerdictNeedsMoreInfo
	s.d.publish(ctx, s.d.Topics.Verdicts, map[string]any{
		"claim_id":        id,
		"verdict_id":      v.ID,
		"human_verdict":   uv.UserVerdict,
		"consensus_score": score,
	}, map[string]string{"source": "quarantine"})
	s.d.Log.Info("quarantine_reviewed", logging.Fields{
		"claim_id":       id,
		"verdict_id":     v.ID,
		"user_verdict":   uv.UserVerdict,
		"user_expertise": uv.UserExpertise,
	})

	impact := "Your review has been recorded and will help future reviewers."
	if resolved {
		impact = fmt.Sprintf("Your review resolved this item as %q.", uv.UserVerdict)
	}
	return &QuarantineOutcome{
		VerdictID:             v.ID,
		Message:               "Thank you for your contribution to community verification!",
		ContributionImpact:    impact,
		QuarantineResolved:    resolved,
		ConsensusReached:      resolved,
		ConsensusScore:        score,
		ConfidenceImprovement: round(score-v.ConfidenceScore, 4),
	}, nil
}

func (s *quarantineService) Consensus(ctx context.Context, id string) (_ *Consensus, err error) {
	ctx, span := startSpan(ctx, "quarantine.Consensus")
	defer func() { endSpan(span, err) }()

	if id == "" {
		return nil, invalid("id is required")
	}
	rec, err := s.record(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.Status != model.StatusReviewed {
		return nil, notFound("consensus data")
	}
	return &Consensus{
		VerificationID:      id,
		TotalReviews:        1,
		ConsensusVerdict:    rec.UserVerdict,
		AgreementPercentage: 100,
		ConsensusScore:      consensusScore(rec.ConfidenceScore, rec.UserConfidence),
		ReviewerExpertise:   map[string]int{rec.UserExpertise: 1},
		GeneratedAt:         s.d.now(),
	}, nil
}

// techniqueOverlap returns the shared ids of a and b and their Jaccard similarity.
func techniqueOverlap(a, b []string) ([]string, float64) {
	union := map[string]bool{}
	for _, t := range a {
		union[t] = true
	}
	shared := []string{}
	for _, t := range b {
		if union[t] && !slices.Contains(shared, t) {
			shared = append(shared, t)
		}
		union[t] = true
	}
	if len(union) == 0 {
		return shared, 0
	}
	return shared, float64(len(shared)) / float64(len(union))
}

func (s *quarantineService) Similar(ctx context.Context, id string) (_ *SimilarCases, err error) {
	ctx, span := startSpan(ctx, "quarantine.Similar")
	defer func() { endSpan(span, err) }()

	_, v, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	records, err := s.d.Repo.ListQuarantineRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list quarantine records: %w", err)
	}

	techniques := indicatorTypes(v)
	cases := []SimilarCase{}
	for _, rec := range records {
		if rec.ClaimID == id || rec.Status != model.StatusReviewed {
			continue
		}
		shared, score := techniqueOverlap(techniques, rec.Techniques)
		if score == 0 {
			continue
		}
		c := SimilarCase{
			CaseID:           rec.ClaimID,
			Verdict:          rec.UserVerdict,
			AutomatedVerdict: rec.AutomatedVerdict,
			Confidence:       consensusScore(rec.ConfidenceScore, rec.UserConfidence),
			ResolutionMethod: "community_review",
			SimilarityScore:  round(score, 4),
			SharedTechniques: shared,
			ResolvedAt:       rec.ReviewedAt,
		}
		claim, err := s.d.Repo.GetClaim(ctx, rec.ClaimID)
		if err != nil {
			return nil, err
		}
		if claim != nil {
			c.Claim = preview(claim.Text, 120)
		}
		cases = append(cases, c)
	}
	slices.SortStableFunc(cases, func(a, b SimilarCase) int {
		return cmp.Compare(b.SimilarityScore, a.SimilarityScore)
	})
	if len(cases) > maxSimilarCases {
		cases = cases[:maxSimilarCases]
	}

	return &SimilarCases{
		SimilarCases:     cases,
		EducationalValue: "Learn from how the community evaluated similar content",
		PatternInsights:  patternInsights(cases),
	}, nil
}

func patternInsights(cases []SimilarCase) PatternInsights {
	out := PatternInsights{CommonVerdicts: map[string]int{}, ResolutionMethods: map[string]int{}}
	if len(cases) == 0 {
		return out
	}
	var sum float64
	for _, c := range cases {
		out.CommonVerdicts[c.Verdict]++
		out.ResolutionMethods[c.ResolutionMethod]++
		sum += c.Confidence
	}
	out.AverageConfidence = round(sum/float64(len(cases)), 4)
	return out
}

func (s *quarantineService) CommunityStats(ctx context.Context) (_ *QuarantineStats, err error) {
	ctx, span := startSpan(ctx, "quarantine.CommunityStats")
	defer func() { endSpan(span, err) }()

	records, err := s.d.Repo.ListQuarantineRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list quarantine records: %w", err)
	}
	st := &QuarantineStats{
		TotalCases:        len(records),
		VerdictBreakdown:  map[string]int{},
		ReviewerExpertise: map[string]int{},
		GeneratedAt:       s.d.now(),
	}
	var improvement float64
	for _, rec := range records {
		if rec.Status != model.StatusReviewed {
			st.PendingCases++
			continue
		}
		st.ResolvedCases++
		st.VerdictBreakdown[rec.UserVerdict]++
		st.ReviewerExpertise[rec.UserExpertise]++
		improvement += consensusScore(rec.ConfidenceScore, rec.UserConfidence) - rec.ConfidenceScore
	}
	if st.TotalCases > 0 {
		st.ResolutionRate = round(float64(st.ResolvedCases)/float64(st.TotalCases), 4)
	}
	if st.ResolvedCases > 0 {
		st.AverageConfidenceImprovement = round(improvement/float64(st.ResolvedCases), 4)
	}
	return st, nil
}
