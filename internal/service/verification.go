package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"trustnet/internal/cache"
	"trustnet/internal/logging"
	"trustnet/internal/model"
	"trustnet/internal/storage"
	"trustnet/internal/worker"
)

// Verification statuses as reported to clients.
const (
	VerificationCompleted   = "completed"
	VerificationAnalyzing   = "analyzing"
	VerificationNeedsReview = "needs_review"
	VerificationProcessing  = "processing"
)

const maxImages = 3

type VerifyRequest struct {
	Text       string   `json:"text"`
	URLs       []string `json:"urls,omitempty"`
	Images     []string `json:"images,omitempty"`
	Language   string   `json:"language,omitempty"`
	SourceType string   `json:"source_type,omitempty"`
	Priority   string   `json:"priority,omitempty"`
}

// VerificationResult is the state of a verification. Which optional fields are
// set depends on Status: completed carries the card, analyzing the check URL,
// needs_review the quarantine URL, processing the stored claim.
type VerificationResult struct {
	VerificationID string `json:"verification_id"`
	Status         string `json:"status"`

	VerificationCard *VerificationCard `json:"verification_card,omitempty"`
	ProcessingTime   *int64            `json:"processing_time,omitempty"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
	Note             string            `json:"note,omitempty"`

	Message             string     `json:"message,omitempty"`
	TextPreview         string     `json:"text_preview,omitempty"`
	CheckURL            string     `json:"check_url,omitempty"`
	EstimatedCompletion *time.Time `json:"estimated_completion,omitempty"`

	QuarantineURL        string   `json:"quarantine_url,omitempty"`
	ConfidenceScore      *float64 `json:"confidence_score,omitempty"`
	SuspiciousIndicators []string `json:"suspicious_indicators,omitempty"`

	Claim    *model.Claim     `json:"claim,omitempty"`
	Evidence []model.Evidence `json:"evidence,omitempty"`
}

// ReportLink is a time-limited download link to an archived verification report.
type ReportLink struct {
	VerificationID string    `json:"verification_id"`
	URL            string    `json:"url"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// VerificationReport is the archived form of a completed verification.
type VerificationReport struct {
	Claim    *model.Claim      `json:"claim"`
	Verdict  *model.Verdict    `json:"verdict"`
	Card     *VerificationCard `json:"verification_card"`
	Evidence []model.Evidence  `json:"evidence"`
}

// cachedVerification is the cache entry of a confident verification, keyed by text hash.
type cachedVerification struct {
	VerificationID   string            `json:"verification_id"`
	VerificationCard *VerificationCard `json:"verification_card"`
}

// VerificationService is the core content verification use case.
type VerificationService interface {
	// Verify analyzes content now, or queues it when it is long, has many URLs or is high priority.
	Verify(ctx context.Context, req VerifyRequest) (*VerificationResult, error)
	// Result reports the current state of a verification.
	Result(ctx context.Context, id string) (*VerificationResult, error)
	// ReportURL links to the archived report of a completed verification.
	ReportURL(ctx context.Context, id string) (*ReportLink, error)
	// Report returns the archived report of a completed verification.
	Report(ctx context.Context, id string) (*VerificationReport, error)
}

type verificationService struct {
	d Deps
}

func NewVerificationService(d Deps) VerificationService {
	d.Log = d.Log.With("verification")
	return &verificationService{d: d}
}

func verifyCacheID(hash string) string { return "verify:" + hash }

func (s *verificationService) validate(req *VerifyRequest) error {
	if err := validateContent(req.Text, s.d.Rules.MaxTextLength); err != nil {
		return err
	}
	if s.d.Rules.MaxURLs > 0 && len(req.URLs) > s.d.Rules.MaxURLs {
		return invalid("at most %d urls are allowed", s.d.Rules.MaxURLs)
	}
	if len(req.Images) > maxImages {
		return invalid("at most %d images are allowed", maxImages)
	}
	for _, raw := range slices.Concat(req.URLs, req.Images) {
		if !isHTTPURL(raw) {
			return invalid("%q is not a valid http(s) url", raw)
		}
	}
	if req.Language == "" {
		req.Language = "en"
	}
	if !slices.Contains(model.Languages, req.Language) {
		return invalid("unsupported language %q", req.Language)
	}
	if req.SourceType == "" {
		req.SourceType = "web"
	}
	if !slices.Contains(model.SourceTypes, req.SourceType) {
		return invalid("unsupported source type %q", req.SourceType)
	}
	p, err := normalizePriority(req.Priority)
	if err != nil {
		return err
	}
	req.Priority = p
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (s *verificationService) shouldQueue(req VerifyRequest) bool {
	return len([]rune(req.Text)) > s.d.Rules.AsyncThreshold ||
		len(req.URLs) > s.d.Rules.MaxURLsSync ||
		req.Priority == model.PriorityHigh
}

func (s *verificationService) Verify(ctx context.Context, req VerifyRequest) (_ *VerificationResult, err error) {
	ctx, span := startSpan(ctx, "verification.Verify")
	defer func() { endSpan(span, err) }()

	start := time.Now()
	if err := s.validate(&req); err != nil {
		return nil, err
	}

	hash := ContentHash(req.Text)
	var hit cachedVerification
	ok, err := s.d.Cache.GetAnalysis(ctx, verifyCacheID(hash), &hit)
	if err != nil {
		return nil, err
	}
	if ok && hit.VerificationCard != nil {
		s.d.Log.Info("verification_cache_hit", logging.Fields{"content_hash": hash, "verification_id": hit.VerificationID})
		return s.completed(hit.VerificationID, hit.VerificationCard, time.Since(start).Milliseconds(), s.d.now(), "Retrieved from cache"), nil
	}

	claim, err := s.d.Repo.CreateClaim(ctx, &model.Claim{
		Text:        req.Text,
		URLs:        req.URLs,
		Images:      req.Images,
		Language:    req.Language,
		SourceType:  req.SourceType,
		ContentHash: hash,
		CreatedAt:   s.d.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("create claim: %w", err)
	}
	if _, err := s.d.Cache.CacheClaim(ctx, claim); err != nil {
		return nil, err
	}
	evidence, err := s.attachEvidence(ctx, claim)
	if err != nil {
		return nil, err
	}

	if s.shouldQueue(req) {
		return s.enqueue(ctx, claim, evidence, req.Priority), nil
	}

	v, card, err := s.process(ctx, claim, evidence, start)
	if err != nil {
		return nil, err
	}
	return s.completed(claim.ID, card, v.ProcessingTimeMs, s.d.now(), "Processed in real-time"), nil
}

// attachEvidence records each submitted URL as contextual evidence of the claim.
func (s *verificationService) attachEvidence(ctx context.Context, claim *model.Claim) ([]model.Evidence, error) {
	out := make([]model.Evidence, 0, len(claim.URLs))
	for _, raw := range claim.URLs {
		u, _ := url.Parse(raw)
		e, err := s.d.Repo.CreateEvidence(ctx, &model.Evidence{
			ClaimID:        claim.ID,
			Snippet:        "Source submitted with the claim.",
			SourceURL:      raw,
			SourceDomain:   strings.TrimPrefix(u.Hostname(), "www."),
			RelevanceScore: 0.5,
			EvidenceType:   model.EvidenceContextual,
			Language:       claim.Language,
			ExtractedAt:    s.d.now(),
		})
		if err != nil {
			return nil, fmt.Errorf("create evidence: %w", err)
		}
		out = append(out, *e)
	}
	return out, nil
}

func (s *verificationService) enqueue(ctx context.Context, claim *model.Claim, evidence []model.Evidence, priority string) *VerificationResult {
	s.d.publish(ctx, s.d.Topics.Analysis, map[string]any{
		"claim_id":     claim.ID,
		"content_hash": claim.ContentHash,
		"priority":     priority,
	}, map[string]string{"priority": priority})

	start := time.Now()
	s.d.schedule(ctx, worker.Job{
		Name: "verification:" + claim.ID,
		Run: func(ctx context.Context) error {
			_, _, err := s.process(ctx, claim, evidence, start)
			return err
		},
	})

	eta := s.d.now().Add(30 * time.Second)
	return &VerificationResult{
		VerificationID:      claim.ID,
		Status:              VerificationAnalyzing,
		Message:             "Content analysis in progress",
		TextPreview:         preview(claim.Text, 100),
		CheckURL:            "/v1/verify/" + claim.ID,
		EstimatedCompletion: &eta,
	}
}

// process analyzes claim, stores the verdict and fans it out to the cache,
// the quarantine queue, the report archive and subscribers.
func (s *verificationService) process(ctx context.Context, claim *model.Claim, evidence []model.Evidence, start time.Time) (*model.Verdict, *VerificationCard, error) {
	quick := quickAnalysis(s.d.Lexicon, claim.Text, s.d.now())
	techniques := detectTechniques(s.d.Lexicon, claim.Text, true)

	ids := make([]string, 0, len(evidence))
	for _, e := range evidence {
		ids = append(ids, e.ID)
	}
	v := assessVerdict(claim, quick, techniques, ids, s.d.Rules.ModelVersion)
	v.ProcessingTimeMs = time.Since(start).Milliseconds()
	v, err := s.d.Repo.CreateVerdict(ctx, v)
	if err != nil {
		return nil, nil, fmt.Errorf("create verdict: %w", err)
	}
	card := buildCard(claim, v, len(evidence))

	if _, err := s.d.Cache.CacheVerdict(ctx, v); err != nil {
		return nil, nil, err
	}
	if _, err := s.d.Cache.CacheEvidence(ctx, claim.ID, evidence); err != nil {
		return nil, nil, err
	}
	if _, err := s.d.Cache.CacheTrustScore(ctx, trustScore(quick, techniques, s.d.now())); err != nil {
		return nil, nil, err
	}

	if v.ConfidenceScore < s.d.Rules.QuarantineThreshold {
		if err := s.quarantine(ctx, claim, v); err != nil {
			return nil, nil, err
		}
	} else {
		entry := cachedVerification{VerificationID: claim.ID, VerificationCard: card}
		if _, err := s.d.Cache.SetJSON(ctx, cache.CategoryAnalysis, verifyCacheID(claim.ContentHash), entry, 0); err != nil {
			return nil, nil, err
		}
		s.archive(ctx, claim, v, card, evidence)
	}

	s.d.publish(ctx, s.d.Topics.Verdicts, map[string]any{
		"claim_id":         claim.ID,
		"verdict_id":       v.ID,
		"rating":           v.Rating,
		"confidence_score": v.ConfidenceScore,
	}, map[string]string{"rating": v.Rating})
	s.d.Log.Info("verification_completed", logging.Fields{
		"claim_id":           claim.ID,
		"verdict_id":         v.ID,
		"rating":             v.Rating,
		"confidence":         v.ConfidenceScore,
		"processing_time_ms": v.ProcessingTimeMs,
	})
	return v, card, nil
}

func (s *verificationService) quarantine(ctx context.Context, claim *model.Claim, v *model.Verdict) error {
	now := s.d.now()
	rec := model.QuarantineRecord{
		RecordType:       model.RecordTypeQuarantine,
		ClaimID:          claim.ID,
		VerdictID:        v.ID,
		Reason:           "low_confidence",
		ConfidenceScore:  v.ConfidenceScore,
		AutomatedVerdict: v.Rating,
		Techniques:       indicatorTypes(v),
		Status:           model.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.d.Repo.StoreAnalysis(ctx, quarantineID(claim.ID), rec); err != nil {
		return fmt.Errorf("store quarantine record: %w", err)
	}
	s.d.Log.Info("verification_quarantined", logging.Fields{"claim_id": claim.ID, "confidence": v.ConfidenceScore})
	return nil
}

// archive uploads the report when an archive is configured. Failures are logged.
func (s *verificationService) archive(ctx context.Context, claim *model.Claim, v *model.Verdict, card *VerificationCard, evidence []model.Evidence) {
	if s.d.Archive == nil {
		return
	}
	report := VerificationReport{Claim: claim, Verdict: v, Card: card, Evidence: evidence}
	if _, err := s.d.Archive.Save(ctx, claim.ID, report); err != nil {
		s.d.Log.Warn("report_archive_failed", err, logging.Fields{"claim_id": claim.ID})
	}
}

func (s *verificationService) completed(id string, card *VerificationCard, ms int64, at time.Time, note string) *VerificationResult {
	return &VerificationResult{
		VerificationID:   id,
		Status:           VerificationCompleted,
		VerificationCard: card,
		ProcessingTime:   &ms,
		CompletedAt:      &at,
		Note:             note,
	}
}

func (s *verificationService) Result(ctx context.Context, id string) (_ *VerificationResult, err error) {
	ctx, span := startSpan(ctx, "verification.Result")
	defer func() { endSpan(span, err) }()

	claim, err := loadClaim(ctx, s.d, id)
	if err != nil {
		return nil, err
	}
	v, err := s.d.Repo.GetVerdictByClaim(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return &VerificationResult{
			VerificationID: id,
			Status:         VerificationProcessing,
			Claim:          claim,
			Evidence:       []model.Evidence{},
		}, nil
	}

	if v.ConfidenceScore < s.d.Rules.QuarantineThreshold && !v.UpdatedByHuman {
		indicators := make([]string, 0, len(v.ManipulationIndicators))
		for _, mi := range v.ManipulationIndicators {
			indicators = append(indicators, mi.Description)
		}
		conf := v.ConfidenceScore
		return &VerificationResult{
			VerificationID:       id,
			Status:               VerificationNeedsReview,
			QuarantineURL:        "/v1/quarantine/" + id,
			ConfidenceScore:      &conf,
			SuspiciousIndicators: indicators,
			Message:              "Content requires human review due to uncertain automated analysis",
		}, nil
	}

	evidence, err := loadEvidence(ctx, s.d, id)
	if err != nil {
		return nil, err
	}
	note := "Analysis completed successfully"
	if v.UpdatedByHuman {
		note = "Reviewed by the community"
	}
	return s.completed(id, buildCard(claim, v, len(evidence)), v.ProcessingTimeMs, v.CreatedAt, note), nil
}

func (s *verificationService) ReportURL(ctx context.Context, id string) (_ *ReportLink, err error) {
	ctx, span := startSpan(ctx, "verification.ReportURL")
	defer func() { endSpan(span, err) }()

	if s.d.Archive == nil {
		return nil, fmt.Errorf("report archive: %w", ErrUnavailable)
	}
	if _, err := loadClaim(ctx, s.d, id); err != nil {
		return nil, err
	}
	u, exp, err := s.d.Archive.URL(ctx, id)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, notFound("report")
	}
	if err != nil {
		return nil, err
	}
	return &ReportLink{VerificationID: id, URL: u, ExpiresAt: exp}, nil
}

func (s *verificationService) Report(ctx context.Context, id string) (_ *VerificationReport, err error) {
	ctx, span := startSpan(ctx, "verification.Report")
	defer func() { endSpan(span, err) }()

	if s.d.Archive == nil {
		return nil, fmt.Errorf("report archive: %w", ErrUnavailable)
	}
	if _, err := loadClaim(ctx, s.d, id); err != nil {
		return nil, err
	}
	var report VerificationReport
	err = s.d.Archive.Load(ctx, id, &report)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, notFound("report")
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// loadClaim reads a claim through the cache, falling back to the repository.
func loadClaim(ctx context.Context, d Deps, id string) (*model.Claim, error) {
	if id == "" {
		return nil, invalid("id is required")
	}
	c, err := d.Cache.GetClaim(ctx, id)
	if err != nil || c != nil {
		return c, err
	}
	c, err = d.Repo.GetClaim(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, notFound("claim")
	}
	if _, err := d.Cache.CacheClaim(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func loadEvidence(ctx context.Context, d Deps, claimID string) ([]model.Evidence, error) {
	ev, ok, err := d.Cache.GetEvidence(ctx, claimID)
	if err != nil || ok {
		return ev, err
	}
	ev, err = d.Repo.ListEvidenceByClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if _, err := d.Cache.CacheEvidence(ctx, claimID, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func quarantineID(claimID string) string { return "quarantine_" + claimID }

// indicatorTypes returns the technique ids attached to v.
func indicatorTypes(v *model.Verdict) []string {
	out := make([]string, 0, len(v.ManipulationIndicators))
	for _, mi := range v.ManipulationIndicators {
		out = append(out, mi.Type)
	}
	return out
}
