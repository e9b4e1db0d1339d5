package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"trustnet/internal/cache"
	"trustnet/internal/logging"
	"trustnet/internal/model"
	"trustnet/internal/worker"
)

const (
	maxBatchItems = 100
	engineID      = "trustnet-analysis-v1.0"
	// initialAnalysisTTL bounds how long the provisional response of Analyze is served from cache.
	initialAnalysisTTL = 5 * time.Minute
)

// AnalyzeRequest is the input of a standalone content analysis.
type AnalyzeRequest struct {
	Content      string         `json:"content"`
	AnalysisType string         `json:"analysis_type"`
	Priority     string         `json:"priority"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// AnalysisResponse is returned immediately by Analyze while the deep pass runs in the background.
type AnalysisResponse struct {
	AnalysisID             string                        `json:"analysis_id"`
	Status                 string                        `json:"status"`
	QuickFindings          model.QuickFindings           `json:"quick_findings"`
	ManipulationTechniques []model.ManipulationTechnique `json:"manipulation_techniques"`
	TrustScore             float64                       `json:"trust_score"`
	ConfidenceScore        float64                       `json:"confidence_score"`
	InitialFlags           []string                      `json:"initial_flags"`
	EstimatedCompletion    time.Time                     `json:"estimated_completion"`
	AnalysisMetadata       map[string]any                `json:"analysis_metadata"`
}

type BatchAccepted struct {
	BatchID             string    `json:"batch_id"`
	Status              string    `json:"status"`
	ItemCount           int       `json:"item_count"`
	EstimatedCompletion time.Time `json:"estimated_completion"`
	Message             string    `json:"message"`
}

type QueueStatus struct {
	Workers int `json:"workers"`
	Pending int `json:"pending"`
}

type EngineStatus struct {
	EngineID     string      `json:"engine_id"`
	Status       string      `json:"status"`
	ModelVersion string      `json:"model_version"`
	Capabilities []string    `json:"capabilities"`
	Techniques   []string    `json:"techniques"`
	Queue        QueueStatus `json:"queue_status"`
	LastUpdated  time.Time   `json:"last_updated"`
}

// AnalysisService runs the keyword-based analysis engine.
type AnalysisService interface {
	// Analyze returns quick findings and schedules a deep analysis of the content.
	Analyze(ctx context.Context, req AnalyzeRequest) (*AnalysisResponse, error)
	// Result returns the stored state of an analysis started by Analyze.
	Result(ctx context.Context, id string) (*model.AnalysisRecord, error)
	QuickAnalysis(content string) model.QuickAnalysis
	DetectTechniques(content string, deep bool) []model.ManipulationTechnique
	// TrustScore returns the trust score of an analyzed content hash.
	TrustScore(ctx context.Context, contentHash string) (*model.TrustScore, error)
	StartBatch(ctx context.Context, items []string) (*BatchAccepted, error)
	BatchStatus(ctx context.Context, id string) (*model.AnalysisRecord, error)
	EngineStatus(ctx context.Context) EngineStatus
}

type analysisService struct {
	d Deps
}

// NewAnalysisService constructs an AnalysisService.
func NewAnalysisService(d Deps) AnalysisService {
	d.Log = d.Log.With("analysis")
	return &analysisService{d: d}
}

func analyzeCacheID(hash string) string { return "analyze:" + hash }

func (s *analysisService) QuickAnalysis(content string) model.QuickAnalysis {
	return quickAnalysis(s.d.Lexicon, content, s.d.now())
}

func (s *analysisService) DetectTechniques(content string, deep bool) []model.ManipulationTechnique {
	return detectTechniques(s.d.Lexicon, content, deep)
}

func validateContent(content string, maxLen int) error {
	n := len([]rune(strings.TrimSpace(content)))
	if n < 10 {
		return invalid("content must be at least 10 characters")
	}
	if maxLen > 0 && n > maxLen {
		return invalid("content must be at most %d characters", maxLen)
	}
	return nil
}

func normalizePriority(p string) (string, error) {
	switch p {
	case "":
		return model.PriorityNormal, nil
	case model.PriorityLow, model.PriorityNormal, model.PriorityHigh:
		return p, nil
	}
	return "", invalid("priority must be one of low, normal, high")
}

func (s *analysisService) Analyze(ctx context.Context, req AnalyzeRequest) (_ *AnalysisResponse, err error) {
	ctx, span := startSpan(ctx, "analysis.Analyze")
	defer func() { endSpan(span, err) }()

	if err := validateContent(req.Content, s.d.Rules.MaxTextLength); err != nil {
		return nil, err
	}
	priority, err := normalizePriority(req.Priority)
	if err != nil {
		return nil, err
	}
	if req.AnalysisType == "" {
		req.AnalysisType = "comprehensive"
	}

	hash := ContentHash(req.Content)
	var cached AnalysisResponse
	hit, err := s.d.Cache.GetAnalysis(ctx, analyzeCacheID(hash), &cached)
	if err != nil {
		return nil, err
	}
	if hit {
		return &cached, nil
	}

	now := s.d.now()
	quick := s.QuickAnalysis(req.Content)
	rec := model.AnalysisRecord{
		AnalysisID:   uuid.New().String(),
		ContentHash:  hash,
		Content:      req.Content,
		AnalysisType: req.AnalysisType,
		Priority:     priority,
		Status:       model.StatusProcessing,
		Total:        1,
		Results:      []model.QuickAnalysis{quick},
		Metadata:     req.Metadata,
		CreatedAt:    now,
	}
	if err := s.d.Repo.StoreAnalysis(ctx, rec.AnalysisID, rec); err != nil {
		return nil, fmt.Errorf("store analysis: %w", err)
	}
	if _, err := s.d.Cache.CacheTrustScore(ctx, trustScore(quick, quick.ManipulationTechniques, now)); err != nil {
		return nil, err
	}

	id := rec.AnalysisID
	s.d.schedule(ctx, worker.Job{
		Name: "comprehensive_analysis:" + id,
		Run:  func(ctx context.Context) error { return s.comprehensive(ctx, id, req.Content) },
	})
	s.d.publish(ctx, s.d.Topics.Analysis, map[string]any{
		"analysis_id":  id,
		"content_hash": hash,
		"priority":     priority,
	}, map[string]string{"priority": priority})

	resp := &AnalysisResponse{
		AnalysisID:             id,
		Status:                 model.StatusProcessing,
		QuickFindings:          quick.QuickFindings,
		ManipulationTechniques: quick.ManipulationTechniques,
		TrustScore:             quick.TrustScore,
		ConfidenceScore:        quick.ConfidenceScore,
		InitialFlags:           quick.RedFlags,
		EstimatedCompletion:    now.Add(initialAnalysisTTL),
		AnalysisMetadata: map[string]any{
			"processing_started": now,
			"analysis_engine":    engineID,
			"priority":           priority,
		},
	}
	if _, err := s.d.Cache.SetJSON(ctx, cache.CategoryAnalysis, analyzeCacheID(hash), resp, initialAnalysisTTL); err != nil {
		return nil, err
	}
	s.d.Log.Info("analysis_started", logging.Fields{"analysis_id": id, "content_hash": hash})
	return resp, nil
}

// comprehensive runs the deep technique pass and completes the analysis record.
// Any failure marks the record failed so pollers see a final status.
func (s *analysisService) comprehensive(ctx context.Context, id, content string) error {
	if err := s.deepPass(ctx, id, content); err != nil {
		return s.fail(ctx, id, err)
	}
	return nil
}

func (s *analysisService) deepPass(ctx context.Context, id, content string) error {
	quick := s.QuickAnalysis(content)
	quick.ManipulationTechniques = s.DetectTechniques(content, true)
	quick.ConfidenceScore = 0.8
	now := s.d.now()

	ts := trustScore(quick, quick.ManipulationTechniques, now)
	ts.Confidence = quick.ConfidenceScore
	ts.CalculationMethod = "keyword_heuristics_deep"
	if _, err := s.d.Cache.CacheTrustScore(ctx, ts); err != nil {
		return fmt.Errorf("cache trust score: %w", err)
	}
	if err := s.d.Repo.UpdateAnalysis(ctx, id, map[string]any{
		"status":    model.StatusCompleted,
		"completed": 1,
		"results":   []model.QuickAnalysis{quick},
	}); err != nil {
		return fmt.Errorf("complete analysis: %w", err)
	}
	return nil
}

func (s *analysisService) Result(ctx context.Context, id string) (_ *model.AnalysisRecord, err error) {
	ctx, span := startSpan(ctx, "analysis.Result")
	defer func() { endSpan(span, err) }()
	return s.record(ctx, id, "analysis")
}

func (s *analysisService) record(ctx context.Context, id, what string) (*model.AnalysisRecord, error) {
	if id == "" {
		return nil, invalid("id is required")
	}
	var rec model.AnalysisRecord
	ok, err := s.d.Repo.GetAnalysis(ctx, id, &rec)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound(what)
	}
	return &rec, nil
}

func (s *analysisService) TrustScore(ctx context.Context, contentHash string) (_ *model.TrustScore, err error) {
	ctx, span := startSpan(ctx, "analysis.TrustScore")
	defer func() { endSpan(span, err) }()

	if contentHash == "" {
		return nil, invalid("content hash is required")
	}
	ts, err := s.d.Cache.GetTrustScore(ctx, contentHash)
	if err != nil || ts != nil {
		return ts, err
	}

	var rec model.AnalysisRecord
	ok, err := s.d.Repo.FindAnalysisByContentHash(ctx, contentHash, &rec)
	if err != nil {
		return nil, err
	}
	if !ok || rec.Content == "" {
		return nil, notFound("trust score")
	}
	deep := rec.Status == model.StatusCompleted
	quick := s.QuickAnalysis(rec.Content)
	ts = trustScore(quick, s.DetectTechniques(rec.Content, deep), s.d.now())
	if _, err := s.d.Cache.CacheTrustScore(ctx, ts); err != nil {
		return nil, err
	}
	return ts, nil
}

func (s *analysisService) StartBatch(ctx context.Context, items []string) (_ *BatchAccepted, err error) {
	ctx, span := startSpan(ctx, "analysis.StartBatch")
	defer func() { endSpan(span, err) }()

	switch {
	case len(items) == 0:
		return nil, invalid("batch must contain at least one item")
	case len(items) > maxBatchItems:
		return nil, invalid("batch size cannot exceed %d items", maxBatchItems)
	}
	for i, it := range items {
		if strings.TrimSpace(it) == "" {
			return nil, invalid("item %d is empty", i)
		}
	}

	now := s.d.now()
	id := "batch_" + uuid.New().String()
	rec := model.AnalysisRecord{
		AnalysisID:   id,
		AnalysisType: "batch",
		Status:       model.StatusProcessing,
		Total:        len(items),
		CreatedAt:    now,
	}
	if err := s.d.Repo.StoreAnalysis(ctx, id, rec); err != nil {
		return nil, fmt.Errorf("store batch: %w", err)
	}
	items = append([]string(nil), items...)
	s.d.schedule(ctx, worker.Job{
		Name: "batch_analysis:" + id,
		Run:  func(ctx context.Context) error { return s.processBatch(ctx, id, items) },
	})
	return &BatchAccepted{
		BatchID:             id,
		Status:              model.StatusProcessing,
		ItemCount:           len(items),
		EstimatedCompletion: now.Add(time.Duration(len(items)) * 30 * time.Second),
		Message:             "Batch analysis started. Check status using batch_id.",
	}, nil
}

func (s *analysisService) processBatch(ctx context.Context, id string, items []string) error {
	results := make([]model.QuickAnalysis, 0, len(items))
	for i, content := range items {
		if err := ctx.Err(); err != nil {
			return s.fail(ctx, id, err)
		}
		q := s.QuickAnalysis(content)
		q.ManipulationTechniques = s.DetectTechniques(content, false)
		results = append(results, q)
		if err := s.d.Repo.UpdateAnalysis(ctx, id, map[string]any{"completed": i + 1}); err != nil {
			return s.fail(ctx, id, err)
		}
	}
	return s.d.Repo.UpdateAnalysis(ctx, id, map[string]any{
		"status":    model.StatusCompleted,
		"completed": len(items),
		"results":   results,
	})
}

// fail marks the analysis record failed and returns cause.
func (s *analysisService) fail(ctx context.Context, id string, cause error) error {
	upd := map[string]any{
		"status":    model.StatusFailed,
		"error":     cause.Error(),
		"failed_at": s.d.now(),
	}
	if err := s.d.Repo.UpdateAnalysis(context.WithoutCancel(ctx), id, upd); err != nil {
		return errors.Join(cause, err)
	}
	s.d.Log.Warn("analysis_failed", cause, logging.Fields{"analysis_id": id})
	return cause
}

func (s *analysisService) BatchStatus(ctx context.Context, id string) (_ *model.AnalysisRecord, err error) {
	ctx, span := startSpan(ctx, "analysis.BatchStatus")
	defer func() { endSpan(span, err) }()
	if !strings.HasPrefix(id, "batch_") {
		return nil, notFound("batch analysis")
	}
	return s.record(ctx, id, "batch analysis")
}

func (s *analysisService) EngineStatus(ctx context.Context) EngineStatus {
	_, span := startSpan(ctx, "analysis.EngineStatus")
	defer span.End()

	techniques := make([]string, 0, len(s.d.Lexicon.Techniques)+len(s.d.Lexicon.DeepPatterns))
	for _, t := range s.d.Lexicon.Techniques {
		techniques = append(techniques, t.ID)
	}
	for _, p := range s.d.Lexicon.DeepPatterns {
		techniques = append(techniques, p.ID)
	}
	var q QueueStatus
	if s.d.Pool != nil {
		q = QueueStatus{Workers: s.d.Pool.Workers(), Pending: s.d.Pool.Pending()}
	}
	return EngineStatus{
		EngineID:     engineID,
		Status:       "operational",
		ModelVersion: s.d.Rules.ModelVersion,
		Capabilities: []string{"manipulation_detection", "trust_scoring", "batch_analysis", "source_verification"},
		Techniques:   techniques,
		Queue:        q,
		LastUpdated:  s.d.now(),
	}
}
