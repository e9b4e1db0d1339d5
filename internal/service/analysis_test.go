package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustnet/internal/logging"
	"trustnet/internal/model"
	"trustnet/internal/repository/documents"
	"trustnet/internal/worker"
)

func TestAnalyze(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewAnalysisService(f.deps)

	resp, err := svc.Analyze(ctx, AnalyzeRequest{Content: alarmingText})
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, resp.Status)
	assert.InDelta(t, 0.4, resp.TrustScore, 1e-9)
	assert.Equal(t, []string{"Emotional manipulation detected", "No sources provided"}, resp.InitialFlags)
	assert.Equal(t, "normal", resp.AnalysisMetadata["priority"])

	// No pool: the deep pass already ran inline.
	rec, err := svc.Result(ctx, resp.AnalysisID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, rec.Status)
	assert.Equal(t, ContentHash(alarmingText), rec.ContentHash)
	require.Len(t, rec.Results, 1)
	assert.Len(t, rec.Results[0].ManipulationTechniques, 2)

	again, err := svc.Analyze(ctx, AnalyzeRequest{Content: alarmingText})
	require.NoError(t, err)
	assert.Equal(t, resp.AnalysisID, again.AnalysisID, "served from cache")

	assert.Len(t, f.events.Messages("content-analysis"), 1)

	_, err = svc.Result(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

// completionFails rejects the write that marks an analysis completed.
type completionFails struct {
	*documents.Manager
}

func (r completionFails) UpdateAnalysis(ctx context.Context, id string, fields map[string]any) error {
	if fields["status"] == model.StatusCompleted {
		return errStoreDown
	}
	return r.Manager.UpdateAnalysis(ctx, id, fields)
}

func TestAnalyze_DeepPassFailureMarksRecordFailed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.deps.Repo = completionFails{f.repo}
	svc := NewAnalysisService(f.deps)

	resp, err := svc.Analyze(ctx, AnalyzeRequest{Content: alarmingText})
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, resp.Status)

	rec, err := svc.Result(ctx, resp.AnalysisID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, rec.Status)
	assert.Contains(t, rec.Error, "complete analysis: store down")
	require.NotNil(t, rec.FailedAt)
	assert.True(t, rec.FailedAt.Equal(fixedNow))
}

func TestBatch_CompletionFailureMarksBatchFailed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.deps.Repo = completionFails{f.repo}
	svc := NewAnalysisService(f.deps)

	accepted, err := svc.StartBatch(ctx, []string{neutralText, alarmingText})
	require.NoError(t, err)

	st, err := svc.BatchStatus(ctx, accepted.BatchID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, st.Status)
	assert.Equal(t, 2, st.Completed)
	require.NotNil(t, st.FailedAt)
}

func TestAnalyze_Validation(t *testing.T) {
	svc := NewAnalysisService(newFixture(t).deps)

	_, err := svc.Analyze(context.Background(), AnalyzeRequest{Content: "short"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Analyze(context.Background(), AnalyzeRequest{Content: neutralText, Priority: "asap"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTrustScore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewAnalysisService(f.deps)

	_, err := svc.TrustScore(ctx, ContentHash(neutralText))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Analyze(ctx, AnalyzeRequest{Content: alarmingText})
	require.NoError(t, err)

	hash := ContentHash(alarmingText)
	ts, err := svc.TrustScore(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, hash, ts.ContentHash)
	assert.InDelta(t, 0.4, ts.OverallScore, 1e-9)
	assert.Equal(t, "keyword_heuristics_deep", ts.CalculationMethod)
	assert.Contains(t, ts.Factors, "emotional_manipulation")

	f2 := newFixture(t)
	f2.deps.Repo = f.deps.Repo
	rebuilt, err := NewAnalysisService(f2.deps).TrustScore(ctx, hash)
	require.NoError(t, err, "recomputed from the stored analysis")
	assert.InDelta(t, 0.4, rebuilt.OverallScore, 1e-9)
}

func TestBatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pool := worker.New(2, 8, logging.Nop())
	f.deps.Pool = pool
	svc := NewAnalysisService(f.deps)

	accepted, err := svc.StartBatch(ctx, []string{neutralText, alarmingText, uncertainText})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(accepted.BatchID, "batch_"))
	assert.Equal(t, 3, accepted.ItemCount)

	st, err := svc.BatchStatus(ctx, accepted.BatchID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, st.Status)
	assert.Equal(t, 3, st.Total)

	pool.Start(ctx)
	pool.Stop()

	st, err = svc.BatchStatus(ctx, accepted.BatchID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, st.Status)
	assert.Equal(t, 3, st.Completed)
	require.Len(t, st.Results, 3)
	assert.Empty(t, st.Results[0].ManipulationTechniques)
	assert.Len(t, st.Results[1].ManipulationTechniques, 2)

	_, err = svc.BatchStatus(ctx, "not-a-batch")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBatch_Validation(t *testing.T) {
	svc := NewAnalysisService(newFixture(t).deps)

	_, err := svc.StartBatch(context.Background(), nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.StartBatch(context.Background(), make([]string, 101))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.StartBatch(context.Background(), []string{neutralText, "  "})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestEngineStatus(t *testing.T) {
	f := newFixture(t)
	f.deps.Pool = worker.New(3, 10, logging.Nop())
	st := NewAnalysisService(f.deps).EngineStatus(context.Background())

	assert.Equal(t, "operational", st.Status)
	assert.Equal(t, "test-1", st.ModelVersion)
	assert.Equal(t, QueueStatus{Workers: 3, Pending: 0}, st.Queue)
	assert.Len(t, st.Techniques, 8)
	assert.Equal(t, fixedNow, st.LastUpdated)
}
