package documents

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustnet/internal/docstore"
	"trustnet/internal/model"
)

func newManager(t *testing.T) (*Manager, *docstore.Store) {
	t.Helper()
	store := docstore.NewMemory()
	m := New(store)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }
	return m, store
}

func TestManager_Claims(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t)

	created, err := m.CreateClaim(ctx, &model.Claim{Text: "Vaccines cause something", Language: "en", SourceType: "web"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := m.GetClaim(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Vaccines cause something", got.Text)
	assert.True(t, got.CreatedAt.Equal(created.CreatedAt))
	assert.Nil(t, got.UpdatedAt)

	require.NoError(t, m.UpdateClaim(ctx, created.ID, map[string]any{"pii_redacted": true}))
	got, err = m.GetClaim(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.PIIRedacted)
	assert.Equal(t, "Vaccines cause something", got.Text)
	require.NotNil(t, got.UpdatedAt)

	snap, err := store.Collection(Claims).Doc(created.ID).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T12:00:00Z", snap.Fields["updated_at"])
}

func TestManager_GetMissingReturnsNil(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	c, err := m.GetClaim(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, c)

	v, err := m.GetVerdict(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, v)

	v, err = m.GetVerdictByClaim(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, v)

	var rec model.AnalysisRecord
	ok, err := m.GetAnalysis(ctx, "nope", &rec)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestManager_EvidenceByClaim(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	for _, e := range []*model.Evidence{
		{ID: "e1", ClaimID: "c1", SourceURL: "https://a.example", RelevanceScore: 0.5},
		{ID: "e2", ClaimID: "c2", SourceURL: "https://b.example"},
		{ID: "e3", ClaimID: "c1", SourceURL: "https://c.example"},
	} {
		_, err := m.CreateEvidence(ctx, e)
		require.NoError(t, err)
	}

	got, err := m.ListEvidenceByClaim(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e1", got[0].ID)
	assert.Equal(t, 0.5, got[0].RelevanceScore)
	assert.Equal(t, "e3", got[1].ID)

	none, err := m.ListEvidenceByClaim(ctx, "c9")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestManager_Verdicts(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	first, err := m.CreateVerdict(ctx, &model.Verdict{
		ClaimID:         "c1",
		Rating:          model.RatingMixture,
		ConfidenceScore: 0.55,
		ManipulationIndicators: []model.ManipulationIndicator{
			{Type: "emotional_manipulation", Severity: model.SeverityMedium, Confidence: 0.45},
		},
	})
	require.NoError(t, err)
	_, err = m.CreateVerdict(ctx, &model.Verdict{ClaimID: "c1", Rating: model.RatingFalse})
	require.NoError(t, err)

	byClaim, err := m.GetVerdictByClaim(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, byClaim)
	assert.Equal(t, first.ID, byClaim.ID)
	require.Len(t, byClaim.ManipulationIndicators, 1)

	consensus := 0.6
	require.NoError(t, m.UpdateVerdict(ctx, first.ID, map[string]any{
		"human_verdict":    model.UserVerdictMisleading,
		"consensus_score":  consensus,
		"updated_by_human": true,
	}))
	got, err := m.GetVerdict(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, got.UpdatedByHuman)
	assert.Equal(t, model.UserVerdictMisleading, got.HumanVerdict)
	require.NotNil(t, got.ConsensusScore)
	assert.Equal(t, 0.6, *got.ConsensusScore)
	assert.Equal(t, model.RatingMixture, got.Rating)
}

func TestManager_Feedback(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	_, err := m.CreateFeedback(ctx, &model.Feedback{VerdictID: "v1", FeedbackType: model.FeedbackFactualError})
	require.NoError(t, err)
	_, err = m.CreateFeedback(ctx, &model.Feedback{VerdictID: "v2"})
	require.NoError(t, err)

	got, err := m.ListFeedbackByVerdict(ctx, "v1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.FeedbackFactualError, got[0].FeedbackType)
}

func TestManager_FeedbackByUser(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	for _, f := range []*model.Feedback{
		{VerdictID: "v1", UserID: "u1", PointsAwarded: 15},
		{VerdictID: "v2"},
		{VerdictID: "v3", UserID: "u1", PointsAwarded: 6},
	} {
		_, err := m.CreateFeedback(ctx, f)
		require.NoError(t, err)
	}

	got, err := m.ListFeedbackByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "v1", got[0].VerdictID)
	assert.Equal(t, 6, got[1].PointsAwarded)

	none, err := m.ListFeedbackByUser(ctx, "u2")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestManager_Engagements(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	e, err := m.CreateEngagement(ctx, &model.Engagement{ItemID: "feed_1", EngagementType: "helpful", Rating: 5})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.CreatedAt.IsZero())
	_, err = m.CreateEngagement(ctx, &model.Engagement{ItemID: "feed_2", EngagementType: "share"})
	require.NoError(t, err)

	got, err := m.ListEngagementsByItem(ctx, "feed_1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "helpful", got[0].EngagementType)
	assert.Equal(t, 5, got[0].Rating)
}

func TestManager_QuarantineRecords(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	require.NoError(t, m.StoreAnalysis(ctx, "quarantine_c1", model.QuarantineRecord{
		RecordType: model.RecordTypeQuarantine,
		ClaimID:    "c1",
		Status:     model.StatusPending,
		Techniques: []string{"false_urgency"},
	}))
	require.NoError(t, m.StoreAnalysis(ctx, "a1", model.AnalysisRecord{AnalysisID: "a1", Status: model.StatusPending}))

	got, err := m.ListQuarantineRecords(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].ClaimID)
	assert.Equal(t, []string{"false_urgency"}, got[0].Techniques)
}

func TestManager_Analyses(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	rec := model.AnalysisRecord{AnalysisID: "a1", ContentHash: "abc", Status: model.StatusProcessing, Total: 2}
	require.NoError(t, m.StoreAnalysis(ctx, "a1", rec))
	require.NoError(t, m.UpdateAnalysis(ctx, "a1", map[string]any{"status": model.StatusCompleted, "completed": 2}))

	var got model.AnalysisRecord
	ok, err := m.GetAnalysis(ctx, "a1", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.Equal(t, 2, got.Completed)
	assert.Equal(t, 2, got.Total)
	assert.NotNil(t, got.UpdatedAt)

	var byHash model.AnalysisRecord
	ok, err = m.FindAnalysisByContentHash(ctx, "abc", &byHash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a1", byHash.AnalysisID)

	ok, err = m.FindAnalysisByContentHash(ctx, "zzz", &byHash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManager_ClosedStore(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t)
	require.NoError(t, store.Close())

	_, err := m.GetClaim(ctx, "x")
	assert.ErrorIs(t, err, docstore.ErrNotInitialized)

	_, err = m.ListEvidenceByClaim(ctx, "x")
	assert.ErrorIs(t, err, docstore.ErrNotInitialized)
}

func TestManager_PostgresVerdictByClaim(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := New(docstore.NewPostgres(db))

	q := regexp.QuoteMeta(`SELECT id, fields FROM documents WHERE collection = $1 AND fields -> $2 = $3::jsonb ORDER BY seq LIMIT $4`)
	mock.ExpectQuery(q).
		WithArgs(Verdicts, "claim_id", `"c1"`, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "fields"}).
			AddRow("v1", []byte(`{"id":"v1","claim_id":"c1","rating":"False","confidence_score":0.8,"created_at":"2024-03-01T12:00:00Z"}`)))

	v, err := m.GetVerdictByClaim(context.Background(), "c1")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "v1", v.ID)
	assert.Equal(t, 0.8, v.ConfidenceScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}
