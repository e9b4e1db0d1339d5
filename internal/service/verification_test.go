package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"trustnet/internal/logging"
	"trustnet/internal/model"
	"trustnet/internal/storage"
	storeMocks "trustnet/internal/storage/mocks"
	"trustnet/internal/worker"
)

func TestVerify_CompletesAndCaches(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewVerificationService(f.deps)

	res, err := svc.Verify(ctx, VerifyRequest{Text: neutralText})
	require.NoError(t, err)
	assert.Equal(t, VerificationCompleted, res.Status)
	assert.Equal(t, "Processed in real-time", res.Note)
	require.NotNil(t, res.VerificationCard)
	assert.Equal(t, model.RatingTrue, res.VerificationCard.Rating)

	claim, err := f.repo.GetClaim(ctx, res.VerificationID)
	require.NoError(t, err)
	require.NotNil(t, claim)
	assert.Equal(t, ContentHash(neutralText), claim.ContentHash)
	assert.Equal(t, "en", claim.Language)
	assert.Equal(t, "web", claim.SourceType)

	v, err := f.repo.GetVerdictByClaim(ctx, res.VerificationID)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "test-1", v.ModelVersion)

	again, err := svc.Verify(ctx, VerifyRequest{Text: neutralText})
	require.NoError(t, err)
	assert.Equal(t, res.VerificationID, again.VerificationID)
	assert.Equal(t, "Retrieved from cache", again.Note)

	msgs := f.events.Messages("verdict-updates")
	require.Len(t, msgs, 1)
	assert.Contains(t, string(msgs[0].Data), res.VerificationID)
}

func TestVerify_LowConfidenceIsQuarantined(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewVerificationService(f.deps)

	res, err := svc.Verify(ctx, VerifyRequest{Text: uncertainText})
	require.NoError(t, err)
	assert.Equal(t, VerificationCompleted, res.Status)

	got, err := svc.Result(ctx, res.VerificationID)
	require.NoError(t, err)
	assert.Equal(t, VerificationNeedsReview, got.Status)
	assert.Equal(t, "/v1/quarantine/"+res.VerificationID, got.QuarantineURL)
	require.NotNil(t, got.ConfidenceScore)
	assert.InDelta(t, 0.525, *got.ConfidenceScore, 1e-9)
	assert.Equal(t, []string{"Uses emotionally charged language to bypass critical thinking"}, got.SuspiciousIndicators)

	var rec model.QuarantineRecord
	ok, err := f.repo.GetAnalysis(ctx, "quarantine_"+res.VerificationID, &rec)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.StatusPending, rec.Status)
	assert.Equal(t, model.RatingInsufficientEvidence, rec.AutomatedVerdict)

	again, err := svc.Verify(ctx, VerifyRequest{Text: uncertainText})
	require.NoError(t, err)
	assert.NotEqual(t, res.VerificationID, again.VerificationID, "uncertain results are not served from cache")
}

func TestVerify_QueuesLargeRequests(t *testing.T) {
	tests := []struct {
		name string
		req  VerifyRequest
	}{
		{name: "high priority", req: VerifyRequest{Text: neutralText, Priority: model.PriorityHigh}},
		{name: "many urls", req: VerifyRequest{Text: neutralText, URLs: []string{"https://a.example", "https://b.example", "https://c.example"}}},
		{name: "long text", req: VerifyRequest{Text: strings.Repeat("budget ", 800)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			pool := worker.New(1, 4, logging.Nop())
			f.deps.Pool = pool
			svc := NewVerificationService(f.deps)

			res, err := svc.Verify(ctx, tt.req)
			require.NoError(t, err)
			assert.Equal(t, VerificationAnalyzing, res.Status)
			assert.Equal(t, "/v1/verify/"+res.VerificationID, res.CheckURL)
			require.NotNil(t, res.EstimatedCompletion)
			assert.Equal(t, fixedNow.Add(30*time.Second), *res.EstimatedCompletion)
			assert.Len(t, f.events.Messages("content-analysis"), 1)

			pending, err := svc.Result(ctx, res.VerificationID)
			require.NoError(t, err)
			assert.Equal(t, VerificationProcessing, pending.Status)
			assert.NotNil(t, pending.Claim)

			pool.Start(ctx)
			pool.Stop()

			done, err := svc.Result(ctx, res.VerificationID)
			require.NoError(t, err)
			assert.Equal(t, VerificationCompleted, done.Status)
			assert.Equal(t, "Analysis completed successfully", done.Note)
		})
	}
}

func TestVerify_EvidenceFromURLs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewVerificationService(f.deps)

	res, err := svc.Verify(ctx, VerifyRequest{Text: neutralText, URLs: []string{"https://www.example.com/budget"}})
	require.NoError(t, err)

	ev, err := f.repo.ListEvidenceByClaim(ctx, res.VerificationID)
	require.NoError(t, err)
	require.Len(t, ev, 1)
	assert.Equal(t, "example.com", ev[0].SourceDomain)
	assert.Equal(t, model.EvidenceContextual, ev[0].EvidenceType)

	v, err := f.repo.GetVerdictByClaim(ctx, res.VerificationID)
	require.NoError(t, err)
	assert.Equal(t, []string{ev[0].ID}, v.EvidenceIDs)
	assert.Equal(t, 1, res.VerificationCard.SourceAnalysis["evidence_count"])
}

func TestVerify_Validation(t *testing.T) {
	f := newFixture(t)
	svc := NewVerificationService(f.deps)

	tests := []struct {
		name string
		req  VerifyRequest
	}{
		{name: "short text", req: VerifyRequest{Text: "too short"}},
		{name: "too long", req: VerifyRequest{Text: strings.Repeat("a", 10001)}},
		{name: "bad url", req: VerifyRequest{Text: neutralText, URLs: []string{"ftp://example.com"}}},
		{name: "too many urls", req: VerifyRequest{Text: neutralText, URLs: strings.Split("http://a,http://b,http://c,http://d,http://e,http://f", ",")}},
		{name: "too many images", req: VerifyRequest{Text: neutralText, Images: strings.Split("http://a,http://b,http://c,http://d", ",")}},
		{name: "language", req: VerifyRequest{Text: neutralText, Language: "xx"}},
		{name: "source type", req: VerifyRequest{Text: neutralText, SourceType: "pigeon"}},
		{name: "priority", req: VerifyRequest{Text: neutralText, Priority: "urgent"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestVerificationResult_NotFoundAndProcessing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewVerificationService(f.deps)

	_, err := svc.Result(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Result(ctx, "")
	assert.ErrorIs(t, err, ErrValidation)

	c, err := f.repo.CreateClaim(ctx, &model.Claim{Text: neutralText})
	require.NoError(t, err)
	res, err := svc.Result(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, VerificationProcessing, res.Status)
	assert.Equal(t, c.ID, res.Claim.ID)
	assert.Empty(t, res.Evidence)
}

func TestVerify_ArchivesReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	st := new(storeMocks.MockStorage)
	f.deps.Archive = storage.NewReportArchive(st, time.Minute)
	svc := NewVerificationService(f.deps)

	st.On("Put", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "reports/")
	}), mock.Anything, mock.Anything).Return(storage.ObjectInfo{Key: "reports/x.json"}, nil).Once()

	res, err := svc.Verify(ctx, VerifyRequest{Text: neutralText})
	require.NoError(t, err)

	key := storage.ReportKey(res.VerificationID)
	st.On("Stat", mock.Anything, key).Return(storage.ObjectInfo{Key: key}, nil)
	st.On("PresignGet", mock.Anything, key, time.Minute).Return("https://minio.local/"+key+"?sig=1", nil)

	link, err := svc.ReportURL(ctx, res.VerificationID)
	require.NoError(t, err)
	assert.Equal(t, res.VerificationID, link.VerificationID)
	assert.Contains(t, link.URL, key)
	st.AssertExpectations(t)
}

func TestReport_LoadsArchivedReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	st := new(storeMocks.MockStorage)
	f.deps.Archive = storage.NewReportArchive(st, time.Minute)
	svc := NewVerificationService(f.deps)

	var archived []byte
	st.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			b, err := io.ReadAll(args.Get(2).(io.Reader))
			require.NoError(t, err)
			archived = b
		}).
		Return(storage.ObjectInfo{}, nil).Once()

	res, err := svc.Verify(ctx, VerifyRequest{Text: neutralText})
	require.NoError(t, err)
	require.NotEmpty(t, archived)

	key := storage.ReportKey(res.VerificationID)
	st.On("Get", mock.Anything, key).
		Return(io.NopCloser(bytes.NewReader(archived)), storage.ObjectInfo{Key: key}, nil).Once()

	report, err := svc.Report(ctx, res.VerificationID)
	require.NoError(t, err)
	require.NotNil(t, report.Claim)
	assert.Equal(t, neutralText, report.Claim.Text)
	require.NotNil(t, report.Verdict)
	assert.Equal(t, res.VerificationID, report.Verdict.ClaimID)
	assert.NotNil(t, report.Card)
	st.AssertExpectations(t)
}

func TestReport_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := NewVerificationService(f.deps).Report(ctx, "c1")
	assert.ErrorIs(t, err, ErrUnavailable)

	st := new(storeMocks.MockStorage)
	f.deps.Archive = storage.NewReportArchive(st, time.Minute)
	svc := NewVerificationService(f.deps)

	_, err = svc.Report(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	c, err := f.repo.CreateClaim(ctx, &model.Claim{Text: uncertainText})
	require.NoError(t, err)
	st.On("Get", mock.Anything, storage.ReportKey(c.ID)).Return(nil, storage.ObjectInfo{}, storage.ErrObjectNotFound)
	_, err = svc.Report(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReportURL_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := NewVerificationService(f.deps).ReportURL(ctx, "c1")
	assert.ErrorIs(t, err, ErrUnavailable)

	st := new(storeMocks.MockStorage)
	f.deps.Archive = storage.NewReportArchive(st, time.Minute)
	svc := NewVerificationService(f.deps)

	_, err = svc.ReportURL(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	c, err := f.repo.CreateClaim(ctx, &model.Claim{Text: uncertainText})
	require.NoError(t, err)
	st.On("Stat", mock.Anything, storage.ReportKey(c.ID)).Return(storage.ObjectInfo{}, storage.ErrObjectNotFound)
	_, err = svc.ReportURL(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	c2, err := f.repo.CreateClaim(ctx, &model.Claim{Text: uncertainText})
	require.NoError(t, err)
	st.On("Stat", mock.Anything, storage.ReportKey(c2.ID)).Return(storage.ObjectInfo{}, errors.New("minio down"))
	_, err = svc.ReportURL(ctx, c2.ID)
	assert.ErrorContains(t, err, "minio down")
}
