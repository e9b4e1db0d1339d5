package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"trustnet/internal/model"
	"trustnet/internal/service"
)

type MockVerificationService struct {
	mock.Mock
}

func (m *MockVerificationService) Verify(ctx context.Context, req service.VerifyRequest) (*service.VerificationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.VerificationResult), args.Error(1)
}

func (m *MockVerificationService) Result(ctx context.Context, id string) (*service.VerificationResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.VerificationResult), args.Error(1)
}

func (m *MockVerificationService) ReportURL(ctx context.Context, id string) (*service.ReportLink, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReportLink), args.Error(1)
}

func (m *MockVerificationService) Report(ctx context.Context, id string) (*service.VerificationReport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.VerificationReport), args.Error(1)
}

type MockQuarantineService struct {
	mock.Mock
}

func (m *MockQuarantineService) Item(ctx context.Context, id string) (*service.QuarantineItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.QuarantineItem), args.Error(1)
}

func (m *MockQuarantineService) SubmitVerdict(ctx context.Context, id string, uv model.UserVerdict) (*service.QuarantineOutcome, error) {
	args := m.Called(ctx, id, uv)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.QuarantineOutcome), args.Error(1)
}

func (m *MockQuarantineService) Consensus(ctx context.Context, id string) (*service.Consensus, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Consensus), args.Error(1)
}

func (m *MockQuarantineService) Similar(ctx context.Context, id string) (*service.SimilarCases, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SimilarCases), args.Error(1)
}

func (m *MockQuarantineService) CommunityStats(ctx context.Context) (*service.QuarantineStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.QuarantineStats), args.Error(1)
}

type MockFeedService struct {
	mock.Mock
}

func (m *MockFeedService) Feed(ctx context.Context, q service.FeedQuery) (*service.EducationalFeed, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.EducationalFeed), args.Error(1)
}

func (m *MockFeedService) Item(ctx context.Context, id string) (*service.FeedItemDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FeedItemDetail), args.Error(1)
}

func (m *MockFeedService) Categories(ctx context.Context) []service.FeedCategory {
	args := m.Called(ctx)
	return args.Get(0).([]service.FeedCategory)
}

func (m *MockFeedService) Trends(ctx context.Context, language, timeRange string) (*service.TrendingPatterns, error) {
	args := m.Called(ctx, language, timeRange)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TrendingPatterns), args.Error(1)
}

func (m *MockFeedService) Engage(ctx context.Context, itemID string, req service.EngagementRequest) (*service.EngagementReceipt, error) {
	args := m.Called(ctx, itemID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.EngagementReceipt), args.Error(1)
}

type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) Analyze(ctx context.Context, req service.AnalyzeRequest) (*service.AnalysisResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AnalysisResponse), args.Error(1)
}

func (m *MockAnalysisService) Result(ctx context.Context, id string) (*model.AnalysisRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AnalysisRecord), args.Error(1)
}

func (m *MockAnalysisService) QuickAnalysis(content string) model.QuickAnalysis {
	args := m.Called(content)
	return args.Get(0).(model.QuickAnalysis)
}

func (m *MockAnalysisService) DetectTechniques(content string, deep bool) []model.ManipulationTechnique {
	args := m.Called(content, deep)
	return args.Get(0).([]model.ManipulationTechnique)
}

func (m *MockAnalysisService) TrustScore(ctx context.Context, contentHash string) (*model.TrustScore, error) {
	args := m.Called(ctx, contentHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TrustScore), args.Error(1)
}

func (m *MockAnalysisService) StartBatch(ctx context.Context, items []string) (*service.BatchAccepted, error) {
	args := m.Called(ctx, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BatchAccepted), args.Error(1)
}

func (m *MockAnalysisService) BatchStatus(ctx context.Context, id string) (*model.AnalysisRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AnalysisRecord), args.Error(1)
}

func (m *MockAnalysisService) EngineStatus(ctx context.Context) service.EngineStatus {
	args := m.Called(ctx)
	return args.Get(0).(service.EngineStatus)
}

type MockFeedbackService struct {
	mock.Mock
}

func (m *MockFeedbackService) Submit(ctx context.Context, req service.FeedbackRequest) (*service.FeedbackReceipt, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FeedbackReceipt), args.Error(1)
}

func (m *MockFeedbackService) ListByVerdict(ctx context.Context, verdictID string) ([]model.Feedback, error) {
	args := m.Called(ctx, verdictID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Feedback), args.Error(1)
}

var (
	_ service.VerificationService = (*MockVerificationService)(nil)
	_ service.QuarantineService   = (*MockQuarantineService)(nil)
	_ service.FeedService         = (*MockFeedService)(nil)
	_ service.AnalysisService     = (*MockAnalysisService)(nil)
	_ service.FeedbackService     = (*MockFeedbackService)(nil)
)

func (m *MockFeedbackService) Contributions(ctx context.Context, userID string, limit int) ([]service.UserContribution, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.UserContribution), args.Error(1)
}

func (m *MockFeedbackService) Reputation(ctx context.Context, userID string) (*service.ReputationScore, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReputationScore), args.Error(1)
}
