package mocks

import (
	"context"

	"trustnet/internal/model"
	"trustnet/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

var _ repository.Repository = (*MockRepository)(nil)

func (m *MockRepository) CreateClaim(ctx context.Context, c *model.Claim) (*model.Claim, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Claim), args.Error(1)
}

func (m *MockRepository) GetClaim(ctx context.Context, id string) (*model.Claim, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Claim), args.Error(1)
}

func (m *MockRepository) UpdateClaim(ctx context.Context, id string, fields map[string]any) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockRepository) CreateEvidence(ctx context.Context, e *model.Evidence) (*model.Evidence, error) {
	args := m.Called(ctx, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Evidence), args.Error(1)
}

func (m *MockRepository) ListEvidenceByClaim(ctx context.Context, claimID string) ([]model.Evidence, error) {
	args := m.Called(ctx, claimID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Evidence), args.Error(1)
}

func (m *MockRepository) CreateVerdict(ctx context.Context, v *model.Verdict) (*model.Verdict, error) {
	args := m.Called(ctx, v)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Verdict), args.Error(1)
}

func (m *MockRepository) GetVerdict(ctx context.Context, id string) (*model.Verdict, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Verdict), args.Error(1)
}

func (m *MockRepository) GetVerdictByClaim(ctx context.Context, claimID string) (*model.Verdict, error) {
	args := m.Called(ctx, claimID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Verdict), args.Error(1)
}

func (m *MockRepository) UpdateVerdict(ctx context.Context, id string, fields map[string]any) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockRepository) CreateFeedback(ctx context.Context, f *model.Feedback) (*model.Feedback, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Feedback), args.Error(1)
}

func (m *MockRepository) ListFeedbackByVerdict(ctx context.Context, verdictID string) ([]model.Feedback, error) {
	args := m.Called(ctx, verdictID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Feedback), args.Error(1)
}

func (m *MockRepository) ListFeedbackByUser(ctx context.Context, userID string) ([]model.Feedback, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Feedback), args.Error(1)
}

func (m *MockRepository) CreateEngagement(ctx context.Context, e *model.Engagement) (*model.Engagement, error) {
	args := m.Called(ctx, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Engagement), args.Error(1)
}

func (m *MockRepository) ListEngagementsByItem(ctx context.Context, itemID string) ([]model.Engagement, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Engagement), args.Error(1)
}

func (m *MockRepository) StoreAnalysis(ctx context.Context, id string, record any) error {
	args := m.Called(ctx, id, record)
	return args.Error(0)
}

func (m *MockRepository) GetAnalysis(ctx context.Context, id string, dst any) (bool, error) {
	args := m.Called(ctx, id, dst)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) UpdateAnalysis(ctx context.Context, id string, fields map[string]any) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockRepository) FindAnalysisByContentHash(ctx context.Context, hash string, dst any) (bool, error) {
	args := m.Called(ctx, hash, dst)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) ListQuarantineRecords(ctx context.Context) ([]model.QuarantineRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.QuarantineRecord), args.Error(1)
}
