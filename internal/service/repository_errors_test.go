package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"trustnet/internal/model"
	repoMocks "trustnet/internal/repository/mocks"
)

var errStoreDown = errors.New("store down")

func withMockRepo(t *testing.T) (*fixture, *repoMocks.MockRepository) {
	f := newFixture(t)
	repo := new(repoMocks.MockRepository)
	f.deps.Repo = repo
	return f, repo
}

func TestVerify_CreateClaimFailure(t *testing.T) {
	f, repo := withMockRepo(t)
	repo.On("CreateClaim", mock.Anything, mock.Anything).Return(nil, errStoreDown).Once()

	_, err := NewVerificationService(f.deps).Verify(context.Background(), VerifyRequest{Text: neutralText})
	require.ErrorIs(t, err, errStoreDown)
	assert.ErrorContains(t, err, "create claim")
	assert.Empty(t, f.events.Messages(f.deps.Topics.Verdicts))
	repo.AssertExpectations(t)
}

func TestVerify_CreateVerdictFailure(t *testing.T) {
	f, repo := withMockRepo(t)
	repo.On("CreateClaim", mock.Anything, mock.Anything).
		Return(&model.Claim{ID: "c1", Text: neutralText, Language: "en"}, nil).Once()
	repo.On("CreateVerdict", mock.Anything, mock.Anything).Return(nil, errStoreDown).Once()

	_, err := NewVerificationService(f.deps).Verify(context.Background(), VerifyRequest{Text: neutralText})
	require.ErrorIs(t, err, errStoreDown)
	repo.AssertExpectations(t)
}

func TestVerificationResult_RepositoryFailure(t *testing.T) {
	f, repo := withMockRepo(t)
	repo.On("GetClaim", mock.Anything, "c1").Return(nil, errStoreDown).Once()

	_, err := NewVerificationService(f.deps).Result(context.Background(), "c1")
	require.ErrorIs(t, err, errStoreDown)
	assert.NotErrorIs(t, err, ErrNotFound)
	repo.AssertExpectations(t)
}

func TestFeedbackSubmit_RepositoryFailures(t *testing.T) {
	req := FeedbackRequest{
		VerdictID:    "v1",
		UserRating:   model.UserRatingInaccurate,
		FeedbackType: model.FeedbackFactualError,
	}

	t.Run("verdict lookup", func(t *testing.T) {
		f, repo := withMockRepo(t)
		repo.On("GetVerdict", mock.Anything, "v1").Return(nil, errStoreDown).Once()

		_, err := NewFeedbackService(f.deps).Submit(context.Background(), req)
		require.ErrorIs(t, err, errStoreDown)
		repo.AssertExpectations(t)
	})

	t.Run("create", func(t *testing.T) {
		f, repo := withMockRepo(t)
		repo.On("GetVerdict", mock.Anything, "v1").Return(&model.Verdict{ID: "v1", ClaimID: "c1"}, nil).Once()
		repo.On("CreateFeedback", mock.Anything, mock.MatchedBy(func(fb *model.Feedback) bool {
			return fb.VerdictID == "v1" && fb.UserExpertise == model.ExpertiseGeneralPublic
		})).Return(nil, errStoreDown).Once()

		_, err := NewFeedbackService(f.deps).Submit(context.Background(), req)
		require.ErrorIs(t, err, errStoreDown)
		assert.ErrorContains(t, err, "create feedback")
		assert.Empty(t, f.events.Messages(f.deps.Topics.Verdicts))
		repo.AssertExpectations(t)
	})
}

func TestQuarantineSubmit_UpdateVerdictFailure(t *testing.T) {
	f, repo := withMockRepo(t)
	claim := &model.Claim{ID: "c1", Text: uncertainText, Language: "en"}
	verdict := &model.Verdict{ID: "v1", ClaimID: "c1", Rating: model.RatingInsufficientEvidence, ConfidenceScore: 0.525}

	repo.On("GetClaim", mock.Anything, "c1").Return(claim, nil).Once()
	repo.On("GetVerdictByClaim", mock.Anything, "c1").Return(verdict, nil).Once()
	repo.On("GetAnalysis", mock.Anything, "quarantine_c1", mock.Anything).Return(false, nil).Once()
	repo.On("StoreAnalysis", mock.Anything, "quarantine_c1", mock.Anything).Return(nil).Once()
	repo.On("UpdateVerdict", mock.Anything, "v1", mock.Anything).Return(errStoreDown).Once()

	_, err := NewQuarantineService(f.deps).SubmitVerdict(context.Background(), "c1", model.UserVerdict{
		UserVerdict: model.UserVerdictMisleading,
		Confidence:  4,
	})
	require.ErrorIs(t, err, errStoreDown)
	assert.ErrorContains(t, err, "update verdict")
	repo.AssertExpectations(t)
}
