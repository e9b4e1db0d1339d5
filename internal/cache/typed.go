package cache

import (
	"context"

	"trustnet/internal/model"
)

// evidenceEnvelope is the stored shape of a claim's evidence list.
type evidenceEnvelope struct {
	Evidence []model.Evidence `json:"evidence"`
}

func (m *Manager) CacheClaim(ctx context.Context, c *model.Claim) (bool, error) {
	return m.SetJSON(ctx, CategoryClaim, c.ID, c, m.ttls.Claim)
}

// GetClaim returns the cached claim, or nil on a miss.
func (m *Manager) GetClaim(ctx context.Context, id string) (*model.Claim, error) {
	var c model.Claim
	ok, err := m.GetJSON(ctx, CategoryClaim, id, &c)
	if err != nil || !ok {
		return nil, err
	}
	return &c, nil
}

// CacheVerdict stores v keyed by its claim id.
func (m *Manager) CacheVerdict(ctx context.Context, v *model.Verdict) (bool, error) {
	return m.SetJSON(ctx, CategoryVerdict, v.ClaimID, v, m.ttls.Verdict)
}

// GetVerdict returns the cached verdict for claimID, or nil on a miss.
func (m *Manager) GetVerdict(ctx context.Context, claimID string) (*model.Verdict, error) {
	var v model.Verdict
	ok, err := m.GetJSON(ctx, CategoryVerdict, claimID, &v)
	if err != nil || !ok {
		return nil, err
	}
	return &v, nil
}

func (m *Manager) CacheEvidence(ctx context.Context, claimID string, ev []model.Evidence) (bool, error) {
	if ev == nil {
		ev = []model.Evidence{}
	}
	return m.SetJSON(ctx, CategoryEvidence, claimID, evidenceEnvelope{Evidence: ev}, m.ttls.Evidence)
}

// GetEvidence returns the cached evidence list and whether it was cached.
func (m *Manager) GetEvidence(ctx context.Context, claimID string) ([]model.Evidence, bool, error) {
	var env evidenceEnvelope
	ok, err := m.GetJSON(ctx, CategoryEvidence, claimID, &env)
	if err != nil || !ok {
		return nil, false, err
	}
	return env.Evidence, true, nil
}

// CacheAnalysis stores an arbitrary analysis result under a content hash.
func (m *Manager) CacheAnalysis(ctx context.Context, contentHash string, v any) (bool, error) {
	return m.SetJSON(ctx, CategoryAnalysis, contentHash, v, m.ttls.Analysis)
}

func (m *Manager) GetAnalysis(ctx context.Context, contentHash string, dst any) (bool, error) {
	return m.GetJSON(ctx, CategoryAnalysis, contentHash, dst)
}

// CacheFeed stores a rendered feed page under key.
func (m *Manager) CacheFeed(ctx context.Context, key string, v any) (bool, error) {
	return m.SetJSON(ctx, CategoryFeed, key, v, m.ttls.Feed)
}

func (m *Manager) GetFeed(ctx context.Context, key string, dst any) (bool, error) {
	return m.GetJSON(ctx, CategoryFeed, key, dst)
}

func (m *Manager) CacheTrustScore(ctx context.Context, ts *model.TrustScore) (bool, error) {
	return m.SetJSON(ctx, CategoryTrustScore, ts.ContentHash, ts, m.ttls.TrustScore)
}

// GetTrustScore returns the cached trust score for contentHash, or nil on a miss.
func (m *Manager) GetTrustScore(ctx context.Context, contentHash string) (*model.TrustScore, error) {
	var ts model.TrustScore
	ok, err := m.GetJSON(ctx, CategoryTrustScore, contentHash, &ts)
	if err != nil || !ok {
		return nil, err
	}
	return &ts, nil
}

// InvalidateClaim drops the claim, verdict and evidence entries of claimID.
func (m *Manager) InvalidateClaim(ctx context.Context, claimID string) error {
	for _, category := range []string{CategoryClaim, CategoryVerdict, CategoryEvidence} {
		if _, err := m.Delete(ctx, category, claimID); err != nil {
			return err
		}
	}
	return nil
}
