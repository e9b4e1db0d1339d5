// Package documents implements repository.Repository over a docstore.Store.
package documents

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"trustnet/internal/docstore"
	"trustnet/internal/model"
	"trustnet/internal/repository"
)

// Collection names.
const (
	Claims      = "claims"
	Evidence    = "evidence"
	Verdicts    = "verdicts"
	Feedback    = "feedback"
	Engagements = "engagements"
	Analyses    = "analyses"
)

// Manager maps domain records to documents. Records are stored as their JSON
// representation so both docstore backends see the same field values.
type Manager struct {
	store *docstore.Store
	now   func() time.Time
}

var _ repository.Repository = (*Manager)(nil)

func New(store *docstore.Store) *Manager {
	return &Manager{store: store, now: func() time.Time { return time.Now().UTC() }}
}

func (m *Manager) CreateClaim(ctx context.Context, c *model.Claim) (*model.Claim, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = m.now()
	}
	if err := m.set(ctx, Claims, c.ID, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (m *Manager) GetClaim(ctx context.Context, id string) (*model.Claim, error) {
	var c model.Claim
	ok, err := m.get(ctx, Claims, id, &c)
	if err != nil || !ok {
		return nil, err
	}
	return &c, nil
}

func (m *Manager) UpdateClaim(ctx context.Context, id string, fields map[string]any) error {
	return m.update(ctx, Claims, id, m.stamped(fields))
}

func (m *Manager) CreateEvidence(ctx context.Context, e *model.Evidence) (*model.Evidence, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	now := m.now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.ExtractedAt.IsZero() {
		e.ExtractedAt = now
	}
	if err := m.set(ctx, Evidence, e.ID, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (m *Manager) ListEvidenceByClaim(ctx context.Context, claimID string) ([]model.Evidence, error) {
	return list[model.Evidence](ctx, m.store, Evidence, "claim_id", claimID)
}

func (m *Manager) CreateVerdict(ctx context.Context, v *model.Verdict) (*model.Verdict, error) {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = m.now()
	}
	if err := m.set(ctx, Verdicts, v.ID, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (m *Manager) GetVerdict(ctx context.Context, id string) (*model.Verdict, error) {
	var v model.Verdict
	ok, err := m.get(ctx, Verdicts, id, &v)
	if err != nil || !ok {
		return nil, err
	}
	return &v, nil
}

func (m *Manager) GetVerdictByClaim(ctx context.Context, claimID string) (*model.Verdict, error) {
	seq := m.store.Collection(Verdicts).Stream(ctx, docstore.Where("claim_id", claimID), docstore.Limit(1))
	for snap, err := range seq {
		if err != nil {
			return nil, fmt.Errorf("verdict for claim %s: %w", claimID, err)
		}
		var v model.Verdict
		if err := fromFields(snap.Fields, &v); err != nil {
			return nil, fmt.Errorf("decode verdict %s: %w", snap.ID, err)
		}
		return &v, nil
	}
	return nil, nil
}

func (m *Manager) UpdateVerdict(ctx context.Context, id string, fields map[string]any) error {
	return m.update(ctx, Verdicts, id, m.stamped(fields))
}

func (m *Manager) CreateFeedback(ctx context.Context, f *model.Feedback) (*model.Feedback, error) {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = m.now()
	}
	if err := m.set(ctx, Feedback, f.ID, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (m *Manager) ListFeedbackByVerdict(ctx context.Context, verdictID string) ([]model.Feedback, error) {
	return list[model.Feedback](ctx, m.store, Feedback, "verdict_id", verdictID)
}

func (m *Manager) ListFeedbackByUser(ctx context.Context, userID string) ([]model.Feedback, error) {
	return list[model.Feedback](ctx, m.store, Feedback, "user_id", userID)
}

func (m *Manager) CreateEngagement(ctx context.Context, e *model.Engagement) (*model.Engagement, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = m.now()
	}
	if err := m.set(ctx, Engagements, e.ID, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (m *Manager) ListEngagementsByItem(ctx context.Context, itemID string) ([]model.Engagement, error) {
	return list[model.Engagement](ctx, m.store, Engagements, "item_id", itemID)
}

func (m *Manager) StoreAnalysis(ctx context.Context, id string, record any) error {
	return m.set(ctx, Analyses, id, record)
}

func (m *Manager) GetAnalysis(ctx context.Context, id string, dst any) (bool, error) {
	return m.get(ctx, Analyses, id, dst)
}

func (m *Manager) UpdateAnalysis(ctx context.Context, id string, fields map[string]any) error {
	return m.update(ctx, Analyses, id, m.stamped(fields))
}

func (m *Manager) FindAnalysisByContentHash(ctx context.Context, hash string, dst any) (bool, error) {
	seq := m.store.Collection(Analyses).Stream(ctx, docstore.Where("content_hash", hash), docstore.Limit(1))
	for snap, err := range seq {
		if err != nil {
			return false, fmt.Errorf("analysis for hash %s: %w", hash, err)
		}
		if err := fromFields(snap.Fields, dst); err != nil {
			return false, fmt.Errorf("decode analysis %s: %w", snap.ID, err)
		}
		return true, nil
	}
	return false, nil
}

func (m *Manager) ListQuarantineRecords(ctx context.Context) ([]model.QuarantineRecord, error) {
	return list[model.QuarantineRecord](ctx, m.store, Analyses, "record_type", model.RecordTypeQuarantine)
}

// list decodes every document of collection whose field equals value.
func list[T any](ctx context.Context, store *docstore.Store, collection, field, value string) ([]T, error) {
	out := make([]T, 0)
	for snap, err := range store.Collection(collection).Stream(ctx, docstore.Where(field, value)) {
		if err != nil {
			return nil, fmt.Errorf("list %s by %s: %w", collection, field, err)
		}
		var v T
		if err := fromFields(snap.Fields, &v); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, snap.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *Manager) set(ctx context.Context, collection, id string, v any) error {
	fields, err := toFields(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	if err := m.store.Collection(collection).Doc(id).Set(ctx, fields); err != nil {
		return fmt.Errorf("store %s/%s: %w", collection, id, err)
	}
	return nil
}

func (m *Manager) update(ctx context.Context, collection, id string, partial map[string]any) error {
	fields, err := toFields(partial)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	if err := m.store.Collection(collection).Doc(id).Update(ctx, fields); err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	return nil
}

func (m *Manager) get(ctx context.Context, collection, id string, dst any) (bool, error) {
	snap, err := m.store.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return false, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	if !snap.Exists {
		return false, nil
	}
	if err := fromFields(snap.Fields, dst); err != nil {
		return false, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return true, nil
}

// stamped copies fields and sets updated_at.
func (m *Manager) stamped(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["updated_at"] = m.now()
	return out
}

func toFields(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func fromFields(fields map[string]any, dst any) error {
	b, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}
