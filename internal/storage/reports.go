package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"
)

// ReportArchive keeps one JSON verification report per claim under reports/{claim_id}.json.
type ReportArchive struct {
	store  Storage
	expiry time.Duration
}

// NewReportArchive wraps store. expiry bounds presigned download links; it defaults to 15 minutes.
func NewReportArchive(store Storage, expiry time.Duration) *ReportArchive {
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &ReportArchive{store: store, expiry: expiry}
}

func ReportKey(claimID string) string {
	return path.Join("reports", claimID+".json")
}

// Save encodes report as JSON and uploads it, replacing any previous report for the claim.
func (a *ReportArchive) Save(ctx context.Context, claimID string, report any) (ObjectInfo, error) {
	b, err := json.Marshal(report)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("encode report: %w", err)
	}
	info, err := a.store.Put(ctx, ReportKey(claimID), bytes.NewReader(b), PutObjectOptions{
		Size:        int64(len(b)),
		ContentType: "application/json",
		Metadata:    map[string]string{"claim-id": claimID},
	})
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("upload report: %w", err)
	}
	return info, nil
}

// Load decodes the archived report of claimID into dst.
func (a *ReportArchive) Load(ctx context.Context, claimID string, dst any) error {
	rc, _, err := a.store.Get(ctx, ReportKey(claimID))
	if err != nil {
		return err
	}
	defer rc.Close()
	if err := json.NewDecoder(rc).Decode(dst); err != nil {
		return fmt.Errorf("decode report: %w", err)
	}
	return nil
}

// URL returns a presigned download link. It fails with ErrObjectNotFound when no report exists.
func (a *ReportArchive) URL(ctx context.Context, claimID string) (string, time.Time, error) {
	key := ReportKey(claimID)
	if _, err := a.store.Stat(ctx, key); err != nil {
		return "", time.Time{}, err
	}
	u, err := a.store.PresignGet(ctx, key, a.expiry)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign report: %w", err)
	}
	return u, time.Now().UTC().Add(a.expiry), nil
}

func (a *ReportArchive) Ping(ctx context.Context) error {
	return a.store.Ping(ctx)
}
