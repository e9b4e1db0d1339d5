// Package cache stores JSON documents in a kv.Store under namespaced keys.
//
// Keys have the form {prefix}:{category}:{id}. The cache is an optimization
// over the document store: backend failures and malformed payloads are logged
// and reported as misses, never returned to the caller. The only error
// surfaced is ErrNotInitialized.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"trustnet/internal/kv"
	"trustnet/internal/logging"
)

// ErrNotInitialized is returned when the manager has no backing store.
var ErrNotInitialized = kv.ErrNotInitialized

const DefaultPrefix = "trustnet"

// Categories used by the typed helpers.
const (
	CategoryClaim      = "claim"
	CategoryVerdict    = "verdict"
	CategoryEvidence   = "evidence"
	CategoryAnalysis   = "analysis"
	CategoryFeed       = "feed"
	CategoryTrustScore = "trust_score"
)

// TTLs are the expiry defaults per category. Default applies when a caller passes ttl 0.
type TTLs struct {
	Default    time.Duration
	Claim      time.Duration
	Verdict    time.Duration
	Evidence   time.Duration
	Analysis   time.Duration
	Feed       time.Duration
	TrustScore time.Duration
}

func DefaultTTLs() TTLs {
	return TTLs{
		Default:    time.Hour,
		Claim:      time.Hour,
		Verdict:    2 * time.Hour,
		Evidence:   time.Hour,
		Analysis:   30 * time.Minute,
		Feed:       30 * time.Minute,
		TrustScore: time.Hour,
	}
}

// Manager wraps a kv.Store with key namespacing and JSON encoding.
type Manager struct {
	store   kv.Store
	prefix  string
	ttls    TTLs
	log     *logging.Logger
	metrics *Metrics
}

type Option func(*Manager)

func WithPrefix(prefix string) Option {
	return func(m *Manager) {
		if prefix != "" {
			m.prefix = prefix
		}
	}
}

// WithTTLs overrides the per-category defaults. Zero fields keep the built-in value.
func WithTTLs(t TTLs) Option {
	return func(m *Manager) {
		set := func(dst *time.Duration, v time.Duration) {
			if v > 0 {
				*dst = v
			}
		}
		set(&m.ttls.Default, t.Default)
		set(&m.ttls.Claim, t.Claim)
		set(&m.ttls.Verdict, t.Verdict)
		set(&m.ttls.Evidence, t.Evidence)
		set(&m.ttls.Analysis, t.Analysis)
		set(&m.ttls.Feed, t.Feed)
		set(&m.ttls.TrustScore, t.TrustScore)
	}
}

func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) { m.log = l.With("cache") }
}

func WithMetrics(mt *Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

func New(store kv.Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		prefix: DefaultPrefix,
		ttls:   DefaultTTLs(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Key builds the namespaced key for category and id.
func (m *Manager) Key(category, id string) string {
	return m.prefix + ":" + category + ":" + id
}

func (m *Manager) TTLs() TTLs { return m.ttls }

// GetJSON decodes the entry for (category, id) into dst and reports whether it was found.
func (m *Manager) GetJSON(ctx context.Context, category, id string, dst any) (bool, error) {
	if m == nil || m.store == nil {
		return false, ErrNotInitialized
	}
	key := m.Key(category, id)
	raw, found, err := m.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotInitialized) {
			return false, ErrNotInitialized
		}
		m.metrics.observe(category, "error")
		m.log.Warn("cache_get_failed", err, logging.Fields{"key": key})
		return false, nil
	}
	if !found {
		m.metrics.observe(category, "miss")
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		m.metrics.observe(category, "error")
		m.log.Warn("cache_payload_malformed", err, logging.Fields{"key": key})
		return false, nil
	}
	m.metrics.observe(category, "hit")
	return true, nil
}

// SetJSON encodes v and stores it under (category, id). ttl 0 uses the default TTL.
// It reports whether the value was stored.
func (m *Manager) SetJSON(ctx context.Context, category, id string, v any, ttl time.Duration) (bool, error) {
	if m == nil || m.store == nil {
		return false, ErrNotInitialized
	}
	key := m.Key(category, id)
	raw, err := json.Marshal(v)
	if err != nil {
		m.log.Warn("cache_encode_failed", err, logging.Fields{"key": key})
		return false, nil
	}
	if ttl == 0 {
		ttl = m.ttls.Default
	}
	if err := m.store.Set(ctx, key, raw, ttl); err != nil {
		if errors.Is(err, kv.ErrNotInitialized) {
			return false, ErrNotInitialized
		}
		m.log.Warn("cache_set_failed", err, logging.Fields{"key": key})
		return false, nil
	}
	return true, nil
}

// Delete removes the entry and reports whether one existed.
func (m *Manager) Delete(ctx context.Context, category, id string) (bool, error) {
	if m == nil || m.store == nil {
		return false, ErrNotInitialized
	}
	key := m.Key(category, id)
	n, err := m.store.Delete(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotInitialized) {
			return false, ErrNotInitialized
		}
		m.log.Warn("cache_delete_failed", err, logging.Fields{"key": key})
		return false, nil
	}
	return n > 0, nil
}

func (m *Manager) Exists(ctx context.Context, category, id string) (bool, error) {
	if m == nil || m.store == nil {
		return false, ErrNotInitialized
	}
	key := m.Key(category, id)
	ok, err := m.store.Exists(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotInitialized) {
			return false, ErrNotInitialized
		}
		m.log.Warn("cache_exists_failed", err, logging.Fields{"key": key})
		return false, nil
	}
	return ok, nil
}
