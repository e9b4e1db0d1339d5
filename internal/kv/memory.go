package kv

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps entries in process memory. Expired entries are evicted
// lazily when they are read. Writes are serialized by a mutex.
type MemoryStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	expiry map[string]time.Time
	now    func() time.Time
}

type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now, letting tests advance time without sleeping.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

func NewMemory(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		data:   make(map[string][]byte),
		expiry: make(map[string]time.Time),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if s == nil {
		return nil, false, ErrNotInitialized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, false, ErrNotInitialized
	}

	if !s.liveLocked(key) {
		return nil, false, nil
	}
	v := s.data[key]
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if s == nil {
		return ErrNotInitialized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return ErrNotInitialized
	}

	v := make([]byte, len(value))
	copy(v, value)
	s.data[key] = v
	if ttl > 0 {
		s.expiry[key] = s.now().Add(ttl)
	} else {
		delete(s.expiry, key)
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) (int, error) {
	if s == nil {
		return 0, ErrNotInitialized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return 0, ErrNotInitialized
	}

	if _, ok := s.data[key]; !ok {
		return 0, nil
	}
	delete(s.data, key)
	delete(s.expiry, key)
	return 1, nil
}

func (s *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	if s == nil {
		return false, ErrNotInitialized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return false, ErrNotInitialized
	}
	return s.liveLocked(key), nil
}

// Len reports the number of stored entries, including expired entries not yet evicted.
func (s *MemoryStore) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

func (s *MemoryStore) Ping(context.Context) error {
	if s == nil {
		return ErrNotInitialized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return ErrNotInitialized
	}
	return nil
}

// Close drops all entries. Further calls return ErrNotInitialized.
func (s *MemoryStore) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	s.expiry = nil
	return nil
}

// liveLocked reports whether key holds an unexpired value, evicting it if expired.
func (s *MemoryStore) liveLocked(key string) bool {
	if _, ok := s.data[key]; !ok {
		return false
	}
	if exp, ok := s.expiry[key]; ok && exp.Before(s.now()) {
		delete(s.data, key)
		delete(s.expiry, key)
		return false
	}
	return true
}
