package events

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMemoryLimit is how many messages a MemoryPublisher keeps per topic.
const DefaultMemoryLimit = 1000

// MemoryPublisher records messages in process memory. Each topic keeps at
// most limit messages; the oldest are dropped first.
type MemoryPublisher struct {
	mu     sync.Mutex
	topics map[string][]Message
	limit  int
	closed bool
}

func NewMemory() *MemoryPublisher {
	return NewMemoryLimit(DefaultMemoryLimit)
}

// NewMemoryLimit keeps up to limit messages per topic. A limit below one falls back to DefaultMemoryLimit.
func NewMemoryLimit(limit int) *MemoryPublisher {
	if limit < 1 {
		limit = DefaultMemoryLimit
	}
	return &MemoryPublisher{topics: make(map[string][]Message), limit: limit}
}

func (p *MemoryPublisher) Publish(_ context.Context, topic string, payload any, attrs map[string]string) (string, error) {
	if p == nil {
		return "", ErrNotInitialized
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode payload for %s: %w", topic, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return "", ErrNotInitialized
	}
	msg := Message{
		ID:          uuid.New().String(),
		Topic:       topic,
		Data:        data,
		Attributes:  maps.Clone(attrs),
		PublishedAt: time.Now().UTC(),
	}
	msgs := append(p.topics[topic], msg)
	if over := len(msgs) - p.limit; over > 0 {
		msgs = slices.Delete(msgs, 0, over)
	}
	p.topics[topic] = msgs
	return msg.ID, nil
}

// Messages returns a copy of everything published to topic.
func (p *MemoryPublisher) Messages(topic string) []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Message, len(p.topics[topic]))
	copy(out, p.topics[topic])
	return out
}

func (p *MemoryPublisher) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
