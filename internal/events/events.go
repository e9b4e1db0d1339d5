// Package events publishes pipeline notifications to named topics.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var ErrNotInitialized = errors.New("events: publisher not initialized")

// Topics names the channels used by the verification pipeline.
type Topics struct {
	Analysis  string
	Evidence  string
	FactCheck string
	Verdicts  string
}

func DefaultTopics() Topics {
	return Topics{
		Analysis:  "content-analysis",
		Evidence:  "evidence-retrieval",
		FactCheck: "fact-check-lookup",
		Verdicts:  "verdict-updates",
	}
}

// Message is the envelope delivered to subscribers.
type Message struct {
	ID          string            `json:"id"`
	Topic       string            `json:"topic"`
	Data        json.RawMessage   `json:"data"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	PublishedAt time.Time         `json:"published_at"`
}

// Publisher sends payloads to topics and returns the message id.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any, attrs map[string]string) (string, error)
	Close() error
}
