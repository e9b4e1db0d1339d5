package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trustnet/internal/cache"
	"trustnet/internal/config"
	"trustnet/internal/docstore"
	"trustnet/internal/events"
	"trustnet/internal/kv"
	"trustnet/internal/lexicon"
	"trustnet/internal/logging"
	"trustnet/internal/repository/documents"
)

const (
	neutralText   = "The city council approved the annual budget on Tuesday."
	uncertainText = "New report revealed details about the local water supply."
	alarmingText  = "SHOCKING secret exposed! Act now before it's too late."
)

var fixedNow = time.Date(2024, 1, 21, 10, 0, 0, 0, time.UTC)

type fixture struct {
	deps   Deps
	repo   *documents.Manager
	kv     *kv.MemoryStore
	events *events.MemoryPublisher
}

// newFixture wires the services to fresh in-memory backends. Without a pool, jobs run inline.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	lex, err := lexicon.Default()
	require.NoError(t, err)

	store := kv.NewMemory()
	pub := events.NewMemory()
	repo := documents.New(docstore.NewMemory())
	return &fixture{
		deps: Deps{
			Repo:    repo,
			Cache:   cache.New(store),
			Events:  pub,
			Topics:  events.DefaultTopics(),
			Lexicon: lex,
			Log:     logging.Nop(),
			Rules: config.VerificationConfig{
				QuarantineThreshold: 0.65,
				AsyncThreshold:      5000,
				MaxURLsSync:         2,
				MaxTextLength:       10000,
				MaxURLs:             5,
				ModelVersion:        "test-1",
			},
			Now: func() time.Time { return fixedNow },
		},
		repo:   repo,
		kv:     store,
		events: pub,
	}
}
