package backend

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustnet/internal/config"
	"trustnet/internal/docstore"
	"trustnet/internal/events"
	"trustnet/internal/kv"
	"trustnet/internal/logging"
	"trustnet/internal/model"
	"trustnet/internal/service"
)

func memoryConfig() *config.AppConfig {
	return &config.AppConfig{
		Cache:    config.CacheConfig{Backend: BackendMemory, KeyPrefix: "test"},
		DocStore: config.DocStoreConfig{Backend: BackendMemory},
		Events:   config.EventsConfig{Backend: BackendMemory, TopicVerdicts: "custom-verdicts"},
		Verification: config.VerificationConfig{
			QuarantineThreshold: 0.65,
			AsyncThreshold:      5000,
			MaxURLsSync:         2,
			MaxTextLength:       10000,
			MaxURLs:             5,
			Workers:             2,
			QueueSize:           8,
		},
	}
}

func TestOpen_Memory(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()

	b, err := Open(ctx, memoryConfig(), logging.Nop(), reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	assert.IsType(t, &kv.MemoryStore{}, b.KV)
	assert.IsType(t, &events.MemoryPublisher{}, b.Events)
	assert.Nil(t, b.Archive)
	assert.Equal(t, "custom-verdicts", b.Topics.Verdicts)
	assert.Equal(t, "content-analysis", b.Topics.Analysis)
	assert.Equal(t, 2, b.Pool.Workers())
	assert.Equal(t, "test:claim:c1", b.Cache.Key("claim", "c1"))
	require.NoError(t, b.PingContext(ctx))

	// Cache metrics were registered on reg.
	_, err = Open(ctx, memoryConfig(), logging.Nop(), reg)
	assert.ErrorContains(t, err, "register cache metrics")
}

func TestOpen_RedisSharedWithEvents(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	cfg := memoryConfig()
	cfg.Cache.Backend = BackendRedis
	cfg.Cache.RedisURL = "redis://" + mr.Addr()
	cfg.Events.Backend = BackendRedis
	cfg.Events.ChannelPrefix = "trustnet"

	b, err := Open(ctx, cfg, logging.Nop(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	assert.IsType(t, &kv.RedisStore{}, b.KV)
	assert.IsType(t, &events.RedisPublisher{}, b.Events)
	require.NoError(t, b.PingContext(ctx))

	ok, err := b.Cache.CacheClaim(ctx, &model.Claim{ID: "c1"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("test:claim:c1"))
}

func TestOpen_RedisFallback(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := memoryConfig()
	cfg.Cache.Backend = BackendRedis
	cfg.Cache.RedisURL = "redis://:secret@" + addr
	cfg.Events.Backend = BackendRedis

	t.Run("falls back to memory", func(t *testing.T) {
		cfg.Cache.FallbackToMemory = true
		var buf bytes.Buffer

		b, err := Open(context.Background(), cfg, logging.New(&buf, time.UTC), nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = b.Close() })

		assert.IsType(t, &kv.MemoryStore{}, b.KV)
		assert.IsType(t, &events.MemoryPublisher{}, b.Events)
		assert.Contains(t, buf.String(), "cache_fallback_memory")
		assert.Contains(t, buf.String(), "events_fallback_memory")
		assert.NotContains(t, buf.String(), "secret")
	})

	t.Run("fails without fallback", func(t *testing.T) {
		cfg.Cache.FallbackToMemory = false

		_, err := Open(context.Background(), cfg, logging.Nop(), nil)
		assert.ErrorContains(t, err, "open redis cache")
	})
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.AppConfig)
		want   string
	}{
		{"unknown cache", func(c *config.AppConfig) { c.Cache.Backend = "memcached" }, `unsupported cache backend "memcached"`},
		{"unknown docstore", func(c *config.AppConfig) { c.DocStore.Backend = "mongo" }, `unsupported docstore backend "mongo"`},
		{"unknown events", func(c *config.AppConfig) { c.Events.Backend = "kafka" }, `unsupported events backend "kafka"`},
		{"postgres misconfigured", func(c *config.AppConfig) { c.DocStore.Backend = BackendPostgres }, "open document database"},
		{"minio misconfigured", func(c *config.AppConfig) { c.MinIO.Endpoint = "localhost:9000" }, "open report archive"},
		{"missing lexicon", func(c *config.AppConfig) {
			c.Verification.LexiconPath = filepath.Join(t.TempDir(), "missing.yaml")
		}, "load lexicon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := memoryConfig()
			tt.modify(cfg)
			_, err := Open(context.Background(), cfg, logging.Nop(), nil)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestOpen_CustomLexicon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
techniques:
  - id: false_urgency
    name: False Urgency
    keywords: [now]
    base: 0.4
    step: 0.1
    max: 0.85
    severity: medium
`), 0o600))

	cfg := memoryConfig()
	cfg.Verification.LexiconPath = path
	b, err := Open(context.Background(), cfg, logging.Nop(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	require.Len(t, b.Lexicon.Techniques, 1)
	assert.Equal(t, "false_urgency", b.Lexicon.Techniques[0].ID)
}

func TestBackend_CloseReleasesStores(t *testing.T) {
	ctx := context.Background()
	b, err := NewMemory(logging.Nop(), 1, 1)
	require.NoError(t, err)

	require.NoError(t, b.PingContext(ctx))
	require.NoError(t, b.Close())
	assert.Error(t, b.PingContext(ctx))
}

func TestBackend_CloseReleasesDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	b := &Backend{Docs: docstore.NewPostgres(db), db: db, log: logging.Nop()}
	require.NoError(t, b.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBackend_CloseReportsDatabaseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose().WillReturnError(errors.New("close failed"))

	b := &Backend{db: db, log: logging.Nop()}
	err = b.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document database: close failed")
}

func TestBackend_DepsDriveServices(t *testing.T) {
	ctx := context.Background()
	b, err := NewMemory(logging.Nop(), 1, 4)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	rules := memoryConfig().Verification
	svc := service.NewVerificationService(b.Deps(rules, logging.Nop()))

	res, err := svc.Verify(ctx, service.VerifyRequest{Text: "The city council approved the annual budget on Tuesday."})
	require.NoError(t, err)
	assert.Equal(t, service.VerificationCompleted, res.Status)

	got, err := svc.Result(ctx, res.VerificationID)
	require.NoError(t, err)
	assert.Equal(t, service.VerificationCompleted, got.Status)

	pub := b.Events.(*events.MemoryPublisher)
	assert.NotEmpty(t, pub.Messages(b.Topics.Verdicts))
}
