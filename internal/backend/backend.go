// Package backend opens the stores, publisher, archive and worker pool selected by
// configuration and hands them to the service layer as one unit.
package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"trustnet/internal/cache"
	"trustnet/internal/config"
	"trustnet/internal/database"
	"trustnet/internal/database/migration"
	"trustnet/internal/docstore"
	"trustnet/internal/events"
	"trustnet/internal/kv"
	"trustnet/internal/lexicon"
	"trustnet/internal/logging"
	"trustnet/internal/repository/documents"
	"trustnet/internal/service"
	"trustnet/internal/storage"
	"trustnet/internal/worker"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Backend owns every stateful dependency of the API.
type Backend struct {
	KV      kv.Store
	Docs    *docstore.Store
	Events  events.Publisher
	Topics  events.Topics
	Cache   *cache.Manager
	Repo    *documents.Manager
	Archive *storage.ReportArchive
	Lexicon *lexicon.Lexicon
	Pool    *worker.Pool

	// db backs the Postgres docstore, which does not own it.
	db  *sql.DB
	log *logging.Logger
}

// Open connects the configured backends. A Redis outage at startup degrades to the
// in-memory cache when FallbackToMemory is set; a Postgres failure is fatal.
// reg may be nil, in which case cache metrics are not registered.
func Open(ctx context.Context, cfg *config.AppConfig, log *logging.Logger, reg prometheus.Registerer) (_ *Backend, err error) {
	b := &Backend{
		Topics: topics(cfg.Events),
		log:    log.With("backend"),
	}
	defer func() {
		if err != nil {
			_ = b.Close()
		}
	}()

	if b.Lexicon, err = lexicon.Load(cfg.Verification.LexiconPath); err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}
	if err := b.openKV(ctx, cfg.Cache); err != nil {
		return nil, err
	}
	if err := b.openDocs(ctx, cfg); err != nil {
		return nil, err
	}
	if err := b.openEvents(cfg.Events); err != nil {
		return nil, err
	}
	if cfg.MinIO.Endpoint != "" {
		st, err := storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			return nil, fmt.Errorf("open report archive: %w", err)
		}
		b.Archive = storage.NewReportArchive(st, cfg.MinIO.PresignExpiry)
	}

	opts := []cache.Option{
		cache.WithPrefix(cfg.Cache.KeyPrefix),
		cache.WithTTLs(cacheTTLs(cfg.Cache)),
		cache.WithLogger(log),
	}
	if reg != nil {
		m, err := cache.NewMetrics(reg)
		if err != nil {
			return nil, fmt.Errorf("register cache metrics: %w", err)
		}
		opts = append(opts, cache.WithMetrics(m))
	}
	b.Cache = cache.New(b.KV, opts...)
	b.Repo = documents.New(b.Docs)
	b.Pool = worker.New(cfg.Verification.Workers, cfg.Verification.QueueSize, log)

	b.log.Info("backend_ready", logging.Fields{
		"cache_backend":    b.kvBackend(),
		"docstore_backend": cfg.DocStore.Backend,
		"events_backend":   cfg.Events.Backend,
		"report_archive":   b.Archive != nil,
		"workers":          b.Pool.Workers(),
	})
	return b, nil
}

// NewMemory returns a fully in-memory backend with the embedded lexicon.
func NewMemory(log *logging.Logger, workers, queueSize int) (*Backend, error) {
	lex, err := lexicon.Default()
	if err != nil {
		return nil, err
	}
	store := docstore.NewMemory()
	kvs := kv.NewMemory()
	return &Backend{
		KV:      kvs,
		Docs:    store,
		Events:  events.NewMemory(),
		Topics:  events.DefaultTopics(),
		Cache:   cache.New(kvs, cache.WithLogger(log)),
		Repo:    documents.New(store),
		Lexicon: lex,
		Pool:    worker.New(workers, queueSize, log),
		log:     log.With("backend"),
	}, nil
}

func (b *Backend) openKV(ctx context.Context, c config.CacheConfig) error {
	switch c.Backend {
	case "", BackendMemory:
		b.KV = kv.NewMemory()
		return nil
	case BackendRedis:
		rs, err := kv.DialRedis(ctx, c.RedisURL, c.RedisPassword, c.RedisDB)
		if err == nil {
			b.KV = rs
			return nil
		}
		if !c.FallbackToMemory {
			return fmt.Errorf("open redis cache: %w", err)
		}
		b.log.Warn("cache_fallback_memory", err, logging.Fields{"redis_url": redactURL(c.RedisURL)})
		b.KV = kv.NewMemory()
		return nil
	}
	return fmt.Errorf("unsupported cache backend %q", c.Backend)
}

func (b *Backend) openDocs(ctx context.Context, cfg *config.AppConfig) error {
	switch cfg.DocStore.Backend {
	case "", BackendMemory:
		b.Docs = docstore.NewMemory()
		return nil
	case BackendPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("open document database: %w", err)
		}
		b.db = db
		if err := migration.EnsureMigrated(ctx, db, b.log, cfg.Database.Host); err != nil {
			return err
		}
		b.Docs = docstore.NewPostgres(db)
		return nil
	}
	return fmt.Errorf("unsupported docstore backend %q", cfg.DocStore.Backend)
}

// openEvents reuses the cache's Redis connection. Without one, events stay in memory.
func (b *Backend) openEvents(c config.EventsConfig) error {
	switch c.Backend {
	case "", BackendMemory:
		b.Events = events.NewMemory()
		return nil
	case BackendRedis:
		rs, ok := b.KV.(*kv.RedisStore)
		if !ok {
			b.log.Warn("events_fallback_memory", errors.New("redis cache not connected"), nil)
			b.Events = events.NewMemory()
			return nil
		}
		b.Events = events.NewRedis(rs.Client(), c.ChannelPrefix)
		return nil
	}
	return fmt.Errorf("unsupported events backend %q", c.Backend)
}

func (b *Backend) kvBackend() string {
	if _, ok := b.KV.(*kv.RedisStore); ok {
		return BackendRedis
	}
	return BackendMemory
}

func topics(c config.EventsConfig) events.Topics {
	t := events.DefaultTopics()
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&t.Analysis, c.TopicAnalysis)
	set(&t.Evidence, c.TopicEvidence)
	set(&t.FactCheck, c.TopicFactCheck)
	set(&t.Verdicts, c.TopicVerdicts)
	return t
}

func cacheTTLs(c config.CacheConfig) cache.TTLs {
	return cache.TTLs{
		Default:    c.DefaultTTL,
		Claim:      c.ClaimTTL,
		Verdict:    c.VerdictTTL,
		Evidence:   c.EvidenceTTL,
		Analysis:   c.AnalysisTTL,
		Feed:       c.FeedTTL,
		TrustScore: c.TrustScoreTTL,
	}
}

// Deps assembles the service dependencies.
func (b *Backend) Deps(rules config.VerificationConfig, log *logging.Logger) service.Deps {
	return service.Deps{
		Repo:    b.Repo,
		Cache:   b.Cache,
		Events:  b.Events,
		Topics:  b.Topics,
		Pool:    b.Pool,
		Archive: b.Archive,
		Lexicon: b.Lexicon,
		Log:     log,
		Rules:   rules,
		Now:     time.Now,
	}
}

// PingContext checks every connected backend concurrently.
func (b *Backend) PingContext(ctx context.Context) error {
	var g errgroup.Group
	if b.KV != nil {
		g.Go(func() error { return wrap("cache", b.KV.Ping(ctx)) })
	}
	if b.Docs != nil {
		g.Go(func() error { return wrap("docstore", b.Docs.Ping(ctx)) })
	}
	if b.Archive != nil {
		g.Go(func() error { return wrap("report archive", b.Archive.Ping(ctx)) })
	}
	return g.Wait()
}

// Close stops the pool and releases every backend. Events close before the
// cache because the Redis publisher borrows the cache's connection. The
// Postgres handle closes last, after the docstore built on it.
func (b *Backend) Close() error {
	if b.Pool != nil {
		b.Pool.Stop()
	}
	var errs []error
	if b.Events != nil {
		errs = append(errs, wrap("events", b.Events.Close()))
	}
	if b.KV != nil {
		errs = append(errs, wrap("cache", b.KV.Close()))
	}
	if b.Docs != nil {
		errs = append(errs, wrap("docstore", b.Docs.Close()))
	}
	if b.db != nil {
		errs = append(errs, wrap("document database", b.db.Close()))
	}
	return errors.Join(errs...)
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Redacted()
}

func wrap(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", what, err)
}
