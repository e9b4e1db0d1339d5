package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for the verification report archive.
// The archive is disabled when Endpoint is empty.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PresignExpiry bounds the lifetime of report download links.
	PresignExpiry time.Duration
}

// CacheConfig selects the key-value cache backend and its TTL defaults.
type CacheConfig struct {
	// Backend is "memory" or "redis".
	Backend       string
	RedisURL      string
	RedisPassword string
	RedisDB       int
	// FallbackToMemory switches to the in-memory cache when Redis is unreachable at startup.
	FallbackToMemory bool
	KeyPrefix        string
	DefaultTTL       time.Duration
	ClaimTTL         time.Duration
	VerdictTTL       time.Duration
	EvidenceTTL      time.Duration
	AnalysisTTL      time.Duration
	FeedTTL          time.Duration
	TrustScoreTTL    time.Duration
}

// DocStoreConfig selects the document store backend ("memory" or "postgres").
type DocStoreConfig struct {
	Backend string
}

// EventsConfig selects the event publisher backend and topic names.
type EventsConfig struct {
	// Backend is "memory" or "redis". The redis publisher shares the cache connection settings.
	Backend        string
	ChannelPrefix  string
	TopicAnalysis  string
	TopicEvidence  string
	TopicFactCheck string
	TopicVerdicts  string
}

// VerificationConfig holds the tunable business rules of the verification pipeline.
type VerificationConfig struct {
	// QuarantineThreshold is the verdict confidence below which content goes to human review.
	QuarantineThreshold float64
	// AsyncThreshold is the text length above which verification is queued.
	AsyncThreshold int
	// MaxURLsSync is the number of URLs above which verification is queued.
	MaxURLsSync   int
	MaxTextLength int
	MaxURLs       int
	ModelVersion  string
	Workers       int
	QueueSize     int
	// LexiconPath optionally replaces the embedded keyword lexicon.
	LexiconPath string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost        string
	Port           string
	Environment    string
	TimeZone       string
	AllowedOrigins []string
	Database       DatabaseConfig
	MinIO          MinIOConfig
	Cache          CacheConfig
	DocStore       DocStoreConfig
	Events         EventsConfig
	Verification   VerificationConfig
}

// Location resolves TimeZone, falling back to UTC.
func (c *AppConfig) Location() *time.Location {
	if c.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:     getEnv("APP_HOST", "localhost:8000"),
		Port:        getEnv("PORT", "8000"),
		Environment: getEnv("ENVIRONMENT", "development"),
		TimeZone:    getEnv("TZ", "UTC"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://localhost:8080",
		}),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:      getEnv("MINIO_ENDPOINT", ""),
			AccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey:     getEnv("MINIO_SECRET_KEY", ""),
			Bucket:        getEnv("MINIO_BUCKET", "trustnet-reports"),
			UseSSL:        getEnvBool("MINIO_USE_SSL", false),
			PresignExpiry: getEnvDuration("MINIO_PRESIGN_EXPIRY", 15*time.Minute),
		},
		Cache: CacheConfig{
			Backend:          getEnv("CACHE_BACKEND", "memory"),
			RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379"),
			RedisPassword:    getEnv("REDIS_PASSWORD", ""),
			RedisDB:          getEnvInt("REDIS_DB", 0),
			FallbackToMemory: getEnvBool("CACHE_FALLBACK_TO_MEMORY", true),
			KeyPrefix:        getEnv("CACHE_KEY_PREFIX", "trustnet"),
			DefaultTTL:       getEnvDuration("CACHE_TTL", time.Hour),
			ClaimTTL:         getEnvDuration("CACHE_CLAIM_TTL", time.Hour),
			VerdictTTL:       getEnvDuration("CACHE_VERDICT_TTL", 2*time.Hour),
			EvidenceTTL:      getEnvDuration("CACHE_EVIDENCE_TTL", time.Hour),
			AnalysisTTL:      getEnvDuration("CACHE_ANALYSIS_TTL", 30*time.Minute),
			FeedTTL:          getEnvDuration("CACHE_FEED_TTL", 30*time.Minute),
			TrustScoreTTL:    getEnvDuration("CACHE_TRUST_SCORE_TTL", time.Hour),
		},
		DocStore: DocStoreConfig{
			Backend: getEnv("DOCSTORE_BACKEND", "memory"),
		},
		Events: EventsConfig{
			Backend:        getEnv("EVENTS_BACKEND", "memory"),
			ChannelPrefix:  getEnv("EVENTS_CHANNEL_PREFIX", "trustnet"),
			TopicAnalysis:  getEnv("PUBSUB_TOPIC_ANALYSIS", "content-analysis"),
			TopicEvidence:  getEnv("PUBSUB_TOPIC_EVIDENCE", "evidence-retrieval"),
			TopicFactCheck: getEnv("PUBSUB_TOPIC_FACTCHECK", "fact-check-lookup"),
			TopicVerdicts:  getEnv("PUBSUB_TOPIC_VERDICTS", "verdict-updates"),
		},
		Verification: VerificationConfig{
			QuarantineThreshold: getEnvFloat("QUARANTINE_CONFIDENCE_THRESHOLD", 0.65),
			AsyncThreshold:      getEnvInt("ASYNC_PROCESSING_THRESHOLD", 5000),
			MaxURLsSync:         getEnvInt("MAX_URLS_SYNC", 2),
			MaxTextLength:       getEnvInt("MAX_TEXT_LENGTH", 10000),
			MaxURLs:             getEnvInt("MAX_URLS_PER_REQUEST", 5),
			ModelVersion:        getEnv("MODEL_VERSION", "heuristic-1.0"),
			Workers:             getEnvInt("WORKER_COUNT", 4),
			QueueSize:           getEnvInt("WORKER_QUEUE_SIZE", 100),
			LexiconPath:         getEnv("LEXICON_PATH", ""),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

// getEnvDuration accepts Go duration strings ("90s", "2h") or a bare number of seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
