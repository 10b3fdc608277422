package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string
	DatabaseURL     string

	ObjectStoreType string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string

	IngestEnabled    bool
	InboxPrefix      string
	ProcessedPrefix  string
	FailedPrefix     string
	PollInterval     time.Duration
	IngestBatchSize  int
	DefaultTenantID  int64
	DefaultDocTypeID int64
	ProcessedBy      string

	IndexSyncEnabled  bool
	IndexSyncInterval time.Duration
	IndexBatchSize    int
	MaxIndexableBytes int64
	MeiliHost         string
	MeiliAPIKey       string
	MeiliIndex        string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:             env,
		DatabaseURL:     dbURL,

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "memory")),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),

		IngestEnabled:    getEnvBool("INGEST_ENABLED", true),
		InboxPrefix:      getEnv("INBOX_PREFIX", "inbox"),
		ProcessedPrefix:  getEnv("PROCESSED_PREFIX", "processed"),
		FailedPrefix:     getEnv("FAILED_PREFIX", "failed"),
		PollInterval:     time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 30)) * time.Second,
		IngestBatchSize:  getEnvInt("INGEST_BATCH_SIZE", 25),
		DefaultTenantID:  int64(getEnvInt("DEFAULT_TENANT_ID", 1)),
		DefaultDocTypeID: int64(getEnvInt("DEFAULT_DOCUMENT_TYPE_ID", 1)),
		ProcessedBy:      getEnv("PROCESSED_BY", "dms-ingest-worker"),

		IndexSyncEnabled:  getEnvBool("INDEX_SYNC_ENABLED", true),
		IndexSyncInterval: time.Duration(getEnvInt("INDEX_SYNC_INTERVAL_SECONDS", 60)) * time.Second,
		IndexBatchSize:    getEnvInt("INDEX_BATCH_SIZE", 50),
		MaxIndexableBytes: int64(getEnvInt("MAX_INDEXABLE_CONTENT_BYTES", 1<<20)),
		MeiliHost:         getEnvAllowEmpty("MEILI_HOST", "http://localhost:7700"),
		MeiliAPIKey:       getEnv("MEILI_API_KEY", ""),
		MeiliIndex:        getEnv("MEILI_INDEX", "documents"),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvAllowEmpty keeps an explicitly empty value instead of falling
// back to the default. Setting MEILI_HOST="" selects the in-memory
// search engine.
func getEnvAllowEmpty(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(val)
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config: %s invalid int %q, using default %d", key, raw, def)
		return def
	}
	return val
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("config: %s invalid bool %q, using default %v", key, raw, def)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "memory"
	}
}
