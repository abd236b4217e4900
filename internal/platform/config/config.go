package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates all runtime configuration. FromEnv builds it from
// environment variables so main stays lean.
type Config struct {
	Server      ServerConfig
	Redis       RedisConfig
	Postgres    PostgresConfig
	Kafka       KafkaConfig
	AWS         AWSConfig
	Credentials CredentialsConfig
	Audit       AuditConfig
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr     string
	LogLevel string
}

// RedisConfig configures the shared Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the durable audit store connection.
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// KafkaConfig configures the audit event publisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// AWSConfig configures the secret-manager credentials provider.
type AWSConfig struct {
	Region     string
	SecretName string
}

// CredentialsConfig tunes credential resolution and caching.
type CredentialsConfig struct {
	// CacheTTL bounds how long resolved credential material may be served
	// from cache before a fresh resolution is forced.
	CacheTTL time.Duration
	// LocalMode switches resolution to the development providers instead of
	// the secret manager.
	LocalMode bool
	// LocalIntegrationID is the reserved integration served a fixed config in
	// local mode, with no external calls at all.
	LocalIntegrationID string
	// DebugToken is exchanged for credentials against TokenExchangeURL when
	// running locally against a shared environment.
	DebugToken       string
	TokenExchangeURL string
}

// AuditConfig tunes the audit batching pipeline.
type AuditConfig struct {
	// FlushThreshold is the pending-count at which a queueing call triggers a
	// synchronous flush.
	FlushThreshold int
	// BatchSize is the number of records claimed and bulk-inserted per batch.
	BatchSize int
	// FlushInterval drains below-threshold stragglers from the janitor loop.
	FlushInterval time.Duration
	// Retention is how long persisted records are kept before the purge
	// deletes them.
	Retention time.Duration
	// PurgeInterval is how often the retention purge runs.
	PurgeInterval time.Duration
	// LeaderTTL bounds how long a purge/flush leadership claim lasts.
	LeaderTTL time.Duration
	// DisabledIntegrations lists integration ids whose event dispatch is
	// suppressed.
	DisabledIntegrations []string
}

// Two calendar months expressed as the longest possible pair of months, so the
// purge cutoff is never earlier than the contract requires.
const defaultRetention = 62 * 24 * time.Hour

// FromEnv builds a Config from environment variables, applying defaults that
// match production behavior.
func FromEnv() Config {
	return Config{
		Server: ServerConfig{
			Addr:     envString("CAREBRIDGE_ADDR", ":8080"),
			LogLevel: envString("LOG_LEVEL", "info"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			DSN:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: envList("KAFKA_BROKERS"),
			Topic:   envString("KAFKA_AUDIT_TOPIC", "integration-audit-events"),
		},
		AWS: AWSConfig{
			Region:     envString("AWS_REGION", "us-east-1"),
			SecretName: envString("INTEGRATIONS_SECRET_NAME", "integrations/credentials"),
		},
		Credentials: CredentialsConfig{
			CacheTTL:           envDuration("CREDENTIALS_CACHE_TTL", 300*time.Second),
			LocalMode:          os.Getenv("LOCAL_MODE") == "true",
			LocalIntegrationID: envString("LOCAL_INTEGRATION_ID", "local"),
			DebugToken:         os.Getenv("DEBUG_TOKEN"),
			TokenExchangeURL:   os.Getenv("TOKEN_EXCHANGE_URL"),
		},
		Audit: AuditConfig{
			FlushThreshold:       envInt("AUDIT_FLUSH_THRESHOLD", 30),
			BatchSize:            envInt("AUDIT_BATCH_SIZE", 10),
			FlushInterval:        envDuration("AUDIT_FLUSH_INTERVAL", time.Minute),
			Retention:            envDuration("AUDIT_RETENTION", defaultRetention),
			PurgeInterval:        envDuration("AUDIT_PURGE_INTERVAL", 24*time.Hour),
			LeaderTTL:            envDuration("AUDIT_LEADER_TTL", 5*time.Minute),
			DisabledIntegrations: envList("AUDIT_DISABLED_INTEGRATIONS"),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
