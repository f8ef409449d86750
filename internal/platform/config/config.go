// Package config builds worker configuration from environment variables so
// main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"offboard/pkg/domain"
)

// RedisConfig captures coordination-store settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// IntegrationConfig is one downstream system's endpoint and shared secret.
type IntegrationConfig struct {
	BaseURL      string
	SharedSecret string
}

// Worker is the full worker-process configuration.
type Worker struct {
	// OpsAddr serves /healthz, /readyz and /metrics. Not a request API.
	OpsAddr string

	DatabaseURL string
	Redis       RedisConfig

	// KafkaBrokers empty means audit events stay in the in-process store.
	KafkaBrokers []string
	AuditTopic   string

	AccessControl IntegrationConfig
	Identity      IntegrationConfig

	// IntegrationSigningKey signs the per-run bearer tokens downstream
	// systems verify alongside the shared secret.
	IntegrationSigningKey string
	IntegrationIssuer     string

	// CronSpec fires the daily run; GuardWindow bounds the fleet-wide
	// mutual exclusion around it.
	CronSpec    string
	GuardWindow time.Duration

	// SystemUserID stamps updatedBy on automated transitions.
	SystemUserID domain.UserID
}

// FromEnv builds a Worker config from environment variables.
func FromEnv() Worker {
	return Worker{
		OpsAddr:     getenv("OFFBOARD_OPS_ADDR", ":9090"),
		DatabaseURL: getenv("DATABASE_URL", "postgres://localhost:5432/offboard?sslmode=disable"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intenv("REDIS_POOL_SIZE", 10),
			MinIdleConns: intenv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durenv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durenv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durenv("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		KafkaBrokers: splitenv("KAFKA_BROKERS"),
		AuditTopic:   getenv("AUDIT_TOPIC", "offboard.audit"),
		AccessControl: IntegrationConfig{
			BaseURL:      os.Getenv("ACCESS_CONTROL_BASE_URL"),
			SharedSecret: os.Getenv("ACCESS_CONTROL_SHARED_SECRET"),
		},
		Identity: IntegrationConfig{
			BaseURL:      os.Getenv("IDENTITY_BASE_URL"),
			SharedSecret: os.Getenv("IDENTITY_SHARED_SECRET"),
		},
		IntegrationSigningKey: getenv("INTEGRATION_SIGNING_KEY", "dev-secret-key-change-in-production"),
		IntegrationIssuer:     getenv("INTEGRATION_ISSUER", "offboard-worker"),
		CronSpec:              getenv("DEALLOCATION_CRON", "5 0 * * *"),
		GuardWindow:           durenv("RUN_GUARD_WINDOW", 30*time.Minute),
		SystemUserID:          domain.UserID(int64env("SYSTEM_USER_ID", 1)),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intenv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func int64env(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func durenv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitenv(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
