package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration. Values come from the
// environment so main stays lean and deploys stay twelve-factor.
type Config struct {
	Addr          string
	PostgresDSN   string
	RedisURL      string
	KafkaBrokers  []string
	KafkaTopic    string
	JWTSigningKey string

	// SweepInterval drives the escalation sweeper ticker. The engine itself
	// never schedules; cmd/server owns the timer.
	SweepInterval time.Duration

	// LargeEnterpriseRevenue is the trailing-revenue threshold above which a
	// submitting vendor is queued at high priority.
	LargeEnterpriseRevenue float64

	// SLAReportTTL bounds how stale a cached SLA dashboard report may be.
	SLAReportTTL time.Duration
}

// RedisConfig tunes the shared Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables with development
// defaults. Production overrides every secret-bearing value.
func FromEnv() Config {
	cfg := Config{
		Addr:                   envOr("VENDORFLOW_ADDR", ":8080"),
		PostgresDSN:            os.Getenv("VENDORFLOW_POSTGRES_DSN"),
		RedisURL:               os.Getenv("VENDORFLOW_REDIS_URL"),
		KafkaTopic:             envOr("VENDORFLOW_KAFKA_TOPIC", "vendor.workflow.events"),
		JWTSigningKey:          envOr("VENDORFLOW_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		SweepInterval:          envDuration("VENDORFLOW_SWEEP_INTERVAL", time.Hour),
		LargeEnterpriseRevenue: envFloat("VENDORFLOW_LARGE_ENTERPRISE_REVENUE", 10_000_000),
		SLAReportTTL:           envDuration("VENDORFLOW_SLA_REPORT_TTL", time.Minute),
	}
	if brokers := os.Getenv("VENDORFLOW_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

// Redis derives client tuning from the top-level config.
func (c Config) Redis() RedisConfig {
	return RedisConfig{
		URL:          c.RedisURL,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
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

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
