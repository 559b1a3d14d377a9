// Package config reads service configuration from environment variables,
// falling back to local-development defaults.
package config

import (
	"os"
	"strings"
	"time"
)

// Storage backends.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Notifier transports.
const (
	NotifierRedis = "redis"
	NotifierKafka = "kafka"
	NotifierNone  = "none"
)

// Config holds all service settings except the database connection, which
// the database package reads on its own.
type Config struct {
	Port    string
	Backend string

	RedisAddr    string
	CacheTTL     time.Duration
	KafkaBrokers []string
	KafkaTopic   string
	Notifier     string

	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Load reads the configuration from the environment.
func Load() Config {
	return Config{
		Port:    getEnv("PORT", "8080"),
		Backend: getEnv("STORAGE_BACKEND", BackendPostgres),

		RedisAddr:    getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		CacheTTL:     getDuration("CACHE_TTL", 30*time.Second),
		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "127.0.0.1:9092")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "eventhub.slots"),
		Notifier:     getEnv("NOTIFIER", NotifierRedis),

		AccessSecret:  getEnv("JWT_SECRET", "dev-access-secret"),
		RefreshSecret: getEnv("JWT_REFRESH_SECRET", "dev-refresh-secret"),
		AccessTTL:     getDuration("ACCESS_TOKEN_TTL", time.Hour),
		RefreshTTL:    getDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
