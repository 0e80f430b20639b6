package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr              string
	DatabaseURL       string
	JWTSigningKey     string
	Redis             RedisConfig
	ReconcileInterval time.Duration
}

// RedisConfig holds connection settings for the optional Redis-backed
// notification store. An empty URL disables Redis and the in-memory store
// is used instead.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("CANVASS_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("CANVASS_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	reconcile := 5 * time.Minute
	if raw := os.Getenv("CANVASS_RECONCILE_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			reconcile = d
		}
	}

	return Server{
		Addr:          addr,
		DatabaseURL:   os.Getenv("CANVASS_DATABASE_URL"),
		JWTSigningKey: jwtSigningKey,
		Redis: RedisConfig{
			URL:          os.Getenv("CANVASS_REDIS_URL"),
			PoolSize:     envInt("CANVASS_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("CANVASS_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		ReconcileInterval: reconcile,
	}
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
