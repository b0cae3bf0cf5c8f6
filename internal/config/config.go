package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	DatabaseURL  string
	RedisAddr    string
	HTTPAddr     string
	MetricsAddr  string
	JWTSecret    string
	Location     *time.Location
	LogLevel     string
	Env          string // dev|prod
	SentryDSN    string
	TokenTTL     time.Duration
	ShutdownWait time.Duration
}

func Load() (*Config, error) {
	tz := getenv("TZ", "America/Santiago")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.Local
	}

	tokenTTL, err := time.ParseDuration(getenv("TOKEN_TTL", "12h"))
	if err != nil {
		return nil, fmt.Errorf("TOKEN_TTL: %w", err)
	}

	cfg := &Config{
		DatabaseURL:  mustEnv("DATABASE_URL"),
		RedisAddr:    getenv("REDIS_ADDR", "localhost:6379"),
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		MetricsAddr:  getenv("METRICS_ADDR", ":9090"),
		JWTSecret:    mustEnv("JWT_SECRET"),
		Location:     loc,
		LogLevel:     getenv("LOG_LEVEL", "info"),
		Env:          getenv("ENV", "dev"),
		SentryDSN:    os.Getenv("SENTRY_DSN"),
		TokenTTL:     tokenTTL,
		ShutdownWait: 5 * time.Second,
	}
	return cfg, nil
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("required env " + k + " is empty")
	}
	return v
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
