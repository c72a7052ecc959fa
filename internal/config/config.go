// Package config reads the service settings from the environment, after
// loading a .env file when one is present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"go-ees/internal/shared/connection"

	"github.com/joho/godotenv"
)

type Config struct {
	Port   string
	AppEnv string

	Postgres     connection.PostgresConfig
	DBMaxRetries int

	// RedisAddr and KafkaBroker are optional. Without them the list cache,
	// the Kafka alert sink and the outbox are disabled.
	RedisAddr    string
	ListCacheTTL time.Duration

	KafkaBroker     string
	KafkaAlertTopic string
	AlertTimeout    time.Duration
	AlertRecipient  string

	RateLimitRPS   float64
	RateLimitBurst int

	OutboxPollInterval time.Duration
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load reads .env (if any) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function. Every malformed value is
// reported, not just the first.
func FromEnv(getenv func(string) string) (Config, error) {
	p := parser{getenv: getenv}

	cfg := Config{
		Port:   p.str("PORT", "3000"),
		AppEnv: p.str("APP_ENV", "development"),
		Postgres: connection.PostgresConfig{
			Host:     p.str("DB_HOST", "localhost"),
			User:     p.str("DB_USER", "postgres"),
			Password: p.str("DB_PASSWORD", ""),
			Name:     p.str("DB_NAME", "ees"),
			Port:     p.str("DB_PORT", "5432"),
			SSLMode:  p.str("DB_SSLMODE", "disable"),
		},
		DBMaxRetries: p.int("DB_MAX_RETRIES", 5),

		RedisAddr:    p.str("REDIS_ADDR", ""),
		ListCacheTTL: p.duration("LIST_CACHE_TTL", 5*time.Minute),

		KafkaBroker:     p.str("KAFKA_BROKER", ""),
		KafkaAlertTopic: p.str("KAFKA_ALERT_TOPIC", "ees.alerts"),
		AlertTimeout:    p.duration("ALERT_TIMEOUT", 5*time.Second),
		AlertRecipient:  p.str("ALERT_RECIPIENT", "tech-team@ees.local"),

		RateLimitRPS:   p.float("RATE_LIMIT_RPS", 20),
		RateLimitBurst: p.int("RATE_LIMIT_BURST", 40),

		OutboxPollInterval: p.duration("OUTBOX_POLL_INTERVAL", 3*time.Second),
	}

	if cfg.DBMaxRetries < 1 {
		p.errs = append(p.errs, fmt.Errorf("DB_MAX_RETRIES must be at least 1, got %d", cfg.DBMaxRetries))
	}

	if len(p.errs) > 0 {
		return Config{}, errors.Join(p.errs...)
	}
	return cfg, nil
}

type parser struct {
	getenv func(string) string
	errs   []error
}

func (p *parser) str(key, def string) string {
	if v := p.getenv(key); v != "" {
		return v
	}
	return def
}

func (p *parser) int(key string, def int) int {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid number %q", key, v))
		return def
	}
	return f
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}
