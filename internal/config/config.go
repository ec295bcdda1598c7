package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Settings backends accepted by SETTINGS_BACKEND.
const (
	SettingsBackendPostgres = "postgres"
	SettingsBackendRedis    = "redis"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	JWTIssuer          string
	JWTAudience        string
	AccessTokenTTL     time.Duration
	AccessCookie       string
	CookieSecure       bool
	CORSAllowedOrigins []string

	SettingsBackend string
	DyntaxStackFees bool
	LockTTL         time.Duration

	CartTTL         time.Duration
	TaxRateBps      int64
	CurrencyCode    string
	CatalogCacheTTL time.Duration
	IdempotencyTTL  time.Duration
	AdminRateLimit  int
	AdminRateWindow time.Duration
	CartRateLimit   int
	RunMigrations   bool

	LogFormat      string
	LogLevel       string
	MetricsBuckets string
	TraceExporter  string
	TraceEndpoint  string
	TraceRatio     float64
	ShutdownGrace  time.Duration
	PprofEnabled   bool
	PprofUser      string
	PprofPass      string
}

// Load reads configuration from environment variables and an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        strings.TrimSpace(k.String("DATABASE_URL")),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		JWTSecret:          k.String("JWT_SECRET"),
		JWTIssuer:          valueOrDefault(k.String("JWT_ISSUER"), "toko-dyntax"),
		JWTAudience:        valueOrDefault(k.String("JWT_AUDIENCE"), "toko-admin"),
		AccessTokenTTL:     parseDuration(k.String("ACCESS_TOKEN_TTL"), "15m"),
		AccessCookie:       valueOrDefault(k.String("ACCESS_COOKIE"), "access_token"),
		CookieSecure:       parseBool(k.String("COOKIE_SECURE")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		SettingsBackend: strings.ToLower(valueOrDefault(k.String("SETTINGS_BACKEND"), SettingsBackendPostgres)),
		DyntaxStackFees: parseBool(k.String("DYNTAX_STACK_FEES")),
		LockTTL:         parseDuration(k.String("SETTINGS_LOCK_TTL"), "5s"),

		CartTTL:         parseDuration(k.String("CART_TTL"), "720h"),
		TaxRateBps:      parseInt(k.String("PRICING_TAX_RATE_BPS"), 0),
		CurrencyCode:    strings.ToUpper(valueOrDefault(k.String("CURRENCY_CODE"), "USD")),
		CatalogCacheTTL: parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		IdempotencyTTL:  parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		AdminRateLimit:  int(parseInt(k.String("ADMIN_RATE_LIMIT"), 30)),
		AdminRateWindow: parseDuration(k.String("ADMIN_RATE_WINDOW"), "1m"),
		CartRateLimit:   int(parseInt(k.String("CART_RATE_LIMIT"), 120)),
		RunMigrations:   parseBool(valueOrDefault(k.String("RUN_MIGRATIONS"), "true")),

		LogFormat:      valueOrDefault(k.String("LOG_FORMAT"), "json"),
		LogLevel:       valueOrDefault(k.String("LOG_LEVEL"), "info"),
		MetricsBuckets: k.String("OBS_METRICS_BUCKETS_MS"),
		TraceExporter:  valueOrDefault(k.String("OTEL_TRACES_EXPORTER"), "none"),
		TraceEndpoint:  k.String("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TraceRatio:     parseFloat(k.String("OTEL_TRACES_SAMPLER_RATIO"), 1),
		ShutdownGrace:  parseDuration(k.String("SHUTDOWN_GRACE"), "15s"),
		PprofEnabled:   parseBool(k.String("OBS_ENABLE_PPROF")),
		PprofUser:      strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_USER")),
		PprofPass:      strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_PASS")),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	switch cfg.SettingsBackend {
	case SettingsBackendPostgres, SettingsBackendRedis:
	default:
		return nil, fmt.Errorf("SETTINGS_BACKEND must be %q or %q, got %q", SettingsBackendPostgres, SettingsBackendRedis, cfg.SettingsBackend)
	}
	if cfg.TaxRateBps < 0 {
		return nil, errors.New("PRICING_TAX_RATE_BPS must not be negative")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int64) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseFloat(value string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// LoadForTests applies env on top of the process environment, loads, and
// restores the previous values. An empty value unsets the key.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []error
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
