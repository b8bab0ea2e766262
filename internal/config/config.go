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

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	CORSAllowedOrigins []string
	CatalogFile        string
	CurrencyCode       string
	CurrencyLocale     string
	BodyLimitBytes     int64
	ShutdownTimeout    time.Duration
	IdempotencyTTL     time.Duration
	ReceiptTTL         time.Duration
	CouponRateLimit    RateLimit
	Gateway            Gateway
	Obs                Obs
}

// Gateway configures retries and the circuit breaker around the checkout gateway.
type Gateway struct {
	MaxAttempts    int
	BaseBackoff    time.Duration
	BreakerMinReqs int
	BreakerOpenFor time.Duration
}

// RateLimit configures the manual coupon apply limiter.
type RateLimit struct {
	Max      int
	Window   time.Duration
	Strategy string
}

// Obs configures logging, metrics and tracing.
type Obs struct {
	LogFormat        string
	LogLevel         string
	MetricsNamespace string
	HTTPBuckets      string
	EnablePrometheus bool
	EnableTracing    bool
	TracingExporter  string
	OTLPEndpoint     string
	SamplingRatio    float64
	EnablePprof      bool
	PprofUser        string
	PprofPass        string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		CatalogFile:        strings.TrimSpace(k.String("CATALOG_FILE")),
		CurrencyCode:       strings.ToUpper(valueOrDefault(k.String("CURRENCY_CODE"), "CLP")),
		CurrencyLocale:     valueOrDefault(k.String("CURRENCY_LOCALE"), "es-CL"),
		BodyLimitBytes:     parseInt64(k.String("BODY_LIMIT_BYTES"), 65536),
		ShutdownTimeout:    parseDuration(k.String("SHUTDOWN_TIMEOUT"), "10s"),
		IdempotencyTTL:     parseDuration(k.String("IDEMPOTENCY_TTL"), "10m"),
		ReceiptTTL:         parseDuration(k.String("RECEIPT_TTL"), "24h"),
		CouponRateLimit: RateLimit{
			Max:      int(parseInt64(k.String("COUPON_RATE_LIMIT_MAX"), 20)),
			Window:   parseDuration(k.String("COUPON_RATE_LIMIT_WINDOW"), "1m"),
			Strategy: strings.ToLower(valueOrDefault(k.String("COUPON_RATE_LIMIT_STRATEGY"), "fixed")),
		},
		Gateway: Gateway{
			MaxAttempts:    int(parseInt64(k.String("GATEWAY_MAX_ATTEMPTS"), 3)),
			BaseBackoff:    parseDuration(k.String("GATEWAY_BASE_BACKOFF"), "100ms"),
			BreakerMinReqs: int(parseInt64(k.String("GATEWAY_BREAKER_MIN_REQUESTS"), 5)),
			BreakerOpenFor: parseDuration(k.String("GATEWAY_BREAKER_OPEN_FOR"), "30s"),
		},
		Obs: Obs{
			LogFormat:        valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
			LogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "strongpack"),
			HTTPBuckets:      k.String("OBS_HTTP_BUCKETS_MS"),
			EnablePrometheus: parseBoolDefault(k.String("OBS_ENABLE_PROMETHEUS"), true),
			EnableTracing:    parseBool(k.String("OBS_ENABLE_TRACING")),
			TracingExporter:  strings.ToLower(valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp")),
			OTLPEndpoint:     strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
			SamplingRatio:    parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1.0),
			EnablePprof:      parseBool(k.String("OBS_ENABLE_PPROF")),
			PprofUser:        strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_USER")),
			PprofPass:        strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_PASS")),
		},
	}

	switch cfg.CouponRateLimit.Strategy {
	case "fixed", "sliding":
	default:
		return nil, fmt.Errorf("COUPON_RATE_LIMIT_STRATEGY must be fixed or sliding, got %q", cfg.CouponRateLimit.Strategy)
	}
	if cfg.CouponRateLimit.Strategy == "sliding" && cfg.RedisURL == "" {
		return nil, errors.New("COUPON_RATE_LIMIT_STRATEGY=sliding requires REDIS_URL")
	}
	if cfg.CouponRateLimit.Max < 0 {
		return nil, errors.New("COUPON_RATE_LIMIT_MAX must not be negative")
	}
	if cfg.Gateway.MaxAttempts < 1 {
		return nil, errors.New("GATEWAY_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.Obs.SamplingRatio < 0 || cfg.Obs.SamplingRatio > 1 {
		return nil, errors.New("OBS_TRACING_SAMPLING_RATIO must be within [0,1]")
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), "production")
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

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
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

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseBoolDefault(value string, fallback bool) bool {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return parseBool(value)
}

func parseInt64(value string, fallback int64) int64 {
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

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
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
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
