package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ecovarrubiasl/strongpack.2/internal/catalog"
	"github.com/ecovarrubiasl/strongpack.2/internal/checkout"
	"github.com/ecovarrubiasl/strongpack.2/internal/common"
	"github.com/ecovarrubiasl/strongpack.2/internal/config"
	"github.com/ecovarrubiasl/strongpack.2/internal/events"
	"github.com/ecovarrubiasl/strongpack.2/internal/money"
	"github.com/ecovarrubiasl/strongpack.2/internal/obs"
	"github.com/ecovarrubiasl/strongpack.2/internal/pricing"
	"github.com/ecovarrubiasl/strongpack.2/internal/ratelimit"
	"github.com/ecovarrubiasl/strongpack.2/internal/resilience"
)

const keyPrefix = "strongpack:"

// Dependencies enumerates the services shared across handlers so wiring stays explicit.
type Dependencies struct {
	Config          *config.Config
	Logger          zerolog.Logger
	Catalog         *catalog.Catalog
	Engine          *pricing.Engine
	Formatter       *money.Formatter
	Redis           *redis.Client
	Validator       *validator.Validate
	CouponLimiter   ratelimit.Limiter
	Receipts        checkout.ReceiptStore
	Gateway         checkout.Gateway
	Events          *events.Bus
	MetricsRegistry *prometheus.Registry
	HTTPMetrics     *obs.HTTPMetrics
}

// New builds the dependency graph from cfg. Redis is optional; when
// configured it must answer a ping within the startup deadline.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Dependencies, error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	deps := &Dependencies{
		Config:    cfg,
		Logger:    logger,
		Validator: common.NewValidator(),
	}

	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	deps.Catalog = cat
	if deps.Engine, err = pricing.NewEngine(cat); err != nil {
		return nil, err
	}
	if deps.Formatter, err = money.NewFormatter(cfg.CurrencyLocale, cfg.CurrencyCode); err != nil {
		return nil, fmt.Errorf("currency formatter: %w", err)
	}
	logger.Info().
		Str("product_id", cat.Product().ID).
		Int("coupons", len(cat.Coupons())).
		Int("affiliates", len(cat.Affiliates())).
		Str("locale", deps.Formatter.Locale()).
		Str("currency", deps.Formatter.Currency()).
		Msg("catalog loaded")

	if cfg.RedisURL != "" {
		client, err := NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		deps.Redis = client
		if cfg.Obs.EnableTracing {
			if err := redisotel.InstrumentTracing(client); err != nil {
				logger.Error().Err(err).Msg("instrument redis tracing")
			}
		}
		if cfg.Obs.EnablePrometheus {
			if err := redisotel.InstrumentMetrics(client); err != nil {
				logger.Error().Err(err).Msg("instrument redis metrics")
			}
		}
	}

	if deps.CouponLimiter, err = NewCouponLimiter(cfg.CouponRateLimit, deps.Redis); err != nil {
		deps.Close()
		return nil, err
	}
	if deps.Redis != nil {
		deps.Receipts = checkout.RedisReceipts{Client: deps.Redis, TTL: cfg.ReceiptTTL, Prefix: keyPrefix + "receipt:"}
	} else {
		deps.Receipts = checkout.NewMemoryReceipts()
	}

	deps.MetricsRegistry = prometheus.NewRegistry()
	deps.MetricsRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, deps.MetricsRegistry)

	gatewayLogger := logger.With().Str("component", "gateway").Logger()
	deps.Gateway = checkout.GuardedGateway{
		Next: checkout.SimulatedGateway{Logger: gatewayLogger},
		Breaker: resilience.NewBreaker(resilience.BreakerConfig{
			Target:      "checkout_gateway",
			MinRequests: cfg.Gateway.BreakerMinReqs,
			OpenFor:     cfg.Gateway.BreakerOpenFor,
			Logger:      gatewayLogger,
			Metrics:     resilience.NewMetrics(cfg.Obs.MetricsNamespace, deps.MetricsRegistry),
			IsFailure:   checkout.IsGatewayFailure,
		}),
		MaxAttempts: cfg.Gateway.MaxAttempts,
		BaseBackoff: cfg.Gateway.BaseBackoff,
	}
	if cfg.Obs.EnablePrometheus {
		deps.HTTPMetrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(cfg.Obs.HTTPBuckets), deps.MetricsRegistry)
	}

	deps.Events = &events.Bus{Notifiers: []events.Notifier{
		events.LogNotifier{Logger: logger.With().Str("component", "events").Logger()},
		events.MetricsNotifier{Counter: obs.EventsTotal},
	}}
	return deps, nil
}

// NewRedis parses url and pings the server.
func NewRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewCouponLimiter picks the limiter implementation for the coupon apply endpoint.
func NewCouponLimiter(cfg config.RateLimit, client *redis.Client) (ratelimit.Limiter, error) {
	switch {
	case cfg.Strategy == "sliding":
		if client == nil {
			return nil, errors.New("sliding rate limit requires redis")
		}
		return ratelimit.SlidingWindow{Client: client, Prefix: keyPrefix + "sliding:"}, nil
	case client != nil:
		return ratelimit.NewRedisFixedWindow(client, keyPrefix+"limiter")
	default:
		return ratelimit.NewMemoryFixedWindow(keyPrefix + "limiter"), nil
	}
}

// Close releases external connections.
func (d *Dependencies) Close() {
	if d == nil || d.Redis == nil {
		return
	}
	if err := d.Redis.Close(); err != nil {
		d.Logger.Error().Err(err).Msg("close redis")
	}
}
