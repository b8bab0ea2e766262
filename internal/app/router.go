package app

import (
	"crypto/subtle"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ecovarrubiasl/strongpack.2/internal/catalog"
	"github.com/ecovarrubiasl/strongpack.2/internal/checkout"
	"github.com/ecovarrubiasl/strongpack.2/internal/common"
	"github.com/ecovarrubiasl/strongpack.2/internal/health"
	"github.com/ecovarrubiasl/strongpack.2/internal/obs"
	"github.com/ecovarrubiasl/strongpack.2/internal/ratelimit"
	"github.com/ecovarrubiasl/strongpack.2/internal/security"
	"github.com/ecovarrubiasl/strongpack.2/internal/storefront"
)

// ServiceName identifies the API in logs and traces.
const ServiceName = "strongpack-api"

const couponApplyRoute = "/api/v1/coupons/apply"

// Router mounts middleware and routes over the dependency graph.
func (d *Dependencies) Router() http.Handler {
	cfg := d.Config

	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Catalog: d.Catalog})
	storefrontHandler := &storefront.Handler{
		Engine:    d.Engine,
		Formatter: d.Formatter,
		Events:    d.Events,
		Validate:  d.Validator,
		Logger:    d.Logger.With().Str("component", "storefront").Logger(),
	}
	checkoutHandler := &checkout.Handler{
		Svc: &checkout.Service{
			Engine:   d.Engine,
			Gateway:  d.Gateway,
			Receipts: d.Receipts,
			Events:   d.Events,
			Logger:   d.Logger.With().Str("component", "checkout").Logger(),
		},
		Validate: d.Validator,
	}
	couponLimit := ratelimit.Handler{
		Limiter: d.CouponLimiter,
		Config: ratelimit.Config{
			Key:    ratelimit.ClientIPKey("coupon:"),
			Window: cfg.CouponRateLimit.Window,
			Max:    cfg.CouponRateLimit.Max,
		},
		OnError: func(err error) {
			d.Logger.Warn().Err(err).Msg("coupon rate limiter unavailable")
		},
		OnLimited: func(*http.Request) {
			obs.ObserveRateLimited(couponApplyRoute)
		},
	}
	idem := common.Idem{R: d.Redis, TTL: cfg.IdempotencyTTL, Prefix: keyPrefix + "idem:"}
	healthHandler := health.Handler{
		Checker:      health.RedisChecker{Client: d.Redis},
		RedisTimeout: 300 * time.Millisecond,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if cfg.Obs.EnableTracing {
		r.Use(obs.TracingMiddleware(ServiceName))
	}
	if d.HTTPMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: d.HTTPMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: d.Logger}.Middleware)
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.IsProduction(), TrustForwardedProto: true}.Middleware)
	r.Use(security.CORS(strings.Join(cfg.CORSAllowedOrigins, ",")))
	r.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)

	if cfg.Obs.EnablePrometheus {
		r.Handle("/metrics", promhttp.HandlerFor(d.MetricsRegistry, promhttp.HandlerOpts{}))
	}
	if cfg.Obs.EnablePprof {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), cfg.Obs.PprofUser, cfg.Obs.PprofPass))
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/product", catalogHandler.Product)
		v.Get("/affiliates/{code}", catalogHandler.Affiliate)

		v.Get("/storefront", storefrontHandler.Storefront)
		v.Post("/quote", storefrontHandler.Quote)
		v.With(couponLimit.Middleware).Post("/coupons/apply", storefrontHandler.ApplyCoupon)

		v.With(idem.Middleware).Post("/checkout", checkoutHandler.Checkout)
		v.Get("/checkout/{reference}", checkoutHandler.Receipt)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		common.JSONError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})
	return r
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorised", nil)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
