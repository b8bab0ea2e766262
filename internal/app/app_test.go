package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ecovarrubiasl/strongpack.2/internal/app"
	"github.com/ecovarrubiasl/strongpack.2/internal/config"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:          "test",
		CurrencyCode:    "CLP",
		CurrencyLocale:  "es-CL",
		BodyLimitBytes:  1 << 16,
		IdempotencyTTL:  time.Minute,
		ReceiptTTL:      time.Hour,
		CouponRateLimit: config.RateLimit{Max: 2, Window: time.Minute, Strategy: "fixed"},
		Obs: config.Obs{
			MetricsNamespace: "strongpack",
			EnablePrometheus: true,
		},
	}
}

func newServer(t *testing.T, cfg *config.Config) (*app.Dependencies, http.Handler) {
	t.Helper()
	deps, err := app.New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(deps.Close)
	return deps, deps.Router()
}

func do(t *testing.T, h http.Handler, method, target, body string, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestStorefrontFlow(t *testing.T) {
	_, h := newServer(t, testConfig())

	rec, env := do(t, h, http.MethodGet, "/api/v1/storefront?ref=fitjuan10&coupon=fit10", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		Summary struct {
			Total     int64  `json:"total"`
			Discount  int64  `json:"discount"`
			Ref       string `json:"ref"`
			Affiliate *struct {
				Owner string `json:"owner"`
			} `json:"affiliate"`
		} `json:"summary"`
		Display struct {
			Total string `json:"total"`
		} `json:"display"`
		Product struct {
			ID string `json:"id"`
		} `json:"product"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.Equal(t, int64(53091), view.Summary.Total)
	require.Equal(t, int64(5899), view.Summary.Discount)
	require.Equal(t, "FITJUAN10", view.Summary.Ref)
	require.NotNil(t, view.Summary.Affiliate)
	require.Equal(t, "Juan Pérez", view.Summary.Affiliate.Owner)
	require.Contains(t, view.Display.Total, "53.091")
	require.Equal(t, "pack-fitness-001", view.Product.ID)

	rec, env = do(t, h, http.MethodPost, "/api/v1/quote", `{"subscribe":false,"quantity":2,"coupon":"start5000"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var quote struct {
		Summary struct {
			Total int64 `json:"total"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &quote))
	require.Equal(t, int64(124980), quote.Summary.Total)

	rec, env = do(t, h, http.MethodPost, "/api/v1/quote", `{"coupon":"nope"}`, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "INVALID_COUPON", env.Error.Code)

	rec, env = do(t, h, http.MethodPost, "/api/v1/quote", `{"quantity":5000}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
}

func TestCatalogRoutes(t *testing.T) {
	_, h := newServer(t, testConfig())

	rec, _ := do(t, h, http.MethodGet, "/api/v1/product", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := do(t, h, http.MethodGet, "/api/v1/affiliates/crossfitcaro", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, string(env.Data), "CROSSFITCARO")

	rec, env = do(t, h, http.MethodGet, "/api/v1/nothing-here", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestCheckoutAndReceiptInMemory(t *testing.T) {
	_, h := newServer(t, testConfig())

	rec, env := do(t, h, http.MethodPost, "/api/v1/checkout", `{"subscribe":true,"quantity":1,"coupon":"FIT10","ref":"FITJUAN10"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var result struct {
		Receipt struct {
			Reference string `json:"reference"`
			Total     int64  `json:"total"`
		} `json:"receipt"`
		Payload struct {
			Total  int64   `json:"total"`
			Coupon *string `json:"coupon"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.Equal(t, int64(53091), result.Payload.Total)
	require.NotNil(t, result.Payload.Coupon)
	require.NotEmpty(t, result.Receipt.Reference)

	rec, env = do(t, h, http.MethodGet, "/api/v1/checkout/"+result.Receipt.Reference, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, string(env.Data), result.Receipt.Reference)

	rec, _ = do(t, h, http.MethodGet, "/api/v1/checkout/not-a-uuid", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCouponApplyIsRateLimited(t *testing.T) {
	_, h := newServer(t, testConfig())

	for i := 0; i < 2; i++ {
		rec, _ := do(t, h, http.MethodPost, "/api/v1/coupons/apply", `{"coupon":"fit10"}`, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotEmpty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
	rec, env := do(t, h, http.MethodPost, "/api/v1/coupons/apply", `{"coupon":"fit10"}`, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "RATE_LIMITED", env.Error.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestOperationalRoutes(t *testing.T) {
	_, h := newServer(t, testConfig())

	rec, _ := do(t, h, http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"redis":"disabled"`)

	rec, _ = do(t, h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "go_goroutines")

	rec, _ = do(t, h, http.MethodGet, "/debug/pprof/", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPprofRequiresBasicAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Obs.EnablePprof = true
	cfg.Obs.PprofUser = "ops"
	cfg.Obs.PprofPass = "secret"
	_, h := newServer(t, cfg)

	rec, _ := do(t, h, http.MethodGet, "/debug/pprof/", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.SetBasicAuth("ops", "secret")
	out := httptest.NewRecorder()
	h.ServeHTTP(out, req)
	require.Equal(t, http.StatusOK, out.Code)
}

func TestRedisBackedDependencies(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.RedisURL = "redis://" + mr.Addr()
	deps, h := newServer(t, cfg)
	require.NotNil(t, deps.Redis)

	headers := map[string]string{"Idempotency-Key": "order-1"}
	body := `{"subscribe":false,"quantity":1}`
	rec, env := do(t, h, http.MethodPost, "/api/v1/checkout", body, headers)
	require.Equal(t, http.StatusCreated, rec.Code)

	var result struct {
		Receipt struct {
			Reference string `json:"reference"`
		} `json:"receipt"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.True(t, mr.Exists("strongpack:receipt:"+result.Receipt.Reference))

	rec, env = do(t, h, http.MethodPost, "/api/v1/checkout", body, headers)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "true", rec.Header().Get("Idempotent-Replayed"))
	var replayed struct {
		Receipt struct {
			Reference string `json:"reference"`
		} `json:"receipt"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &replayed))
	require.Equal(t, result.Receipt.Reference, replayed.Receipt.Reference)

	rec, _ = do(t, h, http.MethodGet, "/api/v1/checkout/"+result.Receipt.Reference, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"redis":"ok"`)
}

func TestSlidingStrategyUsesRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.RedisURL = "redis://" + mr.Addr()
	cfg.CouponRateLimit = config.RateLimit{Max: 1, Window: time.Minute, Strategy: "sliding"}
	_, h := newServer(t, cfg)

	rec, _ := do(t, h, http.MethodPost, "/api/v1/coupons/apply", `{"coupon":"fit10"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, h, http.MethodPost, "/api/v1/coupons/apply", `{"coupon":"fit10"}`, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestNewCouponLimiterRequiresRedisForSliding(t *testing.T) {
	_, err := app.NewCouponLimiter(config.RateLimit{Strategy: "sliding"}, nil)
	require.Error(t, err)

	l, err := app.NewCouponLimiter(config.RateLimit{Strategy: "fixed"}, nil)
	require.NoError(t, err)
	require.NotNil(t, l)
}

func TestNewFailsOnUnreachableRedis(t *testing.T) {
	cfg := testConfig()
	cfg.RedisURL = "redis://127.0.0.1:1"
	_, err := app.New(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
}

func TestNewLogsCatalogSummary(t *testing.T) {
	var logs bytes.Buffer
	deps, err := app.New(context.Background(), testConfig(), zerolog.New(&logs))
	require.NoError(t, err)
	t.Cleanup(deps.Close)

	out := logs.String()
	require.Contains(t, out, `"message":"catalog loaded"`)
	require.Contains(t, out, `"coupons":2`)
	require.Contains(t, out, `"affiliates":2`)
	require.Contains(t, out, `"locale":"es-CL"`)
	require.Contains(t, out, `"currency":"CLP"`)
}
