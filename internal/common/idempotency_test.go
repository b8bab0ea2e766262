package common_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ecovarrubiasl/strongpack.2/internal/common"
)

func newIdemClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func sendWithKey(h http.Handler, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIdemReplaysCompletedResponse(t *testing.T) {
	mr, client := newIdemClient(t)

	calls := 0
	handler := common.Idem{R: client, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		common.Data(w, http.StatusCreated, map[string]int{"call": calls})
	}))

	first := sendWithKey(handler, "abc")
	require.Equal(t, http.StatusCreated, first.Code)

	replay := sendWithKey(handler, "abc")
	require.Equal(t, http.StatusCreated, replay.Code)
	require.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	require.Equal(t, first.Header().Get("Content-Type"), replay.Header().Get("Content-Type"))
	require.JSONEq(t, first.Body.String(), replay.Body.String())

	require.Equal(t, http.StatusCreated, sendWithKey(handler, "def").Code)
	require.Equal(t, http.StatusCreated, sendWithKey(handler, "").Code)
	require.Equal(t, http.StatusCreated, sendWithKey(handler, "").Code)
	require.Equal(t, 4, calls)

	mr.FastForward(2 * time.Minute)
	require.Equal(t, http.StatusCreated, sendWithKey(handler, "abc").Code)
	require.Equal(t, 5, calls)
}

func TestIdemReleasesKeyAfterServerError(t *testing.T) {
	_, client := newIdemClient(t)

	calls := 0
	handler := common.Idem{R: client, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			common.JSONError(w, http.StatusServiceUnavailable, "GATEWAY_UNAVAILABLE", "try later", nil)
			return
		}
		common.Data(w, http.StatusCreated, map[string]string{"status": "ok"})
	}))

	require.Equal(t, http.StatusServiceUnavailable, sendWithKey(handler, "order-1").Code)

	retry := sendWithKey(handler, "order-1")
	require.Equal(t, http.StatusCreated, retry.Code)
	require.Empty(t, retry.Header().Get("Idempotent-Replayed"))
	require.Equal(t, 2, calls)

	again := sendWithKey(handler, "order-1")
	require.Equal(t, http.StatusCreated, again.Code)
	require.Equal(t, "true", again.Header().Get("Idempotent-Replayed"))
	require.Equal(t, 2, calls)
}

func TestIdemReleasesKeyAfterPanic(t *testing.T) {
	_, client := newIdemClient(t)

	panics := true
	handler := common.Idem{R: client, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if panics {
			panic("boom")
		}
		w.WriteHeader(http.StatusCreated)
	}))

	require.Panics(t, func() { sendWithKey(handler, "order-2") })
	panics = false
	require.Equal(t, http.StatusCreated, sendWithKey(handler, "order-2").Code)
}

func TestIdemRejectsConcurrentDuplicate(t *testing.T) {
	_, client := newIdemClient(t)

	var inner *httptest.ResponseRecorder
	var handler http.Handler
	handler = common.Idem{R: client, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if inner == nil {
			inner = sendWithKey(handler, "order-3")
		}
		w.WriteHeader(http.StatusCreated)
	}))

	require.Equal(t, http.StatusCreated, sendWithKey(handler, "order-3").Code)
	require.NotNil(t, inner)
	require.Equal(t, http.StatusConflict, inner.Code)
	require.Contains(t, inner.Body.String(), "IDEMPOTENT_REPLAY")
}

func TestIdemWithoutRedisPassesThrough(t *testing.T) {
	handler := common.Idem{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	req.Header.Set("Idempotency-Key", "abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}
