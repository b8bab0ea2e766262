package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestHeadersMiddlewareSetsSecurityHeaders(t *testing.T) {
	handler := Headers{Enable: true, EnableHSTS: true, HSTSIncludeSubdomains: true}.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "https://strongpack.cl/api/v1/product", nil)
	req.TLS = &tls.ConnectionState{}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	h := rr.Header()
	require.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
	require.Equal(t, "default-src 'none'; frame-ancestors 'none'", h.Get("Content-Security-Policy"))
	require.Equal(t, "max-age=31536000; includeSubDomains", h.Get("Strict-Transport-Security"))
}

func TestHeadersHSTSRequiresTLS(t *testing.T) {
	plain := Headers{Enable: true, EnableHSTS: true}.Middleware(okHandler())
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://strongpack.cl/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	plain.ServeHTTP(rr, req)
	require.Empty(t, rr.Header().Get("Strict-Transport-Security"))

	proxied := Headers{Enable: true, EnableHSTS: true, HSTSMaxAge: 600, TrustForwardedProto: true}.Middleware(okHandler())
	rr = httptest.NewRecorder()
	proxied.ServeHTTP(rr, req)
	require.Equal(t, "max-age=600", rr.Header().Get("Strict-Transport-Security"))
}

func TestHeadersMiddlewareDisabled(t *testing.T) {
	handler := Headers{Enable: false, EnableHSTS: true}.Middleware(okHandler())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://strongpack.cl/", nil))
	require.Empty(t, rr.Header().Get("X-Content-Type-Options"))
}

func TestCORS(t *testing.T) {
	handler := CORS("https://strongpack.cl, https://www.strongpack.cl")(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "http://localhost/api/v1/quote", nil)
	req.Header.Set("Origin", "https://strongpack.cl")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, "https://strongpack.cl", rr.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))

	bad := httptest.NewRequest(http.MethodOptions, "http://localhost/api/v1/quote", nil)
	bad.Header.Set("Origin", "https://malicious.example")
	bad.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, bad)
	require.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWildcard(t *testing.T) {
	handler := CORS("")(okHandler())
	req := httptest.NewRequest(http.MethodGet, "http://localhost/api/v1/product", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	require.Empty(t, rr.Header().Get("Access-Control-Allow-Credentials"))
}
