package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmc32/pob-v1/internal/config"
	"github.com/angelmc32/pob-v1/internal/database"
)

type memCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newMemCounter() *memCounter {
	return &memCounter{counts: make(map[string]int64)}
}

func (c *memCounter) IncrWithExpire(ctx context.Context, key string, expiration time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	c.counts[key]++
	return c.counts[key], nil
}

var _ Counter = (*database.Redis)(nil)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimit(t *testing.T) {
	counter := newMemCounter()
	h := RateLimit(counter, config.RateLimitConfig{RequestsPerMinute: 2, BurstSize: 1})(okHandler)

	var codes []int
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/campaigns", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{200, 200, 200, 429}, codes)
}

func TestRateLimit_Headers(t *testing.T) {
	h := RateLimit(newMemCounter(), config.RateLimitConfig{RequestsPerMinute: 5})(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimit_FailsOpen(t *testing.T) {
	counter := newMemCounter()
	counter.err = errors.New("redis down")
	h := RateLimit(counter, DefaultRateLimitConfig())(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetClientID(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "api key", headers: map[string]string{"X-API-Key": "short"}, want: "apikey:short"},
		{name: "long api key truncated", headers: map[string]string{"X-API-Key": strings.Repeat("k", 40)}, want: "apikey:" + strings.Repeat("k", 20)},
		{name: "forwarded for", headers: map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.1"}, want: "ip:1.2.3.4"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "5.6.7.8"}, want: "ip:5.6.7.8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientID(req))
		})
	}
}

func TestLogging_OmitsQuery(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := Logging(logger)(okHandler)

	secret := "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/mint/0xabc?key="+secret+"&index=0", nil))

	out := buf.String()
	assert.Contains(t, out, `"path":"/mint/0xabc"`)
	assert.NotContains(t, out, secret)
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics())
	r.Get("/v1/campaigns/{id}", okHandler)

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/campaigns/{id}", "200"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/campaigns/550e8400-e29b-41d4-a716-446655440000", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/campaigns/{id}", "200"))
	assert.Equal(t, before+1, after)
}

func TestNormalizePath_Fallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet,
		"/v1/campaigns/550e8400-e29b-41d4-a716-446655440000/proofs/0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf", nil)
	assert.Equal(t, "/v1/campaigns/{id}/proofs/{address}", normalizePath(req))
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://pob.example"})(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/v1/campaigns", nil)
	req.Header.Set("Origin", "https://pob.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://pob.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/v1/campaigns", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAPIKeyAuth(t *testing.T) {
	h := APIKeyAuth([]string{"key-one", " key-two "})(okHandler)

	tests := []struct {
		name           string
		headers        map[string]string
		expectedStatus int
	}{
		{name: "missing key", expectedStatus: http.StatusUnauthorized},
		{name: "wrong key", headers: map[string]string{"X-API-Key": "nope"}, expectedStatus: http.StatusUnauthorized},
		{name: "wrong bearer", headers: map[string]string{"Authorization": "Bearer nope"}, expectedStatus: http.StatusUnauthorized},
		{name: "basic scheme", headers: map[string]string{"Authorization": "Basic key-one"}, expectedStatus: http.StatusUnauthorized},
		{name: "valid header key", headers: map[string]string{"X-API-Key": "key-one"}, expectedStatus: http.StatusOK},
		{name: "valid bearer", headers: map[string]string{"Authorization": "Bearer key-two"}, expectedStatus: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/campaigns", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusUnauthorized {
				assert.Contains(t, rec.Body.String(), `"code":"unauthorized"`)
			}
		})
	}
}

func TestAPIKeyAuth_DisabledWithoutKeys(t *testing.T) {
	for _, keys := range [][]string{nil, {""}, {"  "}} {
		rec := httptest.NewRecorder()
		APIKeyAuth(keys)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/campaigns", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimit_KeysByBearerToken(t *testing.T) {
	counter := newMemCounter()
	h := RateLimit(counter, config.RateLimitConfig{RequestsPerMinute: 5})(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/v1/campaigns", nil)
	req.Header.Set("Authorization", "Bearer key-one")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, int64(1), counter.counts["ratelimit:apikey:key-one"])
}
