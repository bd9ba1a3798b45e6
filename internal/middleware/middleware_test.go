package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryo_booking_bot/pkg/logger"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestTokenBucket_Refill(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)}
	tb := newTokenBucket(2, 1, clock.Now)

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow(), "bucket must be empty")

	clock.Advance(500 * time.Millisecond)
	assert.False(t, tb.Allow(), "partial second must not refill")

	clock.Advance(600 * time.Millisecond)
	assert.True(t, tb.Allow())

	clock.Advance(time.Hour)
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow(), "refill is capped by capacity")
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, logger.Discard())
	defer rl.Close()

	assert.True(t, rl.AllowChat(1))
	assert.False(t, rl.AllowChat(1))
	assert.True(t, rl.AllowChat(2))
}

func TestRateLimiter_Cleanup(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(5, time.Minute, logger.Discard())
	defer rl.Close()
	rl.now = clock.Now

	rl.Allow("a")
	clock.Advance(6 * time.Minute)
	rl.Allow("b")
	clock.Advance(6 * time.Minute)

	assert.Equal(t, 1, rl.cleanup())
	rl.Close()
}

func TestRateLimit_HTTP(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute, logger.Discard())
	defer rl.Close()

	h := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/calendar", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/api/calendar", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code, "other IP has its own bucket")
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.10:40000"
	assert.Equal(t, "192.168.1.10", clientIP(req))

	req.Header.Set("X-Real-IP", "203.0.113.5")
	assert.Equal(t, "203.0.113.5", clientIP(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.1")
	assert.Equal(t, "198.51.100.1", clientIP(req))
}

func TestPrometheus_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Prometheus)
	r.Get("/api/requests/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	before := httpRequests(t, "/api/requests/{id}", "409")

	for _, id := range []string{"1", "2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/requests/"+id, nil))
		require.Equal(t, http.StatusConflict, rec.Code)
	}

	after := httpRequests(t, "/api/requests/{id}", "409")
	assert.Equal(t, 2.0, after-before)
	assert.Zero(t, httpRequests(t, "/api/requests/1", "409"), "raw path must not become a label")
}

// httpRequests читает счетчик HTTP запросов из реестра по умолчанию
func httpRequests(t *testing.T, endpoint, status string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != "cryo_booking_http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := make(map[string]string)
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["method"] == http.MethodGet && labels["endpoint"] == endpoint && labels["status"] == status {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}
