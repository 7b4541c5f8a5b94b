package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	send := func(id string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if id != "" {
			req.Header.Set(RequestIDHeader, id)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := send("abc-123")
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))

	for name, id := range map[string]string{
		"missing":      "",
		"too long":     strings.Repeat("x", maxRequestIDLen+1),
		"with space":   "abc 123",
		"control char": "abc\x01",
	} {
		rec := send(id)
		assert.Len(t, seen, 36, name)
		assert.NotEqual(t, id, seen, name)
		assert.Equal(t, seen, rec.Header().Get(RequestIDHeader), name)
	}
}

func TestMetricsCollector(t *testing.T) {
	mc := NewMetricsCollector()

	status := http.StatusOK
	r := chi.NewRouter()
	r.Use(mc.Middleware)
	handler := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(status) }
	r.Get("/", handler)
	r.Post("/v1/sessions/{id}/capture/frames", handler)

	for _, status = range []int{http.StatusOK, http.StatusNotFound, http.StatusTooManyRequests, http.StatusInternalServerError} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	for _, status = range []int{http.StatusAccepted, http.StatusRequestEntityTooLarge} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/sessions/x/capture/frames", nil))
	}

	assert.Equal(t, MetricsSnapshot{
		Requests:     6,
		ClientErrors: 2,
		ServerErrors: 1,
		RateLimited:  1,
		Frames:       2,
		FramesFailed: 1,
	}, mc.Snapshot())
	assert.EqualValues(t, 3, mc.Snapshot().Errors())
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(10, 1)
	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")
	assert.Equal(t, 2, rl.Len())

	assert.Zero(t, rl.Cleanup(time.Hour))
	rl.mu.Lock()
	rl.visitors["10.0.0.1"].lastSeen = time.Now().Add(-2 * time.Hour)
	rl.mu.Unlock()

	assert.Equal(t, 1, rl.Cleanup(time.Hour))
	assert.Equal(t, 1, rl.Len())
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Real-IP", ip)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))
}

func TestRateLimiter_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	rl := NewRateLimiter(1, 1)
	rl.Start(time.Millisecond)
	rl.Stop()
	rl.Stop()
}
