package middleware

import (
	"net/http"
	"sync/atomic"
)

// MetricsCollector keeps process-lifetime request counters for /metrics.
type MetricsCollector struct {
	requests     atomic.Int64
	clientErrors atomic.Int64
	serverErrors atomic.Int64
	rateLimited  atomic.Int64
	frames       atomic.Int64
	framesFailed atomic.Int64
}

// MetricsSnapshot is a point-in-time copy of the counters. Rate-limited
// requests are counted apart from client errors.
type MetricsSnapshot struct {
	Requests     int64 `json:"request_count"`
	ClientErrors int64 `json:"client_error_count"`
	ServerErrors int64 `json:"server_error_count"`
	RateLimited  int64 `json:"rate_limited_count"`
	Frames       int64 `json:"frame_uploads"`
	FramesFailed int64 `json:"frame_upload_failures"`
}

// Errors is the sum of client and server errors.
func (s MetricsSnapshot) Errors() int64 {
	return s.ClientErrors + s.ServerErrors
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{}
}

func (mc *MetricsCollector) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Requests:     mc.requests.Load(),
		ClientErrors: mc.clientErrors.Load(),
		ServerErrors: mc.serverErrors.Load(),
		RateLimited:  mc.rateLimited.Load(),
		Frames:       mc.frames.Load(),
		FramesFailed: mc.framesFailed.Load(),
	}
}

func (mc *MetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mc.requests.Add(1)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		// The route is only known once chi has matched it.
		if isFrameUpload(r) {
			mc.frames.Add(1)
			if rw.statusCode >= 400 {
				mc.framesFailed.Add(1)
			}
		}

		switch {
		case rw.statusCode == http.StatusTooManyRequests:
			mc.rateLimited.Add(1)
		case rw.statusCode >= 500:
			mc.serverErrors.Add(1)
		case rw.statusCode >= 400:
			mc.clientErrors.Add(1)
		}
	})
}
