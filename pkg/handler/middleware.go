package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/parley-chat/parley/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// RequestLogger logs one line per request.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"client", c.ClientIP(),
		}
		switch {
		case status >= 500:
			logger.Error("http request", attrs...)
		case status >= 400:
			logger.Warn("http request", attrs...)
		default:
			logger.Debug("http request", attrs...)
		}
	}
}

type limiterEntry struct {
	l        *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-client-IP token bucket. Idle buckets are dropped
// after ttl.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	ttl   time.Duration

	mu        sync.Mutex
	m         map[string]*limiterEntry
	lastSweep time.Time
}

// NewRateLimiter returns nil when rps <= 0, which Middleware treats as
// unlimited.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:   rate.Limit(rps),
		burst: burst,
		ttl:   10 * time.Minute,
		m:     make(map[string]*limiterEntry),
	}
}

// Allow reports whether key may make another request now.
func (rl *RateLimiter) Allow(key string) bool {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) > rl.ttl {
		for k, e := range rl.m {
			if now.Sub(e.lastSeen) > rl.ttl {
				delete(rl.m, k)
			}
		}
		rl.lastSweep = now
	}

	e, ok := rl.m[key]
	if !ok {
		e = &limiterEntry{l: rate.NewLimiter(rl.rps, rl.burst)}
		rl.m[key] = e
	}
	e.lastSeen = now
	return e.l.AllowN(now, 1)
}

// Middleware rejects requests over the limit with 429.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl != nil && !rl.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{Error: "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// Metrics records request counts and latencies per route template.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the HTTP collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "parley_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// Middleware observes every request. Unmatched paths share one label.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
