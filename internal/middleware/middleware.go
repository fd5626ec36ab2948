// Package middleware wraps handlers with trace injection, per-IP rate
// limiting and request metrics.
package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"

	"github.com/adipk/ragdocs/internal/config"
	"github.com/adipk/ragdocs/internal/handlers"
	"github.com/adipk/ragdocs/internal/metrics"
	"github.com/adipk/ragdocs/pkg/logx"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type Chain struct {
	limiter *IPRateLimiter
	logger  *logx.Logger
}

func NewChain() *Chain {
	return &Chain{
		limiter: NewIPRateLimiter(rate.Limit(config.RateLimitPerSecond), config.BurstRateLimitPerSecond),
		logger:  logx.New("middleware"),
	}
}

// Wrap runs the trace and rate-limit checks, then the handler, then
// records the request counter with the status the handler wrote.
func (c *Chain) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK}

		r = injectTrace(r)

		if !c.allow(r) {
			c.logger.Warn("Rate limit exceeded", "ip", r.RemoteAddr, "path", r.URL.Path)
			handlers.WriteErrorResponse(c.logger, rec, http.StatusTooManyRequests, "Too Many Requests", "rate limit exceeded, slow down")
		} else {
			next(rec, r)
		}

		metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc()
	}
}

// injectTrace honors an incoming X-Trace-Id and mints one otherwise, so
// every log line and queued job downstream carries the same id.
func injectTrace(r *http.Request) *http.Request {
	trace := r.Header.Get("X-Trace-Id")
	if trace == "" {
		trace = uuid.New().String()
	}
	ctx := context.WithValue(r.Context(), config.TraceIDKey, trace)
	r.Header.Set("X-Trace-Id", trace)
	return r.WithContext(ctx)
}

func (c *Chain) allow(r *http.Request) bool {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return c.limiter.GetLimiter(ip).Allow()
}
