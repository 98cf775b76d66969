package router

import (
	"bufio"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"vitals-app/internal/endpoints"
	"vitals-app/internal/util"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working behind the middleware.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return h.Hijack()
}

func loggingMiddleware(logger *util.VitalsLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.LogEvent(util.LOG_LEVEL_INFO, "Request:", r.Method, r.RequestURI, rec.status, time.Since(start).String())
		})
	}
}

const maxTrackedClients = 10000

// clientLimiter applies a token bucket per client address.
type clientLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
	response endpoints.APIResponse
}

func newClientLimiter(perSecond float64, burst int) *clientLimiter {
	return &clientLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (c *clientLimiter) allow(client string) bool {
	c.mu.Lock()
	l, ok := c.limiters[client]
	if !ok {
		if len(c.limiters) >= maxTrackedClients {
			c.evictIdle()
		}
		l = rate.NewLimiter(c.limit, c.burst)
		c.limiters[client] = l
	}
	c.mu.Unlock()
	return l.Allow()
}

// evictIdle forgets clients whose bucket has refilled. Callers hold c.mu.
func (c *clientLimiter) evictIdle() {
	for client, l := range c.limiters {
		if l.Tokens() >= float64(c.burst) {
			delete(c.limiters, client)
		}
	}
}

func (c *clientLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !c.allow(clientAddr(r)) {
			c.response.WriteErrorResponseWithStatusCode(w, endpoints.ErrRateLimited, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
