package server

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"
	"golang.org/x/time/rate"

	"github.com/fumiya-kume/cra/pkg/clock"
	"github.com/fumiya-kume/cra/pkg/logger"
)

const (
	requestIDHeader = "X-Request-Id"
	apiKeyHeader    = "X-Api-Key" //nolint:gosec // header name
	forwardedHeader = "X-Forwarded-For"

	staleClientAfter = 10 * time.Minute
)

type requestIDKey struct{}

// RequestID returns the id assigned to the request by the middleware
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// withRequestID keeps a caller supplied X-Request-Id or assigns a new xid
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = xid.New().String()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

// withAccessLog logs one line per request
func withAccessLog(log *logger.Logger, clk clock.Clock, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := clk.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info("%s %s %d %s (request_id: %s)", r.Method, r.URL.Path, rec.status,
			clk.Since(start).Round(time.Millisecond), RequestID(r.Context()))
	})
}

// withMetrics must wrap the mux directly so the matched pattern is visible
func withMetrics(m *Metrics, clk clock.Clock, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := clk.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.observeRequest(route, r.Method, rec.status, clk.Since(start).Seconds())
	})
}

// RateLimiter is a per-client token bucket. Clients are keyed by API key when
// one is sent and by address otherwise.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	clock     clock.Clock
	lastSweep time.Time
}

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewRateLimiter allows perSecond requests per client with the given burst
func NewRateLimiter(perSecond float64, burst int, clk clock.Clock) *RateLimiter {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		clients:   make(map[string]*clientLimiter),
		limit:     rate.Limit(perSecond),
		burst:     burst,
		clock:     clk,
		lastSweep: clk.Now(),
	}
}

// Allow reports whether the client may make a request now
func (rl *RateLimiter) Allow(clientID string) bool {
	return rl.reserve(clientID).OK()
}

// reserve takes a token when one is available. A reservation that would
// have to wait is cancelled and returned with its delay.
func (rl *RateLimiter) reserve(clientID string) reservation {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	if now.Sub(rl.lastSweep) > staleClientAfter {
		for id, c := range rl.clients {
			if now.Sub(c.lastAccess) > staleClientAfter {
				delete(rl.clients, id)
			}
		}
		rl.lastSweep = now
	}

	c, ok := rl.clients[clientID]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[clientID] = c
	}
	c.lastAccess = now

	r := c.limiter.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	if delay > 0 {
		r.CancelAt(now)
		return reservation{delay: delay}
	}
	return reservation{ok: true}
}

// Clients is the number of tracked clients
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

type reservation struct {
	ok    bool
	delay time.Duration
}

func (r reservation) OK() bool { return r.ok }

// Middleware rejects requests over the limit with 429 and Retry-After
func (rl *RateLimiter) Middleware(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := clientKey(r)
		res := rl.reserve(clientID)
		if !res.OK() {
			retryAfter := int(res.delay/time.Second) + 1
			log.Warn("rate limit exceeded (client: %s, path: %s, retry_after: %ds)", clientID, r.URL.Path, retryAfter)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if key := r.Header.Get(apiKeyHeader); key != "" {
		return "apikey:" + key
	}
	if xff := r.Header.Get(forwardedHeader); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if host, _, err := net.SplitHostPort(first); err == nil {
			return "ip:" + host
		}
		return "ip:" + first
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr
	}
	return "ip:" + host
}
