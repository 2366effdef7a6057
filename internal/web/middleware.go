package web

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/conorfennell/mindzap/internal/auth"
)

type requestIDKey struct{}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// logRequests tags each request with an ID and logs it once served.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Info("request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// authed rejects requests without a valid bearer token and stores the
// session in the request context.
func (s *Server) authed(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			writeMessage(w, http.StatusUnauthorized, "Authentication required.")
			return
		}
		sess, err := s.tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next(w, r.WithContext(auth.WithSession(r.Context(), sess)))
	})
}

// session returns the caller's session. Only call it behind authed.
func session(r *http.Request) auth.Session {
	sess, _ := auth.FromContext(r.Context())
	return sess
}

// limit applies the per-client rate limit.
func (s *Server) limit(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(clientKey(r)) {
			w.Header().Set("Retry-After", "1")
			writeMessage(w, http.StatusTooManyRequests, "Too many requests, slow down.")
			return
		}
		next(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// rateLimiter keeps one token bucket per client key. Buckets idle for longer
// than ttl are dropped.
type rateLimiter struct {
	mu      sync.Mutex
	limits  map[string]*clientLimit
	rate    rate.Limit
	burst   int
	ttl     time.Duration
	lastGC  time.Time
	nowFunc func() time.Time
}

type clientLimit struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiter(perSecond float64, burst int, ttl time.Duration) *rateLimiter {
	return &rateLimiter{
		limits:  make(map[string]*clientLimit),
		rate:    rate.Limit(perSecond),
		burst:   burst,
		ttl:     ttl,
		nowFunc: time.Now,
	}
}

// Allow reports whether a request for key may proceed now.
func (rl *rateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.nowFunc()
	if now.Sub(rl.lastGC) > rl.ttl {
		for k, cl := range rl.limits {
			if now.Sub(cl.lastSeen) > rl.ttl {
				delete(rl.limits, k)
			}
		}
		rl.lastGC = now
	}

	cl, ok := rl.limits[key]
	if !ok {
		cl = &clientLimit{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limits[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}
