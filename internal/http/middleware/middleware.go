// Package middleware wraps the router with cross-cutting HTTP behaviour:
// request ids, access logging, panic recovery, body limits and rate
// limiting.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/aanand-mishra/cantine-students-api/internal/utils/response"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares so that the first one listed is the outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST ID
// ══════════════════════════════════════════════════════════════════════════════

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestID reuses the caller's X-Request-ID or generates a UUID, stores it
// in the request context and echoes it on the response.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.New().String()
			}

			ctx := context.WithValue(r.Context(), requestIDKey{}, id)
			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID returns the id stored by RequestID, or "".
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// ══════════════════════════════════════════════════════════════════════════════
// ACCESS LOG
// ══════════════════════════════════════════════════════════════════════════════

// statusRecorder remembers the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logger writes one line per request once the handler has finished.
func Logger(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.Info("request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", GetRequestID(r.Context())),
			)
		})
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// RECOVERY
// ══════════════════════════════════════════════════════════════════════════════

// Recover turns a panicking handler into a 500 with the JSON error body.
func Recover(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				log.Error("handler panicked",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("panic", fmt.Sprint(rec)),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				response.WriteJSON(w, http.StatusInternalServerError,
					response.Message(http.StatusText(http.StatusInternalServerError)))
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// BODY LIMIT
// ══════════════════════════════════════════════════════════════════════════════

// BodyLimit caps request bodies at maxBytes. Reading past the cap fails
// with *http.MaxBytesError, which handlers answer with 413.
func BodyLimit(maxBytes int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMIT
// ══════════════════════════════════════════════════════════════════════════════

// RateLimitConfig configures RateLimit.
type RateLimitConfig struct {
	Rate    float64       // requests per second per client
	Burst   int           // max burst
	MaxIdle time.Duration // forget clients idle longer than this (default 5m)
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit applies a token bucket per client IP. A Rate of zero or less
// returns a pass-through middleware.
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Rate <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	maxIdle := cfg.MaxIdle
	if maxIdle <= 0 {
		maxIdle = 5 * time.Minute
	}

	retryAfter := strconv.Itoa(max(1, int(1/cfg.Rate)))

	var (
		mu          sync.Mutex
		limiters    = make(map[string]*limiterEntry)
		lastCleanup time.Time
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)

			mu.Lock()
			now := time.Now()

			// Lazy cleanup of idle limiters, at most once a minute.
			if now.Sub(lastCleanup) >= time.Minute {
				for k, e := range limiters {
					if now.Sub(e.lastSeen) > maxIdle {
						delete(limiters, k)
					}
				}
				lastCleanup = now
			}

			entry, ok := limiters[key]
			if !ok {
				entry = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst)}
				limiters[key] = entry
			}
			entry.lastSeen = now
			mu.Unlock()

			if !entry.limiter.Allow() {
				w.Header().Set("Retry-After", retryAfter)
				response.WriteJSON(w, http.StatusTooManyRequests,
					response.Message(http.StatusText(http.StatusTooManyRequests)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
