package server

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/detkit/detconf/internal/ratelimit"
)

// Middleware chains a handler.
type Middleware func(http.Handler) http.Handler

// RequestIDMiddleware assigns every request an ID, echoes it in
// X-Request-ID and scopes the context logger to it.
func RequestIDMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			requestID := request.Header.Get("X-Request-ID")
			ctx := AddRequestID(request.Context(), requestID)

			if requestID == "" {
				requestID = GetRequestID(ctx)
			}
			writer.Header().Set("X-Request-ID", requestID)

			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// LoggingMiddleware logs each request with method, path, status and
// duration. Server errors log at error level, client errors at warn.
func LoggingMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: writer, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, request)

			logger := zerolog.Ctx(request.Context()).With().
				Str("method", request.Method).
				Str("path", request.URL.Path).
				Int("status", wrapped.statusCode).
				Str("duration", formatDuration(time.Since(start))).
				Logger()

			msg := http.StatusText(wrapped.statusCode)
			switch {
			case wrapped.statusCode >= 500:
				logger.Error().Msg(msg)
			case wrapped.statusCode >= 400:
				logger.Warn().Msg(msg)
			default:
				logger.Info().Msg(msg)
			}
		})
	}
}

// AuthMiddleware validates the x-api-key header against the configured
// key. The expected key is pre-hashed once and compared in constant time.
func AuthMiddleware(expectedAPIKey string) Middleware {
	expectedHash := sha256.Sum256([]byte(expectedAPIKey))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			providedKey := request.Header.Get("x-api-key")
			if providedKey == "" {
				failAuth(writer, request, "missing x-api-key header")
				return
			}

			providedHash := sha256.Sum256([]byte(providedKey))
			if subtle.ConstantTimeCompare(providedHash[:], expectedHash[:]) != 1 {
				failAuth(writer, request, "invalid x-api-key")
				return
			}

			zerolog.Ctx(request.Context()).Debug().Msg("authentication succeeded")
			next.ServeHTTP(writer, request)
		})
	}
}

func failAuth(writer http.ResponseWriter, request *http.Request, reason string) {
	zerolog.Ctx(request.Context()).Warn().Msg("authentication failed: " + reason)
	WriteError(writer, http.StatusUnauthorized, "authentication_error", reason)
}

// RateLimitMiddleware rejects clients exceeding their per-minute allowance
// with 429. Clients are keyed by remote IP.
func RateLimitMiddleware(limiter *ratelimit.ClientLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			client := clientKey(request)
			if !limiter.Allow(client) {
				zerolog.Ctx(request.Context()).Warn().
					Str("client", client).
					Msg("request rejected: rate limit exceeded")
				WriteError(writer, http.StatusTooManyRequests, "rate_limit_error",
					"too many requests, slow down")
				return
			}
			next.ServeHTTP(writer, request)
		})
	}
}

func clientKey(request *http.Request) string {
	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return request.RemoteAddr
	}
	return host
}

// Chain applies middlewares so the first listed runs first.
func Chain(handler http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

func formatDuration(duration time.Duration) string {
	if duration <= 0 {
		return "0s"
	}
	duration = duration.Round(time.Microsecond)
	switch {
	case duration < time.Millisecond:
		return fmt.Sprintf("%dµs", duration.Microseconds())
	case duration < time.Second:
		return fmt.Sprintf("%.2fms", float64(duration)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%.2fs", duration.Seconds())
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
