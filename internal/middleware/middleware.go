package middleware

import (
	"compress/gzip"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/latticekit/api/internal/model"
)

// Middleware is a function that wraps an http.Handler
type Middleware func(http.Handler) http.Handler

// Chain wraps handler so that the first middleware listed runs first.
func Chain(handler http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	CorrelationIDKey contextKey = "correlationID"
	UserIDKey        contextKey = "userID"
)

// Incoming headers checked for an existing correlation ID, in order.
var correlationHeaders = []string{"X-Correlation-ID", "X-Request-ID"}

// CorrelationID tags every request with a correlation ID. An ID supplied by
// the client is honored so traces can span services; otherwise a fresh UUID
// is minted. The ID is echoed back on the response.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var cid string
		for _, h := range correlationHeaders {
			if v := strings.TrimSpace(r.Header.Get(h)); v != "" {
				cid = v
				break
			}
		}
		if cid == "" {
			cid = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), CorrelationIDKey, cid)
		w.Header().Set("X-Correlation-ID", cid)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetCorrelationID extracts the correlation ID from context
func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return id
	}
	return ""
}

// Logger emits one structured access log line per request.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		slog.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", sw.status),
			slog.Duration("duration", time.Since(start)),
			slog.String("correlation_id", GetCorrelationID(r.Context())),
			slog.String("remote_addr", ClientIP(r)),
			slog.String("user_agent", r.UserAgent()),
		)
	})
}

// Recovery converts panics into a 500 error envelope so a broken handler
// cannot take down the connection without a response.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("panic recovered",
					slog.Any("error", err),
					slog.String("correlation_id", GetCorrelationID(r.Context())),
					slog.String("stack", string(debug.Stack())),
				)

				WriteError(w, r, model.NewInternalError(""))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// WriteError stamps the request's correlation ID onto the envelope and
// renders it. All middleware and handlers funnel error output through here.
func WriteError(w http.ResponseWriter, r *http.Request, e *model.ErrorResponse) {
	e.CorrelationID = GetCorrelationID(r.Context())
	e.WriteJSON(w)
}

// SecurityHeaders sets conservative browser security headers on every response
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")

		next.ServeHTTP(w, r)
	})
}

// CORS returns a middleware that answers preflight requests and reflects
// the Origin header for allowed origins. "*" in allowedOrigins permits any.
func CORS(allowedOrigins []string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			for _, o := range allowedOrigins {
				if o == origin || o == "*" {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Correlation-ID, X-Request-ID, X-API-Key, Idempotency-Key")
			w.Header().Set("Access-Control-Expose-Headers", "X-Correlation-ID, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset, Retry-After")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the originating client address, trusting the first entry
// of X-Forwarded-For when a proxy set one.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Compress gzips the response body for clients that advertise support.
func Compress(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		gz := gzip.NewWriter(w)
		defer func() { _ = gz.Close() }()

		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Del("Content-Length") // stale once the body is compressed

		next.ServeHTTP(&gzipWriter{ResponseWriter: w, gz: gz}, r)
	})
}

// statusWriter records the status code for access logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// gzipWriter diverts the body through the gzip stream while headers keep
// going to the underlying writer.
type gzipWriter struct {
	http.ResponseWriter
	gz io.Writer
}

func (gw *gzipWriter) Write(b []byte) (int, error) {
	return gw.gz.Write(b)
}
