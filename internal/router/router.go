package router

import (
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/safesite/service-compliance-core/internal/auth"
	"github.com/safesite/service-compliance-core/internal/hazardzone"
	"github.com/safesite/service-compliance-core/internal/protocol"
	"github.com/safesite/service-compliance-core/internal/user"
	"github.com/safesite/service-compliance-core/pkg/utilities"
)

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware returns a middleware that logs requests at debug level using the provided sugared logger.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			// ensure status is set
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
				"request_id", w.Header().Get("X-Request-Id"),
			)
		})
	}
}

// RequestIDMiddleware assigns a snowflake request ID to every request and
// echoes it in the X-Request-Id response header.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-Id")
			if id == "" {
				id = utilities.NewSnowflakeID()
			}
			w.Header().Set("X-Request-Id", id)
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP security headers.
// It is intentionally simple and conservative so it works with most setups.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prevent MIME sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// Clickjacking protection
			w.Header().Set("X-Frame-Options", "DENY")

			// Referrer policy
			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")

			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; object-src 'none'; base-uri 'self';")
			}

			// HSTS only over TLS
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RegisterRoutes mounts HTTP handlers using the standard library's http.ServeMux.
// Registration and login are open; everything else requires a bearer token.
func RegisterRoutes(logger *zap.SugaredLogger, db *sqlx.DB, authCfg auth.Config) http.Handler {
	mux := http.NewServeMux()

	// health
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	userHandler := user.NewHandler(db, logger, authCfg)
	mux.HandleFunc("POST /auth/register", userHandler.Register)
	mux.HandleFunc("POST /auth/login", userHandler.Login)

	requireAuth := auth.Middleware(authCfg)
	protect := func(h http.HandlerFunc) http.Handler { return requireAuth(h) }

	zoneHandler := hazardzone.NewHandler(db, logger)
	mux.Handle("POST /hazard-zones", protect(zoneHandler.Create))
	mux.Handle("GET /hazard-zones", protect(zoneHandler.List))
	mux.Handle("GET /hazard-zones/{id}", protect(zoneHandler.GetByID))
	mux.Handle("PATCH /hazard-zones/{id}", protect(zoneHandler.Update))
	mux.Handle("DELETE /hazard-zones/{id}", protect(zoneHandler.Delete))

	protocolHandler := protocol.NewHandler(db, logger)
	mux.Handle("POST /protocols", protect(protocolHandler.Create))
	mux.Handle("GET /protocols", protect(protocolHandler.List))
	mux.Handle("GET /protocols/{id}", protect(protocolHandler.GetByID))
	mux.Handle("PATCH /protocols/{id}", protect(protocolHandler.Update))
	mux.Handle("DELETE /protocols/{id}", protect(protocolHandler.Delete))
	mux.Handle("POST /protocols/{id}/compliance-logs", protect(protocolHandler.CreateLog))
	mux.Handle("GET /protocols/{id}/compliance-logs", protect(protocolHandler.ListLogs))

	// wrap with security headers middleware then request id then logging
	handler := LoggingMiddleware(logger)(RequestIDMiddleware()(SecurityHeadersMiddleware()(mux)))
	return handler
}
