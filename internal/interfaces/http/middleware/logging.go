// Package middleware holds the HTTP middleware chain: request logging,
// rate limiting, and CORS for the dashboard origin.
package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dealershipai/visibility-engine/internal/infrastructure/monitoring/logging"
)

// LoggingMiddleware emits one structured line per request.
type LoggingMiddleware struct {
	log logging.Logger
}

func NewLoggingMiddleware(log logging.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{log: log.Named("http")}
}

func (m *LoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		fields := []logging.Field{
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", ww.Status()),
			logging.Int("bytes", ww.BytesWritten()),
			logging.Duration("elapsed", time.Since(start)),
			logging.String("remote", r.RemoteAddr),
		}
		if reqID := chimw.GetReqID(r.Context()); reqID != "" {
			fields = append(fields, logging.String("request_id", reqID))
		}

		switch {
		case ww.Status() >= http.StatusInternalServerError:
			m.log.Error("request", fields...)
		case ww.Status() >= http.StatusBadRequest:
			m.log.Warn("request", fields...)
		default:
			m.log.Info("request", fields...)
		}
	})
}
