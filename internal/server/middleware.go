package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/teemow/meetgate/internal/logging"
)

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.status = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	sr.written = true
	return sr.ResponseWriter.Write(b)
}

// withObservability wraps the route table with request logging, HTTP
// metrics, and panic recovery. A panicking handler renders a generic
// 500 page instead of dropping the connection.
func (s *Server) withObservability(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if v := recover(); v != nil {
				s.logger.Error("handler panicked",
					slog.Any("panic", v),
					slog.String("path", r.URL.Path))
				if !rec.written {
					rec.status = http.StatusInternalServerError
					s.renderError(rec, http.StatusInternalServerError, "something went wrong",
						"An unexpected error occurred. Please try again.", "")
				}
			}

			duration := time.Since(start)
			if s.metrics != nil {
				s.metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rec.status, duration)
			}
			s.logger.Debug("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration(logging.KeyDuration, duration))
		}()

		next.ServeHTTP(rec, r)
	})
}
