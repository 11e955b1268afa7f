package middleware

import (
	"net/http"
	"time"

	"github.com/ssgreg/logf"
)

// statusWriter captures the status code written by the next handler.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

// Logging writes one access log line per request.
func Logging(logger *logf.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}

			next.ServeHTTP(sw, r)

			status := sw.status
			if status == 0 {
				status = http.StatusOK
			}
			fields := []logf.Field{
				logf.String("method", r.Method),
				logf.String("path", r.URL.Path),
				logf.Int("status", status),
				logf.Int64("bytes", sw.bytes),
				logf.Duration("duration", time.Since(start)),
			}
			if requestID := GetRequestIDFromContext(r.Context()); requestID != "" {
				fields = append(fields, logf.String("request_id", requestID))
			}

			if status >= http.StatusInternalServerError {
				logger.Warn("request finished", fields...)
				return
			}
			logger.Info("request finished", fields...)
		})
	}
}
