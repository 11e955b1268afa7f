package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/ssgreg/logf"
)

// Recovery turns a panic in the next handler into a 500 JSON response.
// http.ErrAbortHandler is re-raised.
func Recovery(logger *logf.Logger) func(http.Handler) http.Handler {
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

				logger.Error("panic recovered",
					logf.String("method", r.Method),
					logf.String("path", r.URL.Path),
					logf.String("request_id", GetRequestIDFromContext(r.Context())),
					logf.String("panic", fmt.Sprint(rec)),
					logf.String("stack", string(debug.Stack())),
				)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
