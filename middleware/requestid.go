package middleware

import (
	"context"
	"net/http"

	"github.com/rs/xid"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

type ctxKey int

const ctxKeyRequestID ctxKey = iota

// RequestID reads X-Request-ID from the request, generating an xid when it is
// empty, stores it in the request context and echoes it in the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = xid.New().String()
		}
		w.Header().Set(HeaderRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(NewContextWithRequestID(r.Context(), requestID)))
	})
}

// NewContextWithRequestID returns a copy of ctx carrying requestID.
func NewContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// GetRequestIDFromContext returns the request id stored by RequestID or "".
func GetRequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(ctxKeyRequestID).(string)
	return requestID
}
