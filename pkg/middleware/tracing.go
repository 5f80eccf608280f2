package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"cybercrime-portal/pkg/response"
)

const traceIDContextKey contextKey = "trace_id"

const maxTraceIDLen = 64

// TraceMiddleware propagates the caller's trace id or mints one. Ids that
// are too long or not printable ASCII are replaced so they are safe to log.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(response.TraceHeader)
		if !usableTraceID(traceID) {
			traceID = uuid.New().String()
		}
		w.Header().Set(response.TraceHeader, traceID)

		ctx := context.WithValue(r.Context(), traceIDContextKey, traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func usableTraceID(id string) bool {
	if id == "" || len(id) > maxTraceIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// GetTraceID retrieves the trace ID from the request context
func GetTraceID(r *http.Request) string {
	return TraceIDFromContext(r.Context())
}

func TraceIDFromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceIDContextKey).(string); ok {
		return traceID
	}
	return ""
}
