package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// maxRequestIDLength bounds client-supplied request ids.
const maxRequestIDLength = 128

// isValidRequestID accepts non-empty printable ASCII (0x20-0x7E) up to maxRequestIDLength bytes,
// so ids can be logged without enabling log injection.
func isValidRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := range len(id) {
		if c := id[i]; c < 0x20 || c > 0x7E {
			return false
		}
	}
	return true
}

// RequestID stores a request id under chi's RequestIDKey and echoes it in X-Request-Id.
// A valid incoming X-Request-Id is reused; otherwise a UUIDv4 is generated.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(middleware.RequestIDHeader)
			if !isValidRequestID(reqID) {
				reqID = uuid.NewString()
			}
			w.Header().Set(middleware.RequestIDHeader, reqID)
			ctx := context.WithValue(r.Context(), middleware.RequestIDKey, reqID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
