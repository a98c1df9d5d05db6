package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// CORS allows any origin to read the greeting. Only safe methods are advertised.
func CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept",
			middleware.RequestIDHeader,
			"traceparent",
		},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	})
}
