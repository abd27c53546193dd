package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000", // local dev
	"https://dopeevents.co.ke",
	"https://www.dopeevents.co.ke",
	"https://dope-events.vercel.app", // preview deployments
}

// CORS returns middleware that applies the API's allowed origin policy.
func CORS() func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   defaultCORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Idempotency-Key", "X-Session-Key", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Session-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
