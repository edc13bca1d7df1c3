package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000",     // local dev
	"https://app.smeazy.co.ke",  // web dashboard
	"https://smeazy.vercel.app", // preview deployments
	"https://api.smeazy.co.ke",  // backend API
}

// CORS returns middleware that applies the API's allowed origin policy.
func CORS() func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   defaultCORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Smz-Token", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Smz-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
