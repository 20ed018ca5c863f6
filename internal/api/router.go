// Package api wires the HTTP surface: middleware chain, public and
// authenticated routes, the websocket endpoint and Prometheus scraping.
package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/chetan5734v/freelancer/internal/api/middleware"
	"github.com/chetan5734v/freelancer/internal/auth"
	"github.com/chetan5734v/freelancer/internal/handlers"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, h *handlers.Handler, tokens *auth.Manager, corsOrigin string) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(64 * 1024))
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{corsOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authMW := middleware.NewAuthMiddleware(tokens)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes (no auth required)
	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Post("/signup", h.Signup)
	r.Post("/signin", h.Signin)
	r.Get("/jobs", h.ListJobs)

	// Authenticated routes (require a bearer token)
	r.Group(func(r chi.Router) {
		r.Use(authMW.RequireAuth)

		r.Get("/ws", h.WebSocket)

		r.Post("/messages1", h.Messages)
		r.Post("/getAllForPost", h.ThreadsForJob)
		r.Post("/messages/check-eligibility", h.CheckEligibility)

		r.Post("/jobs", h.CreateJob)
		r.Post("/jobs/apply", h.Apply)
		r.Post("/jobs/update-status", h.UpdateJobStatus)

		r.Post("/notifications", h.ListNotifications)
		r.Post("/notifications/create", h.CreateNotification)
		r.Post("/notifications/mark-read", h.MarkNotificationRead)
		r.Post("/notifications/clear-all", h.ClearNotifications)

		r.Post("/tokens/balance", h.TokenBalance)
		r.Post("/tokens/history", h.TokenHistory)
		r.Post("/tokens/purchase", h.PurchaseTokens)
	})

	return r
}
