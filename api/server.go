/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions. This
  is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the frontend
  5. Authenticator: Bearer-token identity on everything except login

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/vacation-engine/auth"
)

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler, tokens *auth.TokenManager, corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.Login)

		// Everything else needs an authenticated caller.
		r.Group(func(r chi.Router) {
			r.Use(Authenticator(tokens))

			r.Route("/me", func(r chi.Router) {
				r.Get("/balance", h.GetMyBalance)
				r.Get("/requests", h.GetMyRequests)
			})

			r.Route("/requests", func(r chi.Router) {
				r.Post("/", h.SubmitRequest)
				r.Delete("/{id}", h.CancelRequest)

				r.Group(func(r chi.Router) {
					r.Use(RequireAdmin)
					r.Get("/pending", h.ListPendingRequests)
					r.Post("/{id}/approve", h.ApproveRequest)
					r.Post("/{id}/reject", h.RejectRequest)
				})
			})

			r.Get("/policy", h.GetPolicy)

			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin)

				r.Put("/policy", h.SetPolicy)

				r.Route("/users", func(r chi.Router) {
					r.Get("/", h.ListUsers)
					r.Post("/", h.CreateUser)
					r.Delete("/{id}", h.DeleteUser)
				})

				r.Route("/admin", func(r chi.Router) {
					r.Post("/reset", h.ResetBalances)
					r.Post("/requests/{id}/cancel", h.CancelApprovedRequest)
				})
			})
		})
	})

	return r
}
