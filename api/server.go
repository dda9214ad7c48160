/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/invoices/*       Invoice, payment and interest operations
  /api/rates/*          Statutory rate schedule editing
  /api/state/*          Whole-state CSV import/export

SECURITY NOTE:
  No authentication middleware. The service is meant to run locally or
  behind a reverse proxy that handles auth.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/arrears/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Invoice routes
		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", h.ListInvoices)
			r.Post("/", h.CreateInvoice)
			r.Post("/import", h.ImportInvoices)
			r.Get("/{id}", h.GetInvoice)
			r.Put("/{id}", h.UpdateInvoice)
			r.Delete("/{id}", h.DeleteInvoice)

			r.Post("/{id}/payments", h.AddPayment)
			r.Put("/{id}/payments/{index}", h.UpdatePayment)
			r.Delete("/{id}/payments/{index}", h.DeletePayment)

			r.Get("/{id}/interest", h.GetInterest)
			r.Get("/{id}/interest/export", h.ExportInterest)
		})

		// Rate schedule routes
		r.Route("/rates", func(r chi.Router) {
			r.Get("/", h.ListRates)
			r.Post("/", h.AddRate)
			r.Put("/{index}", h.EditRate)
			r.Delete("/{index}", h.RemoveRate)
			r.Post("/reset", h.ResetRates)
		})

		// State routes
		r.Route("/state", func(r chi.Router) {
			r.Get("/export", h.ExportState)
			r.Post("/import", h.ImportState)
		})
	})

	return r
}
