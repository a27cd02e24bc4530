// Package rest wires the chi router, middleware, and handlers.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"familytree-backend/infrastructure/config"
	"familytree-backend/interfaces/http/rest/handlers"
	"familytree-backend/interfaces/http/rest/middleware"
	"familytree-backend/pkg/auth"
)

// Router creates and configures the HTTP router
type Router struct {
	treeHandler  *handlers.TreeHandler
	jwtValidator *auth.JWTValidator
	cfg          *config.Config
	logger       *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	treeHandler *handlers.TreeHandler,
	jwtValidator *auth.JWTValidator,
	cfg *config.Config,
	logger *zap.Logger,
) *Router {
	return &Router{
		treeHandler:  treeHandler,
		jwtValidator: jwtValidator,
		cfg:          cfg,
		logger:       logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "https://*.familytree.app"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	if rt.cfg.EnableCircuitBreaker {
		router.Use(middleware.CircuitBreaker(
			middleware.DefaultCircuitBreakerConfig("api"), rt.logger))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.jwtValidator, rt.logger))

		r.Route("/tree", func(r chi.Router) {
			r.Get("/", rt.treeHandler.GetTree)
			r.Get("/export", rt.treeHandler.ExportTree)
			r.Get("/generations", rt.treeHandler.GetGenerations)
			r.Get("/family-unit", rt.treeHandler.GetFamilyUnit)
			r.Get("/statistics", rt.treeHandler.GetStatistics)
			r.Get("/birthdays", rt.treeHandler.GetBirthdays)

			r.Post("/import", rt.treeHandler.ImportTree)
			r.Post("/merge", rt.treeHandler.MergeTree)

			r.Post("/navigate", rt.treeHandler.Navigate)
			r.Post("/navigate/back", rt.treeHandler.NavigateBack)
			r.Post("/navigate/home", rt.treeHandler.NavigateHome)

			r.Route("/people", func(r chi.Router) {
				r.Post("/{anchorID}/relatives", rt.treeHandler.AddRelative)
				r.Put("/{personID}", rt.treeHandler.UpdatePerson)
				r.Delete("/{personID}", rt.treeHandler.DeletePerson)
			})
		})

		r.Get("/search", rt.treeHandler.Search)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
