// Package rest wires the HTTP surface of the plan service.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ArthurHeitmann/satisfactory-architect-sub001/application/services"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/infrastructure/config"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/interfaces/http/rest/handlers"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/interfaces/http/rest/middleware"
)

// Router creates and configures the HTTP router.
type Router struct {
	plans  *services.PlanService
	cfg    *config.Config
	logger *zap.Logger
}

// NewRouter creates a new router instance.
func NewRouter(plans *services.PlanService, cfg *config.Config, logger *zap.Logger) *Router {
	return &Router{
		plans:  plans,
		cfg:    cfg,
		logger: logger,
	}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "https://*.architect.app"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health checks
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.cfg, rt.logger))

		planHandler := handlers.NewPlanHandler(rt.plans, rt.logger)
		pageHandler := handlers.NewPageHandler(rt.plans, rt.logger)
		nodeHandler := handlers.NewNodeHandler(rt.plans, rt.logger)
		edgeHandler := handlers.NewEdgeHandler(rt.plans, rt.logger)
		historyHandler := handlers.NewHistoryHandler(rt.plans, rt.logger)

		r.Route("/plans", func(r chi.Router) {
			r.Post("/", planHandler.CreatePlan)
			r.Get("/", planHandler.ListPlans)

			r.Route("/{planKey}", func(r chi.Router) {
				r.Get("/", planHandler.GetPlan)
				r.Delete("/", planHandler.DeletePlan)
				r.Post("/close", planHandler.ClosePlan)
				r.Get("/export", planHandler.ExportPlan)
				r.Post("/import", planHandler.ImportPages)

				r.Post("/undo", historyHandler.Undo)
				r.Post("/redo", historyHandler.Redo)
				r.Get("/history", historyHandler.Status)

				r.Route("/pages", func(r chi.Router) {
					r.Post("/", pageHandler.AddPage)
					r.Post("/move", pageHandler.MovePage)
					r.Put("/current", pageHandler.SetCurrentPage)

					r.Route("/{pageID}", func(r chi.Router) {
						r.Delete("/", pageHandler.RemovePage)
						r.Put("/name", pageHandler.RenamePage)
						r.Put("/view", pageHandler.SetView)
						r.Post("/duplicate", pageHandler.DuplicatePage)

						r.Route("/nodes", func(r chi.Router) {
							r.Post("/", nodeHandler.AddNode)
							r.Put("/{nodeID}/position", nodeHandler.MoveNode)
							r.Patch("/{nodeID}/properties", nodeHandler.UpdateNodeProperties)
							r.Delete("/{nodeID}", nodeHandler.RemoveNode)
						})

						r.Route("/edges", func(r chi.Router) {
							r.Post("/", edgeHandler.ConnectNodes)
							r.Patch("/{edgeID}/properties", edgeHandler.UpdateEdgeProperties)
							r.Delete("/{edgeID}", edgeHandler.RemoveEdge)
						})
					})
				})
			})
		})
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
