package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"workspacediff/application/services"
	"workspacediff/interfaces/http/rest/handlers"
	"workspacediff/interfaces/http/rest/middleware"
	"workspacediff/pkg/errors"
	"workspacediff/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterConfig holds the HTTP surface options
type RouterConfig struct {
	CORSOrigins   []string
	EnableCORS    bool
	EnableMetrics bool
	SubmitTimeout time.Duration
}

// Router creates and configures the HTTP router
type Router struct {
	sessions   *services.SessionManager
	errHandler *errors.ErrorHandler
	metrics    *observability.Collector
	config     RouterConfig
	logger     *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	sessions *services.SessionManager,
	errHandler *errors.ErrorHandler,
	metrics *observability.Collector,
	config RouterConfig,
	logger *zap.Logger,
) *Router {
	return &Router{
		sessions:   sessions,
		errHandler: errHandler,
		metrics:    metrics,
		config:     config,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errHandler.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.config.EnableMetrics && rt.metrics != nil {
		router.Use(middleware.Metrics(rt.metrics))
	}

	if rt.config.EnableCORS {
		origins := rt.config.CORSOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.config.EnableMetrics && rt.metrics != nil {
		router.Handle("/metrics", rt.metrics.Handler())
	}

	router.Route("/api/v1/workspaces/{workspaceID}", func(r chi.Router) {
		diffHandler := handlers.NewDiffHandler(rt.sessions, rt.errHandler, rt.config.SubmitTimeout, rt.logger)

		r.Get("/diff", diffHandler.GetDiff)
		r.Post("/diff/reload", diffHandler.Reload)

		r.Put("/marks", diffHandler.SetMark)
		r.Post("/marks/select-all", diffHandler.SelectAll)
		r.Post("/marks/clear-all", diffHandler.ClearAll)

		r.Post("/submit", diffHandler.Submit)
		r.Post("/highlight", diffHandler.Highlight)
		r.Post("/elements", diffHandler.Elements)
		r.Post("/stale", diffHandler.MarkStale)
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
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":   "ready",
		"sessions": rt.sessions.Len(),
	})
}
