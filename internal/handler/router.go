package handler

import (
	"net/http"

	"github.com/lenslabs/paperlens/pkg/middleware"
)

// Router handles HTTP routing
type Router struct {
	jobHandler    *JobHandler
	healthHandler *HealthHandler
	corsConfig    middleware.CORSConfig
}

// NewRouter creates a new router
func NewRouter(
	jobHandler *JobHandler,
	healthHandler *HealthHandler,
	corsConfig middleware.CORSConfig,
) *Router {
	return &Router{
		jobHandler:    jobHandler,
		healthHandler: healthHandler,
		corsConfig:    corsConfig,
	}
}

// Handler returns the configured HTTP handler with middleware
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health endpoints (no middleware)
	mux.HandleFunc("/health", rt.healthHandler.Health)
	mux.HandleFunc("/ready", rt.healthHandler.Ready)

	// API endpoints
	mux.HandleFunc("/api/v1/jobs/pipeline", rt.handleSubmitPipeline)
	mux.HandleFunc("/api/v1/jobs/future", rt.handleSubmitFutureWork)
	mux.HandleFunc("/api/v1/jobs/", rt.handlePoll)

	// Apply middleware (CORS first to handle preflight requests)
	handler := middleware.CORS(rt.corsConfig)(mux)
	handler = middleware.Recovery(handler)
	handler = middleware.Logging(handler)
	handler = middleware.CorrelationID(handler)

	return handler
}

func (rt *Router) handleSubmitPipeline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	rt.jobHandler.SubmitPipeline(w, r)
}

func (rt *Router) handleSubmitFutureWork(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	rt.jobHandler.SubmitFutureWork(w, r)
}

func (rt *Router) handlePoll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	rt.jobHandler.Poll(w, r)
}
