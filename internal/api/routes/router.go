package routes

import (
	"net/http"

	"github.com/seunolaitan/abxguide/backend/internal/api/handlers"
	"github.com/seunolaitan/abxguide/backend/internal/api/middleware"
	"github.com/seunolaitan/abxguide/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	recommendationHandler *handlers.RecommendationHandler
	corpusHandler         *handlers.CorpusHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	recommendationHandler *handlers.RecommendationHandler,
	corpusHandler *handlers.CorpusHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux: http.NewServeMux(),

		recommendationHandler: recommendationHandler,
		corpusHandler:         corpusHandler,

		metrics: metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Recommendation endpoints
	r.mux.HandleFunc("POST /api/recommendations", r.recommendationHandler.Evaluate)
	r.mux.HandleFunc("POST /api/antibiotics/match", r.recommendationHandler.MatchAntibiotic)

	// Corpus read endpoints
	r.mux.HandleFunc("GET /api/conditions", r.corpusHandler.ListConditions)
	r.mux.HandleFunc("GET /api/pathogens", r.corpusHandler.ListPathogens)
	r.mux.HandleFunc("GET /api/guidelines", r.corpusHandler.ListGuidelines)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// CORS wraps everything so preflight requests never reach the mux
	handler = middleware.CORSMiddleware(handler)

	return handler
}
