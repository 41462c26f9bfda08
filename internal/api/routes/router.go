package routes

import (
	"net/http"

	"github.com/healthreach/careaccess-backend/internal/api/handlers"
	"github.com/healthreach/careaccess-backend/internal/api/middleware"
	"github.com/healthreach/careaccess-backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	requestHandler  *handlers.RequestHandler
	matchHandler    *handlers.MatchHandler
	providerHandler *handlers.ProviderHandler
	demandHandler   *handlers.DemandHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	requestHandler *handlers.RequestHandler,
	matchHandler *handlers.MatchHandler,
	providerHandler *handlers.ProviderHandler,
	demandHandler *handlers.DemandHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		requestHandler:  requestHandler,
		matchHandler:    matchHandler,
		providerHandler: providerHandler,
		demandHandler:   demandHandler,
		cacheMiddleware: cacheMiddleware,
		metrics:         metrics,
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

	// Service request endpoints
	r.mux.HandleFunc("POST /api/requests", r.requestHandler.CreateRequest)
	r.mux.HandleFunc("GET /api/requests/{id}", r.requestHandler.GetRequest)
	r.mux.HandleFunc("POST /api/requests/{id}/cancel", r.requestHandler.CancelRequest)
	r.mux.HandleFunc("POST /api/requests/{id}/fulfill", r.requestHandler.FulfillRequest)

	// Matching endpoints
	r.mux.HandleFunc("POST /api/requests/{id}/match", r.matchHandler.MatchRequest)
	r.mux.HandleFunc("GET /api/requests/{id}/recommendations", r.matchHandler.GetRecommendations)

	// Provider endpoints
	r.mux.HandleFunc("POST /api/providers", r.providerHandler.CreateProvider)
	r.mux.HandleFunc("GET /api/providers", r.providerHandler.ListProviders)
	r.mux.HandleFunc("GET /api/providers/nearby", r.providerHandler.FindNearbyProviders)
	r.mux.HandleFunc("GET /api/providers/{id}", r.providerHandler.GetProvider)
	r.mux.HandleFunc("PUT /api/providers/{id}", r.providerHandler.UpdateProvider)

	// Demand heatmap endpoint
	r.mux.HandleFunc("GET /api/demand/heatmap", r.demandHandler.GetHeatmap)

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.

	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	// Apply cache middleware if available
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
