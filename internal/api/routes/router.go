package routes

import (
	"net/http"

	"github.com/gotham-app/backend/internal/api/handlers"
	"github.com/gotham-app/backend/internal/api/middleware"
	"github.com/gotham-app/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	placeHandler   *handlers.PlaceHandler
	popularHandler *handlers.PopularHandler
	profileHandler *handlers.ProfileHandler
	healthHandler  *handlers.HealthHandler

	auth           *middleware.Authenticator
	limiter        *middleware.RateLimiter
	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	placeHandler *handlers.PlaceHandler,
	popularHandler *handlers.PopularHandler,
	profileHandler *handlers.ProfileHandler,
	healthHandler *handlers.HealthHandler,
	auth *middleware.Authenticator,
	limiter *middleware.RateLimiter,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:            http.NewServeMux(),
		placeHandler:   placeHandler,
		popularHandler: popularHandler,
		profileHandler: profileHandler,
		healthHandler:  healthHandler,
		auth:           auth,
		limiter:        limiter,
		allowedOrigins: allowedOrigins,
		metrics:        metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	optional := r.auth.OptionalAuth
	mutating := func(h http.HandlerFunc) http.HandlerFunc {
		return r.limiter.Limit(r.auth.RequireAuth(h))
	}

	r.mux.HandleFunc("GET /health", r.healthHandler.Health)

	// Places
	r.mux.HandleFunc("GET /api/org", optional(r.placeHandler.Search))
	r.mux.HandleFunc("GET /api/org/{id}", optional(r.placeHandler.GetPlace))
	r.mux.HandleFunc("POST /api/org/{id}/like", mutating(r.placeHandler.Like))
	r.mux.HandleFunc("DELETE /api/org/{id}/like", mutating(r.placeHandler.Unlike))
	r.mux.HandleFunc("POST /api/org/{id}/checkin", mutating(r.placeHandler.Checkin))
	r.mux.HandleFunc("POST /api/org/{id}/occupancy", mutating(r.placeHandler.UpdateOccupancy))

	// Leaderboards
	r.mux.HandleFunc("GET /api/popular", optional(r.popularHandler.GetPopular))

	// Profile
	r.mux.HandleFunc("GET /api/profile/favorites", r.auth.RequireAuth(r.profileHandler.Favorites))
	r.mux.HandleFunc("GET /api/profile/checkins", r.auth.RequireAuth(r.profileHandler.Checkins))

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}

// SetupStreamRoutes configures the SSE process routes
func SetupStreamRoutes(sse *handlers.SSEHandler, health *handlers.HealthHandler, allowedOrigins []string, metrics *observability.Metrics) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", health.Health)
	mux.HandleFunc("GET /api/stream/places", sse.StreamRegionalUpdates)
	mux.HandleFunc("GET /api/stream/places/{id}", sse.StreamPlaceUpdates)

	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(metrics)(handler)
	handler = middleware.CORSMiddleware(allowedOrigins)(handler)

	return handler
}
