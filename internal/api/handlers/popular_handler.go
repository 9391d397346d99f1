package handlers

import (
	"net/http"

	"github.com/gotham-app/backend/internal/api/middleware"
	"github.com/gotham-app/backend/internal/application/services"
)

// PopularHandler serves the monthly leaderboards
type PopularHandler struct {
	popularity *services.PopularityService
}

// NewPopularHandler creates a new popularity handler
func NewPopularHandler(popularity *services.PopularityService) *PopularHandler {
	return &PopularHandler{popularity: popularity}
}

// GetPopular handles GET /api/popular
func (h *PopularHandler) GetPopular(w http.ResponseWriter, r *http.Request) {
	result, err := h.popularity.Popular(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, result)
}
