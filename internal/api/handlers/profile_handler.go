package handlers

import (
	"net/http"

	"github.com/gotham-app/backend/internal/api/middleware"
	"github.com/gotham-app/backend/internal/application/services"
)

// ProfileHandler serves the caller's favorites and check-in history
type ProfileHandler struct {
	profile *services.ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profile *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profile: profile}
}

type listingResponse struct {
	Success    bool                 `json:"success"`
	Data       interface{}          `json:"data"`
	Pagination *services.Pagination `json:"pagination"`
}

// Favorites handles GET /api/profile/favorites
func (h *ProfileHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	entries, pagination, err := h.profile.Favorites(r.Context(),
		middleware.UserIDFromContext(r.Context()),
		parsePage(query.Get("page")),
		parseLimit(query.Get("limit")),
	)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, listingResponse{Success: true, Data: entries, Pagination: pagination})
}

// Checkins handles GET /api/profile/checkins
func (h *ProfileHandler) Checkins(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	entries, pagination, err := h.profile.Checkins(r.Context(),
		middleware.UserIDFromContext(r.Context()),
		parsePage(query.Get("page")),
		parseLimit(query.Get("limit")),
	)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, listingResponse{Success: true, Data: entries, Pagination: pagination})
}
