package handlers

import (
	"net/http"
	"strconv"

	"github.com/gotham-app/backend/internal/api/middleware"
	"github.com/gotham-app/backend/internal/application/services"
	"github.com/gotham-app/backend/internal/domain/entities"
	apperrors "github.com/gotham-app/backend/pkg/errors"
	"github.com/gotham-app/backend/pkg/geo"
	"github.com/gotham-app/backend/pkg/validation"
)

// PlaceHandler serves search, likes, check-ins and occupancy for places
type PlaceHandler struct {
	search     *services.SearchService
	engagement *services.EngagementService
	checkins   *services.CheckinService
	occupancy  *services.OccupancyService
}

// NewPlaceHandler creates a new place handler
func NewPlaceHandler(search *services.SearchService, engagement *services.EngagementService, checkins *services.CheckinService, occupancy *services.OccupancyService) *PlaceHandler {
	return &PlaceHandler{
		search:     search,
		engagement: engagement,
		checkins:   checkins,
		occupancy:  occupancy,
	}
}

type searchResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Page    int         `json:"page"`
	Limit   int         `json:"limit"`
}

// CheckinRequest is the optional caller position sent with a check-in
type CheckinRequest struct {
	Lat *float64 `json:"lat" validate:"omitempty,min=-90,max=90"`
	Lng *float64 `json:"lng" validate:"omitempty,min=-180,max=180"`
}

// OccupancyRequest carries a signed occupancy delta
type OccupancyRequest struct {
	Count *int `json:"count" validate:"required"`
}

// Search handles GET /api/org
func (h *PlaceHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	near, err := parsePoint(query.Get("lat"), query.Get("lng"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	req := entities.SearchRequest{
		Text:  query.Get("text"),
		Tags:  listParam(query["tags"]),
		Mods:  parseMods(listParam(query["mods"])),
		Near:  near,
		Page:  parsePage(query.Get("page")),
		Limit: parseLimit(query.Get("limit")),
	}

	result, err := h.search.Search(r.Context(), req, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, searchResponse{
		Success: true,
		Data:    result.Data,
		Page:    result.Page.Number,
		Limit:   result.Page.Size,
	})
}

// GetPlace handles GET /api/org/{id}
func (h *PlaceHandler) GetPlace(w http.ResponseWriter, r *http.Request) {
	placeID := r.PathValue("id")
	if placeID == "" {
		respondWithError(w, http.StatusBadRequest, "place ID is required")
		return
	}

	view, err := h.search.Get(r.Context(), placeID, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, view)
}

// Like handles POST /api/org/{id}/like
func (h *PlaceHandler) Like(w http.ResponseWriter, r *http.Request) {
	result, err := h.engagement.Like(r.Context(), middleware.UserIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, result)
}

// Unlike handles DELETE /api/org/{id}/like
func (h *PlaceHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	result, err := h.engagement.Unlike(r.Context(), middleware.UserIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, result)
}

// Checkin handles POST /api/org/{id}/checkin
func (h *PlaceHandler) Checkin(w http.ResponseWriter, r *http.Request) {
	var req CheckinRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}
	if err := validation.ValidateStruct(req); err != nil {
		writeAppError(w, r, err)
		return
	}
	if (req.Lat == nil) != (req.Lng == nil) {
		writeAppError(w, r, apperrors.NewValidationError("lat and lng must be provided together"))
		return
	}

	var from *geo.Point
	if req.Lat != nil {
		from = &geo.Point{Lat: *req.Lat, Lng: *req.Lng}
	}

	result, err := h.checkins.Checkin(r.Context(), middleware.UserIDFromContext(r.Context()), r.PathValue("id"), from)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusCreated, result)
}

// UpdateOccupancy handles POST /api/org/{id}/occupancy
func (h *PlaceHandler) UpdateOccupancy(w http.ResponseWriter, r *http.Request) {
	var req OccupancyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}
	if err := validation.ValidateStruct(req); err != nil {
		writeAppError(w, r, err)
		return
	}

	value, err := h.occupancy.Apply(r.Context(), r.PathValue("id"), *req.Count)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, map[string]int{"currentOccupancy": value})
}

// parseMods keeps the integer mood codes; anything else is dropped along
// with codes the filter does not know.
func parseMods(raw []string) []int {
	var mods []int
	for _, v := range raw {
		if n, err := strconv.Atoi(v); err == nil {
			mods = append(mods, n)
		}
	}
	return mods
}
