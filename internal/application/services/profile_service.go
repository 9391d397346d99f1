package services

import (
	"context"
	"time"

	"github.com/gotham-app/backend/internal/domain/entities"
	"github.com/gotham-app/backend/internal/domain/repositories"
	"github.com/gotham-app/backend/internal/loaders"
	"github.com/gotham-app/backend/internal/query/pipeline"
	apperrors "github.com/gotham-app/backend/pkg/errors"
)

// FavoriteEntry is a liked place with the time it was liked
type FavoriteEntry struct {
	pipeline.PlaceView
	LikedAt time.Time `json:"likedAt"`
}

// CheckinEntry is a check-in with the visited place
type CheckinEntry struct {
	ID        string              `json:"id"`
	Date      string              `json:"date"`
	CreatedAt time.Time           `json:"createdAt"`
	Place     *pipeline.PlaceView `json:"place"`
}

// Pagination describes a listing window
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ProfileService lists a user's own likes and check-ins
type ProfileService struct {
	places       repositories.PlaceRepository
	likes        repositories.LikeRepository
	checkins     repositories.CheckinRepository
	defaultLimit int
}

// NewProfileService creates a new profile service
func NewProfileService(places repositories.PlaceRepository, likes repositories.LikeRepository, checkins repositories.CheckinRepository, defaultLimit int) *ProfileService {
	return &ProfileService{places: places, likes: likes, checkins: checkins, defaultLimit: defaultLimit}
}

// Favorites lists the user's liked places, most recently liked first.
// Likes whose place no longer exists are left out of the page.
func (s *ProfileService) Favorites(ctx context.Context, userID string, page, limit int) ([]FavoriteEntry, *Pagination, error) {
	if userID == "" {
		return nil, nil, apperrors.NewUnauthorizedError("authentication required")
	}
	p := pipeline.NewPage(page, limit, s.defaultLimit)

	likes, err := s.likes.ListByUser(ctx, userID, p.Offset(), p.Size)
	if err != nil {
		return nil, nil, err
	}
	total, err := s.likes.CountByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]string, len(likes))
	for i, l := range likes {
		ids[i] = l.PlaceID
	}
	byID, err := s.resolve(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	out := make([]FavoriteEntry, 0, len(likes))
	for _, l := range likes {
		place, ok := byID[l.PlaceID]
		if !ok {
			continue
		}
		liked := true
		view := pipeline.ProjectOne(&pipeline.Candidate{Place: place, IsLiked: &liked})
		out = append(out, FavoriteEntry{PlaceView: view, LikedAt: l.CreatedAt})
	}
	return out, pagination(p, total), nil
}

// Checkins lists the user's check-ins, newest first
func (s *ProfileService) Checkins(ctx context.Context, userID string, page, limit int) ([]CheckinEntry, *Pagination, error) {
	if userID == "" {
		return nil, nil, apperrors.NewUnauthorizedError("authentication required")
	}
	p := pipeline.NewPage(page, limit, s.defaultLimit)

	checkins, err := s.checkins.ListByUser(ctx, userID, p.Offset(), p.Size)
	if err != nil {
		return nil, nil, err
	}
	total, err := s.checkins.CountByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]string, len(checkins))
	for i, c := range checkins {
		ids[i] = c.PlaceID
	}
	byID, err := s.resolve(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	out := make([]CheckinEntry, 0, len(checkins))
	for _, c := range checkins {
		entry := CheckinEntry{ID: c.ID, Date: c.Day, CreatedAt: c.CreatedAt}
		if place, ok := byID[c.PlaceID]; ok {
			view := pipeline.ProjectOne(&pipeline.Candidate{Place: place})
			entry.Place = &view
		}
		out = append(out, entry)
	}
	return out, pagination(p, total), nil
}

func (s *ProfileService) resolve(ctx context.Context, ids []string) (map[string]*entities.Place, error) {
	places, err := loaders.NewLoaders(s.places, s.likes, "").PlacesInOrder(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entities.Place, len(places))
	for _, p := range places {
		byID[p.ID] = p
	}
	return byID, nil
}

func pagination(p pipeline.Page, total int) *Pagination {
	return &Pagination{Page: p.Number, Limit: p.Size, Total: total, TotalPages: p.TotalPages(total)}
}
