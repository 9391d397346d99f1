package repositories

import (
	"context"
	"time"

	"github.com/gotham-app/backend/internal/domain/entities"
)

// LikeRepository defines the interface for like edges
type LikeRepository interface {
	// InsertIfAbsent creates the (user, place) like unless one exists.
	// created reports whether this call wrote the record.
	InsertIfAbsent(ctx context.Context, like *entities.Like) (created bool, err error)

	// Delete removes the (user, place) like and reports whether one existed
	Delete(ctx context.Context, userID, placeID string) (deleted bool, err error)

	// LikedAmong returns the subset of placeIDs the user has liked
	LikedAmong(ctx context.Context, userID string, placeIDs []string) (map[string]bool, error)

	// TopPlacesBetween groups likes created in [from, to] by place, ordered by
	// count descending then place id ascending
	TopPlacesBetween(ctx context.Context, from, to time.Time, limit int) ([]entities.PlaceCount, error)

	// ListByUser returns the user's likes newest first
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]*entities.Like, error)

	// CountByUser counts the user's likes
	CountByUser(ctx context.Context, userID string) (int, error)
}

// CheckinRepository defines the interface for check-in records
type CheckinRepository interface {
	// Create stores a check-in or returns a conflict error when the user
	// already checked into the place on that day
	Create(ctx context.Context, checkin *entities.Checkin) error

	// TopPlacesBetween groups check-ins created in [from, to] by place,
	// ordered by count descending then place id ascending
	TopPlacesBetween(ctx context.Context, from, to time.Time, limit int) ([]entities.PlaceCount, error)

	// ListByUser returns the user's check-ins newest first
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]*entities.Checkin, error)

	// CountByUser counts the user's check-ins
	CountByUser(ctx context.Context, userID string) (int, error)
}

// Store bundles the repositories of one persistence driver
type Store struct {
	Places   PlaceRepository
	Likes    LikeRepository
	Checkins CheckinRepository
}
