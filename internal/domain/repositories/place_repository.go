package repositories

import (
	"context"

	"github.com/gotham-app/backend/internal/domain/entities"
	"github.com/gotham-app/backend/internal/query/filter"
	"github.com/gotham-app/backend/pkg/geo"
)

// FindOptions bounds a filtered place lookup
type FindOptions struct {
	// Near orders candidates nearest first when set, newest first otherwise
	Near *geo.Point
	// Limit caps the number of candidates returned; 0 means no cap
	Limit int
}

// PlaceRepository defines the interface for place data operations
type PlaceRepository interface {
	// Create stores a new place. Used by seeding and tests.
	Create(ctx context.Context, place *entities.Place) error

	// GetByID retrieves a place by ID or returns a not found error
	GetByID(ctx context.Context, id string) (*entities.Place, error)

	// GetByIDs retrieves the places that exist among ids, in no particular order
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Place, error)

	// Find returns places matching pred
	Find(ctx context.Context, pred filter.Predicate, opts FindOptions) ([]*entities.Place, error)

	// Newest returns the most recently created places
	Newest(ctx context.Context, limit int) ([]*entities.Place, error)

	// IncrementLikeCount atomically adds delta to likeCount without going below zero
	IncrementLikeCount(ctx context.Context, id string, delta int) error

	// AddOccupancy atomically adds delta to currentOccupancy, clamps at zero
	// and returns the stored value
	AddOccupancy(ctx context.Context, id string, delta int) (int, error)
}
