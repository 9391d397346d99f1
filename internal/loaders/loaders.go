package loaders

import (
	"context"
	"time"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/gotham-app/backend/internal/domain/entities"
	"github.com/gotham-app/backend/internal/domain/repositories"
	apperrors "github.com/gotham-app/backend/pkg/errors"
)

// batchWait is how long a loader collects keys before hitting the store
const batchWait = 2 * time.Millisecond

// Loaders batches per-request place and liked-state lookups. Build one per
// request; results are cached for its lifetime.
type Loaders struct {
	PlaceLoader *dataloader.Loader[string, *entities.Place]
	LikedLoader *dataloader.Loader[string, bool]
}

// NewLoaders creates the loaders for one request. userID may be empty, in
// which case LikedLoader is nil.
func NewLoaders(placeRepo repositories.PlaceRepository, likeRepo repositories.LikeRepository, userID string) *Loaders {
	l := &Loaders{
		PlaceLoader: dataloader.NewBatchedLoader(func(ctx context.Context, keys []string) []*dataloader.Result[*entities.Place] {
			results := make([]*dataloader.Result[*entities.Place], len(keys))
			places, err := placeRepo.GetByIDs(ctx, keys)

			placeMap := make(map[string]*entities.Place, len(places))
			for _, p := range places {
				placeMap[p.ID] = p
			}

			for i, key := range keys {
				if err != nil {
					results[i] = &dataloader.Result[*entities.Place]{Error: err}
				} else if p, ok := placeMap[key]; ok {
					results[i] = &dataloader.Result[*entities.Place]{Data: p}
				} else {
					results[i] = &dataloader.Result[*entities.Place]{Error: apperrors.NewNotFoundError("place not found: " + key)}
				}
			}
			return results
		}, dataloader.WithWait[string, *entities.Place](batchWait)),
	}

	if userID != "" {
		l.LikedLoader = dataloader.NewBatchedLoader(func(ctx context.Context, keys []string) []*dataloader.Result[bool] {
			results := make([]*dataloader.Result[bool], len(keys))
			liked, err := likeRepo.LikedAmong(ctx, userID, keys)
			for i, key := range keys {
				if err != nil {
					results[i] = &dataloader.Result[bool]{Error: err}
					continue
				}
				results[i] = &dataloader.Result[bool]{Data: liked[key]}
			}
			return results
		}, dataloader.WithWait[string, bool](batchWait))
	}

	return l
}

// Anonymous reports whether the loaders belong to a request without a user
func (l *Loaders) Anonymous() bool {
	return l.LikedLoader == nil
}

// Liked resolves the liked state of each place id for the request's user
func (l *Loaders) Liked(ctx context.Context, placeIDs []string) (map[string]bool, error) {
	values, errs := l.LikedLoader.LoadMany(ctx, placeIDs)()
	out := make(map[string]bool, len(placeIDs))
	for i, id := range placeIDs {
		if i < len(errs) && errs[i] != nil {
			return nil, errs[i]
		}
		out[id] = values[i]
	}
	return out, nil
}

// PlacesInOrder resolves ids to places keeping the order of ids. Ids that no
// longer resolve to a place are skipped.
func (l *Loaders) PlacesInOrder(ctx context.Context, ids []string) ([]*entities.Place, error) {
	if len(ids) == 0 {
		return []*entities.Place{}, nil
	}

	values, errs := l.PlaceLoader.LoadMany(ctx, ids)()
	out := make([]*entities.Place, 0, len(ids))
	for i := range ids {
		if i < len(errs) && errs[i] != nil {
			if apperrors.IsNotFound(errs[i]) {
				continue
			}
			return nil, errs[i]
		}
		out = append(out, values[i])
	}
	return out, nil
}
