// Package memory is an in-process store driver. All repositories of one
// Store share a single lock, which makes every operation atomic.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gotham-app/backend/internal/domain/entities"
	"github.com/gotham-app/backend/internal/domain/repositories"
	"github.com/gotham-app/backend/internal/query/filter"
	apperrors "github.com/gotham-app/backend/pkg/errors"
	"github.com/gotham-app/backend/pkg/geo"
)

type likeKey struct{ user, place string }

type checkinKey struct{ user, place, day string }

type state struct {
	mu       sync.RWMutex
	now      func() time.Time
	places   map[string]*entities.Place
	likes    map[likeKey]*entities.Like
	checkins map[checkinKey]*entities.Checkin
}

// NewStore creates an empty in-memory store
func NewStore() *repositories.Store {
	return NewStoreWithClock(time.Now)
}

// NewStoreWithClock creates an empty store stamping records with now
func NewStoreWithClock(now func() time.Time) *repositories.Store {
	s := &state{
		now:      now,
		places:   make(map[string]*entities.Place),
		likes:    make(map[likeKey]*entities.Like),
		checkins: make(map[checkinKey]*entities.Checkin),
	}
	return &repositories.Store{
		Places:   &PlaceRepository{s},
		Likes:    &LikeRepository{s},
		Checkins: &CheckinRepository{s},
	}
}

func clonePlace(p *entities.Place) *entities.Place {
	c := *p
	c.Photos = append([]string(nil), p.Photos...)
	c.Tags = append([]string(nil), p.Tags...)
	c.Members = append([]string(nil), p.Members...)
	c.Location.Coordinates = append([]float64(nil), p.Location.Coordinates...)
	return &c
}

// PlaceRepository implements repositories.PlaceRepository
type PlaceRepository struct{ s *state }

func (r *PlaceRepository) Create(ctx context.Context, place *entities.Place) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if place.ID == "" {
		place.ID = uuid.NewString()
	}
	if _, exists := r.s.places[place.ID]; exists {
		return apperrors.NewConflictError("place already exists")
	}
	if place.CreatedAt.IsZero() {
		place.CreatedAt = r.s.now().UTC()
	}
	r.s.places[place.ID] = clonePlace(place)
	return nil
}

func (r *PlaceRepository) GetByID(ctx context.Context, id string) (*entities.Place, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.places[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("place not found")
	}
	return clonePlace(p), nil
}

func (r *PlaceRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.Place, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*entities.Place, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.s.places[id]; ok {
			out = append(out, clonePlace(p))
		}
	}
	return out, nil
}

func (r *PlaceRepository) Find(ctx context.Context, pred filter.Predicate, opts repositories.FindOptions) ([]*entities.Place, error) {
	r.s.mu.RLock()
	out := make([]*entities.Place, 0)
	for _, p := range r.s.places {
		if pred.Match(p) {
			out = append(out, clonePlace(p))
		}
	}
	r.s.mu.RUnlock()

	if opts.Near != nil {
		origin := *opts.Near
		dist := func(p *entities.Place) float64 {
			if pt, ok := p.Location.Point(); ok {
				return geo.Distance(origin, pt)
			}
			return geo.EarthRadiusMeters * 4
		}
		sort.Slice(out, func(i, j int) bool {
			di, dj := dist(out[i]), dist(out[j])
			if di != dj {
				return di < dj
			}
			return out[i].ID < out[j].ID
		})
	} else {
		sortNewest(out)
	}

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (r *PlaceRepository) Newest(ctx context.Context, limit int) ([]*entities.Place, error) {
	r.s.mu.RLock()
	out := make([]*entities.Place, 0, len(r.s.places))
	for _, p := range r.s.places {
		out = append(out, clonePlace(p))
	}
	r.s.mu.RUnlock()

	sortNewest(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *PlaceRepository) IncrementLikeCount(ctx context.Context, id string, delta int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.places[id]
	if !ok {
		return apperrors.NewNotFoundError("place not found")
	}
	p.LikeCount += delta
	if p.LikeCount < 0 {
		p.LikeCount = 0
	}
	return nil
}

func (r *PlaceRepository) AddOccupancy(ctx context.Context, id string, delta int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.places[id]
	if !ok {
		return 0, apperrors.NewNotFoundError("place not found")
	}
	p.CurrentOccupancy += delta
	if p.CurrentOccupancy < 0 {
		p.CurrentOccupancy = 0
	}
	return p.CurrentOccupancy, nil
}

func sortNewest(places []*entities.Place) {
	sort.Slice(places, func(i, j int) bool {
		if !places[i].CreatedAt.Equal(places[j].CreatedAt) {
			return places[i].CreatedAt.After(places[j].CreatedAt)
		}
		return places[i].ID < places[j].ID
	})
}

// LikeRepository implements repositories.LikeRepository
type LikeRepository struct{ s *state }

func (r *LikeRepository) InsertIfAbsent(ctx context.Context, like *entities.Like) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := likeKey{like.UserID, like.PlaceID}
	if existing, ok := r.s.likes[key]; ok {
		*like = *existing
		return false, nil
	}
	if like.ID == "" {
		like.ID = uuid.NewString()
	}
	if like.CreatedAt.IsZero() {
		like.CreatedAt = r.s.now().UTC()
	}
	stored := *like
	r.s.likes[key] = &stored
	return true, nil
}

func (r *LikeRepository) Delete(ctx context.Context, userID, placeID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := likeKey{userID, placeID}
	if _, ok := r.s.likes[key]; !ok {
		return false, nil
	}
	delete(r.s.likes, key)
	return true, nil
}

func (r *LikeRepository) LikedAmong(ctx context.Context, userID string, placeIDs []string) (map[string]bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[string]bool, len(placeIDs))
	for _, id := range placeIDs {
		if _, ok := r.s.likes[likeKey{userID, id}]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (r *LikeRepository) TopPlacesBetween(ctx context.Context, from, to time.Time, limit int) ([]entities.PlaceCount, error) {
	r.s.mu.RLock()
	counts := make(map[string]int)
	for _, l := range r.s.likes {
		if within(l.CreatedAt, from, to) {
			counts[l.PlaceID]++
		}
	}
	r.s.mu.RUnlock()
	return rank(counts, limit), nil
}

func (r *LikeRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*entities.Like, error) {
	r.s.mu.RLock()
	var out []*entities.Like
	for _, l := range r.s.likes {
		if l.UserID == userID {
			c := *l
			out = append(out, &c)
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return window(out, offset, limit), nil
}

func (r *LikeRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, l := range r.s.likes {
		if l.UserID == userID {
			n++
		}
	}
	return n, nil
}

// CheckinRepository implements repositories.CheckinRepository
type CheckinRepository struct{ s *state }

func (r *CheckinRepository) Create(ctx context.Context, checkin *entities.Checkin) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := checkinKey{checkin.UserID, checkin.PlaceID, checkin.Day}
	if _, ok := r.s.checkins[key]; ok {
		return apperrors.NewConflictError("already checked in today")
	}
	if checkin.ID == "" {
		checkin.ID = uuid.NewString()
	}
	if checkin.CreatedAt.IsZero() {
		checkin.CreatedAt = r.s.now().UTC()
	}
	stored := *checkin
	r.s.checkins[key] = &stored
	return nil
}

func (r *CheckinRepository) TopPlacesBetween(ctx context.Context, from, to time.Time, limit int) ([]entities.PlaceCount, error) {
	r.s.mu.RLock()
	counts := make(map[string]int)
	for _, c := range r.s.checkins {
		if within(c.CreatedAt, from, to) {
			counts[c.PlaceID]++
		}
	}
	r.s.mu.RUnlock()
	return rank(counts, limit), nil
}

func (r *CheckinRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*entities.Checkin, error) {
	r.s.mu.RLock()
	var out []*entities.Checkin
	for _, c := range r.s.checkins {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return window(out, offset, limit), nil
}

func (r *CheckinRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, c := range r.s.checkins {
		if c.UserID == userID {
			n++
		}
	}
	return n, nil
}

func within(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

func rank(counts map[string]int, limit int) []entities.PlaceCount {
	out := make([]entities.PlaceCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, entities.PlaceCount{PlaceID: id, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].PlaceID < out[j].PlaceID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func window[T any](items []T, offset, limit int) []T {
	if offset < 0 || offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}
	return items[offset:end]
}
