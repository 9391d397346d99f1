package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gotham-app/backend/internal/domain/entities"
	"github.com/gotham-app/backend/internal/domain/providers"
	"github.com/gotham-app/backend/internal/domain/repositories"
	"github.com/gotham-app/backend/internal/infrastructure/observability"
	"github.com/gotham-app/backend/internal/loaders"
	"github.com/gotham-app/backend/internal/query/pipeline"
)

const (
	popularCacheName     = "popular"
	popularFavoriteList  = "favorite"
	popularMostVisitList = "visited"
)

// Popularity is the monthly leaderboard
type Popularity struct {
	NewPlaces   []pipeline.PlaceView `json:"newPlaces"`
	Favorite    []pipeline.PlaceView `json:"favorite"`
	MostVisited []pipeline.PlaceView `json:"mostVisited"`
}

// PopularityOptions configures the leaderboard
type PopularityOptions struct {
	TopN            int
	CacheTTLSeconds int
	Location        *time.Location
	Now             Clock
}

// PopularityService computes newest, most liked and most visited places
type PopularityService struct {
	places   repositories.PlaceRepository
	likes    repositories.LikeRepository
	checkins repositories.CheckinRepository
	cache    providers.CacheProvider
	opts     PopularityOptions
	metrics  *observability.Metrics
}

// NewPopularityService creates a new popularity service. cache may be nil.
func NewPopularityService(places repositories.PlaceRepository, likes repositories.LikeRepository, checkins repositories.CheckinRepository, cache providers.CacheProvider, opts PopularityOptions, metrics *observability.Metrics) *PopularityService {
	if opts.TopN < 1 {
		opts.TopN = 10
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &PopularityService{
		places:   places,
		likes:    likes,
		checkins: checkins,
		cache:    cache,
		opts:     opts,
		metrics:  metrics,
	}
}

// MonthWindow returns the first and last instant of the calendar month that
// contains t, in loc.
func MonthWindow(t time.Time, loc *time.Location) (from, to time.Time) {
	t = t.In(loc)
	from = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	to = from.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return from, to
}

// PopularCacheKeys returns the cache keys of the month containing t
func PopularCacheKeys(t time.Time, loc *time.Location) []string {
	month := t.In(loc).Format("2006-01")
	return []string{
		fmt.Sprintf("%s:%s:%s", popularCacheName, month, popularFavoriteList),
		fmt.Sprintf("%s:%s:%s", popularCacheName, month, popularMostVisitList),
	}
}

// Popular computes the leaderboard for the current month. Each list keeps
// its ranking order; places that no longer exist are skipped.
func (s *PopularityService) Popular(ctx context.Context, userID string) (*Popularity, error) {
	ctx, span := observability.StartSpan(ctx, "PopularityService.Popular")
	defer span.End()

	now := s.opts.Now()
	from, to := MonthWindow(now, s.opts.Location)
	keys := PopularCacheKeys(now, s.opts.Location)

	newest, err := s.places.Newest(ctx, s.opts.TopN)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	favoriteIDs, err := s.rankedIDs(ctx, keys[0], func() ([]entities.PlaceCount, error) {
		return s.likes.TopPlacesBetween(ctx, from, to, s.opts.TopN)
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	visitedIDs, err := s.rankedIDs(ctx, keys[1], func() ([]entities.PlaceCount, error) {
		return s.checkins.TopPlacesBetween(ctx, from, to, s.opts.TopN)
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	l := loaders.NewLoaders(s.places, s.likes, userID)

	favorite, err := l.PlacesInOrder(ctx, favoriteIDs)
	if err != nil {
		return nil, err
	}
	visited, err := l.PlacesInOrder(ctx, visitedIDs)
	if err != nil {
		return nil, err
	}

	out := &Popularity{}
	for _, list := range []struct {
		places []*entities.Place
		dst    *[]pipeline.PlaceView
	}{
		{newest, &out.NewPlaces},
		{favorite, &out.Favorite},
		{visited, &out.MostVisited},
	} {
		cands := pipeline.FromPlaces(list.places)
		if !l.Anonymous() {
			if err := pipeline.Annotate(ctx, cands, l); err != nil {
				return nil, err
			}
		}
		*list.dst = pipeline.Project(cands)
	}
	return out, nil
}

// rankedIDs returns a cached id ranking or computes and caches it.
// Cache failures only cost a store read.
func (s *PopularityService) rankedIDs(ctx context.Context, key string, compute func() ([]entities.PlaceCount, error)) ([]string, error) {
	logger := observability.LoggerFromContext(ctx)

	if s.cache != nil {
		raw, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			var ids []string
			if jerr := json.Unmarshal(raw, &ids); jerr == nil {
				observability.RecordCacheHit(ctx, s.metrics, popularCacheName)
				return ids, nil
			}
			logger.Warn().Str("key", key).Msg("discarding malformed popularity cache entry")
		case errors.Is(err, providers.ErrCacheMiss):
		default:
			logger.Warn().Err(err).Str("key", key).Msg("popularity cache read failed")
		}
		observability.RecordCacheMiss(ctx, s.metrics, popularCacheName)
	}

	counts, err := compute()
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(counts))
	for i, c := range counts {
		ids[i] = c.PlaceID
	}

	if s.cache != nil && s.opts.CacheTTLSeconds > 0 {
		if raw, err := json.Marshal(ids); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.opts.CacheTTLSeconds); err != nil {
				logger.Warn().Err(err).Str("key", key).Msg("popularity cache write failed")
			}
		}
	}
	return ids, nil
}
