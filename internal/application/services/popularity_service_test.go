package services_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotham-app/backend/internal/application/services"
	"github.com/gotham-app/backend/internal/domain/entities"
	"github.com/gotham-app/backend/internal/domain/repositories"
)


func TestMonthWindow(t *testing.T) {
	from, to := services.MonthWindow(time.Date(2024, 2, 14, 18, 30, 0, 0, time.UTC), time.UTC)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, 999999999, time.UTC), to)

	from, _ = services.MonthWindow(time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC), time.FixedZone("UTC+2", 2*3600))
	assert.Equal(t, 2025, from.Year())
	assert.Equal(t, time.January, from.Month())
}

func TestPopularCacheKeys(t *testing.T) {
	keys := services.PopularCacheKeys(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), time.UTC)
	assert.Equal(t, []string{"popular:2024-03:favorite", "popular:2024-03:visited"}, keys)
}

func seedEngagement(t *testing.T, clock *testClock, store *repositories.Store) {
	ctx := context.Background()
	for _, id := range []string{"A", "B", "C"} {
		seedPlace(t, store, &entities.Place{ID: id, Text: "place " + id})
		clock.Advance(time.Minute)
	}

	likes := []struct{ user, place string }{
		{"u1", "A"}, {"u2", "A"}, {"u3", "A"},
		{"u1", "B"}, {"u2", "B"},
	}
	for _, l := range likes {
		_, err := store.Likes.InsertIfAbsent(ctx, &entities.Like{UserID: l.user, PlaceID: l.place})
		require.NoError(t, err)
	}

	day := clock.Now().Format(entities.DayLayout)
	for _, c := range []struct{ user, place string }{{"u1", "C"}, {"u2", "C"}, {"u1", "B"}} {
		require.NoError(t, store.Checkins.Create(ctx, &entities.Checkin{UserID: c.user, PlaceID: c.place, Day: day}))
	}
}

func TestPopularityService_Popular(t *testing.T) {
	clock := newTestClock(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
	store := newStore(clock)
	seedEngagement(t, clock, store)

	svc := services.NewPopularityService(store.Places, store.Likes, store.Checkins, nil, services.PopularityOptions{TopN: 10, Now: clock.Now}, nil)
	res, err := svc.Popular(context.Background(), "u1")
	require.NoError(t, err)

	require.Len(t, res.Favorite, 2)
	assert.Equal(t, "A", res.Favorite[0].ID)
	assert.Equal(t, "B", res.Favorite[1].ID)
	require.NotNil(t, res.Favorite[0].IsLiked)
	assert.True(t, *res.Favorite[0].IsLiked)

	require.Len(t, res.MostVisited, 2)
	assert.Equal(t, "C", res.MostVisited[0].ID)
	assert.Equal(t, "B", res.MostVisited[1].ID)

	require.Len(t, res.NewPlaces, 3)
	assert.Equal(t, "C", res.NewPlaces[0].ID)
}

func TestPopularityService_IgnoresOtherMonths(t *testing.T) {
	clock := newTestClock(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
	store := newStore(clock)
	seedEngagement(t, clock, store)

	clock.Advance(31 * 24 * time.Hour)
	svc := services.NewPopularityService(store.Places, store.Likes, store.Checkins, nil, services.PopularityOptions{Now: clock.Now}, nil)

	res, err := svc.Popular(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, res.Favorite)
	assert.Empty(t, res.MostVisited)
	assert.Len(t, res.NewPlaces, 3)
	assert.Nil(t, res.NewPlaces[0].IsLiked)
}

func TestPopularityService_TieBreakAndTopN(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
	store := newStore(clock)
	for _, id := range []string{"Z", "M", "B"} {
		seedPlace(t, store, &entities.Place{ID: id})
		_, err := store.Likes.InsertIfAbsent(ctx, &entities.Like{UserID: "u1", PlaceID: id})
		require.NoError(t, err)
	}

	svc := services.NewPopularityService(store.Places, store.Likes, store.Checkins, nil, services.PopularityOptions{TopN: 2, Now: clock.Now}, nil)
	res, err := svc.Popular(ctx, "")
	require.NoError(t, err)
	require.Len(t, res.Favorite, 2)
	assert.Equal(t, "B", res.Favorite[0].ID)
	assert.Equal(t, "M", res.Favorite[1].ID)
	assert.Len(t, res.NewPlaces, 2)
}

func TestPopularityService_UsesCachedRanking(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
	store := newStore(clock)
	seedEngagement(t, clock, store)

	cache := newFakeCache()
	svc := services.NewPopularityService(store.Places, store.Likes, store.Checkins, cache, services.PopularityOptions{CacheTTLSeconds: 60, Now: clock.Now}, nil)

	_, err := svc.Popular(ctx, "")
	require.NoError(t, err)

	raw, ok := cache.data["popular:2024-03:favorite"]
	require.True(t, ok)
	var cached []string
	require.NoError(t, json.Unmarshal(raw, &cached))
	assert.Equal(t, []string{"A", "B"}, cached)

	// a stale entry wins until invalidated; missing ids are skipped
	cache.data["popular:2024-03:favorite"] = []byte(`["B","gone","A"]`)
	res, err := svc.Popular(ctx, "")
	require.NoError(t, err)
	require.Len(t, res.Favorite, 2)
	assert.Equal(t, "B", res.Favorite[0].ID)
	assert.Equal(t, "A", res.Favorite[1].ID)
}
