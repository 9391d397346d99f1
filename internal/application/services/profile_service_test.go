package services_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotham-app/backend/internal/application/services"
	"github.com/gotham-app/backend/internal/domain/entities"
	apperrors "github.com/gotham-app/backend/pkg/errors"
)

func TestProfileService_FavoritesNewestFirst(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
	store := newStore(clock)
	seedPlace(t, store, &entities.Place{ID: "A", Text: "Alpha"})
	seedPlace(t, store, &entities.Place{ID: "B", Text: "Beta"})
	engagement := services.NewEngagementService(store.Places, store.Likes, nil, nil)

	_, err := engagement.Like(ctx, "u1", "A")
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = engagement.Like(ctx, "u1", "B")
	require.NoError(t, err)

	svc := services.NewProfileService(store.Places, store.Likes, store.Checkins, 10)
	entries, page, err := svc.Favorites(ctx, "u1", 1, 0)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "B", entries[0].ID)
	assert.Equal(t, "A", entries[1].ID)
	assert.True(t, entries[0].LikedAt.After(entries[1].LikedAt))
	require.NotNil(t, entries[0].IsLiked)
	assert.True(t, *entries[0].IsLiked)
	assert.Equal(t, services.Pagination{Page: 1, Limit: 10, Total: 2, TotalPages: 1}, *page)
}

func TestProfileService_FavoritesPaged(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
	store := newStore(clock)
	for _, id := range []string{"A", "B", "C"} {
		seedPlace(t, store, &entities.Place{ID: id})
		_, err := store.Likes.InsertIfAbsent(ctx, &entities.Like{UserID: "u1", PlaceID: id})
		require.NoError(t, err)
		clock.Advance(time.Second)
	}

	svc := services.NewProfileService(store.Places, store.Likes, store.Checkins, 10)
	entries, page, err := svc.Favorites(ctx, "u1", 2, 2)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "A", entries[0].ID)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
}

func TestProfileService_HugePageIsEmpty(t *testing.T) {
	ctx := context.Background()
	store := newStore(newTestClock(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)))
	seedPlace(t, store, &entities.Place{ID: "A"})
	_, err := store.Likes.InsertIfAbsent(ctx, &entities.Like{UserID: "u1", PlaceID: "A"})
	require.NoError(t, err)
	require.NoError(t, store.Checkins.Create(ctx, &entities.Checkin{UserID: "u1", PlaceID: "A", Day: "2024-03-10"}))

	svc := services.NewProfileService(store.Places, store.Likes, store.Checkins, 10)

	favorites, page, err := svc.Favorites(ctx, "u1", math.MaxInt64, 10)
	require.NoError(t, err)
	assert.Empty(t, favorites)
	assert.Equal(t, 1, page.Total)

	checkins, _, err := svc.Checkins(ctx, "u1", math.MaxInt64, 10)
	require.NoError(t, err)
	assert.Empty(t, checkins)
}

func TestProfileService_Checkins(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
	store := newStore(clock)
	seedPlace(t, store, &entities.Place{ID: "A", Text: "Alpha"})
	checkins := services.NewCheckinService(store.Places, store.Checkins, nil, services.CheckinPolicy{}, clock.Now, time.UTC, nil)

	_, err := checkins.Checkin(ctx, "u1", "A", nil)
	require.NoError(t, err)
	clock.Advance(24 * time.Hour)
	_, err = checkins.Checkin(ctx, "u1", "A", nil)
	require.NoError(t, err)

	svc := services.NewProfileService(store.Places, store.Likes, store.Checkins, 10)
	entries, page, err := svc.Checkins(ctx, "u1", 1, 10)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "2024-03-11", entries[0].Date)
	assert.Equal(t, "2024-03-10", entries[1].Date)
	require.NotNil(t, entries[0].Place)
	assert.Equal(t, "Alpha", entries[0].Place.Text)
	assert.Equal(t, 2, page.Total)
}

func TestProfileService_RequiresUser(t *testing.T) {
	store := newStore(newTestClock(time.Now()))
	svc := services.NewProfileService(store.Places, store.Likes, store.Checkins, 10)

	_, _, err := svc.Favorites(context.Background(), "", 1, 10)
	assert.Equal(t, apperrors.ErrorTypeUnauthorized, apperrors.TypeOf(err))
	_, _, err = svc.Checkins(context.Background(), "", 1, 10)
	assert.Equal(t, apperrors.ErrorTypeUnauthorized, apperrors.TypeOf(err))
}
