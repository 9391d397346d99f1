package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotham-app/backend/internal/application/services"
	"github.com/gotham-app/backend/internal/domain/entities"
	apperrors "github.com/gotham-app/backend/pkg/errors"
	"github.com/gotham-app/backend/pkg/geo"
)

func TestCheckinService_OncePerDay(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	store := newStore(clock)
	seedPlace(t, store, &entities.Place{ID: "p1"})
	svc := services.NewCheckinService(store.Places, store.Checkins, nil, services.CheckinPolicy{}, clock.Now, time.UTC, nil)

	res, err := svc.Checkin(ctx, "u1", "p1", nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", res.Checkin.Day)
	assert.Nil(t, res.Distance)

	clock.Advance(10 * time.Hour)
	_, err = svc.Checkin(ctx, "u1", "p1", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Contains(t, err.Error(), "already checked in today")

	clock.Advance(5 * time.Hour)
	res, err = svc.Checkin(ctx, "u1", "p1", nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-11", res.Checkin.Day)

	n, err := store.Checkins.CountByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCheckinService_DayFollowsZone(t *testing.T) {
	ctx := context.Background()
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	clock := newTestClock(time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC))
	store := newStore(clock)
	seedPlace(t, store, &entities.Place{ID: "p1"})
	svc := services.NewCheckinService(store.Places, store.Checkins, nil, services.CheckinPolicy{}, clock.Now, tokyo, nil)

	assert.Equal(t, "2024-03-11", svc.Today())
	res, err := svc.Checkin(ctx, "u1", "p1", nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-11", res.Checkin.Day)
}

func TestCheckinService_Distance(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock(time.Now())
	store := newStore(clock)
	seedPlace(t, store, &entities.Place{ID: "p1", Location: entities.NewLocation(52.5200, 13.4050)})

	far := &geo.Point{Lat: 52.5300, Lng: 13.4050}

	t.Run("reported without enforcement", func(t *testing.T) {
		svc := services.NewCheckinService(store.Places, store.Checkins, nil, services.CheckinPolicy{MaxDistanceMeters: 200}, clock.Now, time.UTC, nil)
		res, err := svc.Checkin(ctx, "u1", "p1", far)
		require.NoError(t, err)
		require.NotNil(t, res.Distance)
		assert.InDelta(t, 1112, *res.Distance, 5)
		assert.Equal(t, "1.1 km", res.DistanceText)
	})

	t.Run("rejected when enforced", func(t *testing.T) {
		policy := services.CheckinPolicy{EnforceProximity: true, MaxDistanceMeters: 200}
		svc := services.NewCheckinService(store.Places, store.Checkins, nil, policy, clock.Now, time.UTC, nil)

		_, err := svc.Checkin(ctx, "u2", "p1", far)
		assert.True(t, apperrors.IsValidation(err))

		_, err = svc.Checkin(ctx, "u2", "p1", nil)
		assert.True(t, apperrors.IsValidation(err))

		res, err := svc.Checkin(ctx, "u2", "p1", &geo.Point{Lat: 52.5201, Lng: 13.4051})
		require.NoError(t, err)
		assert.Equal(t, "13 m", res.DistanceText)
	})
}

func TestCheckinService_Errors(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock(time.Now())
	store := newStore(clock)
	svc := services.NewCheckinService(store.Places, store.Checkins, nil, services.CheckinPolicy{}, clock.Now, time.UTC, nil)

	_, err := svc.Checkin(ctx, "", "p1", nil)
	assert.Equal(t, apperrors.ErrorTypeUnauthorized, apperrors.TypeOf(err))

	_, err = svc.Checkin(ctx, "u1", "missing", nil)
	assert.True(t, apperrors.IsNotFound(err))
}
