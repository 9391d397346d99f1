package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotham-app/backend/internal/adapters/events"
	"github.com/gotham-app/backend/internal/application/services"
	"github.com/gotham-app/backend/internal/domain/entities"
	"github.com/gotham-app/backend/internal/domain/providers"
	apperrors "github.com/gotham-app/backend/pkg/errors"
)

func TestOccupancyService_ClampsAtZero(t *testing.T) {
	ctx := context.Background()
	store := newStore(newTestClock(time.Now()))
	seedPlace(t, store, &entities.Place{ID: "p1", Capacity: 40})
	svc := services.NewOccupancyService(store.Places, nil, nil)

	v, err := svc.Apply(ctx, "p1", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	v, err = svc.Apply(ctx, "p1", -5)
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	v, err = svc.Apply(ctx, "p1", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestOccupancyService_MissingPlace(t *testing.T) {
	store := newStore(newTestClock(time.Now()))
	svc := services.NewOccupancyService(store.Places, nil, nil)

	_, err := svc.Apply(context.Background(), "missing", 1)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestOccupancyService_PublishesToBothChannels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newStore(newTestClock(time.Now()))
	seedPlace(t, store, &entities.Place{ID: "p1", Capacity: 40})
	bus := events.NewLocalEventBus()
	global, err := bus.Subscribe(ctx, providers.EventChannelPlaceUpdates)
	require.NoError(t, err)
	single, err := bus.Subscribe(ctx, providers.GetPlaceChannel("p1"))
	require.NoError(t, err)

	svc := services.NewOccupancyService(store.Places, bus, nil)
	_, err = svc.Apply(ctx, "p1", 7)
	require.NoError(t, err)

	for _, ch := range []<-chan *entities.PlaceEvent{global, single} {
		select {
		case ev := <-ch:
			assert.Equal(t, entities.PlaceEventTypeOccupancyUpdate, ev.EventType)
			assert.Equal(t, 7, ev.ChangedFields["currentOccupancy"])
			assert.Equal(t, 40, ev.ChangedFields["capacity"])
		case <-time.After(time.Second):
			t.Fatal("expected an occupancy_update event")
		}
	}
}
