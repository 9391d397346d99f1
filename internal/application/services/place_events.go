package services

import (
	"context"
	"time"

	"github.com/gotham-app/backend/internal/domain/entities"
	"github.com/gotham-app/backend/internal/domain/providers"
	"github.com/gotham-app/backend/internal/infrastructure/observability"
)

// Clock returns the current time. Services take one so tests can pin days
// and months.
type Clock func() time.Time

// placeEventPublisher fans place events out to the global and per-place
// channels. A nil bus disables publishing.
type placeEventPublisher struct {
	bus providers.EventBus
}

func (p placeEventPublisher) publish(ctx context.Context, place *entities.Place, eventType entities.PlaceEventType, changed map[string]interface{}) {
	if p.bus == nil {
		return
	}

	event := entities.NewPlaceEvent(place.ID, eventType, place.Location, changed)
	for _, channel := range []string{providers.EventChannelPlaceUpdates, providers.GetPlaceChannel(place.ID)} {
		if err := p.bus.Publish(ctx, channel, event); err != nil {
			observability.LoggerFromContext(ctx).Warn().
				Err(err).
				Str("place_id", place.ID).
				Str("event_type", string(eventType)).
				Msg("failed to publish place event")
		}
	}
}
