package providers

import (
	"context"

	"github.com/gotham-app/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to place events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.PlaceEvent) error

	// Subscribe subscribes to events on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.PlaceEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

const (
	// EventChannelPlaceUpdates carries every place event
	EventChannelPlaceUpdates = "places:updates"

	// EventChannelPlacePrefix is the prefix for per-place channels
	EventChannelPlacePrefix = "places:"
)

// GetPlaceChannel returns the channel name for a specific place
func GetPlaceChannel(placeID string) string {
	return EventChannelPlacePrefix + placeID
}
