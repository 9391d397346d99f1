package entities

import (
	"time"

	"github.com/google/uuid"
)

// PlaceEventType represents the type of place event
type PlaceEventType string

const (
	PlaceEventTypeOccupancyUpdate PlaceEventType = "occupancy_update"
	PlaceEventTypeLikeUpdate      PlaceEventType = "like_update"
	PlaceEventTypeCheckin         PlaceEventType = "checkin"
)

// PlaceEvent is a real-time update about a place, fanned out over the event bus
type PlaceEvent struct {
	ID            string                 `json:"id"`
	PlaceID       string                 `json:"placeId"`
	EventType     PlaceEventType         `json:"eventType"`
	Timestamp     time.Time              `json:"timestamp"`
	Location      Location               `json:"location"`
	ChangedFields map[string]interface{} `json:"changedFields"`
}

// NewPlaceEvent creates a new place event
func NewPlaceEvent(placeID string, eventType PlaceEventType, location Location, changedFields map[string]interface{}) *PlaceEvent {
	return &PlaceEvent{
		ID:            uuid.NewString(),
		PlaceID:       placeID,
		EventType:     eventType,
		Timestamp:     time.Now().UTC(),
		Location:      location,
		ChangedFields: changedFields,
	}
}
