package services

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/gotham-app/backend/internal/domain/entities"
	"github.com/gotham-app/backend/internal/domain/providers"
	"github.com/gotham-app/backend/internal/domain/repositories"
	"github.com/gotham-app/backend/internal/infrastructure/observability"
)

// OccupancyService applies live occupancy deltas
type OccupancyService struct {
	places  repositories.PlaceRepository
	events  placeEventPublisher
	metrics *observability.Metrics
}

// NewOccupancyService creates a new occupancy service
func NewOccupancyService(places repositories.PlaceRepository, bus providers.EventBus, metrics *observability.Metrics) *OccupancyService {
	return &OccupancyService{
		places:  places,
		events:  placeEventPublisher{bus: bus},
		metrics: metrics,
	}
}

// Apply adds delta to the place's current occupancy and returns the stored
// value, which never drops below zero.
func (s *OccupancyService) Apply(ctx context.Context, placeID string, delta int) (int, error) {
	ctx, span := observability.StartSpan(ctx, "OccupancyService.Apply")
	defer span.End()
	observability.SetSpanAttributes(span, attribute.String("place.id", placeID), attribute.Int("occupancy.delta", delta))

	place, err := s.places.GetByID(ctx, placeID)
	if err != nil {
		observability.RecordError(span, err)
		return 0, err
	}

	value, err := s.places.AddOccupancy(ctx, placeID, delta)
	if err != nil {
		observability.RecordError(span, err)
		return 0, err
	}

	observability.RecordEngagement(ctx, s.metrics, "occupancy")
	s.events.publish(ctx, place, entities.PlaceEventTypeOccupancyUpdate, map[string]interface{}{
		"currentOccupancy": value,
		"capacity":         place.Capacity,
	})
	return value, nil
}
