package services

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/gotham-app/backend/internal/domain/entities"
	"github.com/gotham-app/backend/internal/domain/providers"
	"github.com/gotham-app/backend/internal/domain/repositories"
	"github.com/gotham-app/backend/internal/infrastructure/observability"
	apperrors "github.com/gotham-app/backend/pkg/errors"
	"github.com/gotham-app/backend/pkg/geo"
)

// CheckinPolicy controls proximity gating. Distance is computed whenever
// the caller sends a point; it only rejects when EnforceProximity is set.
type CheckinPolicy struct {
	EnforceProximity  bool
	MaxDistanceMeters float64
}

// CheckinResult is a created check-in plus the caller's distance to the place
type CheckinResult struct {
	Checkin      *entities.Checkin `json:"checkin"`
	Distance     *float64          `json:"distance,omitempty"`
	DistanceText string            `json:"distanceText,omitempty"`
}

// CheckinService records one visit per user, place and calendar day
type CheckinService struct {
	places   repositories.PlaceRepository
	checkins repositories.CheckinRepository
	events   placeEventPublisher
	policy   CheckinPolicy
	now      Clock
	loc      *time.Location
	metrics  *observability.Metrics
}

// NewCheckinService creates a new check-in service. Calendar days are taken
// in loc.
func NewCheckinService(places repositories.PlaceRepository, checkins repositories.CheckinRepository, bus providers.EventBus, policy CheckinPolicy, now Clock, loc *time.Location, metrics *observability.Metrics) *CheckinService {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CheckinService{
		places:   places,
		checkins: checkins,
		events:   placeEventPublisher{bus: bus},
		policy:   policy,
		now:      now,
		loc:      loc,
		metrics:  metrics,
	}
}

// Today returns the current calendar day in the service's zone
func (s *CheckinService) Today() string {
	return s.now().In(s.loc).Format(entities.DayLayout)
}

// Checkin records a visit of userID to placeID today. from is the caller's
// position and may be nil.
func (s *CheckinService) Checkin(ctx context.Context, userID, placeID string, from *geo.Point) (*CheckinResult, error) {
	ctx, span := observability.StartSpan(ctx, "CheckinService.Checkin")
	defer span.End()
	observability.SetSpanAttributes(span, attribute.String("place.id", placeID))

	if userID == "" {
		return nil, apperrors.NewUnauthorizedError("authentication required")
	}

	place, err := s.places.GetByID(ctx, placeID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	result := &CheckinResult{}
	if from != nil {
		if to, ok := place.Location.Point(); ok {
			d := geo.Distance(*from, to)
			result.Distance = &d
			result.DistanceText = geo.FormatDistance(d)
		}
	}

	if err := s.checkProximity(result.Distance, from); err != nil {
		return nil, err
	}

	now := s.now()
	checkin := &entities.Checkin{
		UserID:    userID,
		PlaceID:   placeID,
		Day:       now.In(s.loc).Format(entities.DayLayout),
		CreatedAt: now.UTC(),
	}
	if err := s.checkins.Create(ctx, checkin); err != nil {
		if apperrors.IsConflict(err) {
			return nil, apperrors.NewConflictError("already checked in today")
		}
		observability.RecordError(span, err)
		return nil, err
	}

	observability.RecordEngagement(ctx, s.metrics, "checkin")
	s.events.publish(ctx, place, entities.PlaceEventTypeCheckin, map[string]interface{}{
		"date": checkin.Day,
	})

	result.Checkin = checkin
	return result, nil
}

func (s *CheckinService) checkProximity(distance *float64, from *geo.Point) error {
	if !s.policy.EnforceProximity {
		return nil
	}
	if from == nil {
		return apperrors.NewValidationError("location is required to check in")
	}
	if distance == nil {
		return apperrors.NewValidationError("place has no location")
	}
	if *distance > s.policy.MaxDistanceMeters {
		return apperrors.NewValidationError(fmt.Sprintf("you are %s away, check-in requires being within %s",
			geo.FormatDistance(*distance), geo.FormatDistance(s.policy.MaxDistanceMeters)))
	}
	return nil
}
