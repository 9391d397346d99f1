package services

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/gotham-app/backend/internal/domain/entities"
	"github.com/gotham-app/backend/internal/domain/providers"
	"github.com/gotham-app/backend/internal/domain/repositories"
	"github.com/gotham-app/backend/internal/infrastructure/observability"
	apperrors "github.com/gotham-app/backend/pkg/errors"
)

// LikeResult reports the like state after a Like or Unlike call.
// Changed is true only when this call created or removed the like edge.
type LikeResult struct {
	Liked   bool `json:"liked"`
	Changed bool `json:"-"`
}

// EngagementService toggles like edges and keeps Place.likeCount in step
// with them. The counter only moves when the edge write reports that it
// changed state.
type EngagementService struct {
	places  repositories.PlaceRepository
	likes   repositories.LikeRepository
	events  placeEventPublisher
	metrics *observability.Metrics
}

// NewEngagementService creates a new engagement service
func NewEngagementService(places repositories.PlaceRepository, likes repositories.LikeRepository, bus providers.EventBus, metrics *observability.Metrics) *EngagementService {
	return &EngagementService{
		places:  places,
		likes:   likes,
		events:  placeEventPublisher{bus: bus},
		metrics: metrics,
	}
}

// Like records that userID likes placeID. Repeated calls are no-ops.
func (s *EngagementService) Like(ctx context.Context, userID, placeID string) (*LikeResult, error) {
	ctx, span := observability.StartSpan(ctx, "EngagementService.Like")
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

	created, err := s.likes.InsertIfAbsent(ctx, &entities.Like{UserID: userID, PlaceID: placeID})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	if !created {
		return &LikeResult{Liked: true}, nil
	}

	if err := s.places.IncrementLikeCount(ctx, placeID, 1); err != nil {
		s.compensate(ctx, "like", userID, placeID, err, func() error {
			_, derr := s.likes.Delete(ctx, userID, placeID)
			return derr
		})
		observability.RecordError(span, err)
		return nil, apperrors.NewInternalError("failed to update like count", err)
	}

	observability.RecordEngagement(ctx, s.metrics, "like")
	s.publishLikeUpdate(ctx, place, 1)
	return &LikeResult{Liked: true, Changed: true}, nil
}

// Unlike removes the like of userID on placeID if there is one
func (s *EngagementService) Unlike(ctx context.Context, userID, placeID string) (*LikeResult, error) {
	ctx, span := observability.StartSpan(ctx, "EngagementService.Unlike")
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

	deleted, err := s.likes.Delete(ctx, userID, placeID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	if !deleted {
		return &LikeResult{Liked: false}, nil
	}

	if err := s.places.IncrementLikeCount(ctx, placeID, -1); err != nil {
		s.compensate(ctx, "unlike", userID, placeID, err, func() error {
			_, ierr := s.likes.InsertIfAbsent(ctx, &entities.Like{UserID: userID, PlaceID: placeID})
			return ierr
		})
		observability.RecordError(span, err)
		return nil, apperrors.NewInternalError("failed to update like count", err)
	}

	observability.RecordEngagement(ctx, s.metrics, "unlike")
	s.publishLikeUpdate(ctx, place, -1)
	return &LikeResult{Liked: false, Changed: true}, nil
}

// publishLikeUpdate re-reads the place after the counter write so the event
// carries the stored likeCount. If the re-read fails only the delta is sent.
func (s *EngagementService) publishLikeUpdate(ctx context.Context, place *entities.Place, delta int) {
	if s.events.bus == nil {
		return
	}
	changed := map[string]interface{}{"delta": delta}
	if fresh, err := s.places.GetByID(ctx, place.ID); err == nil {
		place = fresh
		changed["likeCount"] = fresh.LikeCount
	}
	s.events.publish(ctx, place, entities.PlaceEventTypeLikeUpdate, changed)
}

// compensate reverts an edge write whose counter update failed
func (s *EngagementService) compensate(ctx context.Context, op, userID, placeID string, cause error, revert func() error) {
	logger := observability.LoggerFromContext(ctx)
	if err := revert(); err != nil {
		logger.Error().
			Err(err).
			AnErr("cause", cause).
			Str("op", op).
			Str("user_id", userID).
			Str("place_id", placeID).
			Msg("like count update failed and edge revert failed, counter may drift")
		return
	}
	logger.Error().
		Err(cause).
		Str("op", op).
		Str("user_id", userID).
		Str("place_id", placeID).
		Msg("like count update failed, edge write reverted")
}
