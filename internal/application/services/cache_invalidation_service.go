package services

import (
	"context"
	"fmt"
	"time"

	"github.com/gotham-app/backend/internal/domain/entities"
	"github.com/gotham-app/backend/internal/domain/providers"
	"github.com/gotham-app/backend/internal/infrastructure/observability"
)

// CacheInvalidationService drops cached popularity rankings when likes or
// check-ins change them
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	loc      *time.Location
	now      Clock
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus, loc *time.Location, now Clock) *CacheInvalidationService {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		loc:      loc,
		now:      now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// StartPopularCache starts invalidation for cache and returns the cache the
// popularity service may read. A cache whose invalidation could not start is
// not returned, so rankings are read from the store instead of going stale.
func StartPopularCache(cache providers.CacheProvider, eventBus providers.EventBus, loc *time.Location, now Clock) (providers.CacheProvider, *CacheInvalidationService, error) {
	if cache == nil {
		return nil, nil, nil
	}
	svc := NewCacheInvalidationService(cache, eventBus, loc, now)
	if err := svc.Start(); err != nil {
		svc.cancel()
		return nil, nil, err
	}
	return cache, svc, nil
}

// Start begins listening for place events
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelPlaceUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to place updates: %w", err)
	}

	go s.processEvents(eventChan)
	observability.GetLogger().Info().Msg("cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	observability.GetLogger().Info().Msg("cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.PlaceEvent) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

// handleEvent invalidates the current month's rankings. Occupancy updates
// do not affect popularity.
func (s *CacheInvalidationService) handleEvent(event *entities.PlaceEvent) {
	switch event.EventType {
	case entities.PlaceEventTypeLikeUpdate, entities.PlaceEventTypeCheckin:
	default:
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.InvalidatePopular(ctx); err != nil {
		observability.GetLogger().Warn().
			Err(err).
			Str("place_id", event.PlaceID).
			Str("event_type", string(event.EventType)).
			Msg("failed to invalidate popularity cache")
	}
}

// InvalidatePopular deletes the cached rankings of the current month
func (s *CacheInvalidationService) InvalidatePopular(ctx context.Context) error {
	keys := PopularCacheKeys(s.now(), s.loc)
	if err := s.cache.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("failed to delete %v: %w", keys, err)
	}
	return nil
}
