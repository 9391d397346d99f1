package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gotham-app/backend/internal/domain/entities"
	"github.com/gotham-app/backend/internal/domain/providers"
	"github.com/gotham-app/backend/internal/infrastructure/observability"
	"github.com/gotham-app/backend/pkg/geo"
)

const (
	defaultRegionRadiusKm = 5.0
	heartbeatInterval     = 30 * time.Second
)

// SSEHandler streams place events to browsers over Server-Sent Events
type SSEHandler struct {
	eventBus  providers.EventBus
	clients   map[string]map[chan *entities.PlaceEvent]bool // channel -> clients
	mu        sync.RWMutex
	heartbeat time.Duration
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(eventBus providers.EventBus) *SSEHandler {
	return &SSEHandler{
		eventBus:  eventBus,
		clients:   make(map[string]map[chan *entities.PlaceEvent]bool),
		heartbeat: heartbeatInterval,
	}
}

// StreamPlaceUpdates handles GET /api/stream/places/{id}
func (h *SSEHandler) StreamPlaceUpdates(w http.ResponseWriter, r *http.Request) {
	placeID := r.PathValue("id")
	if placeID == "" {
		respondWithError(w, http.StatusBadRequest, "place ID is required")
		return
	}

	h.stream(w, r, providers.GetPlaceChannel(placeID), map[string]interface{}{
		"placeId": placeID,
	}, nil)
}

// StreamRegionalUpdates handles GET /api/stream/places?lat=&lng=&radius=
// radius is in kilometers.
func (h *SSEHandler) StreamRegionalUpdates(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	center, err := parsePoint(query.Get("lat"), query.Get("lng"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if center == nil {
		respondWithError(w, http.StatusBadRequest, "lat and lng are required")
		return
	}

	radius := defaultRegionRadiusKm
	if raw := query.Get("radius"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			respondWithError(w, http.StatusBadRequest, "radius must be a positive number")
			return
		}
		radius = parsed
	}

	h.stream(w, r, providers.EventChannelPlaceUpdates, map[string]interface{}{
		"lat":      center.Lat,
		"lng":      center.Lng,
		"radiusKm": radius,
	}, func(event *entities.PlaceEvent) bool {
		point, ok := event.Location.Point()
		return ok && geo.WithinKm(*center, point, radius)
	})
}

func (h *SSEHandler) stream(w http.ResponseWriter, r *http.Request, channel string, hello map[string]interface{}, keep func(*entities.PlaceEvent) bool) {
	logger := observability.LoggerFromContext(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		logger.Error().Err(err).Str("channel", channel).Msg("failed to subscribe")
		respondWithError(w, http.StatusInternalServerError, "failed to subscribe")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientChan := make(chan *entities.PlaceEvent, 32)
	h.registerClient(channel, clientChan)
	defer h.unregisterClient(channel, clientChan)

	hello["timestamp"] = time.Now().UTC()
	h.sendEvent(w, "connected", hello)
	flusher.Flush()

	go h.forwardEvents(r.Context(), eventChan, clientChan, keep)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.Debug().Str("channel", channel).Msg("client disconnected")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now().UTC(),
			})
			flusher.Flush()
		case event := <-clientChan:
			if event == nil {
				continue
			}
			h.sendEvent(w, string(event.EventType), event)
			flusher.Flush()
		}
	}
}

// forwardEvents copies matching events to the client. A full client buffer
// drops the event rather than blocking the bus.
func (h *SSEHandler) forwardEvents(ctx context.Context, eventChan <-chan *entities.PlaceEvent, clientChan chan<- *entities.PlaceEvent, keep func(*entities.PlaceEvent) bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil || (keep != nil && !keep(event)) {
				continue
			}
			select {
			case clientChan <- event:
			default:
			}
		}
	}
}

func (h *SSEHandler) registerClient(channel string, clientChan chan *entities.PlaceEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[channel] == nil {
		h.clients[channel] = make(map[chan *entities.PlaceEvent]bool)
	}
	h.clients[channel][clientChan] = true
}

func (h *SSEHandler) unregisterClient(channel string, clientChan chan *entities.PlaceEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, exists := h.clients[channel]; exists {
		delete(clients, clientChan)
		if len(clients) == 0 {
			delete(h.clients, channel)
		}
	}
}

func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		observability.GetLogger().Error().Err(err).Msg("failed to marshal event data")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// GetClientCount returns the number of connected clients
func (h *SSEHandler) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, clients := range h.clients {
		count += len(clients)
	}
	return count
}
