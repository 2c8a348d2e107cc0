package app

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/croneya/pokersync/internal/domain"
)

// Wire event names, matching what clients subscribe to.
const (
	EventRoomUpdated     = "roomUpdated"
	EventRoomClosed      = "roomClosed"
	EventActiveRooms     = "activeRooms"
	EventSummariesUpdate = "activeRoomsUpdated"
	EventRoomError       = "roomError"
)

// Sender is the transport end of one connection. TrySend must never block;
// a full buffer is an error, not a stall.
type Sender interface {
	TrySend(data []byte) error
}

// Hub fans canonical room state out to subscribed connections and pushes the
// lobby summary to everyone. It owns the set of live connections; the
// registry says who is subscribed where.
type Hub struct {
	registry *Registry

	mu    sync.RWMutex
	conns map[string]Sender
}

func NewHub(registry *Registry) *Hub {
	return &Hub{
		registry: registry,
		conns:    make(map[string]Sender),
	}
}

// Register adds a live connection. Every connected client receives lobby
// summaries, room-bound or not.
func (h *Hub) Register(connID string, s Sender) {
	h.mu.Lock()
	h.conns[connID] = s
	h.mu.Unlock()
}

// Unregister forgets a connection. The registry binding is cleaned up
// separately by the transport layer.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	delete(h.conns, connID)
	h.mu.Unlock()
}

// PublishRoom delivers the redacted room to every subscriber.
func (h *Hub) PublishRoom(roomID string, room *domain.Room) {
	payload := struct {
		Type string          `json:"type"`
		Room domain.RoomView `json:"room"`
	}{EventRoomUpdated, room.View()}
	h.sendTo(h.registry.SubscribersOf(roomID), payload)
}

// PublishClosed tells subscribers the room is gone and unsubscribes them.
func (h *Hub) PublishClosed(roomID string) {
	subs := h.registry.DropRoom(roomID)
	payload := struct {
		Type   string `json:"type"`
		RoomID string `json:"roomId"`
	}{EventRoomClosed, roomID}
	h.sendTo(subs, payload)
}

// PublishSummaries pushes the lobby view to every connected client.
func (h *Hub) PublishSummaries(sums []domain.RoomSummary) {
	payload := struct {
		Type  string               `json:"type"`
		Rooms []domain.RoomSummary `json:"rooms"`
	}{EventSummariesUpdate, sums}

	h.mu.RLock()
	targets := make([]Sender, 0, len(h.conns))
	for _, s := range h.conns {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("module", "app.hub").Msg("marshal summaries")
		return
	}
	dropped := 0
	for _, s := range targets {
		if err := s.TrySend(data); err != nil {
			dropped++
		}
	}
	if dropped > 0 {
		log.Warn().Str("module", "app.hub").Int("dropped", dropped).Msg("slow consumers skipped")
	}
}

func (h *Hub) sendTo(connIDs []string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.hub").Msg("marshal broadcast")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range connIDs {
		s, ok := h.conns[id]
		if !ok {
			continue
		}
		if err := s.TrySend(data); err != nil {
			log.Warn().Str("module", "app.hub").Str("conn", id).Msg("dropped frame for slow consumer")
		}
	}
}
