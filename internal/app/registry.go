package app

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Binding ties a live connection to the room and participant it acts for.
// Bindings are ephemeral and never persisted.
type Binding struct {
	RoomID        string
	ParticipantID string
}

// Registry tracks which connection belongs to which room, with O(1) lookup
// in both directions. It never mutates room state itself; on unbind it only
// reports what was bound so the caller can issue a Leave.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Binding
	rooms map[string]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]Binding),
		rooms: make(map[string]map[string]struct{}),
	}
}

// Bind associates a connection with a (room, participant) pair. A connection
// already bound elsewhere is moved.
func (r *Registry) Bind(connID, roomID, participantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.conns[connID]; ok {
		r.dropLocked(connID, prev.RoomID)
	}
	r.conns[connID] = Binding{RoomID: roomID, ParticipantID: participantID}
	set, ok := r.rooms[roomID]
	if !ok {
		set = make(map[string]struct{})
		r.rooms[roomID] = set
	}
	set[connID] = struct{}{}
	log.Info().Str("module", "app.registry").Str("conn", connID).Str("room", roomID).Msg("bound session")
}

// Unbind removes a connection's binding. It returns the binding, whether this
// was the room's last subscriber, and whether the connection was bound at all.
func (r *Registry) Unbind(connID string) (Binding, bool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.conns[connID]
	if !ok {
		return Binding{}, false, false
	}
	delete(r.conns, connID)
	r.dropLocked(connID, b.RoomID)
	_, stillSubscribed := r.rooms[b.RoomID]
	log.Info().Str("module", "app.registry").Str("conn", connID).Str("room", b.RoomID).Msg("unbound session")
	return b, !stillSubscribed, true
}

// Lookup returns the current binding of a connection.
func (r *Registry) Lookup(connID string) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.conns[connID]
	return b, ok
}

// HasParticipant reports whether any connection is still bound to the given
// participant in the given room. Lets a teardown tell "last tab closed" apart
// from "one of several tabs closed".
func (r *Registry) HasParticipant(roomID, participantID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for connID := range r.rooms[roomID] {
		if b, ok := r.conns[connID]; ok && b.ParticipantID == participantID {
			return true
		}
	}
	return false
}

// SubscribersOf returns the connections currently subscribed to a room.
func (r *Registry) SubscribersOf(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.rooms[roomID]
	out := make([]string, 0, len(set))
	for connID := range set {
		out = append(out, connID)
	}
	return out
}

// DropRoom unsubscribes every connection from a room, returning the
// connections that were subscribed. Used when a room is deleted.
func (r *Registry) DropRoom(roomID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.rooms[roomID]
	out := make([]string, 0, len(set))
	for connID := range set {
		delete(r.conns, connID)
		out = append(out, connID)
	}
	delete(r.rooms, roomID)
	return out
}

// dropLocked removes connID from a room's subscriber set, reclaiming the set
// when it empties. Caller holds the write lock.
func (r *Registry) dropLocked(connID, roomID string) {
	set, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(r.rooms, roomID)
	}
}
