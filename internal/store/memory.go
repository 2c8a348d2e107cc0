package store

import (
	"context"
	"sync"

	"github.com/croneya/pokersync/internal/domain"
)

// Memory is an in-process Store. Rooms are stored as deep copies so callers
// can never alias persisted state.
type Memory struct {
	mu    sync.RWMutex
	rooms map[string]*domain.Room
}

func NewMemory() *Memory {
	return &Memory{rooms: make(map[string]*domain.Room)}
}

func (m *Memory) Get(ctx context.Context, roomID string) (*domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[roomID]
	if !ok {
		return nil, nil
	}
	return room.Clone(), nil
}

func (m *Memory) Put(ctx context.Context, room *domain.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.ID] = room.Clone()
	return nil
}

func (m *Memory) Delete(ctx context.Context, roomID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, roomID)
	return nil
}

func (m *Memory) ListSummaries(ctx context.Context) ([]domain.RoomSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.RoomSummary, 0, len(m.rooms))
	for _, room := range m.rooms {
		out = append(out, room.Summary())
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
