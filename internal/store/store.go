// Package store provides durable persistence of room documents. The mutation
// coordinator is the only writer; nothing else touches a Store directly.
package store

import (
	"context"

	"github.com/croneya/pokersync/internal/domain"
)

// Store is one-document-per-room persistence. Get returns (nil, nil) when the
// room is absent. Put always writes the full document, never a partial update.
type Store interface {
	Get(ctx context.Context, roomID string) (*domain.Room, error)
	Put(ctx context.Context, room *domain.Room) error
	Delete(ctx context.Context, roomID string) error
	// ListSummaries returns the lobby view of every room. A cold or empty
	// backing collection yields an empty slice, not an error.
	ListSummaries(ctx context.Context) ([]domain.RoomSummary, error)
	Close() error
}
