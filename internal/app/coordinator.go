package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/croneya/pokersync/internal/domain"
	"github.com/croneya/pokersync/internal/state"
	"github.com/croneya/pokersync/internal/store"
)

// Publisher receives the outcome of committed transitions. Implementations
// must not block; the coordinator calls them inside the per-room section to
// keep broadcasts in commit order.
type Publisher interface {
	PublishRoom(roomID string, room *domain.Room)
	PublishClosed(roomID string)
	PublishSummaries(sums []domain.RoomSummary)
}

// Coordinator serializes commands per room and applies them transactionally
// against the store. At most one transition per room is in flight; commands
// for different rooms proceed concurrently.
type Coordinator struct {
	store     store.Store
	publisher Publisher
	timeout   time.Duration
	now       func() time.Time

	mu    sync.Mutex
	locks map[string]*roomLock
}

type roomLock struct {
	mu   sync.Mutex
	refs int
}

func NewCoordinator(st store.Store, pub Publisher, storeTimeout time.Duration) *Coordinator {
	return &Coordinator{
		store:     st,
		publisher: pub,
		timeout:   storeTimeout,
		now:       time.Now,
		locks:     make(map[string]*roomLock),
	}
}

// Execute runs one command against one room. On success the resulting room
// (nil when the room was deleted) has been persisted and broadcast. On any
// failure nothing is persisted, nothing is broadcast, and the error is
// terminal for this command only.
func (c *Coordinator) Execute(ctx context.Context, roomID string, cmd state.Command) (*domain.Room, error) {
	l := c.acquire(roomID)
	defer c.release(roomID, l)

	sctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	current, err := c.store.Get(sctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	next, err := state.Apply(current, cmd, c.now())
	if err != nil {
		return nil, err
	}

	// Policy: changing the story starts a fresh round. Enforced here, in the
	// sequencing layer, never inside the transition function.
	if ss, ok := cmd.(state.SetStory); ok && current != nil && ss.Text != current.CurrentStory {
		next, err = state.Apply(next, state.Reset{}, c.now())
		if err != nil {
			return nil, err
		}
	}

	if next == nil {
		if err := c.store.Delete(sctx, roomID); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
		}
		c.publisher.PublishClosed(roomID)
		c.publishSummaries(ctx)
		log.Info().Str("module", "app.coordinator").Str("room", roomID).Msg("room deleted")
		return nil, nil
	}

	if err := next.Validate(); err != nil {
		log.Error().Str("module", "app.coordinator").Str("room", roomID).Msg("transition broke room invariants, rejected")
		return nil, err
	}

	if err := c.store.Put(sctx, next); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	c.publisher.PublishRoom(roomID, next)
	if membershipChanged(cmd) {
		c.publishSummaries(ctx)
	}
	return next, nil
}

// Summaries returns the lobby view for a direct request.
func (c *Coordinator) Summaries(ctx context.Context) ([]domain.RoomSummary, error) {
	sctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.store.ListSummaries(sctx)
}

// publishSummaries refreshes the lobby for all clients. A summary read
// failure only loses the refresh, never the committed command.
func (c *Coordinator) publishSummaries(ctx context.Context) {
	sctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	sums, err := c.store.ListSummaries(sctx)
	if err != nil {
		log.Error().Err(err).Str("module", "app.coordinator").Msg("list summaries for broadcast")
		return
	}
	c.publisher.PublishSummaries(sums)
}

func membershipChanged(cmd state.Command) bool {
	switch cmd.(type) {
	case state.Create, state.Join, state.Leave:
		return true
	}
	return false
}

func (c *Coordinator) acquire(roomID string) *roomLock {
	c.mu.Lock()
	l, ok := c.locks[roomID]
	if !ok {
		l = &roomLock{}
		c.locks[roomID] = l
	}
	l.refs++
	c.mu.Unlock()
	l.mu.Lock()
	return l
}

func (c *Coordinator) release(roomID string, l *roomLock) {
	l.mu.Unlock()
	c.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(c.locks, roomID)
	}
	c.mu.Unlock()
}
