package state

import (
	"fmt"
	"time"

	"github.com/croneya/pokersync/internal/domain"
)

// Apply computes the next room state. A nil room means the room is absent; a
// nil result with a nil error means the room was deleted. The input room is
// never mutated.
func Apply(room *domain.Room, cmd Command, now time.Time) (*domain.Room, error) {
	switch c := cmd.(type) {
	case Create:
		return applyCreate(room, c, now)
	case Join:
		return applyJoin(room, c, now)
	case Leave:
		return applyLeave(room, c, now)
	case CastVote:
		return applyVote(room, c, now)
	case Reveal:
		return applyReveal(room, now)
	case Reset:
		return applyReset(room, now)
	case SetStory:
		return applySetStory(room, c, now)
	case ToggleSpectator:
		return applyToggleSpectator(room, c, now)
	default:
		return nil, fmt.Errorf("%w: unknown command %T", domain.ErrConsistency, cmd)
	}
}

func applyCreate(room *domain.Room, c Create, now time.Time) (*domain.Room, error) {
	if room != nil {
		return nil, domain.ErrRoomExists
	}
	if err := domain.ValidName(c.RoomName, domain.MaxRoomNameLen); err != nil {
		return nil, err
	}
	if err := domain.ValidName(c.Creator.Name, domain.MaxUserNameLen); err != nil {
		return nil, err
	}
	creator := c.Creator
	creator.IsSpectator = false
	return &domain.Room{
		ID:        c.RoomID,
		Name:      c.RoomName,
		Users:     []domain.Participant{creator},
		Votes:     []domain.Vote{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func applyJoin(room *domain.Room, c Join, now time.Time) (*domain.Room, error) {
	if room == nil {
		return nil, domain.ErrRoomNotFound
	}
	if err := domain.ValidName(c.User.Name, domain.MaxUserNameLen); err != nil {
		return nil, err
	}
	next := room.Clone()
	if i := next.UserIndex(c.User.ID); i >= 0 {
		// Reconnect: same identity replaces in place, no duplicate.
		next.Users[i] = c.User
		if c.User.IsSpectator {
			next.Votes = removeVote(next.Votes, c.User.ID)
		}
	} else {
		next.Users = append(next.Users, c.User)
	}
	next.UpdatedAt = now
	return next, nil
}

func applyLeave(room *domain.Room, c Leave, now time.Time) (*domain.Room, error) {
	if room == nil {
		return nil, domain.ErrRoomNotFound
	}
	i := room.UserIndex(c.UserID)
	if i < 0 {
		return nil, domain.ErrUserNotFound
	}
	next := room.Clone()
	next.Users = append(next.Users[:i], next.Users[i+1:]...)
	next.Votes = removeVote(next.Votes, c.UserID)
	if len(next.Users) == 0 {
		// Terminal transition: an empty room must not persist.
		return nil, nil
	}
	next.UpdatedAt = now
	return next, nil
}

func applyVote(room *domain.Room, c CastVote, now time.Time) (*domain.Room, error) {
	if room == nil {
		return nil, domain.ErrRoomNotFound
	}
	i := room.UserIndex(c.UserID)
	if i < 0 {
		return nil, domain.ErrUserNotFound
	}
	if room.Users[i].IsSpectator {
		return nil, domain.ErrSpectatorVote
	}
	if !domain.ValidEstimate(c.Value) {
		return nil, domain.ErrInvalidCard
	}
	next := room.Clone()
	if j := next.VoteIndex(c.UserID); j >= 0 {
		next.Votes[j].Value = c.Value
	} else {
		next.Votes = append(next.Votes, domain.Vote{UserID: c.UserID, Value: c.Value})
	}
	next.UpdatedAt = now
	return next, nil
}

func applyReveal(room *domain.Room, now time.Time) (*domain.Room, error) {
	if room == nil {
		return nil, domain.ErrRoomNotFound
	}
	if room.IsRevealed {
		// Idempotent: already revealed is a no-op, not an error.
		return room.Clone(), nil
	}
	if len(room.Votes) == 0 {
		return nil, domain.ErrNoVotes
	}
	next := room.Clone()
	next.IsRevealed = true
	next.UpdatedAt = now
	return next, nil
}

func applyReset(room *domain.Room, now time.Time) (*domain.Room, error) {
	if room == nil {
		return nil, domain.ErrRoomNotFound
	}
	next := room.Clone()
	next.Votes = []domain.Vote{}
	next.IsRevealed = false
	next.UpdatedAt = now
	return next, nil
}

func applySetStory(room *domain.Room, c SetStory, now time.Time) (*domain.Room, error) {
	if room == nil {
		return nil, domain.ErrRoomNotFound
	}
	if len(c.Text) > domain.MaxStoryLen {
		return nil, domain.ErrStoryTooLong
	}
	next := room.Clone()
	next.CurrentStory = c.Text
	next.UpdatedAt = now
	return next, nil
}

func applyToggleSpectator(room *domain.Room, c ToggleSpectator, now time.Time) (*domain.Room, error) {
	if room == nil {
		return nil, domain.ErrRoomNotFound
	}
	i := room.UserIndex(c.UserID)
	if i < 0 {
		return nil, domain.ErrUserNotFound
	}
	next := room.Clone()
	next.Users[i].IsSpectator = !next.Users[i].IsSpectator
	if next.Users[i].IsSpectator {
		next.Votes = removeVote(next.Votes, c.UserID)
	}
	next.UpdatedAt = now
	return next, nil
}

func removeVote(votes []domain.Vote, userID string) []domain.Vote {
	out := votes[:0]
	for _, v := range votes {
		if v.UserID != userID {
			out = append(out, v)
		}
	}
	return out
}
