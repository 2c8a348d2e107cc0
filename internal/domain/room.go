// Package domain contains the entities shared by every layer: rooms,
// participants and votes. No transport or storage logic here.
package domain

import "time"

const (
	MaxRoomNameLen = 64
	MaxUserNameLen = 36
	MaxStoryLen    = 500
)

// Participant is one user's membership in a room. The ID is a stable
// per-client identity that survives transport reconnects.
type Participant struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsSpectator bool   `json:"isSpectator"`
}

// Vote holds one participant's estimate for the current story.
// A nil Value is an explicit pass.
type Vote struct {
	UserID string   `json:"userId"`
	Value  *float64 `json:"value"`
}

// Room is the canonical state of one voting session. It is persisted as a
// whole document; partial writes are never performed.
type Room struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Users        []Participant `json:"users"`
	Votes        []Vote        `json:"votes"`
	IsRevealed   bool          `json:"isRevealed"`
	CurrentStory string        `json:"currentStory"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// RoomSummary is the lobby view of a room.
type RoomSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UserCount int    `json:"userCount"`
}

// Clone returns a deep copy. Transitions operate on copies so a rejected or
// failed command never leaks partial state.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	c := *r
	c.Users = make([]Participant, len(r.Users))
	copy(c.Users, r.Users)
	c.Votes = make([]Vote, len(r.Votes))
	for i, v := range r.Votes {
		c.Votes[i] = Vote{UserID: v.UserID}
		if v.Value != nil {
			val := *v.Value
			c.Votes[i].Value = &val
		}
	}
	return &c
}

// UserIndex returns the position of the participant with the given id,
// or -1 when absent.
func (r *Room) UserIndex(id string) int {
	for i, u := range r.Users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

// VoteIndex returns the position of the vote cast by the given participant,
// or -1 when absent.
func (r *Room) VoteIndex(userID string) int {
	for i, v := range r.Votes {
		if v.UserID == userID {
			return i
		}
	}
	return -1
}

// Summary projects the room into its lobby form.
func (r *Room) Summary() RoomSummary {
	return RoomSummary{ID: r.ID, Name: r.Name, UserCount: len(r.Users)}
}

// Validate checks the internal invariants: every vote belongs to a current
// non-spectator participant. A violation means corrupted state, not bad input.
func (r *Room) Validate() error {
	for _, v := range r.Votes {
		i := r.UserIndex(v.UserID)
		if i < 0 {
			return ErrConsistency
		}
		if r.Users[i].IsSpectator {
			return ErrConsistency
		}
	}
	return nil
}
