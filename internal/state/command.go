// Package state holds the room transition logic: a pure function from
// (current room, command) to the next room or a rejection. It performs no
// I/O; the caller supplies the timestamp.
package state

import "github.com/croneya/pokersync/internal/domain"

// Command is one requested room transition.
type Command interface {
	isCommand()
}

// Create starts a new room with the creator as its only participant.
type Create struct {
	RoomID   string
	RoomName string
	Creator  domain.Participant
}

// Join adds a participant. Joining with an id that is already present
// replaces the existing participant in place (reconnect).
type Join struct {
	User domain.Participant
}

// Leave removes a participant and their vote. Removing the last participant
// deletes the room.
type Leave struct {
	UserID string
}

// CastVote records or replaces a participant's estimate. A nil value is a
// pass.
type CastVote struct {
	UserID string
	Value  *float64
}

// Reveal exposes the submitted votes.
type Reveal struct{}

// Reset clears all votes and the reveal flag.
type Reset struct{}

// SetStory replaces the current story text.
type SetStory struct {
	Text string
}

// ToggleSpectator flips a participant's spectator flag, discarding their
// vote when they become a spectator.
type ToggleSpectator struct {
	UserID string
}

func (Create) isCommand()          {}
func (Join) isCommand()            {}
func (Leave) isCommand()           {}
func (CastVote) isCommand()        {}
func (Reveal) isCommand()          {}
func (Reset) isCommand()           {}
func (SetStory) isCommand()        {}
func (ToggleSpectator) isCommand() {}
