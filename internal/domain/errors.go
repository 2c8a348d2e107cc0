package domain

import "errors"

// Rejection kinds. Validation errors mean the command broke a room invariant
// and the state is unchanged. ErrPersistence wraps store I/O failures.
// ErrConsistency marks a broken internal invariant; it is logged and rejected,
// never applied.
var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomExists    = errors.New("room already exists")
	ErrUserNotFound  = errors.New("participant not in room")
	ErrSpectatorVote = errors.New("spectators cannot vote")
	ErrInvalidCard   = errors.New("invalid card value")
	ErrNoVotes       = errors.New("no votes to reveal")
	ErrNameEmpty     = errors.New("name empty")
	ErrNameTooLong   = errors.New("name too long")
	ErrStoryTooLong  = errors.New("story too long")
	ErrPersistence   = errors.New("persistence failure")
	ErrConsistency   = errors.New("consistency violation")
)

// IsValidation reports whether err is a command rejection rather than an
// infrastructure failure.
func IsValidation(err error) bool {
	switch {
	case errors.Is(err, ErrRoomExists),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrSpectatorVote),
		errors.Is(err, ErrInvalidCard),
		errors.Is(err, ErrNoVotes),
		errors.Is(err, ErrNameEmpty),
		errors.Is(err, ErrNameTooLong),
		errors.Is(err, ErrStoryTooLong):
		return true
	}
	return false
}

// ValidName checks display and room names against the shared length limits.
func ValidName(name string, max int) error {
	if len(name) == 0 {
		return ErrNameEmpty
	}
	if len(name) > max {
		return ErrNameTooLong
	}
	return nil
}
