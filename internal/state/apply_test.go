package state

import (
	"errors"
	"testing"
	"time"

	"github.com/croneya/pokersync/internal/domain"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fv(v float64) *float64 { return &v }

func mustApply(t *testing.T, room *domain.Room, cmd Command) *domain.Room {
	t.Helper()
	next, err := Apply(room, cmd, t0)
	if err != nil {
		t.Fatalf("Apply(%T) failed: %v", cmd, err)
	}
	return next
}

func newRoom(t *testing.T) *domain.Room {
	t.Helper()
	return mustApply(t, nil, Create{
		RoomID:   "r1",
		RoomName: "Sprint 1",
		Creator:  domain.Participant{ID: "alice", Name: "Alice"},
	})
}

func TestCreateRoom(t *testing.T) {
	room := newRoom(t)
	if room.ID != "r1" || room.Name != "Sprint 1" {
		t.Errorf("unexpected identity: %q %q", room.ID, room.Name)
	}
	if len(room.Users) != 1 || room.Users[0].ID != "alice" || room.Users[0].IsSpectator {
		t.Errorf("creator not added as non-spectator: %+v", room.Users)
	}
	if len(room.Votes) != 0 || room.IsRevealed || room.CurrentStory != "" {
		t.Errorf("new room not pristine: %+v", room)
	}
}

func TestCreateRoomRejections(t *testing.T) {
	room := newRoom(t)
	tests := []struct {
		name string
		room *domain.Room
		cmd  Create
		want error
	}{
		{"already exists", room, Create{RoomID: "r1", RoomName: "X", Creator: domain.Participant{ID: "x", Name: "X"}}, domain.ErrRoomExists},
		{"empty room name", nil, Create{RoomID: "r2", Creator: domain.Participant{ID: "x", Name: "X"}}, domain.ErrNameEmpty},
		{"empty user name", nil, Create{RoomID: "r2", RoomName: "R"}, domain.ErrNameEmpty},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Apply(tc.room, tc.cmd, t0); !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestJoinAppends(t *testing.T) {
	room := newRoom(t)
	room = mustApply(t, room, Join{User: domain.Participant{ID: "bob", Name: "Bob"}})
	if len(room.Users) != 2 || room.Users[1].Name != "Bob" {
		t.Errorf("participants = %+v", room.Users)
	}
}

func TestJoinAbsentRoom(t *testing.T) {
	if _, err := Apply(nil, Join{User: domain.Participant{ID: "x", Name: "X"}}, t0); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Errorf("got %v, want ErrRoomNotFound", err)
	}
}

func TestJoinSameIdentityReplacesInPlace(t *testing.T) {
	room := newRoom(t)
	room = mustApply(t, room, Join{User: domain.Participant{ID: "bob", Name: "Bob"}})
	room = mustApply(t, room, CastVote{UserID: "bob", Value: fv(5)})

	// Reconnect under the same identity with a new name.
	room = mustApply(t, room, Join{User: domain.Participant{ID: "bob", Name: "Bobby"}})
	if len(room.Users) != 2 {
		t.Fatalf("reconnect duplicated participant: %+v", room.Users)
	}
	if room.Users[1].Name != "Bobby" {
		t.Errorf("participant not replaced: %+v", room.Users[1])
	}
	if room.VoteIndex("bob") < 0 {
		t.Errorf("non-spectator reconnect dropped the vote")
	}

	// Rejoining as spectator discards the vote.
	room = mustApply(t, room, Join{User: domain.Participant{ID: "bob", Name: "Bobby", IsSpectator: true}})
	if room.VoteIndex("bob") >= 0 {
		t.Errorf("spectator kept a vote")
	}
}

func TestLeaveRemovesParticipantAndVote(t *testing.T) {
	room := newRoom(t)
	room = mustApply(t, room, Join{User: domain.Participant{ID: "bob", Name: "Bob"}})
	room = mustApply(t, room, CastVote{UserID: "bob", Value: fv(8)})

	room = mustApply(t, room, Leave{UserID: "bob"})
	if room.UserIndex("bob") >= 0 || room.VoteIndex("bob") >= 0 {
		t.Errorf("leave left traces: %+v", room)
	}
}

func TestLeaveLastParticipantDeletesRoom(t *testing.T) {
	room := newRoom(t)
	next, err := Apply(room, Leave{UserID: "alice"}, t0)
	if err != nil {
		t.Fatalf("leave failed: %v", err)
	}
	if next != nil {
		t.Errorf("room should be deleted, got %+v", next)
	}
}

func TestLeaveUnknownParticipant(t *testing.T) {
	room := newRoom(t)
	if _, err := Apply(room, Leave{UserID: "nobody"}, t0); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("got %v, want ErrUserNotFound", err)
	}
}

func TestVoteUpsert(t *testing.T) {
	room := newRoom(t)
	room = mustApply(t, room, CastVote{UserID: "alice", Value: fv(5)})
	room = mustApply(t, room, CastVote{UserID: "alice", Value: fv(13)})
	if len(room.Votes) != 1 {
		t.Fatalf("resubmit duplicated vote: %+v", room.Votes)
	}
	if *room.Votes[0].Value != 13 {
		t.Errorf("vote not replaced: %+v", room.Votes[0])
	}
}

func TestVotePass(t *testing.T) {
	room := newRoom(t)
	room = mustApply(t, room, CastVote{UserID: "alice", Value: nil})
	if len(room.Votes) != 1 || room.Votes[0].Value != nil {
		t.Errorf("pass vote not recorded: %+v", room.Votes)
	}
}

func TestVoteRejections(t *testing.T) {
	room := newRoom(t)
	room = mustApply(t, room, Join{User: domain.Participant{ID: "sue", Name: "Sue", IsSpectator: true}})

	tests := []struct {
		name string
		cmd  CastVote
		want error
	}{
		{"spectator", CastVote{UserID: "sue", Value: fv(5)}, domain.ErrSpectatorVote},
		{"unknown participant", CastVote{UserID: "ghost", Value: fv(5)}, domain.ErrUserNotFound},
		{"off-deck value", CastVote{UserID: "alice", Value: fv(7)}, domain.ErrInvalidCard},
		{"negative value", CastVote{UserID: "alice", Value: fv(-1)}, domain.ErrInvalidCard},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Apply(room, tc.cmd, t0); !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRevealRequiresVotes(t *testing.T) {
	room := newRoom(t)
	if _, err := Apply(room, Reveal{}, t0); !errors.Is(err, domain.ErrNoVotes) {
		t.Errorf("got %v, want ErrNoVotes", err)
	}
}

func TestRevealIdempotent(t *testing.T) {
	room := newRoom(t)
	room = mustApply(t, room, CastVote{UserID: "alice", Value: fv(5)})
	room = mustApply(t, room, Reveal{})
	if !room.IsRevealed {
		t.Fatal("reveal did not set flag")
	}
	again := mustApply(t, room, Reveal{})
	if !again.IsRevealed || len(again.Votes) != 1 {
		t.Errorf("second reveal changed state: %+v", again)
	}
}

func TestResetIdempotent(t *testing.T) {
	room := newRoom(t)
	room = mustApply(t, room, CastVote{UserID: "alice", Value: fv(5)})
	room = mustApply(t, room, Reveal{})

	once := mustApply(t, room, Reset{})
	twice := mustApply(t, once, Reset{})

	for _, r := range []*domain.Room{once, twice} {
		if len(r.Votes) != 0 || r.IsRevealed {
			t.Errorf("reset incomplete: %+v", r)
		}
	}
}

func TestSetStoryDoesNotTouchVotes(t *testing.T) {
	room := newRoom(t)
	room = mustApply(t, room, CastVote{UserID: "alice", Value: fv(5)})
	room = mustApply(t, room, SetStory{Text: "PROJ-42"})
	if room.CurrentStory != "PROJ-42" {
		t.Errorf("story = %q", room.CurrentStory)
	}
	if len(room.Votes) != 1 {
		t.Errorf("transition function must not couple story changes to resets")
	}
}

func TestToggleSpectatorDiscardsVote(t *testing.T) {
	room := newRoom(t)
	room = mustApply(t, room, CastVote{UserID: "alice", Value: fv(5)})

	room = mustApply(t, room, ToggleSpectator{UserID: "alice"})
	if !room.Users[0].IsSpectator {
		t.Fatal("flag not flipped")
	}
	if len(room.Votes) != 0 {
		t.Errorf("spectator kept a vote: %+v", room.Votes)
	}

	room = mustApply(t, room, ToggleSpectator{UserID: "alice"})
	if room.Users[0].IsSpectator {
		t.Error("flag not flipped back")
	}
}

func TestApplyNeverMutatesInput(t *testing.T) {
	room := newRoom(t)
	room = mustApply(t, room, CastVote{UserID: "alice", Value: fv(5)})
	before := room.Clone()

	mustApply(t, room, Join{User: domain.Participant{ID: "bob", Name: "Bob"}})
	mustApply(t, room, CastVote{UserID: "alice", Value: fv(8)})
	mustApply(t, room, Reset{})
	mustApply(t, room, ToggleSpectator{UserID: "alice"})

	if len(room.Users) != len(before.Users) || len(room.Votes) != len(before.Votes) ||
		*room.Votes[0].Value != *before.Votes[0].Value ||
		room.Users[0].IsSpectator != before.Users[0].IsSpectator {
		t.Errorf("input mutated: %+v vs %+v", room, before)
	}
}

// The full happy path from lobby to a reset round.
func TestVotingRound(t *testing.T) {
	room := newRoom(t)
	room = mustApply(t, room, Join{User: domain.Participant{ID: "bob", Name: "Bob"}})
	if len(room.Users) != 2 {
		t.Fatalf("users = %+v", room.Users)
	}

	room = mustApply(t, room, CastVote{UserID: "alice", Value: fv(5)})
	if len(room.Votes) != 1 || *room.Votes[0].Value != 5 {
		t.Fatalf("votes = %+v", room.Votes)
	}

	room = mustApply(t, room, CastVote{UserID: "bob", Value: fv(8)})
	if len(room.Votes) != 2 || *room.Votes[1].Value != 8 {
		t.Fatalf("votes = %+v", room.Votes)
	}

	room = mustApply(t, room, Reveal{})
	if !room.IsRevealed {
		t.Fatal("not revealed")
	}

	room = mustApply(t, room, Reset{})
	if len(room.Votes) != 0 || room.IsRevealed {
		t.Fatalf("reset incomplete: %+v", room)
	}
}
