package store

import (
	"context"
	"testing"
	"time"

	"github.com/croneya/pokersync/internal/domain"
)

func sampleRoom(id string) *domain.Room {
	five := 5.0
	return &domain.Room{
		ID:   id,
		Name: "Sprint 1",
		Users: []domain.Participant{
			{ID: "alice", Name: "Alice"},
			{ID: "sue", Name: "Sue", IsSpectator: true},
		},
		Votes:        []domain.Vote{{UserID: "alice", Value: &five}},
		CurrentStory: "PROJ-1",
		CreatedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2025, 6, 1, 12, 5, 0, 0, time.UTC),
	}
}

func TestMemoryGetAbsent(t *testing.T) {
	m := NewMemory()
	room, err := m.Get(context.Background(), "nope")
	if err != nil || room != nil {
		t.Errorf("absent room: got %v, %v", room, err)
	}
}

func TestMemoryPutGetRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Put(ctx, sampleRoom("r1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := m.Get(ctx, "r1")
	if err != nil || got == nil {
		t.Fatalf("get: %v %v", got, err)
	}
	if got.Name != "Sprint 1" || len(got.Users) != 2 || len(got.Votes) != 1 || *got.Votes[0].Value != 5 {
		t.Errorf("round trip mangled room: %+v", got)
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	orig := sampleRoom("r1")
	if err := m.Put(ctx, orig); err != nil {
		t.Fatalf("put: %v", err)
	}
	orig.Users[0].Name = "mutated after put"

	got, _ := m.Get(ctx, "r1")
	got.Users[0].Name = "mutated after get"

	again, _ := m.Get(ctx, "r1")
	if again.Users[0].Name != "Alice" {
		t.Errorf("store state aliased by callers: %q", again.Users[0].Name)
	}
}

func TestMemoryDelete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Put(ctx, sampleRoom("r1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := m.Delete(ctx, "r1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if room, _ := m.Get(ctx, "r1"); room != nil {
		t.Errorf("deleted room still present: %+v", room)
	}
	// Deleting an absent room is not an error.
	if err := m.Delete(ctx, "r1"); err != nil {
		t.Errorf("double delete: %v", err)
	}
}

func TestMemoryListSummariesColdStart(t *testing.T) {
	m := NewMemory()
	sums, err := m.ListSummaries(context.Background())
	if err != nil {
		t.Fatalf("cold start must not fail: %v", err)
	}
	if len(sums) != 0 {
		t.Errorf("cold start summaries = %+v", sums)
	}
}

func TestMemoryListSummaries(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	if err := m.Put(ctx, sampleRoom("r1")); err != nil {
		t.Fatalf("put: %v", err)
	}

	sums, err := m.ListSummaries(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sums) != 1 || sums[0].ID != "r1" || sums[0].UserCount != 2 {
		t.Errorf("summaries = %+v", sums)
	}
}
