package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "rooms.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteColdStart(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	sums, err := s.ListSummaries(ctx)
	if err != nil {
		t.Fatalf("cold start must not fail: %v", err)
	}
	if len(sums) != 0 {
		t.Errorf("cold start summaries = %+v", sums)
	}

	room, err := s.Get(ctx, "nope")
	if err != nil || room != nil {
		t.Errorf("absent room: got %v, %v", room, err)
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	want := sampleRoom("r1")
	if err := s.Put(ctx, want); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.Get(ctx, "r1")
	if err != nil || got == nil {
		t.Fatalf("get: %v %v", got, err)
	}
	if got.Name != want.Name || got.CurrentStory != want.CurrentStory {
		t.Errorf("round trip mangled room: %+v", got)
	}
	if len(got.Users) != 2 || !got.Users[1].IsSpectator {
		t.Errorf("participants mangled: %+v", got.Users)
	}
	if len(got.Votes) != 1 || got.Votes[0].Value == nil || *got.Votes[0].Value != 5 {
		t.Errorf("votes mangled: %+v", got.Votes)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Errorf("timestamps mangled: %v %v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestSQLitePutIsUpsert(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	room := sampleRoom("r1")
	if err := s.Put(ctx, room); err != nil {
		t.Fatalf("put: %v", err)
	}
	room.CurrentStory = "PROJ-2"
	room.Users = room.Users[:1]
	if err := s.Put(ctx, room); err != nil {
		t.Fatalf("second put: %v", err)
	}

	got, err := s.Get(ctx, "r1")
	if err != nil || got == nil {
		t.Fatalf("get: %v %v", got, err)
	}
	if got.CurrentStory != "PROJ-2" || len(got.Users) != 1 {
		t.Errorf("upsert did not replace document: %+v", got)
	}

	sums, err := s.ListSummaries(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sums) != 1 || sums[0].UserCount != 1 {
		t.Errorf("summary not updated with document: %+v", sums)
	}
}

func TestSQLiteDelete(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	if err := s.Put(ctx, sampleRoom("r1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Delete(ctx, "r1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if room, _ := s.Get(ctx, "r1"); room != nil {
		t.Errorf("deleted room still present: %+v", room)
	}
	if err := s.Delete(ctx, "r1"); err != nil {
		t.Errorf("double delete: %v", err)
	}
}
