// ABOUTME: Tests for the history store and recorder
// ABOUTME: Runs against temporary SQLite databases

package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"retro-radio/station"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "data", DefaultFileName))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()

	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	titles := []string{"First", "Second", "Third"}
	for i, title := range titles {
		e, err := s.Record(ctx, Entry{
			Session:        "session",
			StationName:    "Radio",
			StationAddress: "http://radio.example/stream",
			Title:          title,
			PlayedAt:       base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Record(%q) error = %v", title, err)
		}

		if e.ID == 0 {
			t.Errorf("Record(%q) returned no id", title)
		}
	}

	entries, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	if entries[0].Title != "Third" || entries[1].Title != "Second" {
		t.Errorf("order = %q, %q; want Third, Second", entries[0].Title, entries[1].Title)
	}

	if !entries[0].PlayedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("PlayedAt = %v", entries[0].PlayedAt)
	}

	if entries[0].StationName != "Radio" || entries[0].Session != "session" {
		t.Errorf("entry = %+v", entries[0])
	}
}

func TestRecordRejectsEmptyTitle(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()

	if _, err := s.Record(context.Background(), Entry{Title: "   "}); err == nil {
		t.Error("expected error for empty title")
	}
}

func TestRecentNonPositiveLimit(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()

	entries, err := s.Recent(context.Background(), 0)
	if err != nil || entries != nil {
		t.Errorf("Recent(0) = %v, %v; want nil, nil", entries, err)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if _, err := s.Record(context.Background(), Entry{Title: "Kept", PlayedAt: time.Now()}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	entries, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}

	if len(entries) != 1 || entries[0].Title != "Kept" {
		t.Errorf("entries after reopen = %+v", entries)
	}
}

func TestRecorder(t *testing.T) {
	r := NewRecorder(openTestStore(t))

	st := station.Station{Name: "Radio", Address: "http://radio.example/stream"}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	r.Record(st, "Song A", at)
	r.Record(st, "Song B", at.Add(time.Minute))

	entries, err := r.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	if entries[0].Title != "Song B" || entries[0].Session != r.Session() {
		t.Errorf("newest entry = %+v", entries[0])
	}

	if r.Session() == "" {
		t.Error("expected a session id")
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := r.Recent(context.Background(), 10); !errors.Is(err, ErrClosed) {
		t.Errorf("Recent after Close = %v, want ErrClosed", err)
	}

	// Must not panic
	r.Record(st, "Late", at)
}
