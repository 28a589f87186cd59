package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"streamscout/internal/media"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	entry := media.HistoryEntry{
		Provider:    "vidsrc",
		Type:        media.TV,
		MediaID:     "1399",
		Season:      1,
		Episode:     2,
		SourceCount: 3,
		ResolvedAt:  time.UnixMilli(1_700_000_000_000),
	}

	id, err := s.Record(ctx, entry)
	if err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	if id == 0 {
		t.Error("Record() returned zero ID")
	}

	entries, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	got := entries[0]
	if got.ID != id {
		t.Errorf("ID = %d, want %d", got.ID, id)
	}
	if got.Type != media.TV || got.MediaID != "1399" {
		t.Errorf("got %v %q, want tv 1399", got.Type, got.MediaID)
	}
	if got.Season != 1 || got.Episode != 2 {
		t.Errorf("season/episode = %d/%d, want 1/2", got.Season, got.Episode)
	}
	if got.SourceCount != 3 {
		t.Errorf("SourceCount = %d, want 3", got.SourceCount)
	}
	if !got.ResolvedAt.Equal(entry.ResolvedAt) {
		t.Errorf("ResolvedAt = %v, want %v", got.ResolvedAt, entry.ResolvedAt)
	}
}

func TestRecentNewestFirstAndLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000)

	for i, id := range []string{"1", "2", "3"} {
		_, err := s.Record(ctx, media.HistoryEntry{
			Provider:   "vidsrc",
			Type:       media.Movie,
			MediaID:    id,
			ResolvedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].MediaID != "3" || entries[1].MediaID != "2" {
		t.Errorf("order = %q, %q; want 3, 2", entries[0].MediaID, entries[1].MediaID)
	}
}

func TestRecordDefaultsTime(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	before := time.Now().Add(-time.Second)
	if _, err := s.Record(ctx, media.HistoryEntry{Provider: "vidsrc", Type: media.Movie, MediaID: "1"}); err != nil {
		t.Fatal(err)
	}
	entries, _ := s.Recent(ctx, 1)
	if len(entries) != 1 || entries[0].ResolvedAt.Before(before) {
		t.Errorf("ResolvedAt not defaulted to now: %+v", entries)
	}
}

func TestRemoveAndClear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id1, _ := s.Record(ctx, media.HistoryEntry{Provider: "vidsrc", Type: media.Movie, MediaID: "1"})
	s.Record(ctx, media.HistoryEntry{Provider: "vidsrc", Type: media.Movie, MediaID: "2"})

	if err := s.Remove(ctx, id1); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	entries, _ := s.Recent(ctx, 10)
	if len(entries) != 1 || entries[0].MediaID != "2" {
		t.Fatalf("after Remove got %+v, want only id 2", entries)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	entries, _ = s.Recent(ctx, 10)
	if len(entries) != 0 {
		t.Errorf("expected empty history after Clear, got %d", len(entries))
	}
}

func TestRemoveUnknownID(t *testing.T) {
	s := openTestStore(t)
	if err := s.Remove(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove() error = %v, want ErrNotFound", err)
	}
}

func TestDSNEscapesPath(t *testing.T) {
	got := dsn("/data/a?b#c/history.db")
	want := "file:/data/a%3Fb%23c/history.db?_pragma=journal_mode(WAL)"
	if !strings.HasPrefix(got, want) {
		t.Errorf("dsn() = %q, want prefix %q", got, want)
	}
}

func TestOpenPathWithQueryCharacters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odd?dir#1", "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer s.Close()

	if _, err := s.Record(context.Background(), media.HistoryEntry{Provider: "vidsrc", Type: media.Movie, MediaID: "1"}); err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("database not created at %s: %v", path, err)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Record(ctx, media.HistoryEntry{Provider: "vidsrc", Type: media.Movie, MediaID: "550"})
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer s.Close()

	entries, _ := s.Recent(ctx, 10)
	if len(entries) != 1 || entries[0].MediaID != "550" {
		t.Errorf("after reopen got %+v", entries)
	}
}

func TestFormatForDisplay(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 30, 0, 0, time.Local)
	entries := []media.HistoryEntry{
		{Provider: "vidsrc", Type: media.Movie, MediaID: "550", SourceCount: 2, ResolvedAt: at},
		{Provider: "vidsrc", Type: media.TV, MediaID: "1399", Season: 1, Episode: 5, ResolvedAt: at, Error: "Player not found"},
	}

	items := FormatForDisplay(entries)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if !strings.Contains(items[0], "movie 550") || !strings.Contains(items[0], "sources=2") {
		t.Errorf("items[0] = %q", items[0])
	}
	if !strings.Contains(items[1], "S01E05") {
		t.Errorf("items[1] = %q, want S01E05", items[1])
	}
	if !strings.Contains(items[1], `error="Player not found"`) {
		t.Errorf("items[1] = %q, want error", items[1])
	}
	if !strings.HasPrefix(items[0], "2024-03-01 12:30") {
		t.Errorf("items[0] = %q, want timestamp prefix", items[0])
	}

	withID := FormatForDisplay([]media.HistoryEntry{{ID: 7, Provider: "vidsrc", Type: media.Movie, MediaID: "550", ResolvedAt: at}})
	if !strings.HasPrefix(withID[0], "#7 ") {
		t.Errorf("withID[0] = %q, want #7 prefix", withID[0])
	}
}
