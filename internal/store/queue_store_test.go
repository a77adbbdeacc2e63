package store

import (
	"database/sql"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func addSong(t *testing.T, s *SQLiteQueueStore, id string, starred bool, votes int, addedAt time.Time) {
	t.Helper()
	_, err := s.db.Exec(`
		INSERT INTO queue_songs (id, title, artist, external_url, external_id, duration_seconds,
			thumbnail_url, dedication, starred, vote_count, added_at, played, played_at, reserved)
		VALUES (?, ?, '', 'https://x', 'ext', 180, '', '', ?, ?, ?, 0, NULL, 0)
	`, id, id, boolToInt(starred), votes, addedAt)
	if err != nil {
		t.Fatalf("insert song %s: %v", id, err)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func TestTopUnplayedOrdering(t *testing.T) {
	db := newTestDB(t)
	s, err := NewSQLiteQueueStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteQueueStore: %v", err)
	}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	addSong(t, s, "low-vote", false, 1, base)
	addSong(t, s, "high-vote", false, 5, base.Add(time.Minute))
	addSong(t, s, "starred", true, 0, base.Add(2*time.Minute))

	top, err := s.TopUnplayed()
	if err != nil {
		t.Fatalf("TopUnplayed: %v", err)
	}
	if top == nil || top.ID != "starred" {
		t.Fatalf("expected starred song first, got %+v", top)
	}
}

func TestTopUnplayedSkipsReservedAndPlayed(t *testing.T) {
	db := newTestDB(t)
	s, err := NewSQLiteQueueStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteQueueStore: %v", err)
	}
	base := time.Now()
	addSong(t, s, "reserved", false, 10, base)
	if err := s.Reserve("reserved"); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	addSong(t, s, "available", false, 1, base.Add(time.Minute))
	addSong(t, s, "played", false, 20, base.Add(2*time.Minute))
	if err := s.MarkPlayed("played", base); err != nil {
		t.Fatalf("MarkPlayed: %v", err)
	}

	top, err := s.TopUnplayed()
	if err != nil {
		t.Fatalf("TopUnplayed: %v", err)
	}
	if top == nil || top.ID != "available" {
		t.Fatalf("expected 'available', got %+v", top)
	}
}

func TestReserveThenRestoreReappears(t *testing.T) {
	db := newTestDB(t)
	s, err := NewSQLiteQueueStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteQueueStore: %v", err)
	}
	addSong(t, s, "song-a", false, 1, time.Now())
	if err := s.Reserve("song-a"); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if top, _ := s.TopUnplayed(); top != nil {
		t.Fatalf("expected no top-unplayed while reserved, got %+v", top)
	}
	if err := s.RestoreReservation("song-a"); err != nil {
		t.Fatalf("RestoreReservation: %v", err)
	}
	top, err := s.TopUnplayed()
	if err != nil {
		t.Fatalf("TopUnplayed: %v", err)
	}
	if top == nil || top.ID != "song-a" {
		t.Fatalf("expected song-a to reappear, got %+v", top)
	}
}

func TestMarkPlayedClearsReservationAndAppearsInRecentlyPlayed(t *testing.T) {
	db := newTestDB(t)
	s, err := NewSQLiteQueueStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteQueueStore: %v", err)
	}
	addSong(t, s, "song-b", false, 1, time.Now())
	if err := s.Reserve("song-b"); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	playedAt := time.Now()
	if err := s.MarkPlayed("song-b", playedAt); err != nil {
		t.Fatalf("MarkPlayed: %v", err)
	}

	got, err := s.GetByID("song-b")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.Played || got.Reserved {
		t.Fatalf("expected played=true reserved=false, got %+v", got)
	}

	recent, err := s.RecentlyPlayed(10)
	if err != nil {
		t.Fatalf("RecentlyPlayed: %v", err)
	}
	if len(recent) != 1 || recent[0].ID != "song-b" {
		t.Fatalf("expected song-b in recently played, got %+v", recent)
	}
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	db := newTestDB(t)
	s, err := NewSQLiteQueueStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteQueueStore: %v", err)
	}
	got, err := s.GetByID("missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}
