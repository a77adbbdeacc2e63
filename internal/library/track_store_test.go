package library

import (
	"database/sql"
	"testing"

	"github.com/waveradio/core/internal/models"
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

func newTestTrackStore(t *testing.T) *SQLiteTrackStore {
	t.Helper()
	s, err := NewSQLiteTrackStore(newTestDB(t))
	if err != nil {
		t.Fatalf("NewSQLiteTrackStore: %v", err)
	}
	return s
}

func TestTrackCreateAndGetByYouTubeID(t *testing.T) {
	s := newTestTrackStore(t)
	track := &models.LibraryTrack{YouTubeID: "yt-1", Title: "Song", Artist: "Artist", Duration: 210, FilePath: "/data/audio/yt-1.mp3"}
	if err := s.Create(track); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.GetByYouTubeID("yt-1")
	if err != nil {
		t.Fatalf("GetByYouTubeID: %v", err)
	}
	if got == nil || got.Title != "Song" || got.PlayCount != 0 {
		t.Fatalf("unexpected track: %+v", got)
	}
}

func TestTrackGetByYouTubeIDMissing(t *testing.T) {
	s := newTestTrackStore(t)
	got, err := s.GetByYouTubeID("nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestTrackUpdatePlayStatsIncrementsCount(t *testing.T) {
	s := newTestTrackStore(t)
	track := &models.LibraryTrack{YouTubeID: "yt-2", Title: "Song", FilePath: "/x.mp3"}
	if err := s.Create(track); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.UpdatePlayStats("yt-2"); err != nil {
		t.Fatalf("UpdatePlayStats: %v", err)
	}
	if err := s.UpdatePlayStats("yt-2"); err != nil {
		t.Fatalf("UpdatePlayStats: %v", err)
	}

	got, err := s.GetByYouTubeID("yt-2")
	if err != nil {
		t.Fatalf("GetByYouTubeID: %v", err)
	}
	if got.PlayCount != 2 {
		t.Fatalf("expected play_count=2, got %d", got.PlayCount)
	}
	if got.LastPlayed.IsZero() {
		t.Fatal("expected last_played to be set")
	}
}

func TestTrackGetLeastPlayedPrefersLowestCount(t *testing.T) {
	s := newTestTrackStore(t)
	for _, id := range []string{"a", "b", "c"} {
		if err := s.Create(&models.LibraryTrack{YouTubeID: id, Title: id, FilePath: "/" + id}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if err := s.UpdatePlayStats("a"); err != nil {
		t.Fatalf("UpdatePlayStats: %v", err)
	}
	if err := s.UpdatePlayStats("a"); err != nil {
		t.Fatalf("UpdatePlayStats: %v", err)
	}
	if err := s.UpdatePlayStats("b"); err != nil {
		t.Fatalf("UpdatePlayStats: %v", err)
	}

	least, err := s.GetLeastPlayed()
	if err != nil {
		t.Fatalf("GetLeastPlayed: %v", err)
	}
	if least.YouTubeID != "c" {
		t.Fatalf("expected 'c' (0 plays), got %+v", least)
	}
}

func TestTrackGetAllOrderedByTitle(t *testing.T) {
	s := newTestTrackStore(t)
	if err := s.Create(&models.LibraryTrack{YouTubeID: "z", Title: "Zebra", FilePath: "/z"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create(&models.LibraryTrack{YouTubeID: "a", Title: "Aardvark", FilePath: "/a"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	all, err := s.GetAll()
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != 2 || all[0].Title != "Aardvark" {
		t.Fatalf("expected alphabetical order, got %+v", all)
	}
}

func TestTrackDelete(t *testing.T) {
	s := newTestTrackStore(t)
	if err := s.Create(&models.LibraryTrack{YouTubeID: "del", Title: "Gone", FilePath: "/d"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Delete("del"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err := s.GetByYouTubeID("del")
	if err != nil {
		t.Fatalf("GetByYouTubeID: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil after delete, got %+v", got)
	}
}
