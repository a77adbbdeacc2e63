package store

import (
	"testing"

	"github.com/waveradio/core/internal/models"
)

func TestGetCurrentFindOrCreate(t *testing.T) {
	db := newTestDB(t)
	s, err := NewSQLitePlaybackStateStore(db)
	if err != nil {
		t.Fatalf("NewSQLitePlaybackStateStore: %v", err)
	}

	ps, err := s.GetCurrent()
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if ps.Volume != 70 || ps.Playing {
		t.Fatalf("expected default row with volume=70, got %+v", ps)
	}
}

func TestSaveThenGetCurrentRoundTrips(t *testing.T) {
	db := newTestDB(t)
	s, err := NewSQLitePlaybackStateStore(db)
	if err != nil {
		t.Fatalf("NewSQLitePlaybackStateStore: %v", err)
	}

	want := &models.PlaybackState{CurrentSongID: "song-1", Playing: true, Volume: 42, PositionSecs: 12.5}
	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.GetCurrent()
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if got.CurrentSongID != "song-1" || !got.Playing || got.Volume != 42 || got.PositionSecs != 12.5 {
		t.Fatalf("unexpected state: %+v", got)
	}
}

func TestSaveOverwritesExistingSingleton(t *testing.T) {
	db := newTestDB(t)
	s, err := NewSQLitePlaybackStateStore(db)
	if err != nil {
		t.Fatalf("NewSQLitePlaybackStateStore: %v", err)
	}

	if err := s.Save(&models.PlaybackState{CurrentSongID: "a", Volume: 10}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(&models.PlaybackState{CurrentSongID: "b", Volume: 90}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.GetCurrent()
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if got.CurrentSongID != "b" || got.Volume != 90 {
		t.Fatalf("expected second save to win, got %+v", got)
	}
}
