package store

import (
	"database/sql"
	"fmt"

	"github.com/waveradio/core/internal/models"
)

// PlaybackStateStore persists the PlaybackState singleton. GetCurrent is a
// find-or-create.
type PlaybackStateStore interface {
	GetCurrent() (*models.PlaybackState, error)
	Save(s *models.PlaybackState) error
}

type SQLitePlaybackStateStore struct {
	db *sql.DB
}

func NewSQLitePlaybackStateStore(db *sql.DB) (*SQLitePlaybackStateStore, error) {
	s := &SQLitePlaybackStateStore{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("playback state store: %w", err)
	}
	return s, nil
}

func (s *SQLitePlaybackStateStore) createTables() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS playback_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		current_song_id TEXT NOT NULL DEFAULT '',
		playing INTEGER NOT NULL DEFAULT 0,
		volume INTEGER NOT NULL DEFAULT 70,
		position_seconds REAL NOT NULL DEFAULT 0
	);
	`)
	return err
}

func (s *SQLitePlaybackStateStore) GetCurrent() (*models.PlaybackState, error) {
	row := s.db.QueryRow(`SELECT current_song_id, playing, volume, position_seconds FROM playback_state WHERE id = 1`)

	var ps models.PlaybackState
	var playing int
	err := row.Scan(&ps.CurrentSongID, &playing, &ps.Volume, &ps.PositionSecs)
	if err == sql.ErrNoRows {
		ps = models.PlaybackState{Volume: 70}
		if err := s.Save(&ps); err != nil {
			return nil, err
		}
		return &ps, nil
	}
	if err != nil {
		return nil, err
	}
	ps.Playing = playing != 0
	return &ps, nil
}

func (s *SQLitePlaybackStateStore) Save(ps *models.PlaybackState) error {
	_, err := s.db.Exec(`
		INSERT INTO playback_state (id, current_song_id, playing, volume, position_seconds)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			current_song_id=excluded.current_song_id,
			playing=excluded.playing,
			volume=excluded.volume,
			position_seconds=excluded.position_seconds
	`, ps.CurrentSongID, ps.Playing, ps.Volume, ps.PositionSecs)
	return err
}
