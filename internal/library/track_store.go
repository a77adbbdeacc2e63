// Package library persists the local audio fallback catalog: tracks and
// playlists seeded ahead of time so the playback controller and the stream
// endpoint have a locally playable song when the voted queue is empty or
// the external extractor fails. Adapted from
// internal/storage/sqlite_song_repository.go and sqlite_playlist_repository.go.
package library

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/waveradio/core/internal/models"
)

type TrackStore interface {
	Create(track *models.LibraryTrack) error
	GetByYouTubeID(youtubeID string) (*models.LibraryTrack, error)
	UpdatePlayStats(youtubeID string) error
	GetRandom() (*models.LibraryTrack, error)
	GetLeastPlayed() (*models.LibraryTrack, error)
	GetAll() ([]*models.LibraryTrack, error)
	Delete(youtubeID string) error
}

type SQLiteTrackStore struct {
	db *sql.DB
}

func NewSQLiteTrackStore(db *sql.DB) (*SQLiteTrackStore, error) {
	s := &SQLiteTrackStore{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("library track store: %w", err)
	}
	return s, nil
}

func (s *SQLiteTrackStore) createTables() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS library_tracks (
		youtube_id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		artist TEXT,
		album TEXT,
		duration INTEGER NOT NULL,
		file_path TEXT NOT NULL,
		last_played DATETIME,
		play_count INTEGER DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_library_tracks_play_count ON library_tracks(play_count);
	CREATE INDEX IF NOT EXISTS idx_library_tracks_last_played ON library_tracks(last_played);
	`)
	return err
}

func (s *SQLiteTrackStore) Create(track *models.LibraryTrack) error {
	now := time.Now()
	_, err := s.db.Exec(`
		INSERT INTO library_tracks (youtube_id, title, artist, album, duration, file_path, last_played, play_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, track.YouTubeID, track.Title, track.Artist, track.Album, track.Duration, track.FilePath, track.LastPlayed, track.PlayCount, now, now)
	return err
}

func (s *SQLiteTrackStore) GetByYouTubeID(youtubeID string) (*models.LibraryTrack, error) {
	row := s.db.QueryRow(`
		SELECT youtube_id, title, artist, album, duration, file_path, last_played, play_count, created_at, updated_at
		FROM library_tracks WHERE youtube_id = ?
	`, youtubeID)
	return scanTrack(row)
}

func (s *SQLiteTrackStore) UpdatePlayStats(youtubeID string) error {
	now := time.Now()
	_, err := s.db.Exec(`UPDATE library_tracks SET last_played=?, play_count=play_count+1, updated_at=? WHERE youtube_id=?`, now, now, youtubeID)
	return err
}

func (s *SQLiteTrackStore) GetRandom() (*models.LibraryTrack, error) {
	row := s.db.QueryRow(`
		SELECT youtube_id, title, artist, album, duration, file_path, last_played, play_count, created_at, updated_at
		FROM library_tracks ORDER BY RANDOM() LIMIT 1
	`)
	return scanTrack(row)
}

func (s *SQLiteTrackStore) GetLeastPlayed() (*models.LibraryTrack, error) {
	row := s.db.QueryRow(`
		SELECT youtube_id, title, artist, album, duration, file_path, last_played, play_count, created_at, updated_at
		FROM library_tracks ORDER BY play_count ASC, last_played ASC LIMIT 1
	`)
	return scanTrack(row)
}

func (s *SQLiteTrackStore) GetAll() ([]*models.LibraryTrack, error) {
	rows, err := s.db.Query(`
		SELECT youtube_id, title, artist, album, duration, file_path, last_played, play_count, created_at, updated_at
		FROM library_tracks ORDER BY title ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.LibraryTrack
	for rows.Next() {
		t, err := scanTrackRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteTrackStore) Delete(youtubeID string) error {
	_, err := s.db.Exec(`DELETE FROM library_tracks WHERE youtube_id = ?`, youtubeID)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrack(row rowScanner) (*models.LibraryTrack, error) {
	t, err := scanTrackRows(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

func scanTrackRows(row rowScanner) (*models.LibraryTrack, error) {
	var t models.LibraryTrack
	var lastPlayed sql.NullTime
	err := row.Scan(&t.YouTubeID, &t.Title, &t.Artist, &t.Album, &t.Duration, &t.FilePath,
		&lastPlayed, &t.PlayCount, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lastPlayed.Valid {
		t.LastPlayed = lastPlayed.Time
	}
	return &t, nil
}
