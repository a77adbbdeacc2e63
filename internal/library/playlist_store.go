package library

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/waveradio/core/internal/models"
)

type PlaylistStore interface {
	Create(playlist *models.Playlist) error
	GetByID(id string) (*models.Playlist, error)
	GetFirst() (*models.Playlist, error)
	GetAll() ([]*models.Playlist, error)
	AddTrack(playlistID, youtubeID string, position int) error
	Tracks(playlistID string) ([]*models.LibraryTrack, error)
}

type SQLitePlaylistStore struct {
	db *sql.DB
}

func NewSQLitePlaylistStore(db *sql.DB) (*SQLitePlaylistStore, error) {
	s := &SQLitePlaylistStore{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("library playlist store: %w", err)
	}
	return s, nil
}

func (s *SQLitePlaylistStore) createTables() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS library_playlists (
		id TEXT PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		description TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS library_playlist_tracks (
		playlist_id TEXT NOT NULL,
		youtube_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (playlist_id, youtube_id),
		FOREIGN KEY (playlist_id) REFERENCES library_playlists(id) ON DELETE CASCADE,
		FOREIGN KEY (youtube_id) REFERENCES library_tracks(youtube_id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_library_playlist_tracks_position ON library_playlist_tracks(playlist_id, position);
	`)
	return err
}

func (s *SQLitePlaylistStore) Create(playlist *models.Playlist) error {
	now := time.Now()
	id := uuid.NewString()
	_, err := s.db.Exec(`INSERT INTO library_playlists (id, name, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, playlist.Name, playlist.Description, now, now)
	if err != nil {
		return err
	}
	playlist.ID = 0
	playlist.CreatedAt = now
	playlist.UpdatedAt = now
	return nil
}

func (s *SQLitePlaylistStore) GetByID(id string) (*models.Playlist, error) {
	row := s.db.QueryRow(`SELECT name, description, created_at, updated_at FROM library_playlists WHERE id = ?`, id)
	var p models.Playlist
	if err := row.Scan(&p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (s *SQLitePlaylistStore) GetFirst() (*models.Playlist, error) {
	row := s.db.QueryRow(`SELECT name, description, created_at, updated_at FROM library_playlists ORDER BY created_at ASC LIMIT 1`)
	var p models.Playlist
	if err := row.Scan(&p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (s *SQLitePlaylistStore) GetAll() ([]*models.Playlist, error) {
	rows, err := s.db.Query(`SELECT name, description, created_at, updated_at FROM library_playlists ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Playlist
	for rows.Next() {
		var p models.Playlist
		if err := rows.Scan(&p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (s *SQLitePlaylistStore) AddTrack(playlistID, youtubeID string, position int) error {
	_, err := s.db.Exec(`INSERT INTO library_playlist_tracks (playlist_id, youtube_id, position, created_at) VALUES (?, ?, ?, ?)`,
		playlistID, youtubeID, position, time.Now())
	return err
}

func (s *SQLitePlaylistStore) Tracks(playlistID string) ([]*models.LibraryTrack, error) {
	rows, err := s.db.Query(`
		SELECT t.youtube_id, t.title, t.artist, t.album, t.duration, t.file_path, t.last_played, t.play_count, t.created_at, t.updated_at
		FROM library_playlist_tracks pt
		JOIN library_tracks t ON pt.youtube_id = t.youtube_id
		WHERE pt.playlist_id = ?
		ORDER BY pt.position ASC
	`, playlistID)
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
