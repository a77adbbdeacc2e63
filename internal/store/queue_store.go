// Package store holds the SQLite-backed persistence for the queue/song,
// schedule, playback-state and chat collaborators named in spec.md's
// external interfaces section. Table layout and the `?`-placeholder idiom
// follow internal/storage/sqlite_song_repository.go.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/waveradio/core/internal/models"
)

// QueueStore is the external queue/song store collaborator: read top-voted
// unplayed song, read by id, set/restore the pre-fetch reservation, mark
// played, list recently played.
type QueueStore interface {
	TopUnplayed() (*models.QueueSong, error)
	GetByID(id string) (*models.QueueSong, error)
	Reserve(id string) error
	RestoreReservation(id string) error
	MarkPlayed(id string, playedAt time.Time) error
	RecentlyPlayed(limit int) ([]*models.QueueSong, error)
}

type SQLiteQueueStore struct {
	db *sql.DB
}

func NewSQLiteQueueStore(db *sql.DB) (*SQLiteQueueStore, error) {
	s := &SQLiteQueueStore{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("queue store: %w", err)
	}
	return s, nil
}

func (s *SQLiteQueueStore) createTables() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS queue_songs (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		artist TEXT,
		external_url TEXT NOT NULL,
		external_id TEXT NOT NULL,
		duration_seconds INTEGER NOT NULL,
		thumbnail_url TEXT,
		dedication TEXT,
		starred INTEGER NOT NULL DEFAULT 0,
		vote_count INTEGER NOT NULL DEFAULT 0,
		added_at DATETIME NOT NULL,
		played INTEGER NOT NULL DEFAULT 0,
		played_at DATETIME,
		reserved INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_queue_songs_selection ON queue_songs(played, reserved, starred, vote_count, added_at);
	`)
	return err
}

// TopUnplayed selects the top-voted unplayed, unreserved song ordered per
// spec.md §4.3: starred DESC, vote-count DESC, added-at ASC.
func (s *SQLiteQueueStore) TopUnplayed() (*models.QueueSong, error) {
	row := s.db.QueryRow(`
		SELECT id, title, artist, external_url, external_id, duration_seconds,
			thumbnail_url, dedication, starred, vote_count, added_at, played, played_at, reserved
		FROM queue_songs
		WHERE played = 0 AND reserved = 0
		ORDER BY starred DESC, vote_count DESC, added_at ASC
		LIMIT 1
	`)
	song, err := scanQueueSong(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return song, err
}

func (s *SQLiteQueueStore) GetByID(id string) (*models.QueueSong, error) {
	row := s.db.QueryRow(`
		SELECT id, title, artist, external_url, external_id, duration_seconds,
			thumbnail_url, dedication, starred, vote_count, added_at, played, played_at, reserved
		FROM queue_songs WHERE id = ?
	`, id)
	song, err := scanQueueSong(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return song, err
}

// Reserve sets reserved=true, removing the song from TopUnplayed's
// visibility without marking it played. This is the distinct-field
// resolution of the Played/Reserved Open Question (SPEC_FULL.md §9).
func (s *SQLiteQueueStore) Reserve(id string) error {
	_, err := s.db.Exec(`UPDATE queue_songs SET reserved = 1 WHERE id = ?`, id)
	return err
}

func (s *SQLiteQueueStore) RestoreReservation(id string) error {
	_, err := s.db.Exec(`UPDATE queue_songs SET reserved = 0 WHERE id = ?`, id)
	return err
}

func (s *SQLiteQueueStore) MarkPlayed(id string, playedAt time.Time) error {
	_, err := s.db.Exec(`UPDATE queue_songs SET played = 1, played_at = ?, reserved = 0 WHERE id = ?`, playedAt, id)
	return err
}

func (s *SQLiteQueueStore) RecentlyPlayed(limit int) ([]*models.QueueSong, error) {
	rows, err := s.db.Query(`
		SELECT id, title, artist, external_url, external_id, duration_seconds,
			thumbnail_url, dedication, starred, vote_count, added_at, played, played_at, reserved
		FROM queue_songs
		WHERE played = 1
		ORDER BY played_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.QueueSong
	for rows.Next() {
		song, err := scanQueueSongRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, song)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQueueSong(row rowScanner) (*models.QueueSong, error) {
	return scanQueueSongRows(row)
}

func scanQueueSongRows(row rowScanner) (*models.QueueSong, error) {
	var song models.QueueSong
	var durationSecs int64
	var playedAt sql.NullTime
	var starred, played, reserved int
	err := row.Scan(
		&song.ID, &song.Title, &song.Artist, &song.ExternalURL, &song.ExternalID,
		&durationSecs, &song.ThumbnailURL, &song.Dedication, &starred, &song.VoteCount,
		&song.AddedAt, &played, &playedAt, &reserved,
	)
	if err != nil {
		return nil, err
	}
	song.Duration = time.Duration(durationSecs) * time.Second
	song.Starred = starred != 0
	song.Played = played != 0
	song.Reserved = reserved != 0
	if playedAt.Valid {
		song.PlayedAt = playedAt.Time
	}
	return &song, nil
}
