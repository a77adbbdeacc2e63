package models

import "time"

// LibraryTrack is a locally cached audio file used as the fallback source
// when the voted queue is empty or the external extractor fails to produce
// a playable stream. It is the repurposed form of the teacher's song table.
type LibraryTrack struct {
	YouTubeID  string    `json:"youtube_id" db:"youtube_id"`
	Title      string    `json:"title" db:"title"`
	Artist     string    `json:"artist" db:"artist"`
	Album      string    `json:"album" db:"album"`
	Duration   int       `json:"duration" db:"duration"` // seconds
	FilePath   string    `json:"file_path" db:"file_path"`
	LastPlayed time.Time `json:"last_played" db:"last_played"`
	PlayCount  int       `json:"play_count" db:"play_count"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Playlist groups LibraryTracks into a named, ordered collection. The local
// fallback picks from all tracks, not from a playlist.
type Playlist struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// PlaylistSong is the many-to-many membership row between a Playlist and a
// LibraryTrack.
type PlaylistSong struct {
	PlaylistID int       `json:"playlist_id" db:"playlist_id"`
	YouTubeID  string    `json:"youtube_id" db:"youtube_id"`
	Position   int       `json:"position" db:"position"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
