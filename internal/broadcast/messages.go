package broadcast

import (
	"encoding/json"

	"github.com/waveradio/core/internal/models"
)

// ClientMessage is the generic envelope for client→server wire messages.
// Type selects which payload shape Payload decodes into; any type outside
// the closed set handleMessage switches on is logged and dropped (spec
// note: model the dispatch as a closed set of tagged variants, not
// stringly-typed free-form dispatch).
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ServerMessage is the generic envelope for every server→client event,
// listener broadcast or admin-only reply alike.
type ServerMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Client→server message type tags.
const (
	msgJoinAdminRoom       = "join-admin-room"
	msgSongStarted         = "song-started"
	msgSongEndedNotify     = "song-ended-notify"
	msgPlaybackStopped     = "playback-stopped"
	msgGetCurrentSong      = "get-current-song"
	msgGetPlaybackState    = "get-playback-state"
	msgPlaybackStateUpdate = "playback-state-update"
)

// Server→client reply-only event type tags (the fan-out event tags live in
// the events package and are reused verbatim as wire types).
const (
	evtCurrentSong     = "current-song"
	evtAdminActive     = "admin-active"
	evtAdminRejected   = "admin-rejected"
	evtTakeoverWarning = "takeover-warning"
	evtForceDisconnect = "force-disconnect"
)

type joinAdminRoomPayload struct {
	Token    string `json:"token"`
	Takeover bool   `json:"takeover"`
}

type songStartedPayload struct {
	Song                 *models.QueueSong `json:"song"`
	StreamURL            string            `json:"stream_url"`
	AnnouncementText     string            `json:"announcement_text,omitempty"`
	AnnouncementURL      string            `json:"announcement_url,omitempty"`
	Volume               int               `json:"volume"`
	AutoNext             bool              `json:"auto_next"`
}

type playbackStateUpdatePayload struct {
	Stage    string  `json:"stage"`
	Position float64 `json:"position"`
}

type currentSongPayload struct {
	Song      *models.QueueSong `json:"song"`
	StartedAt int64             `json:"started_at,omitempty"`
}

type adminActivePayload struct {
	SessionID string `json:"session_id"`
}

type adminRejectedPayload struct {
	SongPlaying bool              `json:"song_playing"`
	CurrentSong *models.QueueSong `json:"current_song,omitempty"`
}

type takeoverWarningPayload struct {
	CurrentSong *models.QueueSong `json:"current_song,omitempty"`
}

// replayPlaySongPayload mirrors events.PlaySongEvent with the reconnect flag
// set, used to answer get-playback-state from PlaybackCache.
type replayPlaySongPayload struct {
	Song                 *models.QueueSong `json:"song"`
	StreamURL            string            `json:"stream_url"`
	Volume               int               `json:"volume"`
	AutoNext             bool              `json:"auto_next"`
	IsReconnect          bool              `json:"is_reconnect"`
	AnnouncementText     string            `json:"announcement_text,omitempty"`
	AnnouncementAudioURL string            `json:"announcement_audio_url,omitempty"`
}
