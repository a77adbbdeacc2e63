// Package events is the publish/subscribe backbone connecting the pre-fetch
// pipeline and playback controller to the broadcast hub without either side
// holding a reference to the other.
package events

import (
	"log"
	"sync"
	"time"

	"github.com/waveradio/core/internal/models"
)

// Event types, matching the listener wire protocol's server-to-client
// vocabulary plus internal-only signals (EventNextSongLocked carries both).
const (
	EventPlaySong              = "play-song"
	EventPlayAnnouncement      = "play-announcement"
	EventQueueUpdated          = "queue-updated"
	EventRecentlyPlayedUpdated = "recently-played-updated"
	EventPlaybackPaused        = "playback-paused"
	EventPlaybackResumed       = "playback-resumed"
	EventVolumeChanged         = "volume-changed"
	EventPlaybackStopped       = "playback-stopped"
	EventSongEnded             = "song-ended"
	EventNextSongLocked        = "next-song-locked"
	EventSongPlayingUpdate     = "song-playing-update"
)

// Event is a generic envelope delivered to subscribers.
type Event struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// PlaySongEvent is the payload for EventPlaySong and, embedded, for
// EventPlayAnnouncement.
type PlaySongEvent struct {
	Song        *models.QueueSong `json:"song"`
	StreamURL   string            `json:"stream_url"`
	Volume      int               `json:"volume"`
	AutoNext    bool              `json:"auto_next"`
	IsReconnect bool              `json:"is_reconnect,omitempty"`
}

// PlayAnnouncementEvent extends PlaySongEvent with the spoken introduction.
type PlayAnnouncementEvent struct {
	PlaySongEvent
	AnnouncementText     string `json:"announcement_text"`
	AnnouncementAudioURL string `json:"announcement_audio_url,omitempty"`
}

// NextSongLockedEvent announces a completed (or failed) pre-fetch.
type NextSongLockedEvent struct {
	Song           *models.QueueSong `json:"song,omitempty"`
	ScheduleNextAt string            `json:"schedule_next_at"` // local HH:MM
	HasAnnouncement bool             `json:"has_announcement"`
	IsOffline      bool              `json:"is_offline"`
	DownloadFailed bool              `json:"download_failed,omitempty"`
}

// QueueUpdatedEvent signals listeners should redraw the queue.
type QueueUpdatedEvent struct {
	Timestamp int64 `json:"timestamp"`
}

// RecentlyPlayedUpdatedEvent signals the recently-played list changed.
type RecentlyPlayedUpdatedEvent struct {
	Song *models.QueueSong `json:"song"`
}

// PlaybackPausedEvent, PlaybackResumedEvent share the same shape.
type PlaybackPausedEvent struct {
	PositionSecs float64 `json:"position_seconds"`
}

type PlaybackResumedEvent struct {
	PositionSecs float64 `json:"position_seconds"`
}

// VolumeChangedEvent reports the new global volume.
type VolumeChangedEvent struct {
	Volume int `json:"volume"`
}

// PlaybackStoppedEvent carries no payload beyond the marker itself.
type PlaybackStoppedEvent struct{}

// SongEndedEvent reports the end of a burst (no further chaining).
type SongEndedEvent struct {
	Song *models.QueueSong `json:"song"`
}

// SongPlayingUpdateEvent is what listeners receive instead of a re-broadcast
// play-song when the admin reports song-started.
type SongPlayingUpdateEvent struct {
	Song      *models.QueueSong `json:"song"`
	StartedAt int64             `json:"started_at"`
}

// EventHandler processes a published event.
type EventHandler func(event Event)

// EventBus is a simple in-process pub/sub: each handler runs in its own
// recovered goroutine so a slow or panicking subscriber never blocks or
// crashes the publisher.
type EventBus struct {
	handlers map[string][]EventHandler
	mu       sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{handlers: make(map[string][]EventHandler)}
}

func (eb *EventBus) Subscribe(eventType string, handler EventHandler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
}

func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	handlers := make([]EventHandler, len(eb.handlers[event.Type]))
	copy(handlers, eb.handlers[event.Type])
	eb.mu.RUnlock()

	for _, handler := range handlers {
		go func(h EventHandler, e Event) {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[ERROR] EventBus: handler panicked for %s: %v", e.Type, r)
				}
			}()
			h(e)
		}(handler, event)
	}
}

func (eb *EventBus) emit(eventType string, payload interface{}) {
	eb.Publish(Event{Type: eventType, Payload: payload, Timestamp: time.Now()})
}

func (eb *EventBus) PublishPlaySong(p PlaySongEvent) { eb.emit(EventPlaySong, p) }

func (eb *EventBus) PublishPlayAnnouncement(p PlayAnnouncementEvent) {
	eb.emit(EventPlayAnnouncement, p)
}

func (eb *EventBus) PublishQueueUpdated() {
	eb.emit(EventQueueUpdated, QueueUpdatedEvent{Timestamp: time.Now().UnixMilli()})
}

func (eb *EventBus) PublishRecentlyPlayedUpdated(song *models.QueueSong) {
	eb.emit(EventRecentlyPlayedUpdated, RecentlyPlayedUpdatedEvent{Song: song})
}

func (eb *EventBus) PublishPlaybackPaused(positionSecs float64) {
	eb.emit(EventPlaybackPaused, PlaybackPausedEvent{PositionSecs: positionSecs})
}

func (eb *EventBus) PublishPlaybackResumed(positionSecs float64) {
	eb.emit(EventPlaybackResumed, PlaybackResumedEvent{PositionSecs: positionSecs})
}

func (eb *EventBus) PublishVolumeChanged(volume int) {
	eb.emit(EventVolumeChanged, VolumeChangedEvent{Volume: volume})
}

func (eb *EventBus) PublishPlaybackStopped() {
	eb.emit(EventPlaybackStopped, PlaybackStoppedEvent{})
}

func (eb *EventBus) PublishSongEnded(song *models.QueueSong) {
	eb.emit(EventSongEnded, SongEndedEvent{Song: song})
}

func (eb *EventBus) PublishNextSongLocked(e NextSongLockedEvent) {
	eb.emit(EventNextSongLocked, e)
}

func (eb *EventBus) PublishSongPlayingUpdate(song *models.QueueSong, startedAt time.Time) {
	eb.emit(EventSongPlayingUpdate, SongPlayingUpdateEvent{Song: song, StartedAt: startedAt.UnixMilli()})
}
