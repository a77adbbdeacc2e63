// Package playback implements the playback controller (C): the
// authoritative source of "what to play next" decisions, owner of
// PlaybackState, ScheduleRunState, and CurrentlyPlaying. Adapted from
// internal/services/radio_service.go's state-holder shape and event
// publishing calls; its ticker-driven autoplay loop is replaced by the
// listener-driven onSongEnded trigger spec.md §4.3 requires.
package playback

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/waveradio/core/internal/cache"
	"github.com/waveradio/core/internal/clock"
	"github.com/waveradio/core/internal/events"
	"github.com/waveradio/core/internal/extractor"
	"github.com/waveradio/core/internal/library"
	"github.com/waveradio/core/internal/models"
	"github.com/waveradio/core/internal/store"
	"github.com/waveradio/core/internal/tts"
)

// ReentrancyWindow is the guard executeSchedule applies against a manual
// "Next" that already consumed this firing's locked slot.
const ReentrancyWindow = 10 * time.Minute

// PrefetchBudget bounds how long an inline (non-scheduled) stream
// resolution may take before falling back to the local library.
const PrefetchBudget = 90 * time.Second

// SlotProvider is the subset of the pre-fetch pipeline (P) the controller
// consumes PreparedSlots from and triggers burst-continuation pre-fetches
// through.
type SlotProvider interface {
	ConsumeAny() (scheduleID string, slot *models.PreparedSlot, ok bool)
	Consume(scheduleID string) (*models.PreparedSlot, bool)
	TriggerPrefetch(scheduleID string, volume int)
	DiscardSlot(scheduleID string)
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

type Controller struct {
	queue       store.QueueStore
	schedules   store.ScheduleStore
	state       store.PlaybackStateStore
	tracks      library.TrackStore
	bus         *events.EventBus
	clk         clock.Clock
	extractor   extractor.StreamExtractor
	streamCache *cache.StreamURLCache
	tts         tts.Service
	slots       SlotProvider
	logger      *log.Logger

	cmdMu sync.Mutex // serializes admin-intent operations, per spec.md §5

	mu               sync.Mutex // protects the fields below, read by accessors
	runState         models.ScheduleRunState
	currentlyPlaying *models.CurrentlyPlaying
	playbackCache    *models.PlaybackCache
}

func New(
	queue store.QueueStore,
	schedules store.ScheduleStore,
	state store.PlaybackStateStore,
	tracks library.TrackStore,
	bus *events.EventBus,
	clk clock.Clock,
	ext extractor.StreamExtractor,
	streamCache *cache.StreamURLCache,
	ttsSvc tts.Service,
	slots SlotProvider,
	logger *log.Logger,
) *Controller {
	return &Controller{
		queue:       queue,
		schedules:   schedules,
		state:       state,
		tracks:      tracks,
		bus:         bus,
		clk:         clk,
		extractor:   ext,
		streamCache: streamCache,
		tts:         ttsSvc,
		slots:       slots,
		logger:      logger,
	}
}

// CurrentlyPlaying returns the song metadata most recently announced as
// playing, or nil.
func (c *Controller) CurrentlyPlaying() *models.CurrentlyPlaying {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentlyPlaying
}

// PlaybackCacheForReplay returns the cached play-song payload usable to replay state
// to a reconnecting admin, and whether it is eligible (≤10 minutes old and
// PlaybackState says playing).
func (c *Controller) PlaybackCacheForReplay() (*models.PlaybackCache, bool) {
	c.mu.Lock()
	cached := c.playbackCache
	c.mu.Unlock()
	if cached == nil {
		return nil, false
	}
	if c.clk.Now().Sub(cached.CachedAt) > 10*time.Minute {
		return nil, false
	}
	current, err := c.state.GetCurrent()
	if err != nil || current == nil || !current.Playing {
		return nil, false
	}
	return cached, true
}

// ReportSongStarted handles the admin's "song-started" message: it updates
// CurrentlyPlaying and caches the play-event, then publishes
// song-playing-update (spec.md §4.4 — play-song itself must not be
// re-broadcast here).
func (c *Controller) ReportSongStarted(song *models.QueueSong, streamURL string, announcement *models.Announcement, volume int, autoNext bool) {
	now := c.clk.Now()
	c.mu.Lock()
	c.currentlyPlaying = &models.CurrentlyPlaying{Song: song, StartedAt: now}
	c.playbackCache = &models.PlaybackCache{
		Song:         song,
		StreamURL:    streamURL,
		Announcement: announcement,
		Volume:       volume,
		AutoNext:     autoNext,
		CachedAt:     now,
	}
	c.mu.Unlock()

	if err := c.state.Save(&models.PlaybackState{CurrentSongID: song.ID, Playing: true, Volume: volume}); err != nil {
		c.logger.Printf("[ERROR] playback: persist state on song-started: %v", err)
	}
	c.bus.PublishSongPlayingUpdate(song, now)
}

// ExecuteSchedule is S's main-job callback entry point.
func (c *Controller) ExecuteSchedule(scheduleID string, volume, songCount int) {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	sched, err := c.schedules.GetByID(scheduleID)
	if err != nil || sched == nil {
		c.logger.Printf("[ERROR] playback: executeSchedule(%s): load schedule: %v", scheduleID, err)
		return
	}

	now := c.clk.Now()
	if !sched.LastRun.IsZero() && now.Sub(sched.LastRun) < ReentrancyWindow {
		c.logger.Printf("[INFO] playback: executeSchedule(%s) skipped, last run %s ago", scheduleID, now.Sub(sched.LastRun))
		return
	}

	sched.LastRun = now
	c.mu.Lock()
	c.runState = models.ScheduleRunState{ScheduleID: scheduleID, RemainingInBurst: maxInt(0, songCount-1)}
	remaining := c.runState.RemainingInBurst
	c.mu.Unlock()

	if slot, ok := c.slots.Consume(scheduleID); ok {
		c.playSlot(slot, remaining > 0)
	} else {
		c.logger.Printf("[WARN] playback: executeSchedule(%s): no prepared slot, falling back to live selection", scheduleID)
		c.playLiveTop(volume, remaining > 0)
	}

	if remaining > 0 {
		go c.slots.TriggerPrefetch(scheduleID, volume)
	}

	nextRun, err := nextCronFiring(sched.CronExpr, now)
	if err != nil {
		c.logger.Printf("[ERROR] playback: executeSchedule(%s): compute next-run: %v", scheduleID, err)
		return
	}
	if err := c.schedules.SetRunTimes(scheduleID, now, nextRun); err != nil {
		c.logger.Printf("[ERROR] playback: executeSchedule(%s): persist next-run: %v", scheduleID, err)
	}
}

// PlayTopNow implements admin "Next": the locked slot always wins over a
// freshly computed top.
func (c *Controller) PlayTopNow() {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	c.mu.Lock()
	c.runState = models.ScheduleRunState{}
	c.mu.Unlock()

	if scheduleID, slot, ok := c.slots.ConsumeAny(); ok {
		now := c.clk.Now()
		if sched, err := c.schedules.GetByID(scheduleID); err == nil && sched != nil {
			if err := c.schedules.SetRunTimes(scheduleID, now, sched.NextRun); err != nil {
				c.logger.Printf("[ERROR] playback: playTopNow: persist last-run for %s: %v", scheduleID, err)
			}
		}
		c.playSlot(slot, false)
		return
	}

	song, err := c.queue.TopUnplayed()
	if err != nil {
		c.logger.Printf("[ERROR] playback: playTopNow: query top unplayed: %v", err)
		return
	}
	if song == nil {
		c.logger.Printf("[INFO] playback: playTopNow: queue empty, nothing to play")
		return
	}
	c.playLiveSong(song, defaultVolume(c), false)
}

// PlaySpecific implements admin "play this exact song".
func (c *Controller) PlaySpecific(songID string) {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	c.mu.Lock()
	c.runState = models.ScheduleRunState{}
	c.mu.Unlock()

	song, err := c.queue.GetByID(songID)
	if err != nil || song == nil {
		c.logger.Printf("[ERROR] playback: playSpecific(%s): %v", songID, err)
		return
	}
	c.playLiveSong(song, defaultVolume(c), false)
}

func defaultVolume(c *Controller) int {
	st, err := c.state.GetCurrent()
	if err != nil || st == nil {
		return 70
	}
	return st.Volume
}

// Pause, Resume, SetVolume, Stop update the PlaybackState singleton and
// broadcast the paired event.
func (c *Controller) Pause() {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	st, err := c.state.GetCurrent()
	if err != nil {
		c.logger.Printf("[ERROR] playback: pause: %v", err)
		return
	}
	st.Playing = false
	if err := c.state.Save(st); err != nil {
		c.logger.Printf("[ERROR] playback: pause: save state: %v", err)
	}
	c.bus.PublishPlaybackPaused(st.PositionSecs)
}

func (c *Controller) Resume() {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	st, err := c.state.GetCurrent()
	if err != nil {
		c.logger.Printf("[ERROR] playback: resume: %v", err)
		return
	}
	st.Playing = true
	if err := c.state.Save(st); err != nil {
		c.logger.Printf("[ERROR] playback: resume: save state: %v", err)
	}
	c.bus.PublishPlaybackResumed(st.PositionSecs)
}

func (c *Controller) SetVolume(v int) {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	st, err := c.state.GetCurrent()
	if err != nil {
		c.logger.Printf("[ERROR] playback: setVolume: %v", err)
		return
	}
	st.Volume = v
	if err := c.state.Save(st); err != nil {
		c.logger.Printf("[ERROR] playback: setVolume: save state: %v", err)
	}
	c.bus.PublishVolumeChanged(v)
}

func (c *Controller) Stop() {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	if err := c.state.Save(&models.PlaybackState{CurrentSongID: "", Playing: false, PositionSecs: 0}); err != nil {
		c.logger.Printf("[ERROR] playback: stop: save state: %v", err)
	}
	c.mu.Lock()
	c.currentlyPlaying = nil
	c.playbackCache = nil
	c.runState = models.ScheduleRunState{}
	c.mu.Unlock()
	c.bus.PublishPlaybackStopped()
}

// OnSongEnded is the listener-report-relayed trigger for burst chaining.
func (c *Controller) OnSongEnded() {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	c.mu.Lock()
	remaining := c.runState.RemainingInBurst
	scheduleID := c.runState.ScheduleID
	c.mu.Unlock()

	if remaining <= 0 {
		c.mu.Lock()
		c.runState = models.ScheduleRunState{}
		c.mu.Unlock()
		if ended := c.CurrentlyPlaying(); ended != nil {
			c.bus.PublishSongEnded(ended.Song)
		}
		return
	}

	c.mu.Lock()
	c.runState.RemainingInBurst = remaining - 1
	c.mu.Unlock()

	if slot, ok := c.slots.Consume(scheduleID); ok {
		c.playSlot(slot, remaining-1 > 0)
	} else {
		c.logger.Printf("[WARN] playback: onSongEnded(%s): pre-fetch not ready, falling back to live selection", scheduleID)
		c.playLiveTop(defaultVolume(c), remaining-1 > 0)
	}

	if remaining-1 > 0 {
		go c.slots.TriggerPrefetch(scheduleID, defaultVolume(c))
	}
}

// playSlot consumes a PreparedSlot (from P or from a self-contained
// offline-fallback slot) and emits the appropriate play event.
func (c *Controller) playSlot(slot *models.PreparedSlot, autoNext bool) {
	if slot.IsOfflineFallback || slot.Song == nil {
		c.playOfflineFallback(autoNext)
		return
	}
	if err := c.queue.MarkPlayed(slot.Song.ID, c.clk.Now()); err != nil {
		c.logger.Printf("[ERROR] playback: mark played %s: %v", slot.Song.ID, err)
	}
	c.emitPlay(slot.Song, slot.StreamURL, slot.Announcement, autoNext)
}

func (c *Controller) playLiveTop(volume int, autoNext bool) {
	song, err := c.queue.TopUnplayed()
	if err != nil {
		c.logger.Printf("[ERROR] playback: playLiveTop: query top unplayed: %v", err)
		c.playOfflineFallback(autoNext)
		return
	}
	if song == nil {
		c.playOfflineFallback(autoNext)
		return
	}
	c.playLiveSong(song, volume, autoNext)
}

// playLiveSong resolves a stream URL inline (bounded by PrefetchBudget) and
// emits play-song/play-announcement, falling back to local library audio on
// any resolution failure (spec.md §5 streaming-endpoint fallback policy).
func (c *Controller) playLiveSong(song *models.QueueSong, volume int, autoNext bool) {
	if err := c.queue.Reserve(song.ID); err != nil {
		c.logger.Printf("[ERROR] playback: reserve %s: %v", song.ID, err)
	}

	streamURL, ok := c.streamCache.Get(song.ExternalURL)
	if !ok {
		ctx, cancel := context.WithTimeout(context.Background(), PrefetchBudget)
		resolved, err := c.extractor.ResolveStreamURL(ctx, song.ExternalID)
		cancel()
		if err != nil {
			c.logger.Printf("[WARN] playback: resolve stream for %s failed: %v", song.ID, err)
			if err := c.queue.RestoreReservation(song.ID); err != nil {
				c.logger.Printf("[ERROR] playback: restore reservation for %s: %v", song.ID, err)
			}
			c.playOfflineFallback(autoNext)
			return
		}
		streamURL = resolved
		c.streamCache.Set(song.ExternalURL, resolved)
	}

	now := c.clk.Now()
	if err := c.queue.MarkPlayed(song.ID, now); err != nil {
		c.logger.Printf("[ERROR] playback: mark played %s: %v", song.ID, err)
	}

	var announcement *models.Announcement
	if song.Dedication != "" {
		announcement = c.synthesizeAnnouncement(song)
	}

	c.emitPlay(song, streamURL, announcement, autoNext)
}

func (c *Controller) synthesizeAnnouncement(song *models.QueueSong) *models.Announcement {
	text := fmt.Sprintf("Up next, %s by %s, dedicated: %s", song.Title, song.Artist, song.Dedication)
	ann := &models.Announcement{Text: text}
	ctx, cancel := context.WithTimeout(context.Background(), extractor.MetadataTimeout)
	defer cancel()
	audioPath, err := c.tts.Synthesize(ctx, song.ID, text)
	if err != nil {
		c.logger.Printf("[WARN] playback: tts synthesis failed for %s, falling back to text-only: %v", song.ID, err)
		return ann
	}
	ann.AudioURL = audioPath
	return ann
}

func (c *Controller) emitPlay(song *models.QueueSong, streamURL string, announcement *models.Announcement, autoNext bool) {
	now := c.clk.Now()
	volume := defaultVolume(c)

	c.mu.Lock()
	c.currentlyPlaying = &models.CurrentlyPlaying{Song: song, StartedAt: now}
	c.playbackCache = &models.PlaybackCache{Song: song, StreamURL: streamURL, Announcement: announcement, Volume: volume, AutoNext: autoNext, CachedAt: now}
	c.mu.Unlock()

	if err := c.state.Save(&models.PlaybackState{CurrentSongID: song.ID, Playing: true, Volume: volume}); err != nil {
		c.logger.Printf("[ERROR] playback: persist state on play: %v", err)
	}

	c.bus.PublishQueueUpdated()
	if announcement != nil {
		c.bus.PublishPlayAnnouncement(events.PlayAnnouncementEvent{
			PlaySongEvent:        events.PlaySongEvent{Song: song, StreamURL: streamURL, Volume: volume, AutoNext: autoNext},
			AnnouncementText:     announcement.Text,
			AnnouncementAudioURL: announcement.AudioURL,
		})
	} else {
		c.bus.PublishPlaySong(events.PlaySongEvent{Song: song, StreamURL: streamURL, Volume: volume, AutoNext: autoNext})
	}
	c.bus.PublishRecentlyPlayedUpdated(song)
}

// playOfflineFallback picks a random local library track to keep the
// broadcast alive when no voted song or external resolution is available.
func (c *Controller) playOfflineFallback(autoNext bool) {
	track, err := c.tracks.GetRandom()
	if err != nil || track == nil {
		c.logger.Printf("[ERROR] playback: offline fallback: no local library track available: %v", err)
		return
	}

	now := c.clk.Now()
	song := &models.QueueSong{
		ID:          "local:" + track.YouTubeID,
		Title:       track.Title,
		Artist:      track.Artist,
		ExternalURL: track.FilePath,
		ExternalID:  track.YouTubeID,
		Duration:    time.Duration(track.Duration) * time.Second,
		AddedAt:     now,
	}
	volume := defaultVolume(c)

	c.mu.Lock()
	c.currentlyPlaying = &models.CurrentlyPlaying{Song: song, StartedAt: now}
	c.playbackCache = &models.PlaybackCache{Song: song, Volume: volume, AutoNext: autoNext, CachedAt: now}
	c.mu.Unlock()

	if err := c.state.Save(&models.PlaybackState{CurrentSongID: song.ID, Playing: true, Volume: volume}); err != nil {
		c.logger.Printf("[ERROR] playback: persist state on offline fallback: %v", err)
	}
	c.bus.PublishPlaySong(events.PlaySongEvent{Song: song, StreamURL: track.FilePath, Volume: volume, AutoNext: autoNext})
}

func nextCronFiring(expr string, after time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(after), nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
