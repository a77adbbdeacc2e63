// Package prefetch implements the pre-fetch pipeline (P): locking the next
// song several minutes ahead of its scheduled airtime, resolving its
// stream URL, optionally synthesizing a spoken announcement, and
// publishing a locked notice. The generate→hold→trigger slot lifecycle
// follows other_examples' phileasgo announcement-manager.go; the deadline
// handling around the external resolve call follows
// internal/services/ytdlp_service.go's CommandContext-with-deadline idiom.
package prefetch

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/waveradio/core/internal/cache"
	"github.com/waveradio/core/internal/clock"
	"github.com/waveradio/core/internal/events"
	"github.com/waveradio/core/internal/extractor"
	"github.com/waveradio/core/internal/models"
	"github.com/waveradio/core/internal/store"
	"github.com/waveradio/core/internal/tts"
)

type Prefetcher struct {
	schedules   store.ScheduleStore
	queue       store.QueueStore
	extractor   extractor.StreamExtractor
	streamCache *cache.StreamURLCache
	tts         tts.Service
	bus         *events.EventBus
	clk         clock.Clock
	logger      *log.Logger

	mu    sync.Mutex
	slots map[string]*models.PreparedSlot
}

func New(
	schedules store.ScheduleStore,
	queue store.QueueStore,
	ext extractor.StreamExtractor,
	streamCache *cache.StreamURLCache,
	ttsSvc tts.Service,
	bus *events.EventBus,
	clk clock.Clock,
	logger *log.Logger,
) *Prefetcher {
	return &Prefetcher{
		schedules:   schedules,
		queue:       queue,
		extractor:   ext,
		streamCache: streamCache,
		tts:         ttsSvc,
		bus:         bus,
		clk:         clk,
		logger:      logger,
		slots:       make(map[string]*models.PreparedSlot),
	}
}

// PrepareScheduledSong is P's sole entry point (spec.md §4.2).
func (p *Prefetcher) PrepareScheduledSong(scheduleID string, volume int) {
	sched, err := p.schedules.GetByID(scheduleID)
	if err != nil {
		p.logger.Printf("[ERROR] prefetch: load schedule %s: %v", scheduleID, err)
		return
	}
	if sched == nil || !sched.Active {
		p.logger.Printf("[INFO] prefetch: schedule %s no longer active, aborting", scheduleID)
		return
	}

	song, err := p.queue.TopUnplayed()
	if err != nil {
		p.logger.Printf("[ERROR] prefetch: query top unplayed for %s: %v", scheduleID, err)
		p.lockOffline(scheduleID, sched, false)
		return
	}
	if song == nil {
		p.logger.Printf("[INFO] prefetch: queue empty for %s, locking offline fallback", scheduleID)
		p.lockOffline(scheduleID, sched, false)
		return
	}

	if err := p.queue.Reserve(song.ID); err != nil {
		p.logger.Printf("[ERROR] prefetch: reserve %s: %v", song.ID, err)
		p.lockOffline(scheduleID, sched, false)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), extractor.ResolveTimeout)
	defer cancel()

	streamURL, ok := p.streamCache.Get(song.ExternalURL)
	if !ok {
		resolved, err := p.extractor.ResolveStreamURL(ctx, song.ExternalID)
		if err != nil {
			p.logger.Printf("[WARN] prefetch: resolve stream for %s failed: %v", song.ID, err)
			if restoreErr := p.queue.RestoreReservation(song.ID); restoreErr != nil {
				p.logger.Printf("[ERROR] prefetch: restore reservation for %s: %v", song.ID, restoreErr)
			}
			p.lockOffline(scheduleID, sched, true)
			return
		}
		streamURL = resolved
		p.streamCache.Set(song.ExternalURL, resolved)
	}

	var announcement *models.Announcement
	if song.Dedication != "" {
		announcement = p.synthesizeAnnouncement(ctx, song)
	}

	slot := &models.PreparedSlot{
		Song:         song,
		StreamURL:    streamURL,
		Announcement: announcement,
		PreparedAt:   p.clk.Now(),
	}

	p.mu.Lock()
	p.slots[scheduleID] = slot
	p.mu.Unlock()

	p.bus.PublishNextSongLocked(events.NextSongLockedEvent{
		Song:            song,
		ScheduleNextAt:  formatLocalHHMM(sched.NextRun),
		HasAnnouncement: announcement != nil,
	})
	p.bus.PublishQueueUpdated()
}

func (p *Prefetcher) synthesizeAnnouncement(ctx context.Context, song *models.QueueSong) *models.Announcement {
	text := fmt.Sprintf("Up next, %s by %s, dedicated: %s", song.Title, song.Artist, song.Dedication)
	ann := &models.Announcement{Text: text}
	audioCtx, cancel := context.WithTimeout(ctx, extractor.MetadataTimeout)
	defer cancel()
	audioPath, err := p.tts.Synthesize(audioCtx, song.ID, text)
	if err != nil {
		p.logger.Printf("[WARN] prefetch: tts synthesis failed for %s, text-only announcement: %v", song.ID, err)
		return ann
	}
	ann.AudioURL = audioPath
	return ann
}

func (p *Prefetcher) lockOffline(scheduleID string, sched *models.Schedule, downloadFailed bool) {
	slot := &models.PreparedSlot{IsOfflineFallback: true, PreparedAt: p.clk.Now()}
	p.mu.Lock()
	p.slots[scheduleID] = slot
	p.mu.Unlock()

	p.bus.PublishNextSongLocked(events.NextSongLockedEvent{
		ScheduleNextAt: formatLocalHHMM(sched.NextRun),
		IsOffline:      true,
		DownloadFailed: downloadFailed,
	})
	if downloadFailed {
		p.bus.PublishQueueUpdated()
	}
}

// ConsumeAny returns and removes an arbitrary prepared slot, used by
// admin "Next" (spec.md §4.3 playTopNow).
func (p *Prefetcher) ConsumeAny() (string, *models.PreparedSlot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, slot := range p.slots {
		delete(p.slots, id)
		return id, slot, true
	}
	return "", nil, false
}

// Consume returns and removes the prepared slot for scheduleID, if any.
func (p *Prefetcher) Consume(scheduleID string) (*models.PreparedSlot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	slot, ok := p.slots[scheduleID]
	if ok {
		delete(p.slots, scheduleID)
	}
	return slot, ok
}

// TriggerPrefetch re-enters PrepareScheduledSong for burst continuation;
// callers run it in a goroutine (spec.md §4.3 "background-start").
func (p *Prefetcher) TriggerPrefetch(scheduleID string, volume int) {
	p.PrepareScheduledSong(scheduleID, volume)
}

// DiscardSlot drops any prepared slot for scheduleID without consuming it,
// used by S.removeJob.
func (p *Prefetcher) DiscardSlot(scheduleID string) {
	p.mu.Lock()
	delete(p.slots, scheduleID)
	p.mu.Unlock()
}

func formatLocalHHMM(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("15:04")
}
