// Package scheduler implements the time-triggered scheduler (S): it keeps
// two parallel cron jobs per active schedule (the main firing and the
// pre-fetch firing five minutes earlier) plus a daily maintenance job, and
// invokes the playback controller and pre-fetch pipeline at the right
// times. Grounded in other_examples' geekxflood-playlist-agent
// scheduler.go (cron.New with cron.WithChain(cron.Recover(...))).
package scheduler

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/waveradio/core/internal/clock"
	"github.com/waveradio/core/internal/models"
	"github.com/waveradio/core/internal/store"
)

// Controller is the subset of the playback controller (C) the scheduler
// drives from its main-job callback.
type Controller interface {
	ExecuteSchedule(scheduleID string, volume, songCount int)
}

// Prefetcher is the subset of the pre-fetch pipeline (P) the scheduler
// drives from its pre-fetch-job callback, plus the slot-discard hook
// removeJob needs.
type Prefetcher interface {
	PrepareScheduledSong(scheduleID string, volume int)
	DiscardSlot(scheduleID string)
}

// MaintenanceWindow is the fixed local time the daily chat-cleanup job
// runs at.
const MaintenanceWindow = "30 3 * * *"

// ChatRetention is how long chat messages are kept.
const ChatRetention = 72 * time.Hour

type jobPair struct {
	mainID      cron.EntryID
	prefetchID  cron.EntryID
	hasPrefetch bool
}

// Scheduler owns the cron jobs map; per spec.md §3, S exclusively owns
// this state.
type Scheduler struct {
	cron       *cron.Cron
	parser     cron.Parser
	schedules  store.ScheduleStore
	chat       store.ChatStore
	clk        clock.Clock
	controller  Controller
	prefetcher  Prefetcher
	logger      *log.Logger
	leadMinutes int

	mu      sync.Mutex
	entries map[string]jobPair
}

// New builds a Scheduler. leadMinutes is how far ahead of each schedule's
// main firing the pre-fetch firing is computed (spec.md §5's default is 5).
func New(schedules store.ScheduleStore, chat store.ChatStore, controller Controller, prefetcher Prefetcher, clk clock.Clock, leadMinutes int, logger *log.Logger) *Scheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	cronLogger := cron.PrintfLogger(logger)
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(time.Local),
		cron.WithChain(cron.Recover(cronLogger)),
	)
	if leadMinutes <= 0 {
		leadMinutes = 5
	}
	return &Scheduler{
		cron:        c,
		parser:      parser,
		schedules:   schedules,
		chat:        chat,
		clk:         clk,
		controller:  controller,
		prefetcher:  prefetcher,
		logger:      logger,
		leadMinutes: leadMinutes,
		entries:     make(map[string]jobPair),
	}
}

// Initialize loads all active schedules, registers both jobs for each, and
// registers the daily maintenance job.
func (s *Scheduler) Initialize() error {
	active, err := s.schedules.ListActive()
	if err != nil {
		return fmt.Errorf("scheduler: list active schedules: %w", err)
	}

	s.mu.Lock()
	for id := range s.entries {
		s.removeJobLocked(id)
	}
	s.mu.Unlock()

	for _, sched := range active {
		if err := s.AddJob(sched); err != nil {
			s.logger.Printf("[WARN] scheduler: skipping schedule %s: %v", sched.ID, err)
		}
	}

	if _, err := s.cron.AddFunc(MaintenanceWindow, s.runMaintenance); err != nil {
		return fmt.Errorf("scheduler: register maintenance job: %w", err)
	}

	s.cron.Start()
	return nil
}

// Reload cancels all jobs and re-runs Initialize.
func (s *Scheduler) Reload() error {
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.mu.Lock()
	s.entries = make(map[string]jobPair)
	s.mu.Unlock()

	s.cron = cron.New(
		cron.WithParser(s.parser),
		cron.WithLocation(time.Local),
		cron.WithChain(cron.Recover(cron.PrintfLogger(s.logger))),
	)
	return s.Initialize()
}

// AddJob cancels any existing pair for schedule.ID, registers the main and
// (if computable) pre-fetch jobs, and persists next-run.
func (s *Scheduler) AddJob(sched *models.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeJobLocked(sched.ID)

	scheduleID := sched.ID
	mainID, err := s.cron.AddFunc(sched.CronExpr, func() { s.onMainFire(scheduleID) })
	if err != nil {
		return fmt.Errorf("register main job for %s: %w", scheduleID, err)
	}

	pair := jobPair{mainID: mainID}

	prefetchExpr, ok, err := shiftMinutesBack(sched.CronExpr, s.leadMinutes)
	if err != nil {
		s.logger.Printf("[WARN] scheduler: cannot compute pre-fetch timing for schedule %s (%s): %v — no pre-fetch job registered", scheduleID, sched.CronExpr, err)
	} else if !ok {
		s.logger.Printf("[INFO] scheduler: schedule %s has a wildcard minute field, skipping pre-fetch job", scheduleID)
	} else {
		prefetchID, err := s.cron.AddFunc(prefetchExpr, func() { s.onPrefetchFire(scheduleID) })
		if err != nil {
			s.cron.Remove(mainID)
			return fmt.Errorf("register pre-fetch job for %s: %w", scheduleID, err)
		}
		pair.prefetchID = prefetchID
		pair.hasPrefetch = true
	}

	s.entries[scheduleID] = pair

	cronSchedule, err := s.parser.Parse(sched.CronExpr)
	if err != nil {
		return fmt.Errorf("parse cron expression for next-run: %w", err)
	}
	nextRun := cronSchedule.Next(s.clk.Now())
	return s.schedules.SetRunTimes(scheduleID, sched.LastRun, nextRun)
}

// RemoveJob cancels both jobs and discards any PreparedSlot for scheduleId.
func (s *Scheduler) RemoveJob(scheduleID string) {
	s.mu.Lock()
	s.removeJobLocked(scheduleID)
	s.mu.Unlock()
	s.prefetcher.DiscardSlot(scheduleID)
}

func (s *Scheduler) removeJobLocked(scheduleID string) {
	pair, ok := s.entries[scheduleID]
	if !ok {
		return
	}
	s.cron.Remove(pair.mainID)
	if pair.hasPrefetch {
		s.cron.Remove(pair.prefetchID)
	}
	delete(s.entries, scheduleID)
}

func (s *Scheduler) onMainFire(scheduleID string) {
	sched, err := s.schedules.GetByID(scheduleID)
	if err != nil {
		s.logger.Printf("[ERROR] scheduler: main fire for %s: load schedule: %v", scheduleID, err)
		return
	}
	if sched == nil || !sched.Active {
		return
	}
	s.controller.ExecuteSchedule(sched.ID, sched.Volume, sched.SongCount)
}

func (s *Scheduler) onPrefetchFire(scheduleID string) {
	sched, err := s.schedules.GetByID(scheduleID)
	if err != nil {
		s.logger.Printf("[ERROR] scheduler: pre-fetch fire for %s: load schedule: %v", scheduleID, err)
		return
	}
	if sched == nil {
		return
	}
	s.prefetcher.PrepareScheduledSong(sched.ID, sched.Volume)
}

func (s *Scheduler) runMaintenance() {
	cutoff := s.clk.Now().Add(-ChatRetention)
	n, err := s.chat.DeleteOlderThan(cutoff)
	if err != nil {
		s.logger.Printf("[ERROR] scheduler: chat cleanup failed: %v", err)
		return
	}
	s.logger.Printf("[INFO] scheduler: deleted %d chat messages older than %s", n, cutoff.Format(time.RFC3339))
}

// shiftMinutesBack computes a five-field cron expression that fires n
// minutes before expr, borrowing across the hour field (and, in the
// common case of wildcard day fields, across the day boundary). It
// reports ok=false (no error) when expr's minute field is a bare wildcard,
// matching the spec's "no pre-fetch job for every-minute schedules" rule.
func shiftMinutesBack(expr string, n int) (string, bool, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return "", false, fmt.Errorf("expected a five-field cron expression, got %q", expr)
	}

	if fields[0] == "*" {
		return "", false, nil
	}

	minute, err := strconv.Atoi(fields[0])
	if err != nil {
		return "", false, fmt.Errorf("unsupported minute field %q for pre-fetch shift", fields[0])
	}

	newMinute := minute - n
	if newMinute >= 0 {
		fields[0] = strconv.Itoa(newMinute)
		return strings.Join(fields, " "), true, nil
	}
	newMinute += 60
	fields[0] = strconv.Itoa(newMinute)

	if fields[1] == "*" {
		// Hour stays wildcard: every hour's minute n-back still falls in
		// some hour of the same wildcard set.
		return strings.Join(fields, " "), true, nil
	}

	hour, err := strconv.Atoi(fields[1])
	if err != nil {
		return "", false, fmt.Errorf("unsupported hour field %q for pre-fetch shift", fields[1])
	}
	newHour := hour - 1
	if newHour >= 0 {
		fields[1] = strconv.Itoa(newHour)
		return strings.Join(fields, " "), true, nil
	}
	newHour += 24
	fields[1] = strconv.Itoa(newHour)

	if fields[2] != "*" || fields[3] != "*" || fields[4] != "*" {
		return "", false, fmt.Errorf("pre-fetch shift crosses a day boundary, which is only supported for wildcard day-of-month/month/day-of-week fields")
	}
	return strings.Join(fields, " "), true, nil
}
