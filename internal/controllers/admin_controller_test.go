package controllers

import (
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/waveradio/core/internal/clock"
	"github.com/waveradio/core/internal/events"
	"github.com/waveradio/core/internal/models"
	"github.com/waveradio/core/internal/playback"
	"github.com/waveradio/core/internal/store"
)

func newTestAdminController(t *testing.T) (*AdminController, store.QueueStore, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	queue, err := store.NewSQLiteQueueStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteQueueStore: %v", err)
	}
	schedules, err := store.NewSQLiteScheduleStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteScheduleStore: %v", err)
	}
	state, err := store.NewSQLitePlaybackStateStore(db)
	if err != nil {
		t.Fatalf("NewSQLitePlaybackStateStore: %v", err)
	}

	bus := events.NewEventBus()
	clk := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	pc := playback.New(queue, schedules, state, nil, bus, clk, nil, nil, nil, nil, log.New(io.Discard, "", 0))

	return NewAdminController(pc, queue), queue, db
}

// seedPlayedSong inserts a queue_songs row directly and marks it played;
// QueueStore has no public Create since rows only ever arrive from the
// out-of-scope vote/queue data store.
func seedPlayedSong(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO queue_songs (id, title, artist, external_url, external_id, duration_seconds,
			thumbnail_url, dedication, starred, vote_count, added_at, played, played_at, reserved)
		VALUES (?, 'song', '', 'https://x', 'ext', 180, '', '', 0, 0, ?, 1, ?, 0)
	`, id, time.Now(), time.Now())
	if err != nil {
		t.Fatalf("seed played song %s: %v", id, err)
	}
}

func TestAdminHealthCheck(t *testing.T) {
	ac, _, _ := newTestAdminController(t)
	router := mux.NewRouter()
	ac.RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAdminNowPlayingWhenIdle(t *testing.T) {
	ac, _, _ := newTestAdminController(t)
	router := mux.NewRouter()
	ac.RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/now-playing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["playing"] != false {
		t.Fatalf("expected playing=false while idle, got %+v", body)
	}
}

func TestAdminRecentlyPlayedDefaultLimit(t *testing.T) {
	ac, _, db := newTestAdminController(t)
	seedPlayedSong(t, db, "song-a")
	seedPlayedSong(t, db, "song-b")
	seedPlayedSong(t, db, "song-c")

	router := mux.NewRouter()
	ac.RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recently-played", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got []*models.QueueSong
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 recently played songs, got %d", len(got))
	}
}

func TestAdminRecentlyPlayedRespectsLimitParam(t *testing.T) {
	ac, _, db := newTestAdminController(t)
	seedPlayedSong(t, db, "song-a")
	seedPlayedSong(t, db, "song-b")
	seedPlayedSong(t, db, "song-c")

	router := mux.NewRouter()
	ac.RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recently-played?limit=1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var got []*models.QueueSong
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 song with limit=1, got %d", len(got))
	}
}
