package controllers

import (
	"database/sql"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/waveradio/core/internal/cache"
	"github.com/waveradio/core/internal/extractor"
	"github.com/waveradio/core/internal/filestore"
	"github.com/waveradio/core/internal/library"
	"github.com/waveradio/core/internal/models"
	"github.com/waveradio/core/internal/store"
)

func newTestStreamController(t *testing.T, ext extractor.StreamExtractor) (*StreamController, store.QueueStore, library.TrackStore, *sql.DB) {
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
	tracks, err := library.NewSQLiteTrackStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteTrackStore: %v", err)
	}

	audio, err := filestore.NewLocalFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFileStorage: %v", err)
	}

	streamCache := cache.NewStreamURLCache(time.Minute)
	t.Cleanup(streamCache.Close)

	sc := NewStreamController(queue, ext, streamCache, audio, tracks, log.New(io.Discard, "", 0))
	return sc, queue, tracks, db
}

func seedQueueSong(t *testing.T, db *sql.DB, id, externalID string) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO queue_songs (id, title, artist, external_url, external_id, duration_seconds,
			thumbnail_url, dedication, starred, vote_count, added_at, played, played_at, reserved)
		VALUES (?, 'song', '', 'https://external/x', ?, 180, '', '', 0, 0, ?, 0, NULL, 0)
	`, id, externalID, time.Now())
	if err != nil {
		t.Fatalf("seed queue song: %v", err)
	}
}

func TestStreamNotFoundForUnknownSong(t *testing.T) {
	sc, _, _, _ := newTestStreamController(t, extractor.NewMock(0, false))
	router := mux.NewRouter()
	sc.RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/stream/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestStreamRedirectsToResolvedURL(t *testing.T) {
	sc, _, _, db := newTestStreamController(t, extractor.NewMock(0, false))
	seedQueueSong(t, db, "song-1", "ext-1")

	router := mux.NewRouter()
	sc.RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/stream/song-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if loc != "https://mock.stream/ext-1.mp3" {
		t.Fatalf("unexpected redirect location %q", loc)
	}
}

func TestStreamFallsBackToOfflineOnResolveFailure(t *testing.T) {
	sc, _, tracks, db := newTestStreamController(t, extractor.NewMock(0, true))
	seedQueueSong(t, db, "song-2", "ext-2")
	if err := tracks.Create(&models.LibraryTrack{YouTubeID: "local-1", Title: "Backup", FilePath: "local-1.m4a"}); err != nil {
		t.Fatalf("seed library track: %v", err)
	}

	router := mux.NewRouter()
	sc.RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/stream/song-2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if got, want := rec.Header().Get("Location"), "/stream-offline/local-1.m4a"; got != want {
		t.Fatalf("expected offline fallback redirect to the local library track %q, got %q", want, got)
	}
}

func TestStreamFallsBackReturns503WhenLibraryEmpty(t *testing.T) {
	sc, _, _, db := newTestStreamController(t, extractor.NewMock(0, true))
	seedQueueSong(t, db, "song-3", "ext-3")

	router := mux.NewRouter()
	sc.RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/stream/song-3", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when no offline fallback exists, got %d", rec.Code)
	}
}

func TestStreamOfflineRejectsPathTraversal(t *testing.T) {
	sc, _, _, _ := newTestStreamController(t, extractor.NewMock(0, false))
	router := mux.NewRouter()
	sc.RegisterRoutes(router)

	for _, filename := range []string{"../../etc/passwd", "a/b.m4a", `a\b.m4a`} {
		req := httptest.NewRequest(http.MethodGet, "/stream-offline/"+filename, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			t.Fatalf("filename %q: must not be served, got 200", filename)
		}
	}
}

func TestStreamOfflineServesExistingFile(t *testing.T) {
	sc, _, _, _ := newTestStreamController(t, extractor.NewMock(0, false))

	path := sc.audio.AudioDir() + "/offline.m4a"
	if err := os.WriteFile(path, []byte("audio-bytes"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	router := mux.NewRouter()
	sc.RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/stream-offline/offline.m4a", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "audio-bytes" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}
