package controllers

import (
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"github.com/waveradio/core/internal/cache"
	"github.com/waveradio/core/internal/extractor"
	"github.com/waveradio/core/internal/filestore"
	"github.com/waveradio/core/internal/library"
	"github.com/waveradio/core/internal/store"
)

// StreamController serves the two audio endpoints named in spec.md §6: a
// cache-first redirect to an externally resolved stream URL, and a
// byte-range fallback over locally stored offline-fallback audio.
type StreamController struct {
	queue       store.QueueStore
	extractor   extractor.StreamExtractor
	streamCache *cache.StreamURLCache
	audio       *filestore.LocalFileStorage
	tracks      library.TrackStore
	logger      *log.Logger
}

func NewStreamController(queue store.QueueStore, ext extractor.StreamExtractor, streamCache *cache.StreamURLCache, audio *filestore.LocalFileStorage, tracks library.TrackStore, logger *log.Logger) *StreamController {
	return &StreamController{queue: queue, extractor: ext, streamCache: streamCache, audio: audio, tracks: tracks, logger: logger}
}

func (sc *StreamController) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/stream/{songId}", sc.Stream).Methods("GET")
	r.HandleFunc("/stream-offline/{filename}", sc.StreamOffline).Methods("GET")
}

// Stream resolves songId's external URL, using the cache first, and
// redirects the client straight to it. On any resolve failure it redirects
// to a random track from the local library via /stream-offline, or answers
// 503 when the library is empty.
func (sc *StreamController) Stream(w http.ResponseWriter, r *http.Request) {
	songID := mux.Vars(r)["songId"]
	song, err := sc.queue.GetByID(songID)
	if err != nil || song == nil {
		writeError(w, http.StatusNotFound, "song not found")
		return
	}

	if url, ok := sc.streamCache.Get(song.ExternalURL); ok {
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	url, err := sc.extractor.ResolveStreamURL(r.Context(), song.ExternalID)
	if err != nil {
		sc.logger.Printf("[WARN] stream: resolve %s failed, falling back to offline copy: %v", songID, err)
		sc.streamOfflineFallback(w, r)
		return
	}
	sc.streamCache.Set(song.ExternalURL, url)
	http.Redirect(w, r, url, http.StatusFound)
}

// streamOfflineFallback keeps the broadcast alive on a resolve failure by
// redirecting to a random local library track, the same mechanism the
// playback controller uses for the equivalent failure during an active
// broadcast (spec.md §5).
func (sc *StreamController) streamOfflineFallback(w http.ResponseWriter, r *http.Request) {
	track, err := sc.tracks.GetRandom()
	if err != nil || track == nil {
		writeError(w, http.StatusServiceUnavailable, "no offline fallback track available")
		return
	}
	http.Redirect(w, r, "/stream-offline/"+filepath.Base(track.FilePath), http.StatusFound)
}

// StreamOffline serves a locally stored offline-fallback file with
// byte-range support, rejecting any filename that would escape the audio
// directory.
func (sc *StreamController) StreamOffline(w http.ResponseWriter, r *http.Request) {
	filename := mux.Vars(r)["filename"]
	if filename == "" || strings.Contains(filename, "..") || strings.ContainsAny(filename, "/\\") {
		writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}

	path := filepath.Join(sc.audio.AudioDir(), filename)
	if !strings.HasPrefix(path, filepath.Clean(sc.audio.AudioDir())+string(filepath.Separator)) {
		writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}

	http.ServeFile(w, r, path)
}
