package controllers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/waveradio/core/internal/playback"
	"github.com/waveradio/core/internal/store"
)

// AdminController serves read-only status over HTTP. It exposes no
// playback-mutating intent. Over the broadcast hub, the only such intent an
// admitted admin connection can send is stop (playback-stopped); the
// controller's PlayTopNow, PlaySpecific, Pause, Resume and SetVolume have no
// HTTP route and no socket message.
type AdminController struct {
	playback *playback.Controller
	queue    store.QueueStore
}

func NewAdminController(pc *playback.Controller, queue store.QueueStore) *AdminController {
	return &AdminController{playback: pc, queue: queue}
}

func (ac *AdminController) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/health", ac.HealthCheck).Methods("GET")
	r.HandleFunc("/api/v1/now-playing", ac.NowPlaying).Methods("GET")
	r.HandleFunc("/api/v1/recently-played", ac.RecentlyPlayed).Methods("GET")
}

func (ac *AdminController) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (ac *AdminController) NowPlaying(w http.ResponseWriter, r *http.Request) {
	cp := ac.playback.CurrentlyPlaying()
	if cp == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"playing": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"playing":    true,
		"song":       cp.Song,
		"started_at": cp.StartedAt,
	})
}

func (ac *AdminController) RecentlyPlayed(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	songs, err := ac.queue.RecentlyPlayed(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load recently played")
		return
	}
	writeJSON(w, http.StatusOK, songs)
}
