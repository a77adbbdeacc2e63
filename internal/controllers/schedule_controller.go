package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"

	"github.com/waveradio/core/internal/models"
	"github.com/waveradio/core/internal/scheduler"
	"github.com/waveradio/core/internal/store"
)

var cronValidator = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ScheduleController is the admin CRUD boundary named in spec.md §7: every
// write is validated here, before S or its store ever see it.
type ScheduleController struct {
	schedules store.ScheduleStore
	scheduler *scheduler.Scheduler
}

func NewScheduleController(schedules store.ScheduleStore, sched *scheduler.Scheduler) *ScheduleController {
	return &ScheduleController{schedules: schedules, scheduler: sched}
}

// RegisterRoutes mounts schedule CRUD under r's existing prefix (the
// caller is expected to have already scoped r to /api/v1/admin and
// attached auth middleware).
func (sc *ScheduleController) RegisterRoutes(r *mux.Router) {
	admin := r.PathPrefix("/schedules").Subrouter()
	admin.HandleFunc("", sc.List).Methods("GET")
	admin.HandleFunc("", sc.Create).Methods("POST")
	admin.HandleFunc("/{id}", sc.Update).Methods("PUT")
	admin.HandleFunc("/{id}", sc.Delete).Methods("DELETE")
}

type scheduleRequest struct {
	Name      string `json:"name"`
	CronExpr  string `json:"cron_expr"`
	Volume    int    `json:"volume"`
	SongCount int    `json:"song_count"`
	Active    bool   `json:"active"`
}

// validate enforces spec.md §7's CRUD boundary invariants: malformed cron
// expressions and out-of-range volume/song-count are rejected here, never
// reaching the scheduler.
func (req scheduleRequest) validate() error {
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	if _, err := cronValidator.Parse(req.CronExpr); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	if req.Volume < 0 || req.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100")
	}
	if req.SongCount < 1 || req.SongCount > 10 {
		return fmt.Errorf("song_count must be between 1 and 10")
	}
	return nil
}

func (sc *ScheduleController) List(w http.ResponseWriter, r *http.Request) {
	list, err := sc.schedules.ListActive()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list schedules")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (sc *ScheduleController) Create(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sched := &models.Schedule{
		Name:      req.Name,
		CronExpr:  req.CronExpr,
		Volume:    req.Volume,
		SongCount: req.SongCount,
		Active:    req.Active,
	}
	if err := sc.schedules.Create(sched); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create schedule")
		return
	}
	if sched.Active {
		if err := sc.scheduler.AddJob(sched); err != nil {
			writeError(w, http.StatusInternalServerError, "schedule saved but could not be armed: "+err.Error())
			return
		}
	}
	writeJSON(w, http.StatusCreated, sched)
}

func (sc *ScheduleController) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	existing, err := sc.schedules.GetByID(id)
	if err != nil || existing == nil {
		writeError(w, http.StatusNotFound, "schedule not found")
		return
	}

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing.Name = req.Name
	existing.CronExpr = req.CronExpr
	existing.Volume = req.Volume
	existing.SongCount = req.SongCount
	existing.Active = req.Active

	if err := sc.schedules.Update(existing); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update schedule")
		return
	}

	sc.scheduler.RemoveJob(existing.ID)
	if existing.Active {
		if err := sc.scheduler.AddJob(existing); err != nil {
			writeError(w, http.StatusInternalServerError, "schedule saved but could not be re-armed: "+err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, existing)
}

func (sc *ScheduleController) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sc.scheduler.RemoveJob(id)
	if err := sc.schedules.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete schedule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
