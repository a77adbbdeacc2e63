package store

import (
	"testing"
	"time"

	"github.com/waveradio/core/internal/models"
)

func TestScheduleCreateAssignsID(t *testing.T) {
	db := newTestDB(t)
	s, err := NewSQLiteScheduleStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteScheduleStore: %v", err)
	}
	sch := &models.Schedule{Name: "Morning Show", CronExpr: "0 7 * * *", Volume: 60, SongCount: 3, Active: true}
	if err := s.Create(sch); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sch.ID == "" {
		t.Fatal("expected Create to assign an ID")
	}

	got, err := s.GetByID(sch.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.Name != "Morning Show" || got.Volume != 60 {
		t.Fatalf("unexpected schedule: %+v", got)
	}
}

func TestScheduleUpdate(t *testing.T) {
	db := newTestDB(t)
	s, err := NewSQLiteScheduleStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteScheduleStore: %v", err)
	}
	sch := &models.Schedule{Name: "Evening Show", CronExpr: "0 18 * * *", Volume: 50, SongCount: 2, Active: true}
	if err := s.Create(sch); err != nil {
		t.Fatalf("Create: %v", err)
	}

	sch.Volume = 80
	sch.Active = false
	if err := s.Update(sch); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := s.GetByID(sch.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Volume != 80 || got.Active {
		t.Fatalf("expected updated volume=80 active=false, got %+v", got)
	}
}

func TestScheduleDelete(t *testing.T) {
	db := newTestDB(t)
	s, err := NewSQLiteScheduleStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteScheduleStore: %v", err)
	}
	sch := &models.Schedule{Name: "X", CronExpr: "* * * * *", Volume: 50, SongCount: 1, Active: true}
	if err := s.Create(sch); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Delete(sch.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err := s.GetByID(sch.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil after delete, got %+v", got)
	}
}

func TestScheduleListActiveExcludesInactive(t *testing.T) {
	db := newTestDB(t)
	s, err := NewSQLiteScheduleStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteScheduleStore: %v", err)
	}
	active := &models.Schedule{Name: "Active", CronExpr: "* * * * *", Volume: 50, SongCount: 1, Active: true}
	inactive := &models.Schedule{Name: "Inactive", CronExpr: "* * * * *", Volume: 50, SongCount: 1, Active: false}
	if err := s.Create(active); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create(inactive); err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, err := s.ListActive()
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(list) != 1 || list[0].ID != active.ID {
		t.Fatalf("expected only the active schedule, got %+v", list)
	}
}

func TestScheduleSetRunTimes(t *testing.T) {
	db := newTestDB(t)
	s, err := NewSQLiteScheduleStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteScheduleStore: %v", err)
	}
	sch := &models.Schedule{Name: "X", CronExpr: "* * * * *", Volume: 50, SongCount: 1, Active: true}
	if err := s.Create(sch); err != nil {
		t.Fatalf("Create: %v", err)
	}

	last := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	next := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	if err := s.SetRunTimes(sch.ID, last, next); err != nil {
		t.Fatalf("SetRunTimes: %v", err)
	}

	got, err := s.GetByID(sch.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.LastRun.Equal(last) || !got.NextRun.Equal(next) {
		t.Fatalf("unexpected run times: %+v", got)
	}
}
