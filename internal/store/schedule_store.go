package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/waveradio/core/internal/models"
)

// ScheduleStore is CRUD on Schedule rows; the core itself only ever writes
// LastRun and NextRun (spec.md §6).
type ScheduleStore interface {
	Create(s *models.Schedule) error
	Update(s *models.Schedule) error
	Delete(id string) error
	GetByID(id string) (*models.Schedule, error)
	ListActive() ([]*models.Schedule, error)
	SetRunTimes(id string, lastRun, nextRun time.Time) error
}

type SQLiteScheduleStore struct {
	db *sql.DB
}

func NewSQLiteScheduleStore(db *sql.DB) (*SQLiteScheduleStore, error) {
	s := &SQLiteScheduleStore{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("schedule store: %w", err)
	}
	return s, nil
}

func (s *SQLiteScheduleStore) createTables() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS schedules (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		cron_expr TEXT NOT NULL,
		volume INTEGER NOT NULL,
		song_count INTEGER NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		last_run DATETIME,
		next_run DATETIME
	);
	`)
	return err
}

func (s *SQLiteScheduleStore) Create(sch *models.Schedule) error {
	if sch.ID == "" {
		sch.ID = uuid.NewString()
	}
	_, err := s.db.Exec(`
		INSERT INTO schedules (id, name, cron_expr, volume, song_count, active, last_run, next_run)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, sch.ID, sch.Name, sch.CronExpr, sch.Volume, sch.SongCount, sch.Active, nullTime(sch.LastRun), nullTime(sch.NextRun))
	return err
}

func (s *SQLiteScheduleStore) Update(sch *models.Schedule) error {
	_, err := s.db.Exec(`
		UPDATE schedules SET name=?, cron_expr=?, volume=?, song_count=?, active=?, last_run=?, next_run=?
		WHERE id=?
	`, sch.Name, sch.CronExpr, sch.Volume, sch.SongCount, sch.Active, nullTime(sch.LastRun), nullTime(sch.NextRun), sch.ID)
	return err
}

func (s *SQLiteScheduleStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM schedules WHERE id = ?`, id)
	return err
}

func (s *SQLiteScheduleStore) GetByID(id string) (*models.Schedule, error) {
	row := s.db.QueryRow(`
		SELECT id, name, cron_expr, volume, song_count, active, last_run, next_run
		FROM schedules WHERE id = ?
	`, id)
	return scanSchedule(row)
}

func (s *SQLiteScheduleStore) ListActive() ([]*models.Schedule, error) {
	rows, err := s.db.Query(`
		SELECT id, name, cron_expr, volume, song_count, active, last_run, next_run
		FROM schedules WHERE active = 1
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Schedule
	for rows.Next() {
		sch, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sch)
	}
	return out, rows.Err()
}

func (s *SQLiteScheduleStore) SetRunTimes(id string, lastRun, nextRun time.Time) error {
	_, err := s.db.Exec(`UPDATE schedules SET last_run=?, next_run=? WHERE id=?`, nullTime(lastRun), nullTime(nextRun), id)
	return err
}

func scanSchedule(row rowScanner) (*models.Schedule, error) {
	var sch models.Schedule
	var active int
	var lastRun, nextRun sql.NullTime
	if err := row.Scan(&sch.ID, &sch.Name, &sch.CronExpr, &sch.Volume, &sch.SongCount, &active, &lastRun, &nextRun); err != nil {
		return nil, err
	}
	sch.Active = active != 0
	if lastRun.Valid {
		sch.LastRun = lastRun.Time
	}
	if nextRun.Valid {
		sch.NextRun = nextRun.Time
	}
	return &sch, nil
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
