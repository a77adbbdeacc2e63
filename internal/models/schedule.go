package models

import "time"

// Schedule is an admin-managed recurring playback job. The core mutates
// only LastRun and NextRun; everything else is admin CRUD.
type Schedule struct {
	ID         string
	Name       string
	CronExpr   string
	Volume     int // 0..100
	SongCount  int // 1..10
	Active     bool
	LastRun    time.Time
	NextRun    time.Time
}
