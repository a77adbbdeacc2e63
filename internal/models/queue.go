package models

import "time"

// QueueSong is a listener-submitted, vote-ranked song in the external queue
// store. The core only reads the top-voted unplayed row and writes back the
// reservation/airing flags; CRUD otherwise belongs to the out-of-scope vote
// and queue data store.
type QueueSong struct {
	ID             string
	Title          string
	Artist         string
	ExternalURL    string
	ExternalID     string
	Duration       time.Duration
	ThumbnailURL   string
	Dedication     string
	Starred        bool
	VoteCount      int
	AddedAt        time.Time
	Played         bool
	PlayedAt       time.Time
	Reserved       bool
}
