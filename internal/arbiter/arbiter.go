// Package arbiter implements the broadcaster arbiter (A): it guarantees at
// most one authoritative admin connection exists even under refresh,
// reconnect, and explicit takeover (spec.md §4.5). The teacher has no
// single-admin concept to ground this on; it follows the teacher's
// service-struct-plus-interface style (one struct, exported methods, and a
// single exported field, the OnGraceExpired hook) applied to a new component.
package arbiter

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/waveradio/core/internal/clock"
	"github.com/waveradio/core/internal/models"
)

// GraceWindow is how long a disconnected admin's identity is remembered so
// a same-user reconnect reattaches without a takeover.
const GraceWindow = 5 * time.Second

type Outcome int

const (
	OutcomeActive Outcome = iota
	OutcomeRejected
	OutcomeTakeoverWarning
)

// UpgradeResult is the protocol response to a join-admin-room attempt.
type UpgradeResult struct {
	Outcome         Outcome
	SessionID       string
	IncumbentConnID string // set only for OutcomeTakeoverWarning
}

// Arbiter owns the single AdminSession.
type Arbiter struct {
	mu    sync.Mutex
	clock clock.Clock

	session *models.AdminSession

	graceUserID    string
	graceSessionID string
	graceCancel    chan struct{}

	// OnGraceExpired is invoked once the grace window elapses with no
	// reconnect, signalling the caller (playback controller) to clear
	// CurrentlyPlaying/PlaybackCache — the admin truly left.
	OnGraceExpired func()
}

func New(c clock.Clock) *Arbiter {
	return &Arbiter{clock: c}
}

// Upgrade runs the join-admin-room protocol for a newly connected admin
// socket.
func (a *Arbiter) Upgrade(connID, userID string, takeover bool, currentlyPlaying *models.CurrentlyPlaying) UpgradeResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session == nil {
		if a.graceCancel != nil && a.graceUserID == userID {
			close(a.graceCancel)
			a.graceCancel = nil
			sessionID := a.graceSessionID
			a.graceUserID = ""
			a.graceSessionID = ""
			a.session = &models.AdminSession{ConnID: connID, UserID: userID, SessionID: sessionID}
			return UpgradeResult{Outcome: OutcomeActive, SessionID: sessionID}
		}

		sessionID := uuid.NewString()
		a.session = &models.AdminSession{ConnID: connID, UserID: userID, SessionID: sessionID}
		return UpgradeResult{Outcome: OutcomeActive, SessionID: sessionID}
	}

	if !takeover {
		return UpgradeResult{Outcome: OutcomeRejected}
	}

	incumbent := a.session.ConnID
	sessionID := uuid.NewString()
	a.session = &models.AdminSession{ConnID: connID, UserID: userID, SessionID: sessionID}
	return UpgradeResult{Outcome: OutcomeTakeoverWarning, SessionID: sessionID, IncumbentConnID: incumbent}
}

// Disconnect is called when a connection that was (or might be) the
// authoritative admin closes. It starts the grace window if connID was in
// fact the active admin.
func (a *Arbiter) Disconnect(connID string) {
	a.mu.Lock()
	if a.session == nil || a.session.ConnID != connID {
		a.mu.Unlock()
		return
	}

	a.graceUserID = a.session.UserID
	a.graceSessionID = a.session.SessionID
	a.session = nil
	cancel := make(chan struct{})
	a.graceCancel = cancel
	timer := a.clock.After(GraceWindow)
	a.mu.Unlock()

	go a.waitGrace(cancel, timer)
}

func (a *Arbiter) waitGrace(cancel chan struct{}, timer <-chan time.Time) {
	select {
	case <-timer:
		a.mu.Lock()
		if a.graceCancel == cancel {
			a.graceUserID = ""
			a.graceSessionID = ""
			a.graceCancel = nil
			cb := a.OnGraceExpired
			a.mu.Unlock()
			if cb != nil {
				cb()
			}
			return
		}
		a.mu.Unlock()
	case <-cancel:
	}
}

// IsActiveAdmin reports whether connID is the current authoritative admin.
// All admin-intent operations (song-started, song-ended-notify,
// get-playback-state, playback-stopped) must be gated on this.
func (a *Arbiter) IsActiveAdmin(connID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session != nil && a.session.ConnID == connID
}

// ActiveConnID returns the authoritative admin's connection id, if any.
func (a *Arbiter) ActiveConnID() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return "", false
	}
	return a.session.ConnID, true
}
