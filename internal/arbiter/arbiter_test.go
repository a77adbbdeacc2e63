package arbiter

import (
	"testing"
	"time"

	"github.com/waveradio/core/internal/clock"
)

func TestUpgradeFirstAdminIsActive(t *testing.T) {
	a := New(clock.NewRealClock())
	res := a.Upgrade("conn-1", "alice", false, nil)
	if res.Outcome != OutcomeActive {
		t.Fatalf("expected OutcomeActive, got %v", res.Outcome)
	}
	if !a.IsActiveAdmin("conn-1") {
		t.Fatal("expected conn-1 to be active admin")
	}
}

func TestUpgradeSecondAdminRejectedWithoutTakeover(t *testing.T) {
	a := New(clock.NewRealClock())
	a.Upgrade("conn-1", "alice", false, nil)

	res := a.Upgrade("conn-2", "bob", false, nil)
	if res.Outcome != OutcomeRejected {
		t.Fatalf("expected OutcomeRejected, got %v", res.Outcome)
	}
	if !a.IsActiveAdmin("conn-1") {
		t.Fatal("conn-1 should remain active admin")
	}
}

func TestUpgradeTakeoverEvictsIncumbent(t *testing.T) {
	a := New(clock.NewRealClock())
	a.Upgrade("conn-1", "alice", false, nil)

	res := a.Upgrade("conn-2", "bob", true, nil)
	if res.Outcome != OutcomeTakeoverWarning {
		t.Fatalf("expected OutcomeTakeoverWarning, got %v", res.Outcome)
	}
	if res.IncumbentConnID != "conn-1" {
		t.Fatalf("expected incumbent conn-1, got %q", res.IncumbentConnID)
	}
	if !a.IsActiveAdmin("conn-2") {
		t.Fatal("conn-2 should now be active admin")
	}
	if a.IsActiveAdmin("conn-1") {
		t.Fatal("conn-1 should no longer be active admin")
	}
}

func TestDisconnectThenReconnectWithinGraceReattaches(t *testing.T) {
	fc := clock.NewFakeClock(time.Now())
	a := New(fc)
	first := a.Upgrade("conn-1", "alice", false, nil)

	a.Disconnect("conn-1")
	if a.IsActiveAdmin("conn-1") {
		t.Fatal("conn-1 should no longer be active admin after disconnect")
	}

	res := a.Upgrade("conn-2", "alice", false, nil)
	if res.Outcome != OutcomeActive {
		t.Fatalf("expected reattach to be OutcomeActive, got %v", res.Outcome)
	}
	if res.SessionID != first.SessionID {
		t.Fatalf("expected reattach to keep session id %q, got %q", first.SessionID, res.SessionID)
	}
}

func TestDisconnectGraceExpiryInvokesCallback(t *testing.T) {
	fc := clock.NewFakeClock(time.Now())
	a := New(fc)
	a.Upgrade("conn-1", "alice", false, nil)

	expired := make(chan struct{})
	a.OnGraceExpired = func() { close(expired) }

	a.Disconnect("conn-1")
	fc.Advance(GraceWindow + time.Second)

	select {
	case <-expired:
	case <-time.After(time.Second):
		t.Fatal("expected OnGraceExpired to fire after grace window elapses")
	}

	res := a.Upgrade("conn-2", "alice", false, nil)
	if res.Outcome != OutcomeActive {
		t.Fatalf("expected OutcomeActive for fresh admin, got %v", res.Outcome)
	}
}

func TestDisconnectIgnoresNonActiveConn(t *testing.T) {
	a := New(clock.NewRealClock())
	a.Upgrade("conn-1", "alice", false, nil)
	a.Disconnect("conn-unknown")
	if !a.IsActiveAdmin("conn-1") {
		t.Fatal("disconnecting an unrelated conn must not affect the active admin")
	}
}
