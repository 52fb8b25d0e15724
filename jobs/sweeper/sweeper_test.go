package sweeper

import (
	"context"
	"testing"
	"time"

	"bistro/domain/user"
	"bistro/session"

	"go.uber.org/zap/zaptest"
)

func TestSweepOnce(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	reg := session.NewRegistry(session.WithTTL(time.Minute), session.WithClock(clock))
	reg.Issue("server1", user.RoleServer)
	reg.Issue("server2", user.RoleServer)

	s := New(reg, time.Second, zaptest.NewLogger(t))
	s.now = clock
	if n := s.SweepOnce(); n != 0 {
		t.Fatalf("swept %d live sessions", n)
	}
	now = now.Add(2 * time.Minute)
	if n := s.SweepOnce(); n != 2 {
		t.Fatalf("swept %d, want 2", n)
	}
	if reg.Len() != 0 {
		t.Errorf("Len = %d", reg.Len())
	}
}

type countingSessions struct{ calls chan struct{} }

func (c *countingSessions) Sweep(time.Time) int {
	select {
	case c.calls <- struct{}{}:
	default:
	}
	return 0
}

func TestRunTicks(t *testing.T) {
	cs := &countingSessions{calls: make(chan struct{}, 16)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go New(cs, 5*time.Millisecond, nil).Run(ctx)

	select {
	case <-cs.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper never ran")
	}
}

type fixedTarget struct {
	n    int
	seen time.Time
}

func (f *fixedTarget) Sweep(now time.Time) int {
	f.seen = now
	return f.n
}

func TestSweepOnceAllTargets(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	sessions := &fixedTarget{n: 2}
	logins := &fixedTarget{n: 3}
	s := New(sessions, time.Second, zaptest.NewLogger(t)).Add("login-throttle", logins)
	s.now = func() time.Time { return now }

	if n := s.SweepOnce(); n != 5 {
		t.Fatalf("swept %d, want 5", n)
	}
	if !sessions.seen.Equal(now) || !logins.seen.Equal(now) {
		t.Errorf("targets swept at %v and %v, want %v", sessions.seen, logins.seen, now)
	}
}
