package service

import (
	"math"
	"sync"
	"time"
)

const DefaultThrottleCap = 30 * time.Second

// sweepAt is the entry count at which Begin sweeps inline instead of
// waiting for the background sweeper.
const sweepAt = 4096

// CooldownForFailures returns min(limit, 2^failures seconds).
func CooldownForFailures(failures int, limit time.Duration) time.Duration {
	if failures > 32 {
		return limit
	}
	d := time.Duration(math.Pow(2, float64(failures))) * time.Second
	if d > limit {
		return limit
	}
	return d
}

type throttleState struct {
	failures int
	until    time.Time
	inflight bool
	started  time.Time
}

// Throttle slows down repeated failed logins per identifier. Each attempt
// is bracketed by Begin and one of Failed or Succeeded; only one attempt
// per identifier runs at a time.
//
// An entry is forgotten once its cooldown has been over for a full limit,
// so the failure count restarts for identifiers that go quiet.
type Throttle struct {
	mu    sync.Mutex
	state map[string]throttleState
	limit time.Duration
	now   func() time.Time
}

func NewThrottle(limit time.Duration) *Throttle {
	if limit <= 0 {
		limit = DefaultThrottleCap
	}
	return &Throttle{
		state: make(map[string]throttleState),
		limit: limit,
		now:   time.Now,
	}
}

// Begin reserves an attempt for id. It returns zero when the caller may
// go ahead, otherwise how long to wait. A reserved attempt must be closed
// with Failed or Succeeded; one left open for a full limit is abandoned.
func (t *Throttle) Begin(id string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if len(t.state) >= sweepAt {
		t.sweepLocked(now)
	}
	st := t.state[id]
	if d := st.until.Sub(now); d > 0 {
		return d
	}
	if st.inflight && now.Sub(st.started) < t.limit {
		return time.Second
	}
	st.inflight = true
	st.started = now
	t.state[id] = st
	return 0
}

// Wait returns how long id must wait before the next attempt without
// reserving one.
func (t *Throttle) Wait(id string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.state[id]
	if !ok {
		return 0
	}
	now := t.now()
	if d := st.until.Sub(now); d > 0 {
		return d
	}
	if st.inflight && now.Sub(st.started) < t.limit {
		return time.Second
	}
	return 0
}

// Failed closes an attempt as failed and starts the next cooldown.
func (t *Throttle) Failed(id string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := t.state[id]
	st.failures++
	st.inflight = false
	cooldown := CooldownForFailures(st.failures, t.limit)
	st.until = t.now().Add(cooldown)
	t.state[id] = st
	return cooldown
}

// Succeeded closes an attempt and clears id's history.
func (t *Throttle) Succeeded(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.state, id)
}

// Sweep drops entries whose cooldown ended more than one limit before now
// and returns how many it removed.
func (t *Throttle) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sweepLocked(now)
}

func (t *Throttle) sweepLocked(now time.Time) int {
	n := 0
	for id, st := range t.state {
		if st.inflight && now.Sub(st.started) < t.limit {
			continue
		}
		if now.After(st.until.Add(t.limit)) {
			delete(t.state, id)
			n++
		}
	}
	return n
}

// Len reports the number of tracked identifiers.
func (t *Throttle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.state)
}
