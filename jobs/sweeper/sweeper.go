// Package sweeper periodically drops expired sessions and stale login
// throttle entries.
package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Target holds entries that expire. Sweep removes those expired at now and
// returns how many it removed.
type Target interface {
	Sweep(now time.Time) int
}

type target struct {
	name string
	t    Target
}

type Sweeper struct {
	targets  []target
	interval time.Duration
	log      *zap.Logger
	now      func() time.Time
}

// New returns a sweeper for the session registry. More targets can be
// added with Add before Run.
func New(sessions Target, interval time.Duration, log *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Sweeper{interval: interval, log: log, now: time.Now}
	return s.Add("sessions", sessions)
}

func (s *Sweeper) Add(name string, t Target) *Sweeper {
	s.targets = append(s.targets, target{name: name, t: t})
	return s
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce()
		}
	}
}

// SweepOnce sweeps every target and returns the total removed.
func (s *Sweeper) SweepOnce() int {
	now := s.now()
	total := 0
	for _, tg := range s.targets {
		n := tg.t.Sweep(now)
		if n > 0 {
			s.log.Info("expired entries removed", zap.String("target", tg.name), zap.Int("count", n))
		}
		total += n
	}
	return total
}
