package sequence

import (
	"context"
	"sync/atomic"
)

// Sequencer hands out strictly monotonic order sequence numbers.
type Sequencer struct {
	next atomic.Uint64
}

// New creates a sequencer whose first Next returns start+1.
// On an empty ledger start = 0; otherwise start = the ledger's last seq.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.next.Store(start)
	return s
}

// Next returns the next sequence number.
func (s *Sequencer) Next() uint64 {
	return s.next.Add(1)
}

// Allocate is Next behind the allocator signature shared with the Redis
// allocator. It never fails.
func (s *Sequencer) Allocate(context.Context) (uint64, error) {
	return s.Next(), nil
}

// Current returns the last issued sequence.
func (s *Sequencer) Current() uint64 {
	return s.next.Load()
}

// Reset sets the sequencer to v. Only used at startup, before any
// allocation.
func (s *Sequencer) Reset(v uint64) {
	s.next.Store(v)
}
