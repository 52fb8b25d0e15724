package sequence

import (
	"context"
	"sync"
	"testing"
)

func TestNextStartsAfterSeed(t *testing.T) {
	s := New(41)
	if got := s.Next(); got != 42 {
		t.Fatalf("Next = %d, want 42", got)
	}
	if got := s.Current(); got != 42 {
		t.Fatalf("Current = %d, want 42", got)
	}
	s.Reset(7)
	if got, _ := s.Allocate(context.Background()); got != 8 {
		t.Fatalf("Allocate after Reset = %d, want 8", got)
	}
}

func TestConcurrentNextIsUnique(t *testing.T) {
	s := New(0)
	const workers, per = 8, 500
	out := make(chan uint64, workers*per)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < per; i++ {
				out <- s.Next()
			}
		}()
	}
	wg.Wait()
	close(out)

	seen := make(map[uint64]bool, workers*per)
	for v := range out {
		if seen[v] {
			t.Fatalf("duplicate sequence %d", v)
		}
		seen[v] = true
	}
	if s.Current() != workers*per {
		t.Errorf("Current = %d", s.Current())
	}
}
