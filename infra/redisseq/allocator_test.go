package redisseq

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func openTestAllocator(t *testing.T, floor uint64) *Allocator {
	t.Helper()
	addr := os.Getenv("BISTRO_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("BISTRO_TEST_REDIS_ADDR not set")
	}
	key := fmt.Sprintf("bistro:test:seq:%d", time.Now().UnixNano())
	a, err := Open(context.Background(), Config{Addr: addr, Key: key}, floor, zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		a.client.Del(context.Background(), key)
		a.Close()
	})
	return a
}

func TestAllocateStartsAboveFloor(t *testing.T) {
	a := openTestAllocator(t, 10)
	v, err := a.Allocate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if v != 11 {
		t.Fatalf("Allocate = %d, want 11", v)
	}
}

func TestConcurrentAllocateIsUnique(t *testing.T) {
	a := openTestAllocator(t, 0)
	const n = 100
	var (
		mu   sync.Mutex
		seen = make(map[uint64]bool, n)
		wg   sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := a.Allocate(context.Background())
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if seen[v] {
				t.Errorf("duplicate %d", v)
			}
			seen[v] = true
		}()
	}
	wg.Wait()
}
