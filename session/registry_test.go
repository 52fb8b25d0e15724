package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"bistro/domain/user"
)

func TestIssueResolveRevoke(t *testing.T) {
	r := NewRegistry()
	s := r.Issue("manager1", user.RoleManager)
	if s.Token == "" {
		t.Fatal("empty token")
	}
	role, ok := r.Resolve(s.Token)
	if !ok || role != user.RoleManager {
		t.Fatalf("Resolve = %v, %v", role, ok)
	}

	r.Revoke(s.Token)
	if _, ok := r.Resolve(s.Token); ok {
		t.Fatal("revoked token still resolves")
	}
	r.Revoke(s.Token) // idempotent
	r.Revoke("never-issued")
	if r.Len() != 0 {
		t.Errorf("Len = %d", r.Len())
	}
}

func TestResolveUnknownAndEmpty(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Resolve(""); ok {
		t.Error("empty token resolved")
	}
	if _, ok := r.Resolve("nope"); ok {
		t.Error("unknown token resolved")
	}
}

func TestIssueRetriesOnCollision(t *testing.T) {
	tokens := []string{"dup", "dup", "fresh"}
	i := 0
	r := NewRegistry(WithTokenSource(func() string {
		tok := tokens[i]
		i++
		return tok
	}))
	first := r.Issue("a", user.RoleServer)
	second := r.Issue("b", user.RoleManager)
	if first.Token != "dup" || second.Token != "fresh" {
		t.Fatalf("tokens = %q, %q", first.Token, second.Token)
	}
	if role, _ := r.Resolve("dup"); role != user.RoleServer {
		t.Error("first session was overwritten")
	}
}

func TestExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	r := NewRegistry(WithTTL(time.Hour), WithClock(clock))

	old := r.Issue("server1", user.RoleServer)
	now = now.Add(30 * time.Minute)
	fresh := r.Issue("manager1", user.RoleManager)

	now = now.Add(45 * time.Minute) // old is 75m, fresh is 45m
	if _, ok := r.Resolve(old.Token); ok {
		t.Error("expired session resolved")
	}
	if _, ok := r.Resolve(fresh.Token); !ok {
		t.Error("live session did not resolve")
	}
	if r.Len() != 2 {
		t.Errorf("Resolve must not remove entries, Len = %d", r.Len())
	}
	if removed := r.Sweep(now); removed != 1 {
		t.Errorf("Sweep removed %d, want 1", removed)
	}
	if _, ok := r.Lookup(fresh.Token); !ok {
		t.Error("sweep removed a live session")
	}
}

func TestConcurrentIssueAndRevoke(t *testing.T) {
	r := NewRegistry()
	const n = 200
	tokens := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i] = r.Issue(fmt.Sprintf("u%d", i), user.RoleServer).Token
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, tok := range tokens {
		if seen[tok] {
			t.Fatalf("duplicate token %s", tok)
		}
		seen[tok] = true
	}

	for i := 0; i < n; i++ {
		wg.Add(2)
		go func(tok string) { defer wg.Done(); r.Revoke(tok) }(tokens[i])
		go func(tok string) { defer wg.Done(); r.Resolve(tok) }(tokens[i])
	}
	wg.Wait()
	if r.Len() != 0 {
		t.Errorf("Len after revoking all = %d", r.Len())
	}
}
