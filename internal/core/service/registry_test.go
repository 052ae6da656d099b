package service

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/goleak"

	"github.com/99minutos/account-dashboard/internal/core/domain"
)

// feedIdentity closes its feed when the subscriber's context ends.
type feedIdentity struct {
	fakeIdentity
}

func (f *feedIdentity) Subscribe(ctx context.Context) <-chan *domain.Session {
	ch := make(chan *domain.Session)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch
}

type countingFactory struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (f *countingFactory) build(clientID, bootstrapToken string) *Dashboard {
	f.mu.Lock()
	f.tokens[clientID] = bootstrapToken
	f.mu.Unlock()
	return NewDashboard(clientID, DashboardDeps{
		Identity:  &feedIdentity{},
		Profiles:  profileRepoReturning(nil),
		Scheduler: &lockedScheduler{},
		Log:       zerolog.Nop(),
	})
}

func (f *countingFactory) created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tokens)
}

func newTestRegistry(idle time.Duration) (*Registry, *countingFactory) {
	f := &countingFactory{tokens: make(map[string]string)}
	return NewRegistry(f.build, idle, zerolog.Nop()), f
}

func TestRegistry_AcquireReusesDashboard(t *testing.T) {
	defer goleak.VerifyNone(t)

	r, f := newTestRegistry(time.Minute)
	defer r.Stop()

	first := r.Acquire("c1", "tok")
	second := r.Acquire("c1", "other")

	if first != second {
		t.Fatalf("expected the same dashboard for one client")
	}
	if f.created() != 1 || f.tokens["c1"] != "tok" {
		t.Fatalf("expected one dashboard bootstrapped with the first token, got %v", f.tokens)
	}

	r.Acquire("c2", "")
	if r.Len() != 2 {
		t.Fatalf("expected 2 clients, got %d", r.Len())
	}
}

func TestRegistry_LookupDoesNotCreate(t *testing.T) {
	defer goleak.VerifyNone(t)

	r, f := newTestRegistry(time.Minute)
	defer r.Stop()

	if _, ok := r.Lookup("missing"); ok {
		t.Fatalf("lookup created a client")
	}
	if f.created() != 0 {
		t.Fatalf("factory called on lookup")
	}

	d := r.Acquire("c1", "")
	got, ok := r.Lookup("c1")
	if !ok || got != d {
		t.Fatalf("expected existing dashboard")
	}
}

func TestRegistry_RemoveDetaches(t *testing.T) {
	defer goleak.VerifyNone(t)

	r, _ := newTestRegistry(time.Minute)
	defer r.Stop()

	first := r.Acquire("c1", "")
	r.Remove("c1")
	r.Remove("c1")

	if r.Len() != 0 {
		t.Fatalf("expected no clients, got %d", r.Len())
	}
	if r.Acquire("c1", "") == first {
		t.Fatalf("expected a fresh dashboard after removal")
	}
}

func TestRegistry_EvictsIdleClients(t *testing.T) {
	defer goleak.VerifyNone(t)

	r, _ := newTestRegistry(10 * time.Minute)
	defer r.Stop()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	r.Acquire("idle", "")
	r.Acquire("busy", "")

	now = now.Add(8 * time.Minute)
	r.Lookup("busy")

	now = now.Add(5 * time.Minute)
	r.evictIdle()

	if _, ok := r.Lookup("idle"); ok {
		t.Fatalf("idle client not evicted")
	}
	if _, ok := r.Lookup("busy"); !ok {
		t.Fatalf("recently seen client evicted")
	}
}

func TestRegistry_JanitorStopsOnStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	r, _ := newTestRegistry(time.Nanosecond)
	r.StartJanitor(context.Background(), time.Millisecond)
	r.Acquire("c1", "")

	eventually(t, func() bool { return r.Len() == 0 })

	r.Acquire("c2", "")
	r.Stop()
	r.Stop()

	if r.Len() != 0 {
		t.Fatalf("Stop left clients attached")
	}
}

func TestRegistry_MaxClientsEvictsLeastRecentlySeen(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &countingFactory{tokens: make(map[string]string)}
	r := NewRegistry(f.build, time.Hour, zerolog.Nop(), WithMaxClients(2))
	defer r.Stop()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	r.Acquire("c1", "")
	now = now.Add(time.Second)
	r.Acquire("c2", "")
	now = now.Add(time.Second)
	r.Lookup("c1")
	now = now.Add(time.Second)
	r.Acquire("c3", "")

	if r.Len() != 2 {
		t.Fatalf("expected 2 clients at capacity, got %d", r.Len())
	}
	if _, ok := r.Lookup("c2"); ok {
		t.Fatalf("least recently seen client was kept")
	}
	for _, id := range []string{"c1", "c3"} {
		if _, ok := r.Lookup(id); !ok {
			t.Fatalf("client %s evicted", id)
		}
	}

	for i := 0; i < 20; i++ {
		now = now.Add(time.Second)
		r.Acquire("burst-"+strconv.Itoa(i), "")
	}
	if r.Len() != 2 {
		t.Fatalf("registry grew past its bound: %d", r.Len())
	}
}
