package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/99minutos/account-dashboard/internal/core/domain"
)

// manualScheduler runs posted functions inline and holds background work
// until the test releases it, in any order.
type manualScheduler struct {
	pending []func(ctx context.Context) func()
}

func (s *manualScheduler) Post(fn func()) { fn() }

func (s *manualScheduler) Go(work func(ctx context.Context) func()) {
	s.pending = append(s.pending, work)
}

// run completes the i-th piece of work ever scheduled.
func (s *manualScheduler) run(t *testing.T, i int) {
	t.Helper()
	if i >= len(s.pending) || s.pending[i] == nil {
		t.Fatalf("no pending work at index %d", i)
	}
	work := s.pending[i]
	s.pending[i] = nil
	if next := work(context.Background()); next != nil {
		next()
	}
}

func (s *manualScheduler) scheduled() int { return len(s.pending) }

type stubProfileRepo struct {
	mu       sync.Mutex
	fetchFn  func(ctx context.Context, userID string) (*domain.Profile, error)
	updateFn func(ctx context.Context, userID string, patch domain.ProfilePatch) (*domain.Profile, error)
	fetches  []string
	patches  []domain.ProfilePatch
}

func (r *stubProfileRepo) Fetch(ctx context.Context, userID string) (*domain.Profile, error) {
	r.mu.Lock()
	r.fetches = append(r.fetches, userID)
	fn := r.fetchFn
	r.mu.Unlock()
	return fn(ctx, userID)
}

func (r *stubProfileRepo) Update(ctx context.Context, userID string, patch domain.ProfilePatch) (*domain.Profile, error) {
	r.mu.Lock()
	r.patches = append(r.patches, patch)
	fn := r.updateFn
	r.mu.Unlock()
	return fn(ctx, userID, patch)
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []domain.Notification
}

func (n *recordingNotifier) Notify(note domain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note)
}

func (n *recordingNotifier) Drain() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.notes
	n.notes = nil
	return out
}

func (n *recordingNotifier) last() (domain.Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notes) == 0 {
		return domain.Notification{}, false
	}
	return n.notes[len(n.notes)-1], true
}

func strPtr(s string) *string { return &s }

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testProfile(userID, first string) *domain.Profile {
	return &domain.Profile{
		ID:        userID,
		FirstName: strPtr(first),
		LastName:  strPtr("Lovelace"),
		Email:     strPtr(userID + "@example.com"),
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	}
}

func testSession(id, userID string) *domain.Session {
	return &domain.Session{
		ID:        id,
		Token:     "token-" + id,
		UserID:    userID,
		Email:     userID + "@example.com",
		CreatedAt: baseTime,
		ExpiresAt: baseTime.Add(24 * time.Hour),
	}
}

func settled(s *domain.Session) SessionSnapshot {
	return SessionSnapshot{Status: domain.SessionSettled, Session: s}
}

func profileRepoReturning(profiles map[string]*domain.Profile) *stubProfileRepo {
	return &stubProfileRepo{
		fetchFn: func(_ context.Context, userID string) (*domain.Profile, error) {
			p, ok := profiles[userID]
			if !ok {
				return nil, domain.ErrProfileNotFound
			}
			return p.Clone(), nil
		},
	}
}
