package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/account-dashboard/internal/api/middleware"
	"github.com/99minutos/account-dashboard/internal/core/domain"
	"github.com/99minutos/account-dashboard/internal/core/ports"
	"github.com/99minutos/account-dashboard/internal/core/service"
	"github.com/99minutos/account-dashboard/internal/infrastructure/identity"
	"github.com/99minutos/account-dashboard/internal/infrastructure/notify"
	"github.com/99minutos/account-dashboard/internal/infrastructure/queue"
)

// stubAuthService keeps sessions in memory. registerFn and signOutErr
// override the default behaviour.
type stubAuthService struct {
	mu         sync.Mutex
	live       map[string]*domain.Session
	seq        int
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	signOutErr error
}

func newStubAuthService() *stubAuthService {
	return &stubAuthService{live: make(map[string]*domain.Session)}
}

func (s *stubAuthService) issueLocked(userID, email string) *domain.Session {
	s.seq++
	id := "s" + strconv.Itoa(s.seq)
	now := time.Now().UTC()
	sess := &domain.Session{
		ID:        id,
		Token:     "token-" + id,
		UserID:    userID,
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	s.live[sess.Token] = sess.Clone()
	return sess
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	if s.registerFn != nil {
		return s.registerFn(ctx, in)
	}
	return &domain.User{ID: "u1", Email: in.Email}, nil
}

func (s *stubAuthService) SignIn(_ context.Context, email, password string) (*domain.Session, error) {
	if password != "correct-horse" {
		return nil, domain.ErrInvalidCredentials
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked("u1", email), nil
}

func (s *stubAuthService) Validate(_ context.Context, token string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.live[token]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

func (s *stubAuthService) Refresh(_ context.Context, token string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.live[token]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	delete(s.live, token)
	return s.issueLocked(old.UserID, old.Email), nil
}

func (s *stubAuthService) SignOut(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.signOutErr != nil {
		return s.signOutErr
	}
	delete(s.live, token)
	return nil
}

// memoryProfiles is an in-memory ports.ProfileRepository.
type memoryProfiles struct {
	mu       sync.Mutex
	profiles map[string]*domain.Profile
	fetchErr error
}

func newMemoryProfiles(ps ...*domain.Profile) *memoryProfiles {
	m := &memoryProfiles{profiles: make(map[string]*domain.Profile)}
	for _, p := range ps {
		m.profiles[p.ID] = p.Clone()
	}
	return m
}

func (m *memoryProfiles) Fetch(_ context.Context, userID string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (m *memoryProfiles) Update(_ context.Context, userID string, patch domain.ProfilePatch) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	if !patch.IfUnmodifiedSince.IsZero() && !patch.IfUnmodifiedSince.Equal(p.UpdatedAt) {
		return nil, domain.ErrConflict
	}
	if patch.FirstName != nil {
		v := *patch.FirstName
		p.FirstName = &v
	}
	if patch.LastName != nil {
		v := *patch.LastName
		p.LastName = &v
	}
	p.UpdatedAt = p.UpdatedAt.Add(time.Millisecond)
	return p.Clone(), nil
}

func strPtr(s string) *string { return &s }

func adaProfile() *domain.Profile {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Profile{
		ID:        "u1",
		FirstName: strPtr("Ada"),
		LastName:  strPtr("Lovelace"),
		Email:     strPtr("ada@example.com"),
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

type testClient struct {
	dash     *service.Dashboard
	auth     *stubAuthService
	profiles *memoryProfiles
}

// newTestClient returns a started dashboard backed by a real dispatcher and
// identity client. It waits for the initial anonymous session.
func newTestClient(t *testing.T, auth *stubAuthService, profiles *memoryProfiles) *testClient {
	t.Helper()
	log := zerolog.Nop()

	dispatcher := queue.NewDispatcher(1, log)
	dispatcher.Start(context.Background())

	dash := service.NewDashboard("client-1", service.DashboardDeps{
		Identity:  identity.NewClient(auth, "", log),
		Profiles:  profiles,
		Scheduler: dispatcher.Scheduler("client-1"),
		Inbox:     notify.NewInbox(0),
		Log:       log,
	})
	ctx, cancel := context.WithCancel(context.Background())
	dash.Start(ctx)
	t.Cleanup(func() {
		cancel()
		dispatcher.Stop()
	})

	tc := &testClient{dash: dash, auth: auth, profiles: profiles}
	tc.waitSession(t, service.SessionSnapshot.Anonymous)
	return tc
}

func (tc *testClient) waitSession(t *testing.T, want func(service.SessionSnapshot) bool) {
	t.Helper()
	eventually(t, func() bool {
		snap, err := tc.dash.Session(context.Background())
		return err == nil && want(snap)
	})
}

func (tc *testClient) waitProfile(t *testing.T, status domain.SyncStatus) {
	t.Helper()
	eventually(t, func() bool {
		st, err := tc.dash.Profile(context.Background())
		return err == nil && st.Status == status
	})
}

// signIn signs the client in and waits for the profile to load.
func (tc *testClient) signIn(t *testing.T) {
	t.Helper()
	if _, err := tc.dash.SignIn(context.Background(), "ada@example.com", "correct-horse"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	tc.waitSession(t, service.SessionSnapshot.Authenticated)
	tc.waitProfile(t, domain.SyncReady)
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within deadline")
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// newContext builds a request context carrying dash, as the Client
// middleware would.
func newContext(e *echo.Echo, method, target, body string, dash *service.Dashboard) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if dash != nil {
		c.Set(middleware.ContextDashboard, dash)
	}
	return c, rec
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}
