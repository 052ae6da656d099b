package service

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/99minutos/account-dashboard/internal/core/domain"
)

type recordingRouter struct {
	current   domain.View
	navigated []domain.View
}

func (r *recordingRouter) Current() domain.View { return r.current }

func (r *recordingRouter) Navigate(to domain.View) {
	r.current = to
	r.navigated = append(r.navigated, to)
}

func TestDecide(t *testing.T) {
	signedIn := settled(testSession("s1", "u1"))
	signedOut := settled(nil)
	pending := SessionSnapshot{Status: domain.SessionPending}

	cases := []struct {
		name    string
		snap    SessionSnapshot
		current domain.View
		want    Decision
	}{
		{"pending on landing waits", pending, domain.ViewLanding, Decision{Wait: true}},
		{"pending on profile waits", pending, domain.ViewProfile, Decision{Wait: true}},
		{"signed in on landing goes to dashboard", signedIn, domain.ViewLanding, Decision{Redirect: true, Target: domain.ViewDashboard}},
		{"signed in on profile stays", signedIn, domain.ViewProfile, Decision{}},
		{"signed out on dashboard goes to landing", signedOut, domain.ViewDashboard, Decision{Redirect: true, Target: domain.ViewLanding}},
		{"signed out on profile goes to landing", signedOut, domain.ViewProfile, Decision{Redirect: true, Target: domain.ViewLanding}},
		{"signed out on landing stays", signedOut, domain.ViewLanding, Decision{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Decide(tc.snap, tc.current); got != tc.want {
				t.Fatalf("Decide = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestNavigationGuard_ReactIsIdempotent(t *testing.T) {
	router := &recordingRouter{current: domain.ViewLanding}
	guard := NewNavigationGuard(router, zerolog.Nop())
	snap := settled(testSession("s1", "u1"))

	first := guard.React(snap)
	second := guard.React(snap)

	if !first.Redirect || first.Target != domain.ViewDashboard {
		t.Fatalf("expected redirect to dashboard, got %+v", first)
	}
	if second.Redirect {
		t.Fatalf("second reaction redirected again: %+v", second)
	}
	if len(router.navigated) != 1 {
		t.Fatalf("expected exactly one navigation, got %v", router.navigated)
	}
}

func TestNavigationGuard_PendingNeverRedirects(t *testing.T) {
	router := &recordingRouter{current: domain.ViewProfile}
	guard := NewNavigationGuard(router, zerolog.Nop())

	d := guard.React(SessionSnapshot{Status: domain.SessionPending})

	if !d.Wait || d.Redirect || len(router.navigated) != 0 {
		t.Fatalf("pending session caused navigation: %+v %v", d, router.navigated)
	}
}

func TestNavigationGuard_SignOutLeavesProtectedView(t *testing.T) {
	router := &recordingRouter{current: domain.ViewProfile}
	guard := NewNavigationGuard(router, zerolog.Nop())

	guard.React(settled(nil))

	if router.current != domain.ViewLanding {
		t.Fatalf("expected landing, got %s", router.current)
	}
}
