package service

import (
	"github.com/rs/zerolog"

	"github.com/99minutos/account-dashboard/internal/core/domain"
	"github.com/99minutos/account-dashboard/internal/core/ports"
	"github.com/99minutos/account-dashboard/internal/pkg/metrics"
	"github.com/99minutos/account-dashboard/pkg/logger"
)

// Decision is the outcome of evaluating the guard for one session state.
type Decision struct {
	// Wait is set while the session is pending; the client should render a
	// neutral waiting state.
	Wait     bool
	Redirect bool
	Target   domain.View
}

// Decide maps a session snapshot and the active view to a navigation
// decision. It has no side effects.
func Decide(snap SessionSnapshot, current domain.View) Decision {
	switch {
	case snap.Status == domain.SessionPending:
		return Decision{Wait: true}
	case snap.Authenticated() && current == domain.ViewLanding:
		return Decision{Redirect: true, Target: domain.ViewDashboard}
	case snap.Anonymous() && current.AuthenticatedOnly():
		return Decision{Redirect: true, Target: domain.ViewLanding}
	default:
		return Decision{}
	}
}

// NavigationGuard applies Decide to a client's router on every session change.
type NavigationGuard struct {
	router ports.Router
	log    zerolog.Logger
}

func NewNavigationGuard(router ports.Router, log zerolog.Logger) *NavigationGuard {
	return &NavigationGuard{
		router: router,
		log:    logger.Component(log, "navigation_guard"),
	}
}

// React evaluates the guard and performs the redirect, if any. Redirecting
// to the view already active is a no-op.
func (g *NavigationGuard) React(snap SessionSnapshot) Decision {
	current := g.router.Current()
	d := Decide(snap, current)
	if !d.Redirect || d.Target == current {
		d.Redirect = false
		return d
	}

	g.router.Navigate(d.Target)
	metrics.RedirectsTotal.WithLabelValues(string(d.Target)).Inc()
	g.log.Debug().Str("from", string(current)).Str("to", string(d.Target)).Msg("redirect")
	return d
}
