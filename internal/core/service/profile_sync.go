package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/account-dashboard/internal/core/domain"
	"github.com/99minutos/account-dashboard/internal/core/ports"
	"github.com/99minutos/account-dashboard/internal/pkg/metrics"
	"github.com/99minutos/account-dashboard/pkg/logger"
)

// ProfileSyncController keeps one client's cached profile in step with its
// session. It is not safe for concurrent use; every method, and every
// continuation it schedules, runs on the client's event loop.
//
// Each fetch is tagged with the generation current when it started. Session
// changes, sign-out and retries advance the generation, so a fetch that
// completes late is dropped instead of overwriting newer state.
type ProfileSyncController struct {
	repo     ports.ProfileRepository
	sched    ports.Scheduler
	notifier ports.Notifier
	log      zerolog.Logger

	state      domain.SyncState
	generation uint64
	userID     string
	observers  []func(domain.SyncState)
}

// NewProfileSyncController returns an idle controller.
func NewProfileSyncController(
	repo ports.ProfileRepository,
	sched ports.Scheduler,
	notifier ports.Notifier,
	log zerolog.Logger,
) *ProfileSyncController {
	return &ProfileSyncController{
		repo:     repo,
		sched:    sched,
		notifier: notifier,
		log:      logger.Component(log, "profile_sync"),
		state:    domain.Idle(),
	}
}

// State returns a copy of the current sync state.
func (c *ProfileSyncController) State() domain.SyncState {
	return c.state.Clone()
}

// Generation returns the current fetch generation.
func (c *ProfileSyncController) Generation() uint64 {
	return c.generation
}

// Subscribe registers fn to receive every state change.
func (c *ProfileSyncController) Subscribe(fn func(domain.SyncState)) {
	c.observers = append(c.observers, fn)
}

// HandleSession reacts to a SessionStore change.
func (c *ProfileSyncController) HandleSession(snap SessionSnapshot) {
	switch {
	case snap.Status == domain.SessionPending:
		return
	case snap.Session == nil:
		c.generation++
		c.userID = ""
		c.setState(domain.Idle())
	case snap.Session.UserID == c.userID && c.state.Status != domain.SyncIdle:
		// Token refresh for the identity already loaded or loading.
		return
	default:
		c.startFetch(snap.Session.UserID)
	}
}

// Retry re-runs the fetch for the current identity under a new generation.
func (c *ProfileSyncController) Retry() error {
	if c.userID == "" {
		return domain.ErrInvalidState
	}
	c.startFetch(c.userID)
	return nil
}

// ApplyUpdate replaces the cached profile with a freshly written one. It is
// valid only from Ready or Error and only for the current identity.
func (c *ProfileSyncController) ApplyUpdate(p *domain.Profile) error {
	if p == nil || !c.state.Status.AcceptsUpdate() || p.ID != c.userID {
		return domain.ErrInvalidState
	}
	c.setState(domain.Ready(p))
	return nil
}

func (c *ProfileSyncController) startFetch(userID string) {
	c.generation++
	gen := c.generation
	c.userID = userID
	c.setState(domain.Loading())

	c.sched.Go(func(ctx context.Context) func() {
		start := time.Now()
		p, err := c.repo.Fetch(ctx, userID)
		metrics.ProfileFetchDuration.Observe(time.Since(start).Seconds())
		return func() { c.completeFetch(gen, userID, p, err) }
	})
}

func (c *ProfileSyncController) completeFetch(gen uint64, userID string, p *domain.Profile, err error) {
	if gen != c.generation {
		metrics.ProfileFetchesTotal.WithLabelValues("stale").Inc()
		c.log.Debug().
			Uint64("generation", gen).
			Uint64("current", c.generation).
			Str("user_id", userID).
			Msg("stale profile fetch dropped")
		return
	}

	switch {
	case err == nil && p != nil && p.ID == userID:
		metrics.ProfileFetchesTotal.WithLabelValues("ok").Inc()
		c.setState(domain.Ready(p))
	case errors.Is(err, domain.ErrProfileNotFound):
		metrics.ProfileFetchesTotal.WithLabelValues("not_found").Inc()
		c.log.Error().Str("user_id", userID).Msg("no profile for authenticated user")
		c.setState(domain.Failed(domain.FailureNoProfile))
		c.notifier.Notify(domain.Failure("No profile exists for this account.", err))
	default:
		if err == nil {
			err = errors.New("profile store returned a mismatched record")
		}
		metrics.ProfileFetchesTotal.WithLabelValues("failed").Inc()
		c.log.Warn().Err(err).Str("user_id", userID).Msg("profile fetch failed")
		c.setState(domain.Failed(domain.FailureFetchFailed))
		c.notifier.Notify(domain.Failure("Could not load your profile.", err))
	}
}

func (c *ProfileSyncController) setState(s domain.SyncState) {
	c.state = s
	for _, fn := range c.observers {
		fn(s.Clone())
	}
}
