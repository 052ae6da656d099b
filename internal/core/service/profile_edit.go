package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/99minutos/account-dashboard/internal/core/domain"
	"github.com/99minutos/account-dashboard/internal/core/ports"
	"github.com/99minutos/account-dashboard/internal/pkg/metrics"
	"github.com/99minutos/account-dashboard/pkg/logger"
)

// profileSink is the part of ProfileSyncController an edit writes back into.
type profileSink interface {
	ApplyUpdate(p *domain.Profile) error
	Generation() uint64
}

// ProfileEditSession is a single-instance edit dialog over one profile. It is
// not safe for concurrent use; calls and completions run on the client's
// event loop.
type ProfileEditSession struct {
	repo     ports.ProfileRepository
	sync     profileSink
	sched    ports.Scheduler
	notifier ports.Notifier
	log      zerolog.Logger

	state       domain.EditState
	base        *domain.Profile
	draft       domain.EditDraft
	lastFailure domain.FailureKind
}

func NewProfileEditSession(
	repo ports.ProfileRepository,
	sync profileSink,
	sched ports.Scheduler,
	notifier ports.Notifier,
	log zerolog.Logger,
) *ProfileEditSession {
	return &ProfileEditSession{
		repo:     repo,
		sync:     sync,
		sched:    sched,
		notifier: notifier,
		log:      logger.Component(log, "profile_edit"),
		state:    domain.EditClosed,
	}
}

// State returns the current edit state.
func (e *ProfileEditSession) State() domain.EditState {
	return e.state
}

// Draft returns a copy of the draft. It is the zero draft when closed.
func (e *ProfileEditSession) Draft() domain.EditDraft {
	return e.draft
}

// LastFailure returns the kind of the most recent failed submit since the
// edit was opened.
func (e *ProfileEditSession) LastFailure() domain.FailureKind {
	return e.lastFailure
}

// Open starts an edit of p.
func (e *ProfileEditSession) Open(p *domain.Profile) error {
	if p == nil || e.state != domain.EditClosed {
		return domain.ErrInvalidState
	}
	e.base = p.Clone()
	e.draft = domain.NewEditDraft(p)
	e.lastFailure = ""
	e.state = domain.EditOpen
	return nil
}

// Edit sets one draft field. Email is read-only.
func (e *ProfileEditSession) Edit(field domain.ProfileField, value string) error {
	if e.state != domain.EditOpen {
		return domain.ErrInvalidState
	}
	return e.draft.Set(field, value)
}

// Cancel discards the draft.
func (e *ProfileEditSession) Cancel() error {
	if e.state != domain.EditOpen {
		return domain.ErrInvalidState
	}
	e.close()
	return nil
}

// Submit writes the draft through the repository. The outcome is applied
// when the write completes.
func (e *ProfileEditSession) Submit() error {
	if !e.state.CanTransitionTo(domain.EditSubmitting) {
		return domain.ErrInvalidState
	}
	e.state = domain.EditSubmitting

	gen := e.sync.Generation()
	userID := e.base.ID
	patch := e.draft.Patch(e.base)

	e.sched.Go(func(ctx context.Context) func() {
		p, err := e.repo.Update(ctx, userID, patch)
		return func() { e.completeSubmit(gen, p, err) }
	})
	return nil
}

func (e *ProfileEditSession) completeSubmit(gen uint64, p *domain.Profile, err error) {
	if e.state != domain.EditSubmitting {
		return
	}

	if gen != e.sync.Generation() {
		// The session this draft belongs to is gone or was reloaded.
		metrics.ProfileUpdatesTotal.WithLabelValues(string(domain.KindSessionEnded)).Inc()
		e.log.Warn().Uint64("generation", gen).Msg("profile update completed after session change; not applied")
		e.close()
		e.notifier.Notify(domain.Failure("Your session changed before the profile update finished. Please review your profile.", domain.ErrSessionEnded))
		return
	}

	if err == nil {
		err = e.sync.ApplyUpdate(p)
	}
	if err != nil {
		kind := domain.Classify(err)
		metrics.ProfileUpdatesTotal.WithLabelValues(string(kind)).Inc()
		e.log.Warn().Err(err).Str("kind", string(kind)).Msg("profile update failed")
		e.state = domain.EditOpen
		e.lastFailure = kind
		e.notifier.Notify(domain.Failure(updateFailureMessage(kind), err))
		return
	}

	metrics.ProfileUpdatesTotal.WithLabelValues("ok").Inc()
	e.close()
	e.notifier.Notify(domain.Success("Profile updated."))
}

func (e *ProfileEditSession) close() {
	e.state = domain.EditClosed
	e.base = nil
	e.draft = domain.EditDraft{}
}

func updateFailureMessage(kind domain.FailureKind) string {
	switch kind {
	case domain.KindConflict:
		return "Your profile was changed elsewhere. Reload it and try again."
	case domain.KindNotFound:
		return "Your profile no longer exists."
	case domain.KindAuthFailure:
		return "Your session is no longer valid. Please sign in again."
	default:
		return "Could not save your profile. Please try again."
	}
}
