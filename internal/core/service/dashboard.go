package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/99minutos/account-dashboard/internal/core/domain"
	"github.com/99minutos/account-dashboard/internal/core/ports"
	"github.com/99minutos/account-dashboard/internal/pkg/metrics"
)

// DashboardDeps are the collaborators of one client's dashboard.
type DashboardDeps struct {
	Identity  ports.IdentityProvider
	Profiles  ports.ProfileRepository
	Scheduler ports.Scheduler
	// Notifier receives every notification; Inbox additionally buffers the
	// client's notifications until they are drained.
	Notifier ports.Notifier
	Inbox    ports.Inbox
	Log      zerolog.Logger
}

// EditView is a snapshot of the edit dialog.
type EditView struct {
	State       domain.EditState
	Draft       domain.EditDraft
	LastFailure domain.FailureKind
}

// Dashboard wires the session, sync, navigation and edit components of one
// connected client. Component state is only touched on the client's event
// loop; the exported methods marshal onto it and wait.
type Dashboard struct {
	id       string
	identity ports.IdentityProvider
	sched    ports.Scheduler
	inbox    ports.Inbox
	notify   func(domain.Notification)
	log      zerolog.Logger

	sessions *SessionStore
	sync     *ProfileSyncController
	guard    *NavigationGuard
	edit     *ProfileEditSession
	views    *viewRouter
}

// NewDashboard builds a dashboard for clientID. Call Start to attach it to
// the identity feed.
func NewDashboard(clientID string, deps DashboardDeps) *Dashboard {
	log := deps.Log.With().Str("client_id", clientID).Logger()
	d := &Dashboard{
		id:       clientID,
		identity: deps.Identity,
		sched:    deps.Scheduler,
		inbox:    deps.Inbox,
		log:      log,
		views:    &viewRouter{current: domain.ViewLanding},
	}
	d.notify = func(n domain.Notification) {
		metrics.NotificationsTotal.WithLabelValues(string(n.Kind)).Inc()
		if deps.Notifier != nil {
			deps.Notifier.Notify(n)
		}
		if deps.Inbox != nil {
			deps.Inbox.Notify(n)
		}
	}
	sink := notifierFunc(d.notify)

	d.sessions = NewSessionStore(log)
	d.sync = NewProfileSyncController(deps.Profiles, deps.Scheduler, sink, log)
	d.guard = NewNavigationGuard(d.views, log)
	d.edit = NewProfileEditSession(deps.Profiles, d.sync, deps.Scheduler, sink, log)
	d.sessions.Subscribe(d.onSessionChange)
	return d
}

// ID returns the client identifier.
func (d *Dashboard) ID() string { return d.id }

// Start forwards the identity feed onto the event loop until ctx is done.
func (d *Dashboard) Start(ctx context.Context) {
	feed := d.identity.Subscribe(ctx)
	go func() {
		for s := range feed {
			d.sched.Post(func() { d.sessions.Apply(s) })
		}
	}()
}

func (d *Dashboard) onSessionChange(snap SessionSnapshot) {
	gen := d.sync.Generation()
	d.sync.HandleSession(snap)
	if d.sync.Generation() != gen && d.edit.State() == domain.EditOpen {
		// The draft belonged to the previous identity.
		_ = d.edit.Cancel()
	}
	d.guard.React(snap)
}

// Call runs fn on the event loop and waits for it to return.
func (d *Dashboard) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	d.sched.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func call[T any](ctx context.Context, d *Dashboard, fn func() (T, error)) (T, error) {
	var (
		out T
		err error
	)
	if cerr := d.Call(ctx, func() { out, err = fn() }); cerr != nil {
		var zero T
		return zero, cerr
	}
	return out, err
}

// Session returns the client's session snapshot.
func (d *Dashboard) Session(ctx context.Context) (SessionSnapshot, error) {
	return call(ctx, d, func() (SessionSnapshot, error) {
		return d.sessions.Snapshot(), nil
	})
}

// Navigate records the view the client is on and evaluates the guard. The
// returned view is where the client should be after the decision.
func (d *Dashboard) Navigate(ctx context.Context, current domain.View) (Decision, domain.View, error) {
	type result struct {
		decision Decision
		view     domain.View
	}
	r, err := call(ctx, d, func() (result, error) {
		if current.Known() {
			d.views.Navigate(current)
		}
		dec := d.guard.React(d.sessions.Snapshot())
		return result{decision: dec, view: d.views.Current()}, nil
	})
	return r.decision, r.view, err
}

// Profile returns the current sync state.
func (d *Dashboard) Profile(ctx context.Context) (domain.SyncState, error) {
	return call(ctx, d, func() (domain.SyncState, error) {
		return d.sync.State(), nil
	})
}

// Reload manually retries the profile fetch.
func (d *Dashboard) Reload(ctx context.Context) error {
	_, err := call(ctx, d, func() (struct{}, error) {
		return struct{}{}, d.sync.Retry()
	})
	return err
}

// OpenEdit opens the edit dialog over the loaded profile.
func (d *Dashboard) OpenEdit(ctx context.Context) (EditView, error) {
	return call(ctx, d, func() (EditView, error) {
		st := d.sync.State()
		if st.Status != domain.SyncReady {
			return d.editView(), domain.ErrInvalidState
		}
		err := d.edit.Open(st.Profile)
		return d.editView(), err
	})
}

// EditField changes one draft field.
func (d *Dashboard) EditField(ctx context.Context, field domain.ProfileField, value string) (EditView, error) {
	return call(ctx, d, func() (EditView, error) {
		err := d.edit.Edit(field, value)
		return d.editView(), err
	})
}

// SubmitEdit starts writing the draft. The outcome arrives asynchronously
// through the edit state and the notification inbox.
func (d *Dashboard) SubmitEdit(ctx context.Context) (EditView, error) {
	return call(ctx, d, func() (EditView, error) {
		err := d.edit.Submit()
		return d.editView(), err
	})
}

// CancelEdit discards the draft.
func (d *Dashboard) CancelEdit(ctx context.Context) (EditView, error) {
	return call(ctx, d, func() (EditView, error) {
		err := d.edit.Cancel()
		return d.editView(), err
	})
}

// Edit returns the edit dialog state.
func (d *Dashboard) Edit(ctx context.Context) (EditView, error) {
	return call(ctx, d, func() (EditView, error) {
		return d.editView(), nil
	})
}

func (d *Dashboard) editView() EditView {
	return EditView{State: d.edit.State(), Draft: d.edit.Draft(), LastFailure: d.edit.LastFailure()}
}

// SignIn authenticates the client. The new session reaches the components
// through the identity feed.
func (d *Dashboard) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	s, err := d.identity.SignIn(ctx, email, password)
	if err != nil {
		metrics.SessionEventsTotal.WithLabelValues("sign_in", "error").Inc()
		return nil, err
	}
	metrics.SessionEventsTotal.WithLabelValues("sign_in", "ok").Inc()
	return s, nil
}

// Refresh replaces the client's session with a new one for the same user.
func (d *Dashboard) Refresh(ctx context.Context) (*domain.Session, error) {
	s, err := d.identity.Refresh(ctx)
	if err != nil {
		metrics.SessionEventsTotal.WithLabelValues("refresh", "error").Inc()
		return nil, err
	}
	metrics.SessionEventsTotal.WithLabelValues("refresh", "ok").Inc()
	return s, nil
}

// SignOut ends the client's session and reports the outcome to the sink.
func (d *Dashboard) SignOut(ctx context.Context) error {
	if err := d.identity.SignOut(ctx); err != nil {
		metrics.SessionEventsTotal.WithLabelValues("sign_out", "error").Inc()
		d.log.Warn().Err(err).Msg("sign-out failed")
		d.notify(domain.Failure("Sign-out failed. Please try again.", err))
		return err
	}
	metrics.SessionEventsTotal.WithLabelValues("sign_out", "ok").Inc()
	d.notify(domain.Success("Signed out."))
	return nil
}

// Notifications drains the client's pending notifications.
func (d *Dashboard) Notifications() []domain.Notification {
	if d.inbox == nil {
		return nil
	}
	return d.inbox.Drain()
}

// viewRouter is the per-client ports.Router.
type viewRouter struct {
	current domain.View
}

func (r *viewRouter) Current() domain.View    { return r.current }
func (r *viewRouter) Navigate(to domain.View) { r.current = to }

type notifierFunc func(domain.Notification)

func (f notifierFunc) Notify(n domain.Notification) { f(n) }
