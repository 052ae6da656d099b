package service

import (
	"github.com/rs/zerolog"

	"github.com/99minutos/account-dashboard/internal/core/domain"
	"github.com/99minutos/account-dashboard/pkg/logger"
)

// SessionSnapshot is a point-in-time copy of a SessionStore.
type SessionSnapshot struct {
	Status  domain.SessionStatus
	Session *domain.Session
}

// Authenticated reports whether the snapshot is a settled, signed-in state.
func (s SessionSnapshot) Authenticated() bool {
	return s.Status == domain.SessionSettled && s.Session != nil
}

// Anonymous reports whether the snapshot is the authoritative signed-out state.
func (s SessionSnapshot) Anonymous() bool {
	return s.Status == domain.SessionSettled && s.Session == nil
}

// SessionStore holds the current session of one client. It is not safe for
// concurrent use; all calls happen on the client's event loop.
type SessionStore struct {
	current   *domain.Session
	status    domain.SessionStatus
	observers []*sessionObserver
	log       zerolog.Logger
}

type sessionObserver struct {
	fn func(SessionSnapshot)
}

// NewSessionStore returns a pending store with no session.
func NewSessionStore(log zerolog.Logger) *SessionStore {
	return &SessionStore{
		status: domain.SessionPending,
		log:    logger.Component(log, "session_store"),
	}
}

// Current returns a copy of the current session, or nil.
func (s *SessionStore) Current() *domain.Session {
	return s.current.Clone()
}

// Status reports whether the initial state has been received.
func (s *SessionStore) Status() domain.SessionStatus {
	return s.status
}

// Snapshot returns the status and session together.
func (s *SessionStore) Snapshot() SessionSnapshot {
	return SessionSnapshot{Status: s.status, Session: s.current.Clone()}
}

// Subscribe registers fn for change notifications and returns a function
// that removes it. Observers run in registration order.
func (s *SessionStore) Subscribe(fn func(SessionSnapshot)) (unsubscribe func()) {
	obs := &sessionObserver{fn: fn}
	s.observers = append(s.observers, obs)
	return func() {
		for i, o := range s.observers {
			if o == obs {
				s.observers = append(s.observers[:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// Apply records one value from the identity provider's feed. The first call
// settles the store and always notifies; later calls notify only when the
// session identity changes.
func (s *SessionStore) Apply(session *domain.Session) {
	settling := s.status == domain.SessionPending
	if !settling && s.current.SameIdentity(session) {
		return
	}

	s.status = domain.SessionSettled
	s.current = session.Clone()

	evt := s.log.Debug().Bool("settling", settling)
	if session != nil {
		evt = evt.Str("user_id", session.UserID).Str("session_id", session.ID)
	}
	evt.Msg("session changed")

	snap := s.Snapshot()
	for _, o := range append([]*sessionObserver(nil), s.observers...) {
		o.fn(snap)
	}
}
