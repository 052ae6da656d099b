package domain

import "time"

// SessionStatus reports whether the identity provider has delivered its
// initial state yet.
type SessionStatus int

const (
	// SessionPending means no initial state has arrived. A nil session while
	// pending does not mean the visitor is anonymous.
	SessionPending SessionStatus = iota
	// SessionSettled means the current session value is authoritative.
	SessionSettled
)

func (s SessionStatus) String() string {
	if s == SessionSettled {
		return "settled"
	}
	return "pending"
}

// Session is the cached, read-only copy of an authenticated identity issued
// by the identity provider. A refresh produces a new Session (new ID and
// token); fields are never updated in place.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"-"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the session is past its expiry at now.
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// SameIdentity reports whether s and other denote the same issued session.
// Two nil sessions are the same; a nil and a non-nil one are not.
func (s *Session) SameIdentity(other *Session) bool {
	if s == nil || other == nil {
		return s == nil && other == nil
	}
	return s.ID == other.ID
}

// Clone returns a copy of s, or nil.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
