package ports

import (
	"context"

	"github.com/99minutos/account-dashboard/internal/core/domain"
)

// RegisterInput carries a new account and its initial profile names.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AuthService issues, validates and revokes sessions.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	// Validate returns the live session for token, or ErrSessionNotFound when
	// it was revoked or has expired.
	Validate(ctx context.Context, token string) (*domain.Session, error)
	// Refresh replaces the session behind token with a new one.
	Refresh(ctx context.Context, token string) (*domain.Session, error)
	SignOut(ctx context.Context, token string) error
}

// SessionRegistry stores issued sessions so they can be revoked before
// their tokens expire.
type SessionRegistry interface {
	Save(ctx context.Context, session *domain.Session) error
	Find(ctx context.Context, id string) (*domain.Session, error)
	Revoke(ctx context.Context, id string) error
}
