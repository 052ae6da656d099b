package ports

import (
	"context"

	"github.com/99minutos/account-dashboard/internal/core/domain"
)

// IdentityProvider is one client's view of the identity provider.
type IdentityProvider interface {
	// Current returns the session the provider holds right now, or nil.
	Current() *domain.Session
	// Subscribe returns the change feed. Values arrive in emission order; a
	// nil value means no session. The first value delivered is the
	// provider's initial state. The channel is closed when ctx is done.
	Subscribe(ctx context.Context) <-chan *domain.Session
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	Refresh(ctx context.Context) (*domain.Session, error)
	SignOut(ctx context.Context) error
}
