package ports

import (
	"context"

	"github.com/99minutos/account-dashboard/internal/core/domain"
)

// ProfileRepository reads and writes the profile record of a user. It
// reports domain.ErrProfileNotFound, domain.ErrTransient and, for Update,
// domain.ErrConflict. It does not retry.
type ProfileRepository interface {
	Fetch(ctx context.Context, userID string) (*domain.Profile, error)
	// Update applies patch atomically and returns the stored profile with
	// the store's UpdatedAt.
	Update(ctx context.Context, userID string, patch domain.ProfilePatch) (*domain.Profile, error)
}

// ProfileProvisioner creates the profile record for a new account.
type ProfileProvisioner interface {
	Provision(ctx context.Context, profile *domain.Profile) error
}
