package ports

import (
	"context"

	"github.com/99minutos/account-dashboard/internal/core/domain"
)

// AuthRepository defines the interface for user account persistence.
type AuthRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// Delete removes the account with id. Deleting an unknown account is not
	// an error.
	Delete(ctx context.Context, id string) error
}
