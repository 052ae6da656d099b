package ports

import "github.com/99minutos/account-dashboard/internal/core/domain"

// Router is the navigation state of one client.
type Router interface {
	Current() domain.View
	Navigate(to domain.View)
}
