package ports

import "github.com/99minutos/account-dashboard/internal/core/domain"

// Notifier receives outcome notifications. Implementations must not block.
type Notifier interface {
	Notify(n domain.Notification)
}

// Inbox is a Notifier that buffers notifications until they are drained.
type Inbox interface {
	Notifier
	Drain() []domain.Notification
}
