// Package notify holds the notification sinks of the dashboard.
package notify

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/99minutos/account-dashboard/internal/core/domain"
	"github.com/99minutos/account-dashboard/pkg/logger"
)

const defaultInboxCapacity = 32

// LogNotifier writes every notification to the log.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: logger.Component(log, "notifier")}
}

func (n *LogNotifier) Notify(note domain.Notification) {
	ev := n.log.Info()
	if note.Kind == domain.NotifyError {
		ev = n.log.Warn().Str("cause", string(note.Cause))
	}
	ev.Str("kind", string(note.Kind)).Msg(note.Message)
}

// Inbox buffers one client's notifications until the client drains them.
// When full, the oldest notification is discarded. Safe for concurrent use.
type Inbox struct {
	mu       sync.Mutex
	items    []domain.Notification
	capacity int
	dropped  int
}

// NewInbox returns an inbox holding at most capacity notifications. A
// non-positive capacity uses the default.
func NewInbox(capacity int) *Inbox {
	if capacity <= 0 {
		capacity = defaultInboxCapacity
	}
	return &Inbox{capacity: capacity}
}

func (b *Inbox) Notify(n domain.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.items) == b.capacity {
		b.items = b.items[1:]
		b.dropped++
	}
	b.items = append(b.items, n)
}

// Drain returns the buffered notifications oldest first and empties the inbox.
func (b *Inbox) Drain() []domain.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.items
	b.items = nil
	return out
}

// Dropped returns how many notifications were discarded because the inbox
// was full.
func (b *Inbox) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
