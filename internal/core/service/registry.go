package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/account-dashboard/internal/pkg/metrics"
	"github.com/99minutos/account-dashboard/pkg/logger"
)

const (
	// DefaultIdleTTL is how long a client may go unseen before its dashboard
	// is evicted.
	DefaultIdleTTL         = 30 * time.Minute
	defaultJanitorInterval = time.Minute
)

// DashboardFactory builds the dashboard for a newly seen client. The
// bootstrap token, when non-empty, is the session token the client presented
// on first contact.
type DashboardFactory func(clientID, bootstrapToken string) *Dashboard

type registryEntry struct {
	dash     *Dashboard
	cancel   context.CancelFunc
	lastSeen time.Time
}

// Registry owns the dashboards of connected clients. Safe for concurrent use.
type Registry struct {
	factory    DashboardFactory
	idleTTL    time.Duration
	maxClients int
	log     zerolog.Logger
	now     func() time.Time

	mu      sync.Mutex
	clients map[string]*registryEntry

	stopChan chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithMaxClients bounds the number of attached clients. When full, attaching
// a new client evicts the one seen least recently. Zero means unbounded.
func WithMaxClients(n int) RegistryOption {
	return func(r *Registry) { r.maxClients = n }
}

// NewRegistry creates a registry. A non-positive idleTTL uses DefaultIdleTTL.
func NewRegistry(factory DashboardFactory, idleTTL time.Duration, log zerolog.Logger, opts ...RegistryOption) *Registry {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	r := &Registry{
		factory:  factory,
		idleTTL:  idleTTL,
		log:      logger.Component(log, "registry"),
		now:      time.Now,
		clients:  make(map[string]*registryEntry),
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Acquire returns the dashboard for clientID, creating and starting it on
// first contact. The token is only used when the dashboard is created.
func (r *Registry) Acquire(clientID, bootstrapToken string) *Dashboard {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.clients[clientID]; ok {
		e.lastSeen = r.now()
		return e.dash
	}

	if r.maxClients > 0 && len(r.clients) >= r.maxClients {
		r.evictOldestLocked()
	}

	ctx, cancel := context.WithCancel(context.Background())
	dash := r.factory(clientID, bootstrapToken)
	dash.Start(ctx)

	r.clients[clientID] = &registryEntry{dash: dash, cancel: cancel, lastSeen: r.now()}
	metrics.ActiveClients.Inc()
	r.log.Debug().Str("client_id", clientID).Bool("bootstrap", bootstrapToken != "").Msg("client attached")
	return dash
}

// Lookup returns the dashboard for clientID without creating one.
func (r *Registry) Lookup(clientID string) (*Dashboard, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.clients[clientID]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.dash, true
}

// Remove stops and forgets the dashboard for clientID.
func (r *Registry) Remove(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(clientID)
}

func (r *Registry) removeLocked(clientID string) {
	e, ok := r.clients[clientID]
	if !ok {
		return
	}
	e.cancel()
	delete(r.clients, clientID)
	metrics.ActiveClients.Dec()
}

// Len returns the number of attached clients.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// StartJanitor evicts idle clients every interval until ctx is done or Stop
// is called. A non-positive interval uses one minute.
func (r *Registry) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultJanitorInterval
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stopChan:
				return
			case <-ticker.C:
				r.evictIdle()
			}
		}
	}()
}

func (r *Registry) evictIdle() {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idleTTL)
	evicted := 0
	for id, e := range r.clients {
		if e.lastSeen.Before(cutoff) {
			r.removeLocked(id)
			evicted++
		}
	}
	if evicted > 0 {
		r.log.Debug().Int("count", evicted).Msg("evicted idle clients")
	}
}

func (r *Registry) evictOldestLocked() {
	oldest := ""
	var seen time.Time
	for id, e := range r.clients {
		if oldest == "" || e.lastSeen.Before(seen) {
			oldest, seen = id, e.lastSeen
		}
	}
	if oldest != "" {
		r.removeLocked(oldest)
		r.log.Debug().Str("client_id", oldest).Msg("evicted least recently seen client at capacity")
	}
}

// Stop halts the janitor and detaches every client. Safe to call more than
// once.
func (r *Registry) Stop() {
	r.once.Do(func() {
		close(r.stopChan)
	})
	r.wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.clients {
		r.removeLocked(id)
	}
}
