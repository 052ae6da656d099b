package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/account-dashboard/internal/core/domain"
	"github.com/99minutos/account-dashboard/internal/core/ports"
	"github.com/99minutos/account-dashboard/internal/pkg/metrics"
	"github.com/99minutos/account-dashboard/pkg/logger"
)

const feedBuffer = 16

// Client is one connected client's handle on the identity provider. It holds
// the client's session token and publishes every change of session to its
// subscribers, including expiry.
type Client struct {
	auth      ports.AuthService
	bootstrap string
	log       zerolog.Logger

	mu      sync.Mutex
	settled bool
	current *domain.Session
	subs    map[*subscriber]struct{}
	expiry  *time.Timer
}

type subscriber struct {
	ch   chan *domain.Session
	done <-chan struct{}
}

// NewClient returns a client. A non-empty bootstrapToken is validated on the
// first Subscribe and, when still live, becomes the initial session.
func NewClient(auth ports.AuthService, bootstrapToken string, log zerolog.Logger) *Client {
	return &Client{
		auth:      auth,
		bootstrap: bootstrapToken,
		log:       logger.Component(log, "identity"),
		subs:      make(map[*subscriber]struct{}),
	}
}

// Current returns a copy of the session held right now, or nil.
func (c *Client) Current() *domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.Clone()
}

// Subscribe returns the session feed. The first value is the initial state,
// delivered once the bootstrap token has been checked. The channel is closed
// when ctx is done.
func (c *Client) Subscribe(ctx context.Context) <-chan *domain.Session {
	sub := &subscriber{ch: make(chan *domain.Session, feedBuffer), done: ctx.Done()}

	go func() {
		c.settle(ctx)

		c.mu.Lock()
		c.subs[sub] = struct{}{}
		sub.send(c.current.Clone())
		c.mu.Unlock()

		<-ctx.Done()

		c.mu.Lock()
		delete(c.subs, sub)
		close(sub.ch)
		if len(c.subs) == 0 && c.expiry != nil {
			c.expiry.Stop()
			c.expiry = nil
		}
		c.mu.Unlock()
	}()

	return sub.ch
}

// SignIn authenticates and replaces the held session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	s, err := c.auth.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if prev := c.Current(); prev != nil {
		if err := c.auth.SignOut(ctx, prev.Token); err != nil {
			c.log.Warn().Err(err).Str("session_id", prev.ID).Msg("revoke replaced session")
		}
	}

	c.publish(s)
	return s.Clone(), nil
}

// Refresh exchanges the held session for a new one. If the provider no
// longer knows the session, the client becomes anonymous.
func (c *Client) Refresh(ctx context.Context) (*domain.Session, error) {
	cur := c.Current()
	if cur == nil {
		return nil, domain.ErrSessionNotFound
	}

	s, err := c.auth.Refresh(ctx, cur.Token)
	if errors.Is(err, domain.ErrSessionNotFound) {
		c.publishIf(cur.ID, nil)
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	c.publish(s)
	return s.Clone(), nil
}

// SignOut revokes the held session. On failure the session is kept.
func (c *Client) SignOut(ctx context.Context) error {
	cur := c.Current()
	if cur == nil {
		return nil
	}

	err := c.auth.SignOut(ctx, cur.Token)
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return err
	}

	c.publishIf(cur.ID, nil)
	return nil
}

// settle resolves the bootstrap token once.
func (c *Client) settle(ctx context.Context) {
	c.mu.Lock()
	if c.settled {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	var initial *domain.Session
	if c.bootstrap != "" {
		s, err := c.auth.Validate(ctx, c.bootstrap)
		switch {
		case err == nil:
			initial = s
		case errors.Is(err, domain.ErrSessionNotFound):
			c.log.Debug().Msg("bootstrap token is not live")
		default:
			c.log.Warn().Err(err).Msg("bootstrap token validation failed")
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.settled {
		return
	}
	c.settled = true
	c.current = initial
	c.armExpiry(initial)
}

func (c *Client) publish(s *domain.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(s)
}

// publishIf publishes s only while the held session is still id.
func (c *Client) publishIf(id string, s *domain.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil || c.current.ID != id {
		return
	}
	c.setLocked(s)
}

// expire drops the held session when it is still id.
func (c *Client) expire(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil || c.current.ID != id {
		return
	}
	metrics.SessionEventsTotal.WithLabelValues("expire", "ok").Inc()
	c.log.Debug().Str("session_id", id).Msg("session expired")
	c.setLocked(nil)
}

func (c *Client) setLocked(s *domain.Session) {
	c.settled = true
	c.current = s.Clone()
	c.armExpiry(s)
	for sub := range c.subs {
		sub.send(s.Clone())
	}
}

func (c *Client) armExpiry(s *domain.Session) {
	if c.expiry != nil {
		c.expiry.Stop()
		c.expiry = nil
	}
	if s == nil || s.ExpiresAt.IsZero() {
		return
	}
	id := s.ID
	c.expiry = time.AfterFunc(time.Until(s.ExpiresAt), func() { c.expire(id) })
}

func (s *subscriber) send(v *domain.Session) {
	select {
	case s.ch <- v:
	case <-s.done:
	}
}
