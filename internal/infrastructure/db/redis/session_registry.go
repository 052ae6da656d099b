package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/account-dashboard/internal/core/domain"
)

// SessionRegistry implements ports.SessionRegistry backed by Redis.
// Key format: session:<session_id>, a hash that expires with the session.
type SessionRegistry struct {
	client *redis.Client
	now    func() time.Time
}

// NewSessionRegistry creates a SessionRegistry wrapping the given Redis client.
func NewSessionRegistry(client *redis.Client) *SessionRegistry {
	return &SessionRegistry{client: client, now: time.Now}
}

// Save records session until its expiry.
func (r *SessionRegistry) Save(ctx context.Context, session *domain.Session) error {
	ttl := session.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("save session %s: already expired", session.ID)
	}

	key := r.key(session.ID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"user_id", session.UserID,
			"email", session.Email,
			"created_at", session.CreatedAt.Unix(),
			"expires_at", session.ExpiresAt.Unix(),
		)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w: %w", domain.ErrTransient, err)
	}
	return nil
}

// Find returns the live session with id.
func (r *SessionRegistry) Find(ctx context.Context, id string) (*domain.Session, error) {
	var fields struct {
		UserID    string `redis:"user_id"`
		Email     string `redis:"email"`
		CreatedAt int64  `redis:"created_at"`
		ExpiresAt int64  `redis:"expires_at"`
	}

	res := r.client.HGetAll(ctx, r.key(id))
	if err := res.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w: %w", domain.ErrTransient, err)
	}
	if len(res.Val()) == 0 {
		return nil, domain.ErrSessionNotFound
	}
	if err := res.Scan(&fields); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}

	return &domain.Session{
		ID:        id,
		UserID:    fields.UserID,
		Email:     fields.Email,
		CreatedAt: time.Unix(fields.CreatedAt, 0).UTC(),
		ExpiresAt: time.Unix(fields.ExpiresAt, 0).UTC(),
	}, nil
}

// Revoke deletes the session. Revoking an unknown session is not an error.
func (r *SessionRegistry) Revoke(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("revoke session: %w: %w", domain.ErrTransient, err)
	}
	return nil
}

func (r *SessionRegistry) key(id string) string {
	return fmt.Sprintf("session:%s", id)
}
