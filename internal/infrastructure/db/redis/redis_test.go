package redis

import (
	"context"
	"testing"
	"time"

	"github.com/99minutos/account-dashboard/internal/core/domain"
)

func TestConfigOptions_Defaults(t *testing.T) {
	opts := Config{Addr: "cache:6379", DB: 3}.options()

	if opts.Addr != "cache:6379" || opts.DB != 3 {
		t.Fatalf("unexpected address: %s/%d", opts.Addr, opts.DB)
	}
	if opts.ReadTimeout != defaultOpTimeout || opts.WriteTimeout != defaultOpTimeout {
		t.Fatalf("expected default op timeout, got %v/%v", opts.ReadTimeout, opts.WriteTimeout)
	}
	if !opts.ContextTimeoutEnabled {
		t.Fatalf("context deadlines must bound commands")
	}
}

func TestConfigOptions_Overrides(t *testing.T) {
	opts := Config{Addr: "cache:6379", Password: "pw", PoolSize: 32, OpTimeout: time.Second}.options()

	if opts.Password != "pw" || opts.PoolSize != 32 || opts.ReadTimeout != time.Second {
		t.Fatalf("overrides not applied: %+v", opts)
	}
}

func TestSessionRegistry_SaveRejectsExpired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r := &SessionRegistry{now: func() time.Time { return now }}

	err := r.Save(context.Background(), &domain.Session{ID: "s1", ExpiresAt: now.Add(-time.Second)})
	if err == nil {
		t.Fatalf("expected error for an expired session")
	}
}

func TestSessionRegistry_Key(t *testing.T) {
	r := NewSessionRegistry(nil)
	if got := r.key("abc"); got != "session:abc" {
		t.Fatalf("unexpected key %q", got)
	}
}
