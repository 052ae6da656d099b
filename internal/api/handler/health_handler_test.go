package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestHealthHandler_Liveness(t *testing.T) {
	e := newTestEcho()
	h := NewHealthHandler(nil)

	c, rec := newContext(e, http.MethodGet, "/health", "", nil)
	if err := h.Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	e := newTestEcho()
	ok := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("connection refused") })

	t.Run("all healthy", func(t *testing.T) {
		h := NewHealthHandler(map[string]Pinger{"mongo": ok, "redis": ok})
		c, rec := newContext(e, http.MethodGet, "/health/ready", "", nil)
		_ = h.Readiness(c)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("one down", func(t *testing.T) {
		h := NewHealthHandler(map[string]Pinger{"mongo": ok, "redis": down})
		c, rec := newContext(e, http.MethodGet, "/health/ready", "", nil)
		_ = h.Readiness(c)

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
		resp := decode[readinessResponse](t, rec.Body.Bytes())
		if resp.Status != "degraded" || resp.Dependencies["redis"].Error != "connection refused" || resp.Dependencies["mongo"].Status != "ok" {
			t.Fatalf("unexpected payload: %+v", resp)
		}
	})
}
