package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/99minutos/account-dashboard/internal/core/domain"
	"github.com/99minutos/account-dashboard/internal/core/service"
)

const (
	// ClientCookie identifies the connected client across requests.
	ClientCookie = "dashboard_client"

	ContextDashboard = "dashboard"
	ContextClientID  = "client_id"
)

// ClientRegistry hands out the dashboard of a client.
type ClientRegistry interface {
	Acquire(clientID, bootstrapToken string) *service.Dashboard
	Lookup(clientID string) (*service.Dashboard, bool)
}

// Client attaches the caller's dashboard to the context, creating it when
// needed. Callers without a valid client cookie get a new client ID. A bearer
// token presented on the request that creates the dashboard becomes its
// initial session. Only sign-in routes use it.
func Client(registry ClientRegistry, secureCookie bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, _ := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			attach(c, registry, ensureClientID(c, secureCookie), token)
			return next(c)
		}
	}
}

// KnownClient attaches the dashboard of an already known client. A caller
// with an unknown or missing cookie only gets a dashboard when it presents a
// bearer token to restore; otherwise the request continues without one and
// is answered as signed out.
func KnownClient(registry ClientRegistry, secureCookie bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if id := cookieClientID(c); id != "" {
				if dash, ok := registry.Lookup(id); ok {
					c.Set(ContextClientID, id)
					c.Set(ContextDashboard, dash)
					return next(c)
				}
			}

			if token, ok := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization)); ok {
				attach(c, registry, ensureClientID(c, secureCookie), token)
			}
			return next(c)
		}
	}
}

func attach(c echo.Context, registry ClientRegistry, clientID, token string) {
	dash := registry.Acquire(clientID, token)
	c.Set(ContextClientID, clientID)
	c.Set(ContextDashboard, dash)
}

func cookieClientID(c echo.Context) string {
	ck, err := c.Cookie(ClientCookie)
	if err != nil {
		return ""
	}
	id, err := uuid.Parse(ck.Value)
	if err != nil {
		return ""
	}
	return id.String()
}

// ensureClientID returns the cookie's client ID, issuing a new one when the
// cookie is missing or malformed.
func ensureClientID(c echo.Context, secureCookie bool) string {
	if id := cookieClientID(c); id != "" {
		return id
	}
	id := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     ClientCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// RequireSession rejects callers without a dashboard or whose dashboard has
// no session. While the session is still being resolved the caller is asked
// to retry.
func RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			dash, ok := c.Get(ContextDashboard).(*service.Dashboard)
			if !ok || dash == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
			}

			snap, err := dash.Session(c.Request().Context())
			if err != nil {
				return err
			}
			if snap.Status == domain.SessionPending {
				c.Response().Header().Set("Retry-After", "1")
				return echo.NewHTTPError(http.StatusServiceUnavailable, "session is still loading")
			}
			if snap.Session == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
			}
			return next(c)
		}
	}
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
