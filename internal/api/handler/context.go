package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/account-dashboard/internal/api/middleware"
	"github.com/99minutos/account-dashboard/internal/core/domain"
	"github.com/99minutos/account-dashboard/internal/core/service"
)

// ctxDashboard returns the dashboard injected by the Client middleware. Its
// absence means the route was registered without the middleware.
func ctxDashboard(c echo.Context) (*service.Dashboard, error) {
	dash, ok := c.Get(middleware.ContextDashboard).(*service.Dashboard)
	if !ok || dash == nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "client context missing")
	}
	return dash, nil
}

// signedOut is the state reported to callers the server has no dashboard for.
var signedOut = service.SessionSnapshot{Status: domain.SessionSettled}

// knownDashboard returns the dashboard attached by the KnownClient
// middleware, if any.
func knownDashboard(c echo.Context) (*service.Dashboard, bool) {
	dash, ok := c.Get(middleware.ContextDashboard).(*service.Dashboard)
	return dash, ok && dash != nil
}
