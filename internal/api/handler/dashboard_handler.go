package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/account-dashboard/internal/core/domain"
	"github.com/99minutos/account-dashboard/internal/core/service"
)

// DashboardHandler exposes the navigation, profile and edit state of the
// calling client.
type DashboardHandler struct{}

func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{}
}

// View reports where the client should be for the view it is on.
//
// @Summary      Evaluate navigation
// @Tags         navigation
// @Produce      json
// @Param        current  query     string  false  "View the client is on"  Enums(/, /dashboard, /dashboard/profile)
// @Success      200      {object}  viewResponse
// @Failure      400      {object}  errorResponse
// @Router       /view [get]
func (h *DashboardHandler) View(c echo.Context) error {
	current := domain.View(c.QueryParam("current"))
	if current == "" {
		current = domain.ViewLanding
	}
	if !current.Known() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown view")
	}

	dash, ok := knownDashboard(c)
	if !ok {
		decision := service.Decide(signedOut, current)
		view := current
		if decision.Redirect {
			view = decision.Target
		}
		return c.JSON(http.StatusOK, viewResponse{Redirect: decision.Redirect, View: string(view)})
	}

	decision, view, err := dash.Navigate(c.Request().Context(), current)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, viewResponse{
		Wait:     decision.Wait,
		Redirect: decision.Redirect,
		View:     string(view),
	})
}

// Profile returns the profile synchronization state.
//
// @Summary      Profile state
// @Tags         profile
// @Produce      json
// @Success      200  {object}  syncStateResponse
// @Failure      401  {object}  errorResponse
// @Router       /profile [get]
func (h *DashboardHandler) Profile(c echo.Context) error {
	dash, err := ctxDashboard(c)
	if err != nil {
		return err
	}

	st, err := dash.Profile(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSyncStateResponse(st))
}

// Reload fetches the profile again.
//
// @Summary      Reload the profile
// @Tags         profile
// @Produce      json
// @Success      202  {object}  syncStateResponse
// @Failure      401  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /profile/reload [post]
func (h *DashboardHandler) Reload(c echo.Context) error {
	dash, err := ctxDashboard(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := dash.Reload(ctx); err != nil {
		return err
	}
	st, err := dash.Profile(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, toSyncStateResponse(st))
}

// Edit returns the edit dialog.
//
// @Summary      Edit state
// @Tags         profile
// @Produce      json
// @Success      200  {object}  editResponse
// @Failure      401  {object}  errorResponse
// @Router       /profile/edit [get]
func (h *DashboardHandler) Edit(c echo.Context) error {
	dash, err := ctxDashboard(c)
	if err != nil {
		return err
	}

	v, err := dash.Edit(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEditResponse(v))
}

// OpenEdit opens the edit dialog over the loaded profile.
//
// @Summary      Open the edit dialog
// @Tags         profile
// @Produce      json
// @Success      200  {object}  editResponse
// @Failure      401  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /profile/edit [post]
func (h *DashboardHandler) OpenEdit(c echo.Context) error {
	dash, err := ctxDashboard(c)
	if err != nil {
		return err
	}

	v, err := dash.OpenEdit(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEditResponse(v))
}

// EditField changes one field of the draft.
//
// @Summary      Edit a draft field
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        body  body      editFieldRequest  true  "Field and value"
// @Success      200   {object}  editResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /profile/edit [patch]
func (h *DashboardHandler) EditField(c echo.Context) error {
	var req editFieldRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	dash, err := ctxDashboard(c)
	if err != nil {
		return err
	}

	v, err := dash.EditField(c.Request().Context(), domain.ProfileField(req.Field), req.Value)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEditResponse(v))
}

// SubmitEdit starts saving the draft. The outcome shows up in the edit
// state and in the notifications.
//
// @Summary      Submit the draft
// @Tags         profile
// @Produce      json
// @Success      202  {object}  editResponse
// @Failure      409  {object}  errorResponse
// @Router       /profile/edit/submit [post]
func (h *DashboardHandler) SubmitEdit(c echo.Context) error {
	dash, err := ctxDashboard(c)
	if err != nil {
		return err
	}

	v, err := dash.SubmitEdit(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, toEditResponse(v))
}

// CancelEdit discards the draft.
//
// @Summary      Cancel the edit
// @Tags         profile
// @Produce      json
// @Success      200  {object}  editResponse
// @Failure      409  {object}  errorResponse
// @Router       /profile/edit [delete]
func (h *DashboardHandler) CancelEdit(c echo.Context) error {
	dash, err := ctxDashboard(c)
	if err != nil {
		return err
	}

	v, err := dash.CancelEdit(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEditResponse(v))
}

// Notifications drains the client's pending notifications.
//
// @Summary      Drain notifications
// @Tags         notifications
// @Produce      json
// @Success      200  {object}  notificationsResponse
// @Router       /notifications [get]
func (h *DashboardHandler) Notifications(c echo.Context) error {
	dash, ok := knownDashboard(c)
	if !ok {
		return c.JSON(http.StatusOK, toNotificationsResponse(nil))
	}
	return c.JSON(http.StatusOK, toNotificationsResponse(dash.Notifications()))
}
