package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/account-dashboard/internal/core/domain"
	"github.com/99minutos/account-dashboard/internal/core/ports"
)

// AuthHandler handles account registration and the session lifecycle of
// the calling client.
type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new account and its profile.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// Login signs the calling client in. The profile starts loading in the
// background; poll GET /profile for its state.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
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

	session, err := dash.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tokenResponse{Token: session.Token, Session: toSessionResponse(session)})
}

// Refresh replaces the client's session with a new one.
//
// @Summary      Refresh the session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  tokenResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	dash, ok := knownDashboard(c)
	if !ok {
		return domain.ErrSessionNotFound
	}

	session, err := dash.Refresh(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tokenResponse{Token: session.Token, Session: toSessionResponse(session)})
}

// Logout ends the client's session.
//
// @Summary      Sign out
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	dash, ok := knownDashboard(c)
	if !ok {
		return domain.ErrSessionNotFound
	}

	if err := dash.SignOut(c.Request().Context()); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "signed out"})
}

// Session returns the client's session state.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionStateResponse
// @Router       /auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	dash, ok := knownDashboard(c)
	if !ok {
		return c.JSON(http.StatusOK, toSessionStateResponse(signedOut))
	}

	snap, err := dash.Session(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toSessionStateResponse(snap))
}
