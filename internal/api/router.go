package api

import (
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/99minutos/account-dashboard/docs"
	"github.com/99minutos/account-dashboard/internal/api/handler"
	"github.com/99minutos/account-dashboard/internal/api/middleware"
	"github.com/99minutos/account-dashboard/internal/core/ports"
)

// RouterDeps are the collaborators of the HTTP surface.
type RouterDeps struct {
	Auth    ports.AuthService
	Clients middleware.ClientRegistry
	Health  *handler.HealthHandler
	// LoginRate is the sustained number of login attempts per second
	// allowed from one IP.
	LoginRate    float64
	SecureCookie bool
	// Registerer receives the HTTP metrics and Gatherer serves them. Both
	// default to the global registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Log        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "dashboard_http",
		Registerer: deps.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/swagger")
		},
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	dashHandler := handler.NewDashboardHandler()
	client := middleware.Client(deps.Clients, deps.SecureCookie)
	known := middleware.KnownClient(deps.Clients, deps.SecureCookie)
	signedIn := middleware.RequireSession()

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login, loginLimiter(deps.LoginRate), client)
	e.POST("/auth/refresh", authHandler.Refresh, known)
	e.POST("/auth/logout", authHandler.Logout, known)
	e.GET("/auth/session", authHandler.Session, known)

	// --- Navigation & notifications ---
	e.GET("/view", dashHandler.View, known)
	e.GET("/notifications", dashHandler.Notifications, known)

	// --- Profile routes (session required) ---
	profile := e.Group("/profile", known, signedIn)
	profile.GET("", dashHandler.Profile)
	profile.POST("/reload", dashHandler.Reload)
	profile.GET("/edit", dashHandler.Edit)
	profile.POST("/edit", dashHandler.OpenEdit)
	profile.PATCH("/edit", dashHandler.EditField)
	profile.DELETE("/edit", dashHandler.CancelEdit)
	profile.POST("/edit/submit", dashHandler.SubmitEdit)

	// --- Health probes, metrics and docs (no client required) ---
	if deps.Health != nil {
		e.GET("/health", deps.Health.Liveness)        // liveness  – is the process alive?
		e.GET("/health/ready", deps.Health.Readiness) // readiness – are dependencies up?
	}
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func loginLimiter(perSecond float64) echo.MiddlewareFunc {
	if perSecond <= 0 {
		perSecond = 5
	}
	burst := int(math.Ceil(perSecond))

	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(perSecond),
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "unable to identify caller")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts")
		},
	})
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
