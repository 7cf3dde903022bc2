package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/military-registry/personnel-api/internal/api/handler"
	"github.com/military-registry/personnel-api/internal/api/middleware"
	"github.com/military-registry/personnel-api/internal/core/ports"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Log       zerolog.Logger
	Tokens    ports.TokenVerifier
	Users     middleware.IdentityLookup
	Auth      ports.AuthService
	Accounts  ports.UserService
	Personnel ports.PersonnelService
	// Checks back the readiness probe, keyed by dependency name.
	Checks map[string]handler.DependencyCheck
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(d.Log))
	e.Use(echomiddleware.CORS())
	e.Use(middleware.Metrics())

	authRequired := middleware.Auth(d.Tokens, d.Users, d.Log)
	adminOnly := middleware.AdminOnly()

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.Auth)
	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// --- Personnel routes ---
	personnelHandler := handler.NewPersonnelHandler(d.Personnel)
	personnel := e.Group("/api/personnel", authRequired)
	personnel.GET("", personnelHandler.List)
	personnel.POST("", personnelHandler.Create, adminOnly)
	personnel.GET("/units", personnelHandler.Units)
	personnel.GET("/statistics", personnelHandler.Statistics)
	personnel.GET("/:id", personnelHandler.Get)
	personnel.PUT("/:id", personnelHandler.Update)
	personnel.DELETE("/:id", personnelHandler.Delete, adminOnly)
	personnel.GET("/:id/audit", personnelHandler.Audit, adminOnly)

	// --- User administration ---
	userHandler := handler.NewUserHandler(d.Accounts)
	users := e.Group("/api/users", authRequired, adminOnly)
	users.GET("", userHandler.List)
	users.PUT("/:id/role", userHandler.UpdateRole)

	// --- Health probes (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewHealthDependenciesHandler(d.Checks).Readiness)

	// --- Operations ---
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger feeds echo's request logger into zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
