package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BillBrieferServer/scribe/internal/infra/config"
	"github.com/BillBrieferServer/scribe/internal/infra/telemetry"
	"github.com/BillBrieferServer/scribe/internal/transport/http/handlers"
	"github.com/BillBrieferServer/scribe/internal/transport/http/middleware"
	"github.com/BillBrieferServer/scribe/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth          *usecase.AuthService
	Registration  *usecase.RegistrationService
	PasswordReset *usecase.PasswordResetService
	Notes         *usecase.NoteService
	Share         *usecase.ShareService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
	Metrics     *telemetry.Provider
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	if len(deps.Config.App.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(deps.Config.App.AllowedOrigins))
	}
	if httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{}); err == nil {
		r.Use(httpMetrics.Handler())
	} else if deps.Logger != nil {
		deps.Logger.Warn("http metrics disabled", zap.Error(err))
	}

	cookie := handlers.SessionCookie{
		Name:   deps.Config.Session.CookieName,
		Secure: deps.Config.Session.Secure,
		TTL:    deps.Config.Session.TTL,
	}

	authMiddleware := middleware.RequireAuth(deps.Services.Auth, cookie.Name)

	healthOptions := make([]handlers.HealthOption, 0, 2)

	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}

	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Ready)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")

		registrationHandler := handlers.NewRegistrationHandler(deps.Services.Registration, cookie)
		registerHandlers := appendRateLimited(deps, "register_ip", deps.Config.RateLimit.RegisterMaxAttempts, registrationHandler.Register)
		authGroup.POST("/register", registerHandlers...)
		verifyHandlers := appendRateLimited(deps, "verify_ip", deps.Config.RateLimit.RegisterMaxAttempts, registrationHandler.Verify)
		authGroup.POST("/verify", verifyHandlers...)

		authHandler := handlers.NewAuthHandler(deps.Services.Auth, cookie)
		loginHandlers := appendRateLimited(deps, "login_ip", deps.Config.RateLimit.LoginMaxAttempts, authHandler.Login)
		authGroup.POST("/login", loginHandlers...)
		authGroup.POST("/logout", authMiddleware, authHandler.Logout)

		passwordHandler := handlers.NewPasswordHandler(deps.Services.PasswordReset)
		forgotHandlers := appendRateLimited(deps, "password_reset_ip", deps.Config.RateLimit.PasswordResetMaxAttempts, passwordHandler.ForgotPassword)
		authGroup.POST("/forgot-password", forgotHandlers...)
		resetHandlers := appendRateLimited(deps, "password_reset_confirm_ip", deps.Config.RateLimit.PasswordResetMaxAttempts, passwordHandler.ResetPassword)
		authGroup.POST("/reset-password", resetHandlers...)

		noteHandler := handlers.NewNoteHandler(deps.Services.Notes, deps.Services.Share, deps.Metrics)
		noteGroup := api.Group("/notes")
		noteGroup.Use(authMiddleware)
		noteGroup.POST("", noteHandler.Create)
		noteGroup.GET("", noteHandler.List)
		noteGroup.GET("/:id", noteHandler.Get)
		noteGroup.DELETE("/:id", noteHandler.Delete)
		noteGroup.POST("/:id/share", noteHandler.Share)
	}

	return r
}

func appendRateLimited(deps Dependencies, name string, limit int, handler gin.HandlerFunc) []gin.HandlerFunc {
	chain := make([]gin.HandlerFunc, 0, 2)

	if deps.RateLimiter != nil && deps.Config != nil && limit > 0 {
		window := deps.Config.RateLimit.WindowDuration
		if window <= 0 {
			window = time.Minute
		}

		rule := middleware.RateLimitRule{
			Name:       name,
			Limit:      limit,
			Window:     window,
			Identifier: middleware.ClientIPIdentifier(),
		}

		chain = append(chain, deps.RateLimiter.RateLimit(rule))
	}

	return append(chain, handler)
}
