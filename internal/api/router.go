package api

import (
	"github.com/gin-gonic/gin"
	"github.com/gunuduru/assignment-auth/internal/metrics"
	"github.com/gunuduru/assignment-auth/internal/middleware"
	"github.com/redis/go-redis/v9"
)

type Handlers struct {
	Auth    *AuthHandler
	Admin   *AdminHandler
	Message *MessageHandler
	Stream  *StreamHandler
	Health  *HealthHandler
}

type RouterConfig struct {
	TokenParser       middleware.TokenParser
	Admin             middleware.AdminCredentials
	AllowOrigins      []string
	RequestsPerSecond int
}

func RegisterRoutes(h Handlers, rdb *redis.Client, cfg RouterConfig) *gin.Engine {
	r := gin.New()

	r.Use(
		middleware.TraceMiddleware(),
		middleware.CorsMiddleware(cfg.AllowOrigins),
		middleware.GinZapLogger(),
		middleware.GinZapRecovery(),
		middleware.HttpMiddleware(),
	)
	_ = r.SetTrustedProxies(nil)

	r.GET("/health", h.Health.HealthCheck)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// credential endpoints are the brute-force surface
	limiter := middleware.RateLimitMiddleware(rdb, middleware.RateLimiterConfig{Limit: cfg.RequestsPerSecond})

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", limiter, h.Auth.Register)
		auth.POST("/login", limiter, h.Auth.Login)
		auth.POST("/refresh", limiter, h.Auth.Refresh)
	}

	authProtected := r.Group("/api/auth")
	authProtected.Use(middleware.JWTMiddleware(cfg.TokenParser))
	{
		authProtected.POST("/logout", h.Auth.Logout)
		authProtected.GET("/profile", h.Auth.Profile)
	}

	admin := r.Group("/api/admin")
	admin.Use(middleware.AdminAuthMiddleware(cfg.Admin, cfg.TokenParser))
	{
		admin.GET("/users", h.Admin.ListUsers)
		admin.GET("/users/statistics", h.Admin.Statistics)
		admin.GET("/users/:id", h.Admin.GetUser)
		admin.PUT("/users/:id", h.Admin.UpdateUser)
		admin.DELETE("/users/:id", h.Admin.DeleteUser)
		admin.GET("/audits", h.Admin.ListAudits)

		admin.POST("/messages/age-group", h.Message.ScheduleAgeGroup)
		admin.GET("/messages/pending", h.Message.Pending)
		admin.GET("/messages/stats", h.Message.Stats)
		admin.POST("/messages/dispatch", h.Message.Dispatch)
		admin.GET("/messages/stream", h.Stream.DispatchWatch)

		admin.POST("/scheduler/start", h.Message.StartScheduler)
		admin.POST("/scheduler/stop", h.Message.StopScheduler)
		admin.GET("/scheduler/status", h.Message.SchedulerStatus)
	}
	return r
}
