package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/skillmarket-backend/internal/config"
	"github.com/ignatzorin/skillmarket-backend/internal/http/handlers"
	"github.com/ignatzorin/skillmarket-backend/internal/http/middleware"
	"github.com/ignatzorin/skillmarket-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	profileHandler *handlers.ProfileHandler,
	jobHandler *handlers.JobHandler,
	contractHandler *handlers.ContractHandler,
	paymentHandler *handlers.PaymentHandler,
	certificationHandler *handlers.CertificationHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.StaticFS("/certificates", http.Dir(cfg.MediaStoragePath))

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	protectedAuth := api.Group("/auth")
	protectedAuth.Use(middleware.AuthMiddleware(tokenManager))
	{
		protectedAuth.GET("/sessions", authHandler.Sessions)
		protectedAuth.DELETE("/sessions/:id", middleware.UUIDValidator("id"), authHandler.DeleteSession)
	}

	// Публичные маршруты
	api.GET("/jobs", jobHandler.List)
	api.GET("/ws", wsHandler.Handle)
	api.GET("/users/workers", profileHandler.Workers)
	api.GET("/users/:id", middleware.UUIDValidator("id"), profileHandler.Get)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/users/me", profileHandler.Me)
		protected.PUT("/users/me", profileHandler.Update)
		protected.PUT("/users/me/skills", profileHandler.SetSkills)
		protected.GET("/users/me/wallet", profileHandler.Wallet)
		protected.POST("/users/skills/certify", certificationHandler.Certify)

		// Статические пути объявляются раньше параметризованных.
		protected.GET("/jobs/my", jobHandler.MyJobs)
		protected.GET("/jobs/applications", jobHandler.MyApplications)
		protected.GET("/jobs/recommendations", jobHandler.Recommendations)

		protected.POST("/jobs", jobHandler.Create)
		protected.GET("/jobs/:id", middleware.UUIDValidator("id"), jobHandler.Get)
		protected.DELETE("/jobs/:id", middleware.UUIDValidator("id"), jobHandler.Delete)
		protected.POST("/jobs/:id/apply", middleware.UUIDValidator("id"), jobHandler.Apply)
		protected.DELETE("/jobs/:id/apply", middleware.UUIDValidator("id"), jobHandler.Withdraw)
		protected.PUT("/jobs/:id/applications/:workerId",
			middleware.UUIDValidator("id"), middleware.UUIDValidator("workerId"), jobHandler.Decide)
		protected.PUT("/jobs/:id/close", middleware.UUIDValidator("id"), jobHandler.Close)

		protected.GET("/contracts", contractHandler.List)
		protected.GET("/contracts/:id", middleware.UUIDValidator("id"), contractHandler.Get)
		protected.PUT("/contracts/:id/status", middleware.UUIDValidator("id"), contractHandler.UpdateStatus)
		protected.POST("/contracts/:id/milestones", middleware.UUIDValidator("id"), contractHandler.AddMilestone)
		protected.PUT("/contracts/:id/milestones/:index", middleware.UUIDValidator("id"), contractHandler.UpdateMilestone)
		protected.POST("/contracts/:id/deliverables", middleware.UUIDValidator("id"), contractHandler.SubmitDeliverable)
		protected.PUT("/contracts/:id/deliverables/:index", middleware.UUIDValidator("id"), contractHandler.ReviewDeliverable)
		protected.POST("/contracts/:id/disputes", middleware.UUIDValidator("id"), contractHandler.RaiseDispute)
		protected.PUT("/contracts/:id/disputes/resolve", middleware.UUIDValidator("id"), contractHandler.ResolveDispute)
		protected.POST("/contracts/:id/rate", middleware.UUIDValidator("id"), contractHandler.Rate)
		protected.POST("/contracts/:id/payments/order", middleware.UUIDValidator("id"), paymentHandler.CreateOrder)
		protected.POST("/contracts/:id/payments/verify", middleware.UUIDValidator("id"), paymentHandler.Verify)
	}

	return r
}
