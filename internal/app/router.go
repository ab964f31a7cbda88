package app

import (
	"quiz_backend/internal/config"
	"quiz_backend/internal/middleware"
	"quiz_backend/internal/model"
	"quiz_backend/pkg/monitoring"
	"quiz_backend/pkg/security"
	"time"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, s *services, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	auth := middleware.AuthMiddleware(cfg, s.blacklist, repos.user)
	tryAuth := middleware.TryAuthMiddleware(cfg, s.blacklist, repos.user)

	api := router.Group("/api")
	api.GET("/health", c.health.HealthCheck)

	// 1. 认证，注册与登录单独限流
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	authLimiter := security.NewRateLimiter(cfg.RateLimit.AuthMaxRequests, window).Middleware()
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authLimiter, c.auth.Register)
		authGroup.POST("/login", authLimiter, c.auth.Login)
		authGroup.POST("/logout", auth, c.auth.Logout)
		authGroup.GET("/me", auth, c.auth.Me)
	}

	// 2. 测验与答题
	quizzes := api.Group("/quizzes")
	{
		quizzes.GET("", c.quiz.ListQuizzes)
		quizzes.GET("/attempts/me", auth, c.quiz.MyAttempts)
		quizzes.GET("/:id", tryAuth, c.quiz.GetQuiz)
		quizzes.POST("", auth, c.quiz.CreateQuiz)
		quizzes.PUT("/:id", auth, c.quiz.UpdateQuiz)
		quizzes.DELETE("/:id", auth, c.quiz.DeleteQuiz)
		quizzes.POST("/:id/start", auth, c.quiz.StartAttempt)
		quizzes.POST("/:id/submit", auth, c.quiz.SubmitAttempt)
	}

	// 3. 用户
	users := api.Group("/users")
	{
		users.GET("/leaderboard", c.user.Leaderboard)
		users.PUT("/profile", auth, c.user.UpdateProfile)
		users.POST("/avatar", auth, c.user.UploadAvatar)
		users.GET("/achievements", auth, c.user.Achievements)
		users.DELETE("/account", auth, c.user.DeleteAccount)
	}

	// 4. 分析
	analytics := api.Group("/analytics")
	analytics.Use(auth)
	{
		analytics.GET("/user", c.analytics.UserAnalytics)
		analytics.GET("/quiz/:id", c.analytics.QuizAnalytics)
	}

	// 5. 管理员
	admin := api.Group("/admin")
	admin.Use(auth, middleware.RoleMiddleware(model.RoleAdmin))
	{
		admin.POST("/cache/flush", c.admin.FlushCache)
	}
}
