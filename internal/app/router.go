package app

import (
	"langquiz_backend/internal/config"
	"langquiz_backend/internal/middleware"
	"langquiz_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/api/health", c.health.HealthCheck)

	secret := cfg.JWT.Secret
	auth := middleware.AuthMiddleware(secret, repos.tokenStore)
	optionalAuth := middleware.OptionalAuthMiddleware(secret, repos.tokenStore)
	anonymousOnly := middleware.AnonymousOnly(secret, repos.tokenStore)

	// 1. 账户
	accounts := router.Group("/api/accounts")
	{
		accounts.POST("/signup", anonymousOnly, c.account.Signup)
		accounts.POST("/login", anonymousOnly, c.account.Login)
		accounts.GET("/profile/:user/activate/:token", optionalAuth, c.account.Activate)
		accounts.POST("/password/reset", anonymousOnly, c.account.RequestPasswordReset)
		accounts.POST("/password/reset/confirm", anonymousOnly, c.account.ConfirmPasswordReset)

		authorized := accounts.Group("")
		authorized.Use(auth)
		{
			authorized.POST("/logout", c.account.Logout)
			authorized.GET("/profile/:user", c.account.Profile)
			authorized.POST("/profile/:user/deactivate", c.account.Deactivate)
			authorized.POST("/password/change", c.account.ChangePassword)
		}
	}

	// 2. 语言测试：可选认证，登录用户记录答题
	tests := router.Group("/api/language-tests")
	tests.Use(optionalAuth)
	{
		tests.GET("", c.quiz.ListCategories)
		tests.POST("/result", c.quiz.SubmitResult)
		tests.GET("/:id", c.quiz.GetCategory)
		tests.GET("/:id/test", c.quiz.StartTest)
	}
}
