package main

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"lumikid.backend/internal/interfaces/http/handlers"
	"lumikid.backend/internal/interfaces/http/middleware"
)

type routeDeps struct {
	authHandler         *handlers.AuthHandler
	oauthHandler        *handlers.OAuthHandler
	parentalHandler     *handlers.ParentalHandler
	subscriptionHandler *handlers.SubscriptionHandler
	webhookHandler      *handlers.WebhookHandler
	authMiddleware      gin.HandlerFunc
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		// Auth routes (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", d.authHandler.Register)
			auth.POST("/login", d.authHandler.Login)
			auth.POST("/verify_code", d.authHandler.VerifyCode)
			auth.POST("/send_verification_email", d.authHandler.SendVerificationEmail)
			auth.POST("/send_reset_code", d.authHandler.SendResetCode)
			auth.POST("/verify_reset_code", d.authHandler.VerifyResetCode)
			auth.POST("/reset_password", d.authHandler.ResetPassword)
			auth.POST("/refresh", d.authHandler.Refresh)

			// Google OAuth (public)
			auth.GET("/google/login", d.oauthHandler.GoogleLogin)
			auth.GET("/google/callback", d.oauthHandler.GoogleCallback)

			// Parental password routes (public, email-addressed)
			auth.POST("/set_parent_password", d.parentalHandler.SetParentPassword)
			auth.POST("/check_parent_password", d.parentalHandler.CheckParentPassword)
			auth.POST("/send_parent_password_code", d.parentalHandler.SendParentPasswordCode)
			auth.POST("/change_parent_password", d.parentalHandler.ChangeParentPassword)

			// Session-bound routes
			auth.POST("/delete_account", d.authMiddleware, d.authHandler.DeleteAccount)
			auth.GET("/get_me", d.authMiddleware, d.authHandler.GetMe)
			auth.POST("/update_profile", d.authMiddleware, d.authHandler.UpdateProfile)
		}

		// Payment routes
		payment := v1.Group("/payment")
		{
			payment.POST("/purchase", d.authMiddleware, middleware.IdempotencyMiddleware(), d.subscriptionHandler.Purchase)
			payment.POST("/cancel", d.authMiddleware, d.subscriptionHandler.Cancel)
			payment.GET("/subscription", d.authMiddleware, d.subscriptionHandler.GetSubscription)

			// Signed by the provider, not by a session token.
			payment.POST("/webhook", d.webhookHandler.HandleWebhook)
		}
	}
}

func registerHealthRoute(r *gin.Engine, db *sql.DB) {
	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		if db != nil {
			if err := db.Ping(); err != nil {
				status = "degraded"
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  status,
			"service": "lumikid-backend",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func applyCORSMiddleware(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, Idempotency-Key, X-Request-ID")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
}
