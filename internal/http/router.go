package api

import (
	"log"
	stdhttp "net/http"

	intconfig "vivahahub/internal/config"
	h "vivahahub/internal/http/handlers"
	"vivahahub/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

func NewRouter(env intconfig.Env) *gin.Engine {
	h.SetJWTSecret(env.JWTSecret)
	h.SetWebhookSecret(env.WebhookSecret)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSAllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)

		// Auth
		auth := api.Group("/auth")
		auth.POST("/login", h.Login)
		auth.POST("/register", h.Register)

		// Payment gateway callbacks authenticate by signature, not session.
		api.POST("/payments/webhook", h.PaymentWebhook)

		// Escrow
		escrow := api.Group("/escrow", middleware.RequireAuth(env.JWTSecret))
		escrow.POST("", h.CreateEscrow)
		escrow.GET("", h.ListEscrows)
		escrow.POST("/release", h.ReleaseEscrow)
		escrow.POST("/refund", h.RefundEscrow)
		escrow.POST("/dispute", h.DisputeEscrow)
		escrow.GET("/reconcile", middleware.RequireAdmin(), h.ReconcileEscrows)
		escrow.GET("/:id", h.GetEscrow)
		escrow.GET("/:id/statement", h.EscrowStatement)

		// Notifications
		notifications := api.Group("/notifications", middleware.RequireAuth(env.JWTSecret))
		notifications.GET("", h.ListNotifications)
		notifications.PUT("/:id/read", h.MarkNotificationRead)
	}

	return r
}
