package routes

import (
	"context"
	"net/http"
	"time"

	"go-campaign-dispatcher/src/infrastructure/di"
	"go-campaign-dispatcher/src/infrastructure/rest/middlewares"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

func ApplicationRouter(router *gin.Engine, appContext *di.ApplicationContext) {
	router.GET("/metrics", gin.WrapH(appContext.Metrics.Handler()))

	WebhookRoutes(router, appContext.WebhookController)

	// unversioned alias of /v1/campaigns/send
	router.POST("/send", append(authMiddlewares(appContext), appContext.CampaignController.Send)...)

	v1 := router.Group("/v1")
	v1.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()
		if err := appContext.Database.Ping(ctx); err != nil {
			appContext.Logger.Error("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": true})
	})

	CampaignRoutes(v1, appContext)
	CountryLimitRoutes(v1, appContext)
}

// authMiddlewares is empty when AUTH_ENABLED is off.
func authMiddlewares(appContext *di.ApplicationContext) []gin.HandlerFunc {
	if !appContext.Config.Auth.Enabled {
		return nil
	}
	return []gin.HandlerFunc{middlewares.AuthJWTMiddleware(appContext.Config.Auth.AccessSecret, appContext.Logger)}
}

func adminMiddlewares(appContext *di.ApplicationContext) []gin.HandlerFunc {
	if !appContext.Config.Auth.Enabled {
		return nil
	}
	return []gin.HandlerFunc{middlewares.RequiresRoleMiddleware("admin", appContext.Logger)}
}
