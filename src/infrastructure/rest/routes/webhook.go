package routes

import (
	"go-campaign-dispatcher/src/infrastructure/rest/controllers/webhook"

	"github.com/gin-gonic/gin"
)

// WebhookRoutes are public; the provider authenticates with the verify token.
func WebhookRoutes(router *gin.Engine, controller webhook.IWebhookController) {
	router.GET("/webhook", controller.Verify)
	router.POST("/webhook", controller.Receive)
}
