package routes

import (
	"go-campaign-dispatcher/src/infrastructure/di"

	"github.com/gin-gonic/gin"
)

func CampaignRoutes(router *gin.RouterGroup, appContext *di.ApplicationContext) {
	controller := appContext.CampaignController
	c := router.Group("/campaigns")
	c.Use(authMiddlewares(appContext)...)
	{
		c.POST("/send", controller.Send)
		c.GET("/:id", controller.GetCampaign)
	}
}
