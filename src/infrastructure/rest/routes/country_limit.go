package routes

import (
	"go-campaign-dispatcher/src/infrastructure/di"

	"github.com/gin-gonic/gin"
)

func CountryLimitRoutes(router *gin.RouterGroup, appContext *di.ApplicationContext) {
	controller := appContext.CountryLimitController
	adminCheck := adminMiddlewares(appContext)

	l := router.Group("/country-limits")
	l.Use(authMiddlewares(appContext)...)
	{
		l.GET("", controller.GetAll)
		l.GET("/:code", controller.GetByCode)

		// Only admin can change limits
		l.POST("", append(adminCheck, controller.Create)...)
		l.PUT("/:code", append(adminCheck, controller.Update)...)
		l.DELETE("/:code", append(adminCheck, controller.Delete)...)
		l.POST("/:code/refresh", append(adminCheck, controller.Refresh)...)
	}

	d := router.Group("/dispatch")
	d.Use(authMiddlewares(appContext)...)
	d.GET("/queues", controller.Queues)
}
