package routes

import (
	"github.com/gin-gonic/gin"

	"city_network/internal/controllers"
	"city_network/internal/middleware"
	"city_network/internal/models"
)

func RouteRoutes(r *gin.Engine, auth *middleware.Auth, ctrl *controllers.RouteController) {
	read := r.Group("/routes")
	read.Use(auth.RequireAuth())
	{
		read.GET("", ctrl.List)
		read.GET("/:id", ctrl.Get)
		read.POST("/check", ctrl.Check) // dry run, writes nothing
	}

	write := r.Group("/routes")
	write.Use(auth.RequireAuthWithRole(models.RoleAdmin, models.RoleOperator))
	{
		write.POST("", ctrl.Create)
		write.PUT("/:id", ctrl.Update)
		write.DELETE("/:id", ctrl.Delete)
	}
}
