package routes

import (
	"github.com/gin-gonic/gin"

	"city_network/internal/controllers"
	"city_network/internal/middleware"
	"city_network/internal/models"
)

func CityRoutes(r *gin.Engine, auth *middleware.Auth, ctrl *controllers.CityController) {
	read := r.Group("/cities")
	read.Use(auth.RequireAuth())
	{
		read.GET("", ctrl.List)
		read.GET("/:id", ctrl.Get)
	}

	write := r.Group("/cities")
	write.Use(auth.RequireAuthWithRole(models.RoleAdmin, models.RoleOperator))
	{
		write.POST("", ctrl.Create)
		write.PUT("/:id", ctrl.Update)
		write.DELETE("/:id", ctrl.Delete)
	}
}
