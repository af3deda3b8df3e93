package routes

import (
	"github.com/gin-gonic/gin"

	"city_network/internal/controllers"
	"city_network/internal/middleware"
)

func NetworkRoutes(r *gin.Engine, auth *middleware.Auth, ctrl *controllers.NetworkController) {
	network := r.Group("/network")
	network.Use(auth.RequireAuth())
	{
		network.GET("/map", ctrl.Map)
	}
}
