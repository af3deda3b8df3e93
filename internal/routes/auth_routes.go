package routes

import (
	"github.com/gin-gonic/gin"

	"city_network/internal/controllers"
)

func AuthRoutes(r *gin.Engine, ctrl *controllers.AuthController) {
	auth := r.Group("/auth")
	{
		auth.POST("/signup", ctrl.Signup)
		auth.POST("/login", ctrl.Login)
	}
}
