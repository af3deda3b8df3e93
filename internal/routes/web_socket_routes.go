package routes

import (
	"github.com/gin-gonic/gin"

	"city_network/internal/controllers"
)

// WebSocketRoutes authenticates inside the handler since the token travels
// in the query string.
func WebSocketRoutes(r *gin.Engine, ctrl *controllers.NetworkController) {
	wsRoutes := r.Group("/ws")
	{
		wsRoutes.GET("/network", ctrl.Stream)
	}
}
