package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"city_network/internal/geo"
	"city_network/internal/hub"
	"city_network/internal/middleware"
	"city_network/internal/services"
)

// upgrader configures the WebSocket connection. Origins are not checked
// because subscribers authenticate with a token in the query string.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type NetworkController struct {
	cities *services.CityService
	routes *services.RouteService
	auth   *middleware.Auth
	hub    *hub.Hub
}

func NewNetworkController(cities *services.CityService, routes *services.RouteService, auth *middleware.Auth, h *hub.Hub) *NetworkController {
	return &NetworkController{cities: cities, routes: routes, auth: auth, hub: h}
}

// Map returns the network as a GeoJSON FeatureCollection.
func (nc *NetworkController) Map(c *gin.Context) {
	ctx := c.Request.Context()
	cities, err := nc.cities.List(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	routes, err := nc.routes.List(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, geo.NetworkMap(cities, routes))
}

// Stream upgrades to a websocket that receives every city and route change.
// Browsers cannot set headers on the handshake, so the token comes in the
// "token" query parameter.
func (nc *NetworkController) Stream(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authentication token"})
		return
	}
	token, err := nc.auth.ValidateToken(tokenString)
	if err != nil || !token.Valid {
		middleware.Log(c).WithError(err).Warn("WebSocket connection attempt with invalid token.")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		middleware.Log(c).WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}
	defer conn.Close()

	nc.hub.Serve(conn)
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
