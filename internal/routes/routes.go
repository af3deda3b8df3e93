package routes

import (
	"io"

	"github.com/gin-gonic/gin"

	"city_network/internal/controllers"
	"city_network/internal/hub"
	"city_network/internal/logger"
	"city_network/internal/middleware"
	"city_network/internal/restriction"
	"city_network/internal/services"
	"city_network/internal/store"
)

// Deps is everything the HTTP layer needs from main.
type Deps struct {
	Stores *store.Stores
	Auth   *middleware.Auth
	Engine *restriction.Engine
	Policy services.UpdatePolicy
	// Hub receives change events; nil disables the /ws/network feed.
	Hub *hub.Hub
	// LogOut receives request logs; nil disables them.
	LogOut io.Writer
}

type handlers struct {
	auth    *controllers.AuthController
	cities  *controllers.CityController
	routes  *controllers.RouteController
	network *controllers.NetworkController
}

func SetupRouter(d Deps) *gin.Engine {
	controllers.RegisterValidators()

	r := gin.New()
	r.Use(middleware.RequestID())
	if d.LogOut != nil {
		r.Use(logger.Requests(d.LogOut))
	}
	r.Use(gin.Recovery())

	routeSvc := services.NewRouteService(d.Stores.Routes, d.Stores.Cities, d.Engine, d.Policy)
	citySvc := services.NewCityService(d.Stores.Cities, d.Stores.Routes)
	if d.Hub != nil {
		routeSvc.UseNotifier(d.Hub)
		citySvc.UseNotifier(d.Hub)
	}
	h := handlers{
		auth:    controllers.NewAuthController(services.NewAuthService(d.Stores.Users, d.Auth)),
		cities:  controllers.NewCityController(citySvc),
		routes:  controllers.NewRouteController(routeSvc),
		network: controllers.NewNetworkController(citySvc, routeSvc, d.Auth, d.Hub),
	}

	r.GET("/healthz", controllers.Health)
	AuthRoutes(r, h.auth)
	CityRoutes(r, d.Auth, h.cities)
	RouteRoutes(r, d.Auth, h.routes)
	NetworkRoutes(r, d.Auth, h.network)
	if d.Hub != nil {
		WebSocketRoutes(r, h.network)
	}

	return r
}
