package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"city_network/internal/middleware"
	"city_network/internal/models"
	"city_network/internal/services"
)

// RouteResponse is the API shape of a route: endpoint ids plus display
// names, with stops flattened to their names in order.
type RouteResponse struct {
	ID                uint      `json:"ID"`
	CreatedAt         time.Time `json:"CreatedAt"`
	UpdatedAt         time.Time `json:"UpdatedAt"`
	OriginID          uint      `json:"origin_id"`
	Origin            string    `json:"origin"`
	DestinyID         uint      `json:"destiny_id"`
	Destiny           string    `json:"destiny"`
	Cost              float64   `json:"cost"`
	IntermediateStops []string  `json:"intermediate_stops"`
}

func toRouteResponse(route models.Route) RouteResponse {
	resp := RouteResponse{
		ID:                route.ID,
		CreatedAt:         route.CreatedAt,
		UpdatedAt:         route.UpdatedAt,
		OriginID:          route.OriginID,
		DestinyID:         route.DestinyID,
		Cost:              route.Cost,
		IntermediateStops: route.StopNames(),
	}
	if route.Origin != nil {
		resp.Origin = route.Origin.Name
	}
	if route.Destiny != nil {
		resp.Destiny = route.Destiny.Name
	}
	return resp
}

type RouteController struct {
	routes *services.RouteService
}

func NewRouteController(routes *services.RouteService) *RouteController {
	return &RouteController{routes: routes}
}

type routeInput struct {
	OriginID          uint     `json:"origin_id" binding:"required"`
	DestinyID         uint     `json:"destiny_id" binding:"required"`
	Cost              *float64 `json:"cost" binding:"required,gte=0"`
	IntermediateStops []string `json:"intermediate_stops" binding:"omitempty,dive,notblank"`
}

func (in routeInput) toService() services.RouteInput {
	return services.RouteInput{
		OriginID:          in.OriginID,
		DestinyID:         in.DestinyID,
		Cost:              *in.Cost,
		IntermediateStops: in.IntermediateStops,
	}
}

func (rc *RouteController) List(c *gin.Context) {
	routes, err := rc.routes.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]RouteResponse, 0, len(routes))
	for _, r := range routes {
		out = append(out, toRouteResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"routes": out})
}

func (rc *RouteController) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	route, err := rc.routes.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"route": toRouteResponse(*route)})
}

// Create persists a route only if no cheaper-or-equal indirect chain exists.
func (rc *RouteController) Create(c *gin.Context) {
	var input routeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.Log(c).WithError(err).Warn("CreateRoute: invalid input payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	route, err := rc.routes.Create(c.Request.Context(), input.toService())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"route": toRouteResponse(*route)})
}

func (rc *RouteController) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var input routeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.Log(c).WithError(err).Warn("UpdateRoute: invalid input payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	route, err := rc.routes.Update(c.Request.Context(), id, input.toService())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"route": toRouteResponse(*route)})
}

func (rc *RouteController) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := rc.routes.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	middleware.Log(c).WithField("route_id", id).Info("route deleted")
	c.JSON(http.StatusOK, gin.H{"message": "Route deleted"})
}

// Check runs the restriction check without writing. route_id names the route
// being edited, if any.
func (rc *RouteController) Check(c *gin.Context) {
	var input struct {
		routeInput
		RouteID uint `json:"route_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	if err := rc.routes.Check(c.Request.Context(), input.RouteID, input.toService()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}
