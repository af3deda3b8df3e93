package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"city_network/internal/middleware"
	"city_network/internal/models"
	"city_network/internal/services"
)

type CityController struct {
	cities *services.CityService
}

func NewCityController(cities *services.CityService) *CityController {
	return &CityController{cities: cities}
}

type cityInput struct {
	Name  string   `json:"name" binding:"required,notblank"`
	Color string   `json:"color"`
	Icon  string   `json:"icon"`
	Shape string   `json:"shape"`
	Lat   *float64 `json:"lat" binding:"omitempty,gte=-90,lte=90"`
	Lng   *float64 `json:"lng" binding:"omitempty,gte=-180,lte=180"`
}

func (in cityInput) city() *models.City {
	return &models.City{
		Name:  in.Name,
		Color: in.Color,
		Icon:  in.Icon,
		Shape: in.Shape,
		Lat:   in.Lat,
		Lng:   in.Lng,
	}
}

func (cc *CityController) List(c *gin.Context) {
	cities, err := cc.cities.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cities": cities})
}

func (cc *CityController) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	city, err := cc.cities.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"city": city})
}

func (cc *CityController) Create(c *gin.Context) {
	var input cityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	city := input.city()
	if err := cc.cities.Create(c.Request.Context(), city); err != nil {
		respondError(c, err)
		return
	}
	middleware.Log(c).WithField("city_id", city.ID).Info("city created")
	c.JSON(http.StatusCreated, gin.H{"city": city})
}

func (cc *CityController) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var input cityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	city, err := cc.cities.Update(c.Request.Context(), id, input.city())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"city": city})
}

func (cc *CityController) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := cc.cities.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	middleware.Log(c).WithField("city_id", id).Info("city deleted")
	c.JSON(http.StatusOK, gin.H{"message": "City deleted"})
}
