package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"city_network/internal/middleware"
	"city_network/internal/models"
	"city_network/internal/restriction"
)

// respondError writes err with the status the API documents for it.
func respondError(c *gin.Context, err error) {
	var verr *restriction.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":         verr.Message,
			"kind":          verr.Kind,
			"indirect_path": verr.Path,
			"indirect_cost": verr.Cost,
		})
	case errors.Is(err, restriction.ErrSearchBudgetExceeded):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "route network too large to validate this route"})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrConflict), errors.Is(err, models.ErrCityInUse):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrUnknownCity),
		errors.Is(err, models.ErrNegativeCost),
		errors.Is(err, models.ErrSameEndpoints),
		errors.Is(err, models.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		middleware.Log(c).WithError(err).WithField("path", c.FullPath()).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// parseID reads the :id path parameter, answering 400 when it is malformed.
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}
