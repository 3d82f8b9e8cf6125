package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nycre/explorer/internal/analytics"
	apierrors "github.com/nycre/explorer/internal/errors"
	"github.com/nycre/explorer/internal/middleware"
	"github.com/nycre/explorer/internal/services"
)

// CompsHandler handles comparable-sales HTTP requests.
type CompsHandler struct {
	service services.CompsService
}

// NewCompsHandler creates a new CompsHandler instance.
func NewCompsHandler(service services.CompsService) *CompsHandler {
	return &CompsHandler{
		service: service,
	}
}

// Find handles GET /api/v1/properties/:bbl/comps.
// Out-of-range radius or limit values silently fall back to defaults.
func (h *CompsHandler) Find(c *gin.Context) {
	bbl := c.Param("bbl")
	radius := floatQuery(c, "radius", analytics.DefaultCompRadiusMiles)
	limit := intQuery(c, "limit", analytics.DefaultCompLimit)

	result, err := h.service.FindComps(c.Request.Context(), bbl, radius, limit)
	if err != nil {
		if errors.Is(err, services.ErrPropertyNotFound) {
			apierrors.NotFound(c, "Property not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to find comparable sales", err)
		return
	}

	if result.MissingGeometry {
		if log := middleware.GetLogger(c); log != nil {
			log.Debug("Comps subject has no coordinates", map[string]interface{}{
				"bbl": bbl,
			})
		}
	}

	c.JSON(http.StatusOK, result)
}
