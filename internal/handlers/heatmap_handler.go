package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nycre/explorer/internal/analytics"
	apierrors "github.com/nycre/explorer/internal/errors"
	"github.com/nycre/explorer/internal/services"
)

// HeatmapHandler handles heatmap HTTP requests.
type HeatmapHandler struct {
	service services.HeatmapService
}

// NewHeatmapHandler creates a new HeatmapHandler instance.
func NewHeatmapHandler(service services.HeatmapService) *HeatmapHandler {
	return &HeatmapHandler{
		service: service,
	}
}

// Grid handles GET /api/v1/heatmap.
func (h *HeatmapHandler) Grid(c *gin.Context) {
	metric := c.Query("metric")
	cellSize := floatQuery(c, "resolution", analytics.DefaultCellSize)

	grid, err := h.service.Grid(c.Request.Context(), metric, cellSize)
	if err != nil {
		if errors.Is(err, services.ErrInvalidMetric) {
			apierrors.BadRequest(c, "Unknown heatmap metric", map[string]interface{}{
				"metric": metric,
			})
			return
		}
		apierrors.InternalServerError(c, "Failed to compute heatmap", err)
		return
	}

	c.JSON(http.StatusOK, grid)
}
