package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nycre/explorer/internal/analytics"
	apierrors "github.com/nycre/explorer/internal/errors"
	"github.com/nycre/explorer/internal/middleware"
	"github.com/nycre/explorer/internal/services"
)

// PropertyHandler handles property-related HTTP requests.
type PropertyHandler struct {
	service services.PropertyService
}

// NewPropertyHandler creates a new PropertyHandler instance.
func NewPropertyHandler(service services.PropertyService) *PropertyHandler {
	return &PropertyHandler{
		service: service,
	}
}

// intQuery parses an integer query parameter, falling back to a default for
// absent or unparseable values.
func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func floatQuery(c *gin.Context, name string, fallback float64) float64 {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

// List handles GET /api/v1/properties.
// Filter parameters that fail to parse are treated as absent.
func (h *PropertyHandler) List(c *gin.Context) {
	params := analytics.ParseFilterParams(c.Query)
	limit := intQuery(c, "limit", services.DefaultListLimit)
	offset := intQuery(c, "offset", 0)

	if log := middleware.GetLogger(c); log != nil {
		log.Debug("Processing property list request", map[string]interface{}{
			"limit":  limit,
			"offset": offset,
		})
	}

	list, err := h.service.List(c.Request.Context(), params, limit, offset)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to query properties", err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// Detail handles GET /api/v1/properties/:bbl.
func (h *PropertyHandler) Detail(c *gin.Context) {
	bbl := c.Param("bbl")

	detail, err := h.service.Get(c.Request.Context(), bbl)
	if err != nil {
		if errors.Is(err, services.ErrPropertyNotFound) {
			apierrors.NotFound(c, "Property not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to query property", err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// OpportunitiesResponse wraps the ranked opportunity list.
type OpportunitiesResponse struct {
	Count      int                            `json:"count"`
	Properties []services.OpportunityProperty `json:"properties"`
}

// Opportunities handles GET /api/v1/opportunities.
func (h *PropertyHandler) Opportunities(c *gin.Context) {
	limit := intQuery(c, "limit", services.DefaultOpportunityLimit)

	ranked, err := h.service.Opportunities(c.Request.Context(), limit)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to rank opportunities", err)
		return
	}

	c.JSON(http.StatusOK, OpportunitiesResponse{
		Count:      len(ranked),
		Properties: ranked,
	})
}

// Stats handles GET /api/v1/stats.
func (h *PropertyHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		apierrors.InternalServerError(c, "Failed to compute stats", err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
