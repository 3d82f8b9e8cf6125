package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nycre/explorer/internal/analytics"
	apierrors "github.com/nycre/explorer/internal/errors"
	"github.com/nycre/explorer/internal/services"
)

// OwnerHandler handles owner-portfolio HTTP requests.
type OwnerHandler struct {
	service services.OwnerService
}

// NewOwnerHandler creates a new OwnerHandler instance.
func NewOwnerHandler(service services.OwnerService) *OwnerHandler {
	return &OwnerHandler{
		service: service,
	}
}

// Search handles GET /api/v1/owners/:name.
func (h *OwnerHandler) Search(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		apierrors.BadRequest(c, "Owner name is required", nil)
		return
	}

	result, err := h.service.Search(c.Request.Context(), name)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to search owners", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// DistressedResponse wraps the ranked distressed-owner list.
type DistressedResponse struct {
	Count  int                        `json:"count"`
	Owners []analytics.DistressedOwner `json:"owners"`
}

// Distressed handles GET /api/v1/owners/distressed.
func (h *OwnerHandler) Distressed(c *gin.Context) {
	opts := analytics.DefaultDistressedOwnerOptions()
	opts.Limit = intQuery(c, "limit", opts.Limit)
	opts.MinScore = intQuery(c, "minScore", opts.MinScore)
	opts.MinProperties = intQuery(c, "minProperties", opts.MinProperties)

	ranked, err := h.service.Distressed(c.Request.Context(), opts)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to rank distressed owners", err)
		return
	}

	c.JSON(http.StatusOK, DistressedResponse{
		Count:  len(ranked),
		Owners: ranked,
	})
}
