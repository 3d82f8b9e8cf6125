package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/nycre/explorer/internal/errors"
	"github.com/nycre/explorer/internal/models"
	"github.com/nycre/explorer/internal/services"
)

// SaleHandler handles sale-listing HTTP requests.
type SaleHandler struct {
	service services.SaleService
}

// NewSaleHandler creates a new SaleHandler instance.
func NewSaleHandler(service services.SaleService) *SaleHandler {
	return &SaleHandler{
		service: service,
	}
}

// SalesResponse wraps the recent-sales listing.
type SalesResponse struct {
	Count int                       `json:"count"`
	Sales []models.SaleWithProperty `json:"sales"`
}

// optionalIntQuery parses an integer query parameter, returning nil when the
// parameter is absent or unparseable.
func optionalIntQuery(c *gin.Context, name string) *int {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}

// Recent handles GET /api/v1/sales.
func (h *SaleHandler) Recent(c *gin.Context) {
	query := services.SalesQuery{
		BldgClass: c.Query("bldgclass"),
		MinPrice:  optionalIntQuery(c, "minPrice"),
		MaxPrice:  optionalIntQuery(c, "maxPrice"),
		Days:      intQuery(c, "days", services.DefaultSaleWindowDays),
		Limit:     intQuery(c, "limit", services.DefaultSaleLimit),
	}

	sales, err := h.service.Recent(c.Request.Context(), query)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to query recent sales", err)
		return
	}

	c.JSON(http.StatusOK, SalesResponse{
		Count: len(sales),
		Sales: sales,
	})
}
