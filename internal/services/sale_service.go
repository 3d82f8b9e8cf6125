package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nycre/explorer/internal/logger"
	"github.com/nycre/explorer/internal/models"
	"github.com/nycre/explorer/internal/repository"
)

// Recent-sales defaults.
const (
	DefaultSaleWindowDays = 365
	DefaultSaleLimit      = 50
	MaxSaleLimit          = 500
)

// SalesQuery bounds a recent-sales listing.
type SalesQuery struct {
	BldgClass string
	MinPrice  *int
	MaxPrice  *int
	Days      int
	Limit     int
}

// SaleService defines the interface for sale listing logic.
type SaleService interface {
	// Recent lists sales within the query window, newest first. The
	// building-class filter applies to the joined property and is matched
	// by code prefix.
	Recent(ctx context.Context, q SalesQuery) ([]models.SaleWithProperty, error)
}

// saleService is the concrete implementation of SaleService.
type saleService struct {
	sales repository.SaleRepository
	log   *logger.Logger
}

// NewSaleService creates a new instance of SaleService.
func NewSaleService(sales repository.SaleRepository, log *logger.Logger) SaleService {
	return &saleService{
		sales: sales,
		log:   log,
	}
}

// Recent lists sales in the window, optionally narrowed by price and the
// joined property's building class.
func (s *saleService) Recent(ctx context.Context, q SalesQuery) ([]models.SaleWithProperty, error) {
	if q.Days <= 0 {
		q.Days = DefaultSaleWindowDays
	}
	if q.Limit <= 0 {
		q.Limit = DefaultSaleLimit
	}
	if q.Limit > MaxSaleLimit {
		q.Limit = MaxSaleLimit
	}

	cutoff := time.Now().AddDate(0, 0, -q.Days)
	sales, err := s.sales.RecentWithProperty(ctx, repository.SaleQuery{
		Cutoff:   cutoff,
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
		Limit:    q.Limit,
	})
	if err != nil {
		s.log.Error("Failed to query recent sales", err, map[string]interface{}{
			"days": q.Days,
		})
		return nil, fmt.Errorf("failed to query recent sales: %w", err)
	}

	// Class filtering needs the joined property, so it runs after retrieval.
	if q.BldgClass != "" {
		prefix := strings.ToUpper(q.BldgClass)
		filtered := make([]models.SaleWithProperty, 0, len(sales))
		for i := range sales {
			p := sales[i].Property
			if p == nil || p.BldgClass == nil {
				continue
			}
			if strings.HasPrefix(strings.ToUpper(*p.BldgClass), prefix) {
				filtered = append(filtered, sales[i])
			}
		}
		sales = filtered
	}

	s.log.Info("Recent sales listed", map[string]interface{}{
		"days":  q.Days,
		"count": len(sales),
	})
	return sales, nil
}
