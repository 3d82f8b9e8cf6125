package services

import (
	"context"
	"fmt"

	"github.com/nycre/explorer/internal/analytics"
	"github.com/nycre/explorer/internal/logger"
	"github.com/nycre/explorer/internal/repository"
)

// heatmapSaleLimit caps how many recent sales feed the price grid.
const heatmapSaleLimit = 10000

// HeatmapService defines the interface for grid aggregation logic.
type HeatmapService interface {
	// Grid aggregates the requested metric into cells of the given size.
	// Returns ErrInvalidMetric for unrecognized metric names.
	Grid(ctx context.Context, metric string, cellSize float64) (*analytics.Grid, error)
}

// heatmapService is the concrete implementation of HeatmapService.
type heatmapService struct {
	properties repository.PropertyRepository
	sales      repository.SaleRepository
	violations repository.ViolationRepository
	log        *logger.Logger
}

// NewHeatmapService creates a new instance of HeatmapService.
func NewHeatmapService(
	properties repository.PropertyRepository,
	sales repository.SaleRepository,
	violations repository.ViolationRepository,
	log *logger.Logger,
) HeatmapService {
	return &heatmapService{
		properties: properties,
		sales:      sales,
		violations: violations,
		log:        log,
	}
}

// Grid routes the metric to its point source and aggregator.
func (s *heatmapService) Grid(ctx context.Context, metric string, cellSize float64) (*analytics.Grid, error) {
	if metric == "" {
		metric = analytics.MetricOpportunity
	}
	if !analytics.ValidMetric(metric) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMetric, metric)
	}

	var points []analytics.GridPoint
	var err error
	switch metric {
	case analytics.MetricOpportunity:
		points, err = s.opportunityPoints(ctx)
	case analytics.MetricPrice:
		points, err = s.pricePoints(ctx)
	case analytics.MetricDistress:
		points, err = s.distressPoints(ctx)
	}
	if err != nil {
		s.log.Error("Failed to load heatmap points", err, map[string]interface{}{"metric": metric})
		return nil, err
	}

	var grid analytics.Grid
	switch metric {
	case analytics.MetricOpportunity:
		grid = analytics.OpportunityGrid(points, cellSize)
	case analytics.MetricPrice:
		grid = analytics.PriceGrid(points, cellSize)
	case analytics.MetricDistress:
		grid = analytics.DistressGrid(points, cellSize)
	}

	s.log.Info("Heatmap grid computed", map[string]interface{}{
		"metric": metric,
		"points": len(points),
		"cells":  len(grid.Cells),
	})
	return &grid, nil
}

func (s *heatmapService) opportunityPoints(ctx context.Context) ([]analytics.GridPoint, error) {
	properties, err := s.properties.FindWithCoordinates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query mappable properties: %w", err)
	}

	points := make([]analytics.GridPoint, 0, len(properties))
	for _, p := range properties {
		if !p.HasCoordinates() || p.FARGap == nil {
			continue
		}
		points = append(points, analytics.GridPoint{
			Lat:   *p.Lat,
			Lng:   *p.Lng,
			Value: *p.FARGap,
			BBL:   p.BBL,
		})
	}
	return points, nil
}

func (s *heatmapService) pricePoints(ctx context.Context) ([]analytics.GridPoint, error) {
	sales, err := s.sales.RecentWithProperty(ctx, repository.SaleQuery{
		Cutoff: compCandidateCutoff,
		Limit:  heatmapSaleLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query sales for price grid: %w", err)
	}

	points := make([]analytics.GridPoint, 0, len(sales))
	for i := range sales {
		swp := sales[i]
		if swp.Property == nil || !swp.Property.HasCoordinates() {
			continue
		}
		bldgArea := 0
		if swp.Property.BldgArea != nil {
			bldgArea = *swp.Property.BldgArea
		}
		psf := swp.Sale.PricePerSFFrom(bldgArea)
		if psf == nil {
			continue
		}
		points = append(points, analytics.GridPoint{
			Lat:   *swp.Property.Lat,
			Lng:   *swp.Property.Lng,
			Value: *psf,
			BBL:   swp.Sale.BBL,
		})
	}
	return points, nil
}

func (s *heatmapService) distressPoints(ctx context.Context) ([]analytics.GridPoint, error) {
	violationPoints, err := s.violations.AllOpenWithCoords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query open violation points: %w", err)
	}

	points := make([]analytics.GridPoint, 0, len(violationPoints))
	for _, vp := range violationPoints {
		points = append(points, analytics.GridPoint{
			Lat:   vp.Lat,
			Lng:   vp.Lng,
			Value: 1,
			BBL:   vp.BBL,
		})
	}
	return points, nil
}
