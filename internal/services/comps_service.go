package services

import (
	"context"
	"fmt"
	"time"

	"github.com/nycre/explorer/internal/analytics"
	"github.com/nycre/explorer/internal/logger"
	"github.com/nycre/explorer/internal/repository"
)

// Comp candidate retrieval bounds. Candidates are recent arm's-length sales;
// the analytics matcher narrows them to true comparables.
const (
	compCandidateMinPrice = 100000
	compCandidateLimit    = 200

	MinCompRadiusMiles = 0.1
	MaxCompRadiusMiles = 5.0
	MaxCompLimit       = 25
)

// compCandidateCutoff is the earliest sale date considered for comps.
var compCandidateCutoff = time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)

// CompsService defines the interface for comparable-sales lookups.
type CompsService interface {
	// FindComps retrieves comparable sales for the given property.
	// Returns ErrPropertyNotFound if the BBL is not on record. A property
	// without coordinates yields an empty result with MissingGeometry set,
	// never an error.
	FindComps(ctx context.Context, bbl string, radiusMiles float64, limit int) (*analytics.CompsResult, error)
}

// compsService is the concrete implementation of CompsService.
type compsService struct {
	properties repository.PropertyRepository
	sales      repository.SaleRepository
	log        *logger.Logger
}

// NewCompsService creates a new instance of CompsService.
func NewCompsService(
	properties repository.PropertyRepository,
	sales repository.SaleRepository,
	log *logger.Logger,
) CompsService {
	return &compsService{
		properties: properties,
		sales:      sales,
		log:        log,
	}
}

// FindComps retrieves the subject property, pulls recent sale candidates
// and runs the comparable matcher over them.
func (s *compsService) FindComps(ctx context.Context, bbl string, radiusMiles float64, limit int) (*analytics.CompsResult, error) {
	if radiusMiles < MinCompRadiusMiles || radiusMiles > MaxCompRadiusMiles {
		radiusMiles = analytics.DefaultCompRadiusMiles
	}
	if limit <= 0 || limit > MaxCompLimit {
		limit = analytics.DefaultCompLimit
	}

	subject, err := s.properties.FindByBBL(ctx, bbl)
	if err != nil {
		s.log.Error("Failed to query comps subject", err, map[string]interface{}{"bbl": bbl})
		return nil, fmt.Errorf("failed to query property: %w", err)
	}
	if subject == nil {
		return nil, ErrPropertyNotFound
	}

	minPrice := compCandidateMinPrice
	candidates, err := s.sales.RecentWithProperty(ctx, repository.SaleQuery{
		Cutoff:   compCandidateCutoff,
		MinPrice: &minPrice,
		Limit:    compCandidateLimit,
	})
	if err != nil {
		s.log.Error("Failed to query comp candidates", err, map[string]interface{}{"bbl": bbl})
		return nil, fmt.Errorf("failed to query comp candidates: %w", err)
	}

	result := analytics.FindComps(subject, candidates, radiusMiles, limit)

	s.log.Info("Comps computed", map[string]interface{}{
		"bbl":        bbl,
		"candidates": len(candidates),
		"comps":      len(result.Comps),
		"radius":     radiusMiles,
	})
	return &result, nil
}
