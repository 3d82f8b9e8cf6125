package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/nycre/explorer/internal/analytics"
	"github.com/nycre/explorer/internal/logger"
	"github.com/nycre/explorer/internal/models"
	"github.com/nycre/explorer/internal/repository"
)

// List defaults and limits.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500

	// distressScanLimit is how many rows a distress-filtered query scans.
	// The distress score is derived from live violations, so the threshold
	// cannot be pushed into storage; the full candidate set is scored.
	distressScanLimit = 10000

	DefaultOpportunityLimit = 25
	// opportunityFetchFactor over-fetches candidates so the post-scoring
	// sort still has enough rows after ranking shifts the order.
	opportunityFetchFactor = 2

	highFARGapThreshold = 2.0
)

// Service-level errors
var (
	ErrPropertyNotFound = errors.New("property not found")
	ErrInvalidMetric    = errors.New("unknown heatmap metric")
)

// PropertyList is a filtered, scored, sorted page of properties.
type PropertyList struct {
	Count      int                        `json:"count"`
	Offset     int                        `json:"offset"`
	Properties []analytics.ScoredProperty `json:"properties"`
}

// PropertyDetail is one property with its live-scored violations and its
// sale history.
type PropertyDetail struct {
	analytics.ScoredProperty
	OpenViolations []models.Violation `json:"violations"`
	Sales          []models.Sale      `json:"sales"`
}

// OpportunityProperty is one property with its development-opportunity score.
type OpportunityProperty struct {
	Property *models.Property `json:"property"`
	analytics.OpportunityResult
}

// SummaryStats is the dataset-level rollup for the stats endpoint.
type SummaryStats struct {
	Properties         int            `json:"properties"`
	Sales              int            `json:"sales"`
	ByBuildingClass    map[string]int `json:"byBuildingClass"`
	TotalAssessedValue int            `json:"totalAssessedValue"`
	HighFARGapCount    int            `json:"highFarGapCount"`
	LastUpdated        time.Time      `json:"lastUpdated"`
}

// PropertyService defines the interface for property business logic.
type PropertyService interface {
	// List retrieves properties matching the filter, scores them against
	// live violations, applies the distress threshold and sort, and pages
	// the result. When a distress threshold is set, every threshold match
	// is returned regardless of limit.
	List(ctx context.Context, params analytics.FilterParams, limit, offset int) (*PropertyList, error)

	// Get retrieves one property with open violations and sale history.
	// Returns ErrPropertyNotFound if the BBL is not on record.
	Get(ctx context.Context, bbl string) (*PropertyDetail, error)

	// Opportunities retrieves the top development candidates ranked by
	// opportunity score.
	Opportunities(ctx context.Context, limit int) ([]OpportunityProperty, error)

	// Stats computes the dataset-level summary.
	Stats(ctx context.Context) (*SummaryStats, error)
}

// propertyService is the concrete implementation of PropertyService.
type propertyService struct {
	properties repository.PropertyRepository
	sales      repository.SaleRepository
	violations repository.ViolationRepository
	log        *logger.Logger
}

// NewPropertyService creates a new instance of PropertyService.
func NewPropertyService(
	properties repository.PropertyRepository,
	sales repository.SaleRepository,
	violations repository.ViolationRepository,
	log *logger.Logger,
) PropertyService {
	return &propertyService{
		properties: properties,
		sales:      sales,
		violations: violations,
		log:        log,
	}
}

// List retrieves, scores, filters and sorts a page of properties.
func (s *propertyService) List(ctx context.Context, params analytics.FilterParams, limit, offset int) (*PropertyList, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	fetchLimit := limit
	if params.MinDistress != nil {
		fetchLimit = distressScanLimit
	}

	properties, err := s.properties.Find(ctx, params, fetchLimit, offset)
	if err != nil {
		s.log.Error("Failed to query properties", err, map[string]interface{}{
			"limit":  fetchLimit,
			"offset": offset,
		})
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}

	scored, err := s.scoreAll(ctx, properties)
	if err != nil {
		return nil, err
	}

	if params.MinDistress != nil {
		filtered := make([]analytics.ScoredProperty, 0, len(scored))
		for _, sp := range scored {
			if sp.DistressScore >= *params.MinDistress {
				filtered = append(filtered, sp)
			}
		}
		scored = filtered
	}

	params.SortProperties(scored)

	// A distress-threshold query returns every match; otherwise the page is
	// trimmed to the requested limit.
	if params.MinDistress == nil && len(scored) > limit {
		scored = scored[:limit]
	}

	s.log.Info("Property list computed", map[string]interface{}{
		"count":  len(scored),
		"offset": offset,
		"sort":   params.SortField(),
	})

	return &PropertyList{
		Count:      len(scored),
		Offset:     offset,
		Properties: scored,
	}, nil
}

// scoreAll attaches live distress scores to a property set in one violation
// lookup.
func (s *propertyService) scoreAll(ctx context.Context, properties []*models.Property) ([]analytics.ScoredProperty, error) {
	bbls := make([]string, 0, len(properties))
	for _, p := range properties {
		bbls = append(bbls, p.BBL)
	}

	open, err := s.violations.OpenByBBLs(ctx, bbls)
	if err != nil {
		s.log.Error("Failed to query violations for scoring", err, map[string]interface{}{
			"properties": len(properties),
		})
		return nil, fmt.Errorf("failed to query violations: %w", err)
	}

	scored := make([]analytics.ScoredProperty, 0, len(properties))
	for _, p := range properties {
		scored = append(scored, analytics.Score(p, open[p.BBL]))
	}
	return scored, nil
}

// Get retrieves one property with its violations and sale history.
func (s *propertyService) Get(ctx context.Context, bbl string) (*PropertyDetail, error) {
	property, err := s.properties.FindByBBL(ctx, bbl)
	if err != nil {
		s.log.Error("Failed to query property", err, map[string]interface{}{"bbl": bbl})
		return nil, fmt.Errorf("failed to query property: %w", err)
	}
	if property == nil {
		s.log.Debug("Property not found", map[string]interface{}{"bbl": bbl})
		return nil, ErrPropertyNotFound
	}

	open, err := s.violations.OpenByBBLs(ctx, []string{bbl})
	if err != nil {
		return nil, fmt.Errorf("failed to query violations: %w", err)
	}
	sales, err := s.sales.ByBBL(ctx, bbl)
	if err != nil {
		return nil, fmt.Errorf("failed to query sale history: %w", err)
	}

	openViolations := open[bbl]
	if openViolations == nil {
		openViolations = []models.Violation{}
	}

	return &PropertyDetail{
		ScoredProperty: analytics.Score(property, openViolations),
		OpenViolations: openViolations,
		Sales:          sales,
	}, nil
}

// Opportunities ranks high-FAR-gap properties by opportunity score.
func (s *propertyService) Opportunities(ctx context.Context, limit int) ([]OpportunityProperty, error) {
	if limit <= 0 {
		limit = DefaultOpportunityLimit
	}

	candidates, err := s.properties.FindOpportunityCandidates(ctx, analytics.DefaultFARGapThreshold, limit*opportunityFetchFactor)
	if err != nil {
		s.log.Error("Failed to query opportunity candidates", err, nil)
		return nil, fmt.Errorf("failed to query opportunity candidates: %w", err)
	}

	bbls := make([]string, 0, len(candidates))
	for _, p := range candidates {
		bbls = append(bbls, p.BBL)
	}
	latest, err := s.sales.LatestByBBLs(ctx, bbls)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest sales: %w", err)
	}

	now := time.Now()
	scored := make([]OpportunityProperty, 0, len(candidates))
	for _, p := range candidates {
		scored = append(scored, OpportunityProperty{
			Property:          p,
			OpportunityResult: analytics.OpportunityScore(p, latest[p.BBL], now),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}

	s.log.Info("Opportunities ranked", map[string]interface{}{
		"candidates": len(candidates),
		"returned":   len(scored),
	})
	return scored, nil
}

// Stats computes dataset-level summary counts.
func (s *propertyService) Stats(ctx context.Context) (*SummaryStats, error) {
	summaries, err := s.properties.AllSummaries(ctx)
	if err != nil {
		s.log.Error("Failed to query property summaries", err, nil)
		return nil, fmt.Errorf("failed to query property summaries: %w", err)
	}
	salesCount, err := s.sales.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count sales: %w", err)
	}

	byClass := map[string]int{}
	totalAssessed := 0
	highFARGap := 0
	for _, p := range summaries {
		prefix := "X"
		if p.BldgClass != nil && *p.BldgClass != "" {
			prefix = (*p.BldgClass)[:1]
		}
		byClass[prefix]++
		if p.AssessedTotal != nil {
			totalAssessed += *p.AssessedTotal
		}
		if p.FARGap != nil && *p.FARGap > highFARGapThreshold {
			highFARGap++
		}
	}

	return &SummaryStats{
		Properties:         len(summaries),
		Sales:              salesCount,
		ByBuildingClass:    byClass,
		TotalAssessedValue: totalAssessed,
		HighFARGapCount:    highFARGap,
		LastUpdated:        time.Now(),
	}, nil
}
