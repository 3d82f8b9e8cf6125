package services

import (
	"context"
	"fmt"
	"time"

	"github.com/nycre/explorer/internal/analytics"
	"github.com/nycre/explorer/internal/logger"
	"github.com/nycre/explorer/internal/models"
	"github.com/nycre/explorer/internal/repository"
)

// OwnerSearchResult groups portfolio aggregations for every distinct owner
// name matched by a search term.
type OwnerSearchResult struct {
	SearchTerm string                     `json:"searchTerm"`
	MatchCount int                        `json:"matchCount"`
	Owners     []analytics.OwnerPortfolio `json:"owners"`
}

// OwnerService defines the interface for owner aggregation logic.
type OwnerService interface {
	// Search aggregates portfolios for all owner names containing the term.
	// A term matching nothing yields an empty result, not an error.
	Search(ctx context.Context, name string) (*OwnerSearchResult, error)

	// Distressed ranks owners across the whole dataset by portfolio
	// distress signals.
	Distressed(ctx context.Context, opts analytics.DistressedOwnerOptions) ([]analytics.DistressedOwner, error)
}

// ownerService is the concrete implementation of OwnerService.
type ownerService struct {
	properties repository.PropertyRepository
	sales      repository.SaleRepository
	violations repository.ViolationRepository
	log        *logger.Logger
}

// NewOwnerService creates a new instance of OwnerService.
func NewOwnerService(
	properties repository.PropertyRepository,
	sales repository.SaleRepository,
	violations repository.ViolationRepository,
	log *logger.Logger,
) OwnerService {
	return &ownerService{
		properties: properties,
		sales:      sales,
		violations: violations,
		log:        log,
	}
}

// Search aggregates owner portfolios for a name fragment. The grouping index
// is built fresh on every call; nothing is persisted.
func (s *ownerService) Search(ctx context.Context, name string) (*OwnerSearchResult, error) {
	properties, err := s.properties.FindByOwnerSubstring(ctx, name)
	if err != nil {
		s.log.Error("Failed to query properties by owner", err, map[string]interface{}{"term": name})
		return nil, fmt.Errorf("failed to query properties by owner: %w", err)
	}

	if len(properties) == 0 {
		return &OwnerSearchResult{
			SearchTerm: name,
			MatchCount: 0,
			Owners:     []analytics.OwnerPortfolio{},
		}, nil
	}

	bbls := make([]string, 0, len(properties))
	for _, p := range properties {
		bbls = append(bbls, p.BBL)
	}

	violations, err := s.violations.ByBBLs(ctx, bbls)
	if err != nil {
		return nil, fmt.Errorf("failed to query violations: %w", err)
	}
	latest, err := s.sales.LatestByBBLs(ctx, bbls)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest sales: %w", err)
	}

	owners := analytics.AggregateOwners(properties, violations, latest, time.Now())

	s.log.Info("Owner search aggregated", map[string]interface{}{
		"term":       name,
		"properties": len(properties),
		"owners":     len(owners),
	})

	return &OwnerSearchResult{
		SearchTerm: name,
		MatchCount: len(properties),
		Owners:     owners,
	}, nil
}

// Distressed scans every property summary and ranks owners by portfolio
// distress.
func (s *ownerService) Distressed(ctx context.Context, opts analytics.DistressedOwnerOptions) ([]analytics.DistressedOwner, error) {
	summaries, err := s.properties.AllSummaries(ctx)
	if err != nil {
		s.log.Error("Failed to query property summaries", err, nil)
		return nil, fmt.Errorf("failed to query property summaries: %w", err)
	}
	open, err := s.violations.AllOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query open violations: %w", err)
	}

	properties := make([]*models.Property, 0, len(summaries))
	for i := range summaries {
		sum := summaries[i]
		properties = append(properties, &models.Property{
			BBL:           sum.BBL,
			BldgClass:     sum.BldgClass,
			OwnerName:     sum.OwnerName,
			FARGap:        sum.FARGap,
			AssessedTotal: sum.AssessedTotal,
		})
	}

	ranked := analytics.RankDistressedOwners(properties, open, time.Now(), opts)

	s.log.Info("Distressed owners ranked", map[string]interface{}{
		"properties": len(properties),
		"returned":   len(ranked),
	})
	return ranked, nil
}
