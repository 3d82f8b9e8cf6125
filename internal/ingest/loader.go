package ingest

import (
	"context"
	"fmt"

	"github.com/nycre/explorer/internal/logger"
	"github.com/nycre/explorer/internal/models"
	"github.com/nycre/explorer/internal/repository"
)

// Summary reports what a snapshot load accomplished. Skipped counts cover
// records dropped before storage: malformed rows and sales or violations
// referencing lots outside the property set.
type Summary struct {
	Properties repository.UpsertResult `json:"properties"`
	Sales      repository.UpsertResult `json:"sales"`
	Violations repository.UpsertResult `json:"violations"`
	Skipped    int                     `json:"skipped"`
}

// Loader transforms a snapshot and bulk-writes it through the repositories.
type Loader struct {
	properties repository.PropertyRepository
	sales      repository.SaleRepository
	violations repository.ViolationRepository
	log        *logger.Logger
}

// NewLoader creates a new Loader instance.
func NewLoader(
	properties repository.PropertyRepository,
	sales repository.SaleRepository,
	violations repository.ViolationRepository,
	log *logger.Logger,
) *Loader {
	return &Loader{
		properties: properties,
		sales:      sales,
		violations: violations,
		log:        log,
	}
}

// Load transforms and writes a snapshot. Properties land first so the sale
// and violation writes can be restricted to lots actually on record.
// Individual bad records are skipped and counted, never fatal.
func (l *Loader) Load(ctx context.Context, snap *Snapshot) (*Summary, error) {
	summary := &Summary{}

	properties := make([]models.Property, 0, len(snap.Properties))
	known := make(map[string]struct{}, len(snap.Properties))
	for _, rec := range snap.Properties {
		p, err := TransformProperty(rec)
		if err != nil {
			l.log.Warn("Skipping property record", map[string]interface{}{"reason": err.Error()})
			summary.Skipped++
			continue
		}
		properties = append(properties, p)
		known[p.BBL] = struct{}{}
	}

	result, err := l.properties.BulkUpsert(ctx, properties)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert properties: %w", err)
	}
	summary.Properties = result
	l.log.Info("Properties upserted", map[string]interface{}{
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	})

	sales := make([]models.Sale, 0, len(snap.Sales))
	for _, rec := range snap.Sales {
		s, err := TransformSale(rec)
		if err != nil {
			summary.Skipped++
			continue
		}
		if _, ok := known[s.BBL]; !ok {
			summary.Skipped++
			continue
		}
		sales = append(sales, s)
	}

	summary.Sales, err = l.sales.BulkInsert(ctx, sales)
	if err != nil {
		return nil, fmt.Errorf("failed to insert sales: %w", err)
	}
	l.log.Info("Sales inserted", map[string]interface{}{
		"succeeded": summary.Sales.Succeeded,
		"failed":    summary.Sales.Failed,
		"matched":   len(sales),
		"fetched":   len(snap.Sales),
	})

	violations := make([]models.Violation, 0, len(snap.HPDViolations)+len(snap.DOBViolations))
	appendViolation := func(v models.Violation, err error) {
		if err != nil {
			summary.Skipped++
			return
		}
		if _, ok := known[v.BBL]; !ok {
			summary.Skipped++
			return
		}
		violations = append(violations, v)
	}
	for _, rec := range snap.HPDViolations {
		appendViolation(TransformHPDViolation(rec))
	}
	for _, rec := range snap.DOBViolations {
		appendViolation(TransformDOBViolation(rec))
	}

	summary.Violations, err = l.violations.BulkUpsert(ctx, violations)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert violations: %w", err)
	}
	l.log.Info("Violations upserted", map[string]interface{}{
		"succeeded": summary.Violations.Succeeded,
		"failed":    summary.Violations.Failed,
		"matched":   len(violations),
	})

	return summary, nil
}
