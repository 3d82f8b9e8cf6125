package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/nycre/explorer/internal/analytics"
	"github.com/nycre/explorer/internal/database"
	"github.com/nycre/explorer/internal/models"
)

// UpsertResult reports the outcome of a chunked bulk upsert. A failed batch
// counts all of its rows as failed; the run continues with the next batch.
type UpsertResult struct {
	Succeeded int
	Failed    int
}

// upsertBatchSize is the number of rows written per upsert statement.
const upsertBatchSize = 100

// PropertySummary is the sparse projection used by the stats and
// distressed-owner aggregations, which scan every property but only need a
// handful of columns.
type PropertySummary struct {
	BBL           string
	BldgClass     *string
	OwnerName     *string
	FARGap        *float64
	AssessedTotal *int
}

// PropertyRepository defines the interface for property data access.
type PropertyRepository interface {
	// Find returns properties matching the storage-pushable filter criteria,
	// ordered by BBL for stable pagination. The distress threshold in params
	// is a derived value and is NOT applied here.
	// Returns an empty slice if nothing matches (not an error).
	Find(ctx context.Context, params analytics.FilterParams, limit, offset int) ([]*models.Property, error)

	// FindByBBL returns the property with the given BBL.
	// Returns nil, nil if no property is found (not an error).
	FindByBBL(ctx context.Context, bbl string) (*models.Property, error)

	// FindByOwnerSubstring returns properties whose owner name contains the
	// given fragment, case-insensitively, ordered by assessed value
	// descending. Returns an empty slice if nothing matches.
	FindByOwnerSubstring(ctx context.Context, owner string) ([]*models.Property, error)

	// FindOpportunityCandidates returns properties whose FAR gap exceeds the
	// threshold, ordered by FAR gap descending, capped at limit.
	FindOpportunityCandidates(ctx context.Context, minFARGap float64, limit int) ([]*models.Property, error)

	// FindWithCoordinates returns properties that have both coordinates and
	// a positive FAR gap, for grid aggregation.
	FindWithCoordinates(ctx context.Context) ([]*models.Property, error)

	// AllSummaries returns the sparse projection of every property.
	AllSummaries(ctx context.Context) ([]PropertySummary, error)

	// Count returns the total number of properties on record.
	Count(ctx context.Context) (int, error)

	// BulkUpsert writes properties in batches, updating existing rows keyed
	// on BBL. Batch failures are counted and do not abort the run.
	BulkUpsert(ctx context.Context, properties []models.Property) (UpsertResult, error)
}

// propertyRepository is the concrete implementation of PropertyRepository.
type propertyRepository struct {
	db *database.Database
}

// NewPropertyRepository creates a new instance of PropertyRepository.
func NewPropertyRepository(db *database.Database) PropertyRepository {
	return &propertyRepository{
		db: db,
	}
}

// propertyColumns is the full column list scanned into models.Property.
// Keep the order in sync with scanProperty.
const propertyColumns = `
	bbl,
	address,
	borough,
	block,
	lot,
	zipcode,
	bldgclass,
	bldgclass_desc,
	ownername,
	lotarea,
	bldgarea,
	numfloors,
	yearbuilt,
	zonedist1,
	builtfar,
	residfar,
	commfar,
	facilfar,
	far_gap,
	assesstot,
	last_sale_date,
	last_sale_price,
	lat,
	lng,
	created_at,
	updated_at`

func scanProperty(row pgx.Row) (*models.Property, error) {
	var p models.Property
	err := row.Scan(
		&p.BBL,
		&p.Address,
		&p.Borough,
		&p.Block,
		&p.Lot,
		&p.Zipcode,
		&p.BldgClass,
		&p.BldgClassDesc,
		&p.OwnerName,
		&p.LotArea,
		&p.BldgArea,
		&p.NumFloors,
		&p.YearBuilt,
		&p.ZoneDist,
		&p.BuiltFAR,
		&p.ResidFAR,
		&p.CommFAR,
		&p.FacilFAR,
		&p.FARGap,
		&p.AssessedTotal,
		&p.LastSaleDate,
		&p.LastSalePrice,
		&p.Lat,
		&p.Lng,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectProperties(rows pgx.Rows) ([]*models.Property, error) {
	defer rows.Close()

	properties := []*models.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property row: %w", err)
		}
		properties = append(properties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating property rows: %w", err)
	}
	return properties, nil
}

// buildFilterClauses translates the pushable filter criteria into SQL
// predicates with positional arguments. The in-memory Matches predicate in
// the analytics package applies the same semantics; the two must agree.
func buildFilterClauses(params analytics.FilterParams) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if prefixes := params.AllowedPrefixes(); prefixes != nil {
		classClauses := make([]string, 0, len(prefixes))
		for _, prefix := range prefixes {
			classClauses = append(classClauses, fmt.Sprintf("bldgclass ILIKE %s", arg(prefix+"%")))
		}
		clauses = append(clauses, "("+strings.Join(classClauses, " OR ")+")")
	}
	if params.MinFARGap != nil {
		clauses = append(clauses, fmt.Sprintf("far_gap >= %s", arg(*params.MinFARGap)))
	}
	if params.MaxFARGap != nil {
		clauses = append(clauses, fmt.Sprintf("far_gap <= %s", arg(*params.MaxFARGap)))
	}
	if params.MinYear != nil {
		clauses = append(clauses, fmt.Sprintf("yearbuilt >= %s", arg(*params.MinYear)))
	}
	if params.MaxYear != nil {
		clauses = append(clauses, fmt.Sprintf("yearbuilt <= %s", arg(*params.MaxYear)))
	}
	if params.MinAssessed != nil {
		clauses = append(clauses, fmt.Sprintf("assesstot >= %s", arg(*params.MinAssessed)))
	}
	if params.MaxAssessed != nil {
		clauses = append(clauses, fmt.Sprintf("assesstot <= %s", arg(*params.MaxAssessed)))
	}
	if params.Owner != "" {
		clauses = append(clauses, fmt.Sprintf("ownername ILIKE %s", arg("%"+params.Owner+"%")))
	}
	if params.Address != "" {
		clauses = append(clauses, fmt.Sprintf("address ILIKE %s", arg("%"+params.Address+"%")))
	}
	if params.Zipcode != "" {
		clauses = append(clauses, fmt.Sprintf("zipcode = %s", arg(params.Zipcode)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// Find queries properties matching the pushable filter criteria.
func (r *propertyRepository) Find(ctx context.Context, params analytics.FilterParams, limit, offset int) ([]*models.Property, error) {
	where, args := buildFilterClauses(params)

	query := fmt.Sprintf(`
		SELECT %s
		FROM properties
		%s
		ORDER BY bbl
		LIMIT $%d OFFSET $%d
	`, propertyColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	return collectProperties(rows)
}

// FindByBBL queries the property with the given BBL.
func (r *propertyRepository) FindByBBL(ctx context.Context, bbl string) (*models.Property, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM properties
		WHERE bbl = $1
	`, propertyColumns)

	p, err := scanProperty(r.db.Pool.QueryRow(ctx, query, bbl))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query property %s: %w", bbl, err)
	}
	return p, nil
}

// FindByOwnerSubstring queries properties by owner-name fragment.
func (r *propertyRepository) FindByOwnerSubstring(ctx context.Context, owner string) ([]*models.Property, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM properties
		WHERE ownername ILIKE $1
		ORDER BY assesstot DESC NULLS LAST
	`, propertyColumns)

	rows, err := r.db.Pool.Query(ctx, query, "%"+owner+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to query properties by owner %q: %w", owner, err)
	}
	return collectProperties(rows)
}

// FindOpportunityCandidates queries high-FAR-gap properties.
func (r *propertyRepository) FindOpportunityCandidates(ctx context.Context, minFARGap float64, limit int) ([]*models.Property, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM properties
		WHERE far_gap > $1
		ORDER BY far_gap DESC
		LIMIT $2
	`, propertyColumns)

	rows, err := r.db.Pool.Query(ctx, query, minFARGap, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query opportunity candidates: %w", err)
	}
	return collectProperties(rows)
}

// FindWithCoordinates queries mappable properties with development headroom.
func (r *propertyRepository) FindWithCoordinates(ctx context.Context) ([]*models.Property, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM properties
		WHERE far_gap > 0
		  AND lat IS NOT NULL
		  AND lng IS NOT NULL
	`, propertyColumns)

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query mappable properties: %w", err)
	}
	return collectProperties(rows)
}

// AllSummaries queries the sparse projection of every property.
func (r *propertyRepository) AllSummaries(ctx context.Context) ([]PropertySummary, error) {
	query := `
		SELECT bbl, bldgclass, ownername, far_gap, assesstot
		FROM properties
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query property summaries: %w", err)
	}
	defer rows.Close()

	summaries := []PropertySummary{}
	for rows.Next() {
		var s PropertySummary
		if err := rows.Scan(&s.BBL, &s.BldgClass, &s.OwnerName, &s.FARGap, &s.AssessedTotal); err != nil {
			return nil, fmt.Errorf("failed to scan property summary row: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating property summary rows: %w", err)
	}
	return summaries, nil
}

// Count returns the total number of properties.
func (r *propertyRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM properties`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count properties: %w", err)
	}
	return count, nil
}

// BulkUpsert writes properties in batches of upsertBatchSize, updating
// existing rows keyed on BBL.
func (r *propertyRepository) BulkUpsert(ctx context.Context, properties []models.Property) (UpsertResult, error) {
	var result UpsertResult

	for start := 0; start < len(properties); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(properties) {
			end = len(properties)
		}
		batch := properties[start:end]

		if err := r.upsertBatch(ctx, batch); err != nil {
			result.Failed += len(batch)
			continue
		}
		result.Succeeded += len(batch)
	}
	return result, nil
}

func (r *propertyRepository) upsertBatch(ctx context.Context, batch []models.Property) error {
	const columnsPerRow = 24

	var sb strings.Builder
	sb.WriteString(`
		INSERT INTO properties (
			bbl, address, borough, block, lot, zipcode, bldgclass,
			bldgclass_desc, ownername, lotarea, bldgarea, numfloors,
			yearbuilt, zonedist1, builtfar, residfar, commfar, facilfar,
			far_gap, assesstot, last_sale_date, last_sale_price, lat, lng
		) VALUES `)

	args := make([]interface{}, 0, len(batch)*columnsPerRow)
	for i, p := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * columnsPerRow
		sb.WriteString("(")
		for j := 0; j < columnsPerRow; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", base+j+1)
		}
		sb.WriteString(")")
		args = append(args,
			p.BBL, p.Address, p.Borough, p.Block, p.Lot, p.Zipcode, p.BldgClass,
			p.BldgClassDesc, p.OwnerName, p.LotArea, p.BldgArea, p.NumFloors,
			p.YearBuilt, p.ZoneDist, p.BuiltFAR, p.ResidFAR, p.CommFAR, p.FacilFAR,
			p.FARGap, p.AssessedTotal, p.LastSaleDate, p.LastSalePrice, p.Lat, p.Lng,
		)
	}

	sb.WriteString(`
		ON CONFLICT (bbl) DO UPDATE SET
			address = EXCLUDED.address,
			borough = EXCLUDED.borough,
			block = EXCLUDED.block,
			lot = EXCLUDED.lot,
			zipcode = EXCLUDED.zipcode,
			bldgclass = EXCLUDED.bldgclass,
			bldgclass_desc = EXCLUDED.bldgclass_desc,
			ownername = EXCLUDED.ownername,
			lotarea = EXCLUDED.lotarea,
			bldgarea = EXCLUDED.bldgarea,
			numfloors = EXCLUDED.numfloors,
			yearbuilt = EXCLUDED.yearbuilt,
			zonedist1 = EXCLUDED.zonedist1,
			builtfar = EXCLUDED.builtfar,
			residfar = EXCLUDED.residfar,
			commfar = EXCLUDED.commfar,
			facilfar = EXCLUDED.facilfar,
			far_gap = EXCLUDED.far_gap,
			assesstot = EXCLUDED.assesstot,
			last_sale_date = EXCLUDED.last_sale_date,
			last_sale_price = EXCLUDED.last_sale_price,
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng,
			updated_at = NOW()`)

	if _, err := r.db.Pool.Exec(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("failed to upsert property batch: %w", err)
	}
	return nil
}
