package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nycre/explorer/internal/database"
	"github.com/nycre/explorer/internal/models"
)

// SaleQuery bounds a recent-sales retrieval. Nil price bounds are absent.
type SaleQuery struct {
	Cutoff   time.Time
	MinPrice *int
	MaxPrice *int
	Limit    int
}

// SaleRepository defines the interface for sale data access.
type SaleRepository interface {
	// RecentWithProperty returns sales on or after the cutoff date joined to
	// their referenced property, newest first. Orphan sales come back with a
	// nil Property and must be handled by the caller.
	// Returns an empty slice if nothing matches (not an error).
	RecentWithProperty(ctx context.Context, q SaleQuery) ([]models.SaleWithProperty, error)

	// ByBBL returns the full sale history for one property, newest first.
	ByBBL(ctx context.Context, bbl string) ([]models.Sale, error)

	// LatestByBBLs returns the most recent sale per BBL for the given set.
	// BBLs with no sale on record are absent from the result map.
	LatestByBBLs(ctx context.Context, bbls []string) (map[string]*models.Sale, error)

	// Count returns the total number of sales on record.
	Count(ctx context.Context) (int, error)

	// BulkInsert writes sales in batches, silently skipping rows already on
	// record. Batch failures are counted and do not abort the run.
	BulkInsert(ctx context.Context, sales []models.Sale) (UpsertResult, error)
}

// saleRepository is the concrete implementation of SaleRepository.
type saleRepository struct {
	db *database.Database
}

// NewSaleRepository creates a new instance of SaleRepository.
func NewSaleRepository(db *database.Database) SaleRepository {
	return &saleRepository{
		db: db,
	}
}

const saleColumns = `
	s.id,
	s.bbl,
	s.sale_price,
	s.sale_date,
	s.gross_sf,
	s.price_per_sf,
	s.building_class`

// RecentWithProperty queries sales since the cutoff with their properties.
// The LEFT JOIN keeps orphan sales so callers can decide how to treat them.
func (r *saleRepository) RecentWithProperty(ctx context.Context, q SaleQuery) ([]models.SaleWithProperty, error) {
	query := fmt.Sprintf(`
		SELECT %s,
			p.bbl,
			p.address,
			p.bldgclass,
			p.ownername,
			p.zonedist1,
			p.bldgarea,
			p.lat,
			p.lng
		FROM sales s
		LEFT JOIN properties p ON p.bbl = s.bbl
		WHERE s.sale_date >= $1
	`, saleColumns)
	args := []interface{}{q.Cutoff}

	if q.MinPrice != nil {
		args = append(args, *q.MinPrice)
		query += fmt.Sprintf(" AND s.sale_price >= $%d", len(args))
	}
	if q.MaxPrice != nil {
		args = append(args, *q.MaxPrice)
		query += fmt.Sprintf(" AND s.sale_price <= $%d", len(args))
	}

	args = append(args, q.Limit)
	query += fmt.Sprintf(" ORDER BY s.sale_date DESC LIMIT $%d", len(args))

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent sales: %w", err)
	}
	defer rows.Close()

	results := []models.SaleWithProperty{}
	for rows.Next() {
		var swp models.SaleWithProperty
		var propBBL *string
		var address, bldgclass, ownername, zonedist *string
		var bldgarea *int
		var lat, lng *float64

		err := rows.Scan(
			&swp.Sale.ID,
			&swp.Sale.BBL,
			&swp.Sale.SalePrice,
			&swp.Sale.SaleDate,
			&swp.Sale.GrossSF,
			&swp.Sale.PricePerSF,
			&swp.Sale.BuildingClass,
			&propBBL,
			&address,
			&bldgclass,
			&ownername,
			&zonedist,
			&bldgarea,
			&lat,
			&lng,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale row: %w", err)
		}

		if propBBL != nil {
			swp.Property = &models.Property{
				BBL:       *propBBL,
				Address:   address,
				BldgClass: bldgclass,
				OwnerName: ownername,
				ZoneDist:  zonedist,
				BldgArea:  bldgarea,
				Lat:       lat,
				Lng:       lng,
			}
		}
		results = append(results, swp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sale rows: %w", err)
	}
	return results, nil
}

// ByBBL queries the sale history for one property.
func (r *saleRepository) ByBBL(ctx context.Context, bbl string) ([]models.Sale, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM sales s
		WHERE s.bbl = $1
		ORDER BY s.sale_date DESC NULLS LAST
	`, saleColumns)

	rows, err := r.db.Pool.Query(ctx, query, bbl)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales for %s: %w", bbl, err)
	}
	defer rows.Close()

	sales := []models.Sale{}
	for rows.Next() {
		var s models.Sale
		err := rows.Scan(&s.ID, &s.BBL, &s.SalePrice, &s.SaleDate, &s.GrossSF, &s.PricePerSF, &s.BuildingClass)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale row: %w", err)
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sale rows: %w", err)
	}
	return sales, nil
}

// LatestByBBLs queries the most recent sale per BBL using a windowed rank.
func (r *saleRepository) LatestByBBLs(ctx context.Context, bbls []string) (map[string]*models.Sale, error) {
	latest := map[string]*models.Sale{}
	if len(bbls) == 0 {
		return latest, nil
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM (
			SELECT *,
				ROW_NUMBER() OVER (PARTITION BY bbl ORDER BY sale_date DESC NULLS LAST) AS rank
			FROM sales
			WHERE bbl = ANY($1)
		) s
		WHERE s.rank = 1
	`, saleColumns)

	rows, err := r.db.Pool.Query(ctx, query, bbls)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest sales: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.Sale
		err := rows.Scan(&s.ID, &s.BBL, &s.SalePrice, &s.SaleDate, &s.GrossSF, &s.PricePerSF, &s.BuildingClass)
		if err != nil {
			return nil, fmt.Errorf("failed to scan latest sale row: %w", err)
		}
		sale := s
		latest[s.BBL] = &sale
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating latest sale rows: %w", err)
	}
	return latest, nil
}

// Count returns the total number of sales.
func (r *saleRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM sales`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sales: %w", err)
	}
	return count, nil
}

// BulkInsert writes sales in batches of upsertBatchSize. Rows that collide
// with an existing (bbl, sale_date, sale_price) record are skipped.
func (r *saleRepository) BulkInsert(ctx context.Context, sales []models.Sale) (UpsertResult, error) {
	var result UpsertResult

	for start := 0; start < len(sales); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(sales) {
			end = len(sales)
		}
		batch := sales[start:end]

		if err := r.insertBatch(ctx, batch); err != nil {
			result.Failed += len(batch)
			continue
		}
		result.Succeeded += len(batch)
	}
	return result, nil
}

func (r *saleRepository) insertBatch(ctx context.Context, batch []models.Sale) error {
	const columnsPerRow = 6

	var sb strings.Builder
	sb.WriteString(`
		INSERT INTO sales (
			bbl, sale_price, sale_date, gross_sf, price_per_sf, building_class
		) VALUES `)

	args := make([]interface{}, 0, len(batch)*columnsPerRow)
	for i, s := range batch {
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
		args = append(args, s.BBL, s.SalePrice, s.SaleDate, s.GrossSF, s.PricePerSF, s.BuildingClass)
	}

	sb.WriteString(" ON CONFLICT DO NOTHING")

	if _, err := r.db.Pool.Exec(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("failed to insert sale batch: %w", err)
	}
	return nil
}
