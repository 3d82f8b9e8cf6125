package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/nycre/explorer/internal/database"
	"github.com/nycre/explorer/internal/models"
)

// ViolationPoint is an open violation joined to its property's coordinates,
// for grid aggregation.
type ViolationPoint struct {
	BBL string
	Lat float64
	Lng float64
}

// ViolationRepository defines the interface for violation data access.
type ViolationRepository interface {
	// ByBBLs returns all violations, open and closed, for the given BBL set,
	// grouped by BBL. Returns an empty map if nothing matches.
	ByBBLs(ctx context.Context, bbls []string) (map[string][]models.Violation, error)

	// OpenByBBLs returns only open violations for the given BBL set, grouped
	// by BBL.
	OpenByBBLs(ctx context.Context, bbls []string) (map[string][]models.Violation, error)

	// AllOpenWithCoords returns one point per open violation whose property
	// has coordinates on record.
	AllOpenWithCoords(ctx context.Context) ([]ViolationPoint, error)

	// AllOpen returns every open violation grouped by BBL.
	AllOpen(ctx context.Context) (map[string][]models.Violation, error)

	// BulkUpsert writes violations in batches keyed on (bbl, violation_id),
	// skipping duplicates. Batch failures are counted and do not abort the run.
	BulkUpsert(ctx context.Context, violations []models.Violation) (UpsertResult, error)
}

// violationRepository is the concrete implementation of ViolationRepository.
type violationRepository struct {
	db *database.Database
}

// NewViolationRepository creates a new instance of ViolationRepository.
func NewViolationRepository(db *database.Database) ViolationRepository {
	return &violationRepository{
		db: db,
	}
}

const violationColumns = `
	bbl,
	violation_id,
	violation_type,
	status,
	issue_date,
	description`

func (r *violationRepository) queryGrouped(ctx context.Context, query string, args ...interface{}) (map[string][]models.Violation, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query violations: %w", err)
	}
	defer rows.Close()

	grouped := map[string][]models.Violation{}
	for rows.Next() {
		var v models.Violation
		err := rows.Scan(&v.BBL, &v.ViolationID, &v.ViolationType, &v.Status, &v.IssueDate, &v.Description)
		if err != nil {
			return nil, fmt.Errorf("failed to scan violation row: %w", err)
		}
		grouped[v.BBL] = append(grouped[v.BBL], v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating violation rows: %w", err)
	}
	return grouped, nil
}

// ByBBLs queries all violations for the given BBL set.
func (r *violationRepository) ByBBLs(ctx context.Context, bbls []string) (map[string][]models.Violation, error) {
	if len(bbls) == 0 {
		return map[string][]models.Violation{}, nil
	}
	query := fmt.Sprintf(`
		SELECT %s
		FROM violations
		WHERE bbl = ANY($1)
	`, violationColumns)
	return r.queryGrouped(ctx, query, bbls)
}

// OpenByBBLs queries open violations for the given BBL set.
func (r *violationRepository) OpenByBBLs(ctx context.Context, bbls []string) (map[string][]models.Violation, error) {
	if len(bbls) == 0 {
		return map[string][]models.Violation{}, nil
	}
	query := fmt.Sprintf(`
		SELECT %s
		FROM violations
		WHERE bbl = ANY($1) AND status = $2
	`, violationColumns)
	return r.queryGrouped(ctx, query, bbls, models.ViolationStatusOpen)
}

// AllOpen queries every open violation.
func (r *violationRepository) AllOpen(ctx context.Context) (map[string][]models.Violation, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM violations
		WHERE status = $1
	`, violationColumns)
	return r.queryGrouped(ctx, query, models.ViolationStatusOpen)
}

// AllOpenWithCoords queries open violations joined to property coordinates.
func (r *violationRepository) AllOpenWithCoords(ctx context.Context) ([]ViolationPoint, error) {
	query := `
		SELECT v.bbl, p.lat, p.lng
		FROM violations v
		JOIN properties p ON p.bbl = v.bbl
		WHERE v.status = $1
		  AND p.lat IS NOT NULL
		  AND p.lng IS NOT NULL
	`

	rows, err := r.db.Pool.Query(ctx, query, models.ViolationStatusOpen)
	if err != nil {
		return nil, fmt.Errorf("failed to query open violation points: %w", err)
	}
	defer rows.Close()

	points := []ViolationPoint{}
	for rows.Next() {
		var pt ViolationPoint
		if err := rows.Scan(&pt.BBL, &pt.Lat, &pt.Lng); err != nil {
			return nil, fmt.Errorf("failed to scan violation point row: %w", err)
		}
		points = append(points, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating violation point rows: %w", err)
	}
	return points, nil
}

// BulkUpsert writes violations in batches of upsertBatchSize, keyed on the
// (bbl, violation_id) composite. Duplicates are skipped, not updated.
func (r *violationRepository) BulkUpsert(ctx context.Context, violations []models.Violation) (UpsertResult, error) {
	var result UpsertResult

	for start := 0; start < len(violations); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(violations) {
			end = len(violations)
		}
		batch := violations[start:end]

		if err := r.upsertBatch(ctx, batch); err != nil {
			result.Failed += len(batch)
			continue
		}
		result.Succeeded += len(batch)
	}
	return result, nil
}

func (r *violationRepository) upsertBatch(ctx context.Context, batch []models.Violation) error {
	const columnsPerRow = 6

	var sb strings.Builder
	sb.WriteString(`
		INSERT INTO violations (
			bbl, violation_id, violation_type, status, issue_date, description
		) VALUES `)

	args := make([]interface{}, 0, len(batch)*columnsPerRow)
	for i, v := range batch {
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
		args = append(args, v.BBL, v.ViolationID, v.ViolationType, v.Status, v.IssueDate, v.Description)
	}

	sb.WriteString(" ON CONFLICT (bbl, violation_id) DO NOTHING")

	if _, err := r.db.Pool.Exec(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("failed to upsert violation batch: %w", err)
	}
	return nil
}
