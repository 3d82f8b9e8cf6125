package analytics

import (
	"math"
	"sort"

	"github.com/mmcloughlin/geohash"
	"gonum.org/v1/gonum/stat"
)

// Heatmap metrics.
const (
	MetricOpportunity = "opportunity"
	MetricPrice       = "price"
	MetricDistress    = "distress"
)

// Grid defaults and scale floors. The min/max returned with a grid give
// clients a color-scale range; floors keep sparse data from collapsing it.
const (
	DefaultCellSize = 0.002

	opportunityScale    = 10.0
	opportunityMaxFloor = 100.0
	priceOutlierCeil    = 10000.0
	priceMaxFloor       = 1000.0
	distressMaxFloor    = 10.0

	cellGeohashPrecision = 8
)

// ValidMetric reports whether the metric name is recognized.
func ValidMetric(metric string) bool {
	switch metric {
	case MetricOpportunity, MetricPrice, MetricDistress:
		return true
	}
	return false
}

// GridPoint is one point-valued observation to bucket.
type GridPoint struct {
	Lat   float64
	Lng   float64
	Value float64
	BBL   string
}

// GridCell is one aggregated heatmap cell, identified by its snapped
// center coordinates and a geohash of that center.
type GridCell struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Geohash string  `json:"geohash"`
	Value   float64 `json:"value"`
	Count   int     `json:"count"`
}

// Grid is the heatmap aggregation result.
type Grid struct {
	Metric string     `json:"metric"`
	Cells  []GridCell `json:"cells"`
	Min    float64    `json:"min"`
	Max    float64    `json:"max"`
}

// SnapToGrid rounds a coordinate to the nearest grid-cell center.
func SnapToGrid(v, cellSize float64) float64 {
	return math.Round(v/cellSize) * cellSize
}

type cellAccum struct {
	lat, lng float64
	values   []float64
	bbls     map[string]struct{}
}

type cellKey struct {
	lat, lng float64
}

func accumulate(points []GridPoint, cellSize float64, trackBBLs bool) map[cellKey]*cellAccum {
	grid := make(map[cellKey]*cellAccum)
	for _, pt := range points {
		lat := SnapToGrid(pt.Lat, cellSize)
		lng := SnapToGrid(pt.Lng, cellSize)
		key := cellKey{lat, lng}
		cell, ok := grid[key]
		if !ok {
			cell = &cellAccum{lat: lat, lng: lng}
			if trackBBLs {
				cell.bbls = make(map[string]struct{})
			}
			grid[key] = cell
		}
		cell.values = append(cell.values, pt.Value)
		if trackBBLs {
			cell.bbls[pt.BBL] = struct{}{}
		}
	}
	return grid
}

// sortedCells flattens the accumulation map into a deterministic order.
func sortedCells(grid map[cellKey]*cellAccum) []*cellAccum {
	cells := make([]*cellAccum, 0, len(grid))
	for _, c := range grid {
		cells = append(cells, c)
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].lat != cells[j].lat {
			return cells[i].lat < cells[j].lat
		}
		return cells[i].lng < cells[j].lng
	})
	return cells
}

func cellID(lat, lng float64) string {
	return geohash.EncodeWithPrecision(lat, lng, cellGeohashPrecision)
}

// OpportunityGrid buckets FAR-gap observations and scores each cell as
// the mean gap scaled by ten.
func OpportunityGrid(points []GridPoint, cellSize float64) Grid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	grid := Grid{Metric: MetricOpportunity, Max: opportunityMaxFloor}
	for _, acc := range sortedCells(accumulate(points, cellSize, false)) {
		value := math.Round(stat.Mean(acc.values, nil) * opportunityScale)
		grid.Cells = append(grid.Cells, GridCell{
			Lat:     acc.lat,
			Lng:     acc.lng,
			Geohash: cellID(acc.lat, acc.lng),
			Value:   value,
			Count:   len(acc.values),
		})
		if value > grid.Max {
			grid.Max = value
		}
	}
	return grid
}

// PriceGrid buckets price-per-sqft observations, discarding non-positive
// and implausibly high values, and scores each cell as the mean.
func PriceGrid(points []GridPoint, cellSize float64) Grid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	filtered := make([]GridPoint, 0, len(points))
	for _, pt := range points {
		if pt.Value <= 0 || pt.Value > priceOutlierCeil {
			continue
		}
		filtered = append(filtered, pt)
	}
	grid := Grid{Metric: MetricPrice, Max: priceMaxFloor}
	for _, acc := range sortedCells(accumulate(filtered, cellSize, false)) {
		value := math.Round(stat.Mean(acc.values, nil))
		grid.Cells = append(grid.Cells, GridCell{
			Lat:     acc.lat,
			Lng:     acc.lng,
			Geohash: cellID(acc.lat, acc.lng),
			Value:   value,
			Count:   len(acc.values),
		})
		if value > grid.Max {
			grid.Max = value
		}
		if value < grid.Min {
			grid.Min = value
		}
	}
	return grid
}

// DistressGrid buckets open violations. Each cell's value is the violation
// count and its count is the number of distinct contributing BBLs.
func DistressGrid(points []GridPoint, cellSize float64) Grid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	grid := Grid{Metric: MetricDistress, Max: distressMaxFloor}
	for _, acc := range sortedCells(accumulate(points, cellSize, true)) {
		value := float64(len(acc.values))
		grid.Cells = append(grid.Cells, GridCell{
			Lat:     acc.lat,
			Lng:     acc.lng,
			Geohash: cellID(acc.lat, acc.lng),
			Value:   value,
			Count:   len(acc.bbls),
		})
		if value > grid.Max {
			grid.Max = value
		}
	}
	return grid
}
