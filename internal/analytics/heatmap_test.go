package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidMetric(t *testing.T) {
	assert.True(t, ValidMetric(MetricOpportunity))
	assert.True(t, ValidMetric(MetricPrice))
	assert.True(t, ValidMetric(MetricDistress))
	assert.False(t, ValidMetric("velocity"))
	assert.False(t, ValidMetric(""))
}

func TestSnapToGrid(t *testing.T) {
	assert.InDelta(t, 40.744, SnapToGrid(40.7444, DefaultCellSize), 1e-9)
	assert.InDelta(t, 40.746, SnapToGrid(40.7452, DefaultCellSize), 1e-9)
	assert.InDelta(t, -73.994, SnapToGrid(-73.9943, DefaultCellSize), 1e-9)
}

func TestOpportunityGrid_BucketsNearbyPoints(t *testing.T) {
	points := []GridPoint{
		{Lat: 40.7440, Lng: -73.9940, Value: 2.0, BBL: "1008260001"},
		{Lat: 40.7444, Lng: -73.9943, Value: 4.0, BBL: "1008260002"}, // same cell
		{Lat: 40.7452, Lng: -73.9940, Value: 1.0, BBL: "1008260003"}, // next cell up in latitude
	}

	grid := OpportunityGrid(points, DefaultCellSize)

	assert.Equal(t, MetricOpportunity, grid.Metric)
	require.Len(t, grid.Cells, 2)
	// Cells come back ordered south to north.
	assert.Equal(t, 2, grid.Cells[0].Count)
	assert.Equal(t, 30.0, grid.Cells[0].Value, "mean gap 3.0 scaled by ten")
	assert.Equal(t, 1, grid.Cells[1].Count)
	assert.Equal(t, 10.0, grid.Cells[1].Value)
	assert.NotEmpty(t, grid.Cells[0].Geohash)
	assert.NotEqual(t, grid.Cells[0].Geohash, grid.Cells[1].Geohash)
}

func TestOpportunityGrid_MaxFloor(t *testing.T) {
	sparse := OpportunityGrid([]GridPoint{
		{Lat: 40.7440, Lng: -73.9940, Value: 2.0},
	}, DefaultCellSize)
	assert.Equal(t, 100.0, sparse.Max, "scale max never collapses below the floor")

	hot := OpportunityGrid([]GridPoint{
		{Lat: 40.7440, Lng: -73.9940, Value: 15.0},
	}, DefaultCellSize)
	assert.Equal(t, 150.0, hot.Max)
}

func TestPriceGrid_DropsOutliers(t *testing.T) {
	points := []GridPoint{
		{Lat: 40.7440, Lng: -73.9940, Value: 400},
		{Lat: 40.7440, Lng: -73.9940, Value: 600},
		{Lat: 40.7440, Lng: -73.9940, Value: 0},     // non-positive
		{Lat: 40.7440, Lng: -73.9940, Value: -50},   // non-positive
		{Lat: 40.7440, Lng: -73.9940, Value: 25000}, // implausible psf
	}

	grid := PriceGrid(points, DefaultCellSize)

	require.Len(t, grid.Cells, 1)
	assert.Equal(t, 500.0, grid.Cells[0].Value)
	assert.Equal(t, 2, grid.Cells[0].Count)
	assert.Equal(t, 1000.0, grid.Max)
	assert.Equal(t, 0.0, grid.Min)
}

func TestPriceGrid_MaxTracksHotCells(t *testing.T) {
	grid := PriceGrid([]GridPoint{
		{Lat: 40.7440, Lng: -73.9940, Value: 2400},
	}, DefaultCellSize)
	assert.Equal(t, 2400.0, grid.Max)
}

func TestDistressGrid_CountsDistinctBBLs(t *testing.T) {
	points := []GridPoint{
		{Lat: 40.7440, Lng: -73.9940, Value: 1, BBL: "1008260001"},
		{Lat: 40.7440, Lng: -73.9940, Value: 1, BBL: "1008260001"},
		{Lat: 40.7441, Lng: -73.9941, Value: 1, BBL: "1008260002"},
	}

	grid := DistressGrid(points, DefaultCellSize)

	require.Len(t, grid.Cells, 1)
	assert.Equal(t, 3.0, grid.Cells[0].Value, "value counts every violation")
	assert.Equal(t, 2, grid.Cells[0].Count, "count is distinct properties")
	assert.Equal(t, 10.0, grid.Max)
}

func TestGrid_ZeroCellSizeFallsBackToDefault(t *testing.T) {
	points := []GridPoint{
		{Lat: 40.7440, Lng: -73.9940, Value: 2.0},
		{Lat: 40.7444, Lng: -73.9940, Value: 2.0},
	}
	grid := OpportunityGrid(points, 0)
	require.Len(t, grid.Cells, 1)
	assert.Equal(t, 2, grid.Cells[0].Count)
}

func TestGrid_Deterministic(t *testing.T) {
	var points []GridPoint
	for i := 0; i < 40; i++ {
		points = append(points, GridPoint{
			Lat:   40.70 + float64(i%7)*0.003,
			Lng:   -74.00 + float64(i%5)*0.003,
			Value: float64(i + 1),
			BBL:   "1008260001",
		})
	}
	assert.Equal(t, DistressGrid(points, DefaultCellSize), DistressGrid(points, DefaultCellSize))
	assert.Equal(t, OpportunityGrid(points, DefaultCellSize), OpportunityGrid(points, DefaultCellSize))
}
