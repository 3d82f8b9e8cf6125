package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/nycre/explorer/internal/models"
	"gonum.org/v1/gonum/stat"
)

// Comparable-sales search defaults.
const (
	DefaultCompRadiusMiles = 0.5
	DefaultCompLimit       = 5

	// Degrees-to-miles conversion at NYC's latitude: one degree of
	// latitude spans ~69 miles, one degree of longitude ~53 miles.
	milesPerDegreeLat = 69.0
	milesPerDegreeLng = 53.0

	// Size envelope relative to the subject's building area. The filter
	// is skipped entirely for subjects at or under minReliableArea sqft,
	// where recorded areas are too unreliable to compare.
	sizeEnvelopeMin = 0.25
	sizeEnvelopeMax = 2.5
	minReliableArea = 1000
)

// compClassGroups are the building-class prefix groups considered
// comparable to one another. A subject outside every group is only
// compared against its own prefix.
var compClassGroups = [][]string{
	{"A", "B"},           // 1-2 family dwellings
	{"C", "D", "S", "R"}, // multifamily, mixed-use, condos
	{"O"},                // office
	{"K"},                // retail
	{"L"},                // lofts
	{"E", "F", "G"},      // industrial, warehouse, garage
}

// CompClassPrefixes returns the set of building-class prefixes comparable
// to the given prefix.
func CompClassPrefixes(prefix string) []string {
	for _, group := range compClassGroups {
		for _, p := range group {
			if p == prefix {
				return group
			}
		}
	}
	if prefix == "" {
		return nil
	}
	return []string{prefix}
}

// BoundingBox is an axis-aligned lat/lng envelope.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// Contains reports whether a point falls inside the box (inclusive).
func (b BoundingBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// CompSearchBox converts a radius in miles to a bounding box around the
// subject's coordinates.
func CompSearchBox(lat, lng, radiusMiles float64) BoundingBox {
	latBuffer := radiusMiles / milesPerDegreeLat
	lngBuffer := radiusMiles / milesPerDegreeLng
	return BoundingBox{
		MinLat: lat - latBuffer,
		MaxLat: lat + latBuffer,
		MinLng: lng - lngBuffer,
		MaxLng: lng + lngBuffer,
	}
}

// DistanceMiles approximates the distance between two points using the
// same flat-earth degree scaling as the bounding box.
func DistanceMiles(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat1 - lat2) * milesPerDegreeLat
	dLng := (lng1 - lng2) * milesPerDegreeLng
	return math.Sqrt(dLat*dLat + dLng*dLng)
}

// Comp is one comparable sale, enriched with derived price-per-sqft and
// distance from the subject.
type Comp struct {
	BBL        string     `json:"bbl"`
	Address    *string    `json:"address,omitempty"`
	SaleDate   *time.Time `json:"sale_date,omitempty"`
	SalePrice  *int       `json:"sale_price,omitempty"`
	BldgArea   int        `json:"bldgarea"`
	PricePerSF *float64   `json:"price_per_sf,omitempty"`
	DistMiles  float64    `json:"dist_miles"`
}

// MarketStats summarizes price-per-sqft over a comp set.
type MarketStats struct {
	AvgPricePerSF    float64 `json:"avgPricePerSF"`
	MedianPricePerSF float64 `json:"medianPricePerSF"`
	Count            int     `json:"count"`
}

// missingGeometryNote explains an empty result for a subject with no
// coordinates on record.
const missingGeometryNote = "No coordinates for subject"

// CompsResult is the outcome of a comparable-sales search. A subject with
// no coordinates yields a valid empty result carrying Note and the
// MissingGeometry flag, never an error.
type CompsResult struct {
	Subject         *models.Property `json:"subject"`
	Comps           []Comp           `json:"comps"`
	MarketStats     *MarketStats     `json:"marketStats"`
	Note            string           `json:"note,omitempty"`
	MissingGeometry bool             `json:"-"`
}

// FindComps filters and ranks candidate sales comparable to the subject
// property. Candidates outside the subject's class group, size envelope or
// bounding box are excluded, as is the subject's own BBL. Survivors are
// ranked by sale date descending (stable on ties) and truncated to limit.
// The result is deterministic for identical inputs; it never pads.
func FindComps(subject *models.Property, candidates []models.SaleWithProperty, radiusMiles float64, limit int) CompsResult {
	if radiusMiles <= 0 {
		radiusMiles = DefaultCompRadiusMiles
	}
	if limit <= 0 {
		limit = DefaultCompLimit
	}
	if !subject.HasCoordinates() {
		return CompsResult{
			Subject:         subject,
			Comps:           []Comp{},
			Note:            missingGeometryNote,
			MissingGeometry: true,
		}
	}

	box := CompSearchBox(*subject.Lat, *subject.Lng, radiusMiles)
	allowed := CompClassPrefixes(subject.ClassPrefix())

	subjectArea := 0
	if subject.BldgArea != nil {
		subjectArea = *subject.BldgArea
	}
	minArea := float64(subjectArea) * sizeEnvelopeMin
	maxArea := float64(subjectArea) * sizeEnvelopeMax

	matched := make([]models.SaleWithProperty, 0, len(candidates))
	for _, cand := range candidates {
		p := cand.Property
		if p == nil {
			continue // orphan sale
		}
		if cand.Sale.BBL == subject.BBL {
			continue
		}
		if !prefixAllowed(p.ClassPrefix(), allowed) {
			continue
		}
		if subjectArea > minReliableArea {
			area := 0.0
			if p.BldgArea != nil {
				area = float64(*p.BldgArea)
			}
			if area < minArea || area > maxArea {
				continue
			}
		}
		if !p.HasCoordinates() || !box.Contains(*p.Lat, *p.Lng) {
			continue
		}
		matched = append(matched, cand)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return laterSale(matched[i].Sale.SaleDate, matched[j].Sale.SaleDate)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}

	comps := make([]Comp, 0, len(matched))
	for _, m := range matched {
		p := m.Property
		area := 0
		if p.BldgArea != nil {
			area = *p.BldgArea
		}
		comps = append(comps, Comp{
			BBL:        m.Sale.BBL,
			Address:    p.Address,
			SaleDate:   m.Sale.SaleDate,
			SalePrice:  m.Sale.SalePrice,
			BldgArea:   area,
			PricePerSF: m.Sale.PricePerSFFrom(area),
			DistMiles:  roundTo(DistanceMiles(*p.Lat, *p.Lng, *subject.Lat, *subject.Lng), 2),
		})
	}

	return CompsResult{Subject: subject, Comps: comps, MarketStats: compMarketStats(comps)}
}

func prefixAllowed(prefix string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if prefix == a {
			return true
		}
	}
	return false
}

// laterSale orders sale dates descending, with nil dates last.
func laterSale(a, b *time.Time) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return a.After(*b)
}

// compMarketStats computes mean and median price-per-sqft over comps with
// a positive derived value. Returns nil when the comp set is empty.
func compMarketStats(comps []Comp) *MarketStats {
	if len(comps) == 0 {
		return nil
	}
	prices := make([]float64, 0, len(comps))
	for _, c := range comps {
		if c.PricePerSF != nil && *c.PricePerSF > 0 {
			prices = append(prices, *c.PricePerSF)
		}
	}
	stats := &MarketStats{Count: len(comps)}
	if len(prices) == 0 {
		return stats
	}
	stats.AvgPricePerSF = math.Round(stat.Mean(prices, nil))
	sort.Float64s(prices)
	stats.MedianPricePerSF = median(prices)
	return stats
}

// median of a sorted slice: middle value for odd counts, average of the
// two middle values for even counts.
func median(sorted []float64) float64 {
	n := len(sorted)
	mid := n / 2
	if n%2 != 0 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
