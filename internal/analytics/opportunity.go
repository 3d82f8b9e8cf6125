package analytics

import (
	"math"
	"time"

	"github.com/nycre/explorer/internal/models"
)

// Opportunity scoring constants. Each component is capped independently so
// one strong signal cannot swamp the others.
const (
	// DefaultFARGapThreshold is the minimum FAR gap for a property to be
	// considered an opportunity candidate at all.
	DefaultFARGapThreshold = 0.5

	farGapPointsPer  = 10.0
	farGapCap        = 40.0
	tenureCap        = 20.0
	ratioScale       = 20.0
	ratioCap         = 20.0
	lotAreaDivisor   = 2000.0
	lotAreaCap       = 10.0
	elevatorBonus    = 10.0
	nominalSaleFloor = 1000

	// defaultTenureYears is assumed when a property has no sale on record.
	// Inherited heuristic: it biases never-sold parcels toward a moderate
	// tenure signal rather than zero. See DESIGN.md.
	defaultTenureYears = 10.0

	daysPerYear = 365.0
)

// elevatorClassPrefix is the multifamily-elevator building class letter
// that earns the flat class bonus.
const elevatorClassPrefix = "D"

// OpportunityResult carries the total score and the intermediate signals
// surfaced alongside it.
type OpportunityResult struct {
	Score           int      `json:"opportunityScore"`
	TenureYears     float64  `json:"tenure"`
	AssessmentRatio float64  `json:"assessmentRatio"`
	LastSaleDate    *time.Time `json:"lastSaleDate,omitempty"`
	LastSalePrice   *int     `json:"lastSalePrice,omitempty"`
}

// OpportunityScore computes the investment-opportunity signal for a
// property given its most recent sale (nil when none is on record):
//
//  1. FAR gap:        min(far_gap * 10, 40)
//  2. Tenure:         min(years since last sale, 20); 10y fallback if unsold
//  3. Value ratio:    min(assessed/salePrice * 20, 20) for non-nominal sales
//  4. Size and class: min(lotarea/2000, 10) plus +10 for D-class buildings
func OpportunityScore(p *models.Property, latestSale *models.Sale, now time.Time) OpportunityResult {
	var score float64
	result := OpportunityResult{}

	farGap := 0.0
	if p.FARGap != nil {
		farGap = *p.FARGap
	}
	score += math.Min(farGap*farGapPointsPer, farGapCap)

	tenureYears := defaultTenureYears
	if latestSale != nil && latestSale.SaleDate != nil {
		tenureYears = now.Sub(*latestSale.SaleDate).Hours() / 24 / daysPerYear
		result.LastSaleDate = latestSale.SaleDate
		result.LastSalePrice = latestSale.SalePrice
	}
	score += math.Min(tenureYears, tenureCap)
	result.TenureYears = math.Round(tenureYears*10) / 10

	if latestSale != nil && latestSale.SalePrice != nil && *latestSale.SalePrice > nominalSaleFloor {
		assessed := 0.0
		if p.AssessedTotal != nil {
			assessed = float64(*p.AssessedTotal)
		}
		ratio := assessed / float64(*latestSale.SalePrice)
		result.AssessmentRatio = ratio
		score += math.Min(ratio*ratioScale, ratioCap)
	}

	lotArea := 0.0
	if p.LotArea != nil {
		lotArea = float64(*p.LotArea)
	}
	score += math.Min(lotArea/lotAreaDivisor, lotAreaCap)
	if p.ClassPrefix() == elevatorClassPrefix {
		score += elevatorBonus
	}

	result.Score = int(math.Round(score))
	return result
}
