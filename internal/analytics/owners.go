package analytics

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/nycre/explorer/internal/models"
)

// entityRule maps owner-name substrings to an entity type. Rules are
// evaluated in order; the first match wins.
type entityRule struct {
	needles []string
	label   string
}

var entityRules = []entityRule{
	{[]string{" LLC", " L.L.C"}, "LLC"},
	{[]string{" LP", " L.P"}, "LP"},
	{[]string{" INC", " CORP"}, "Corporation"},
	{[]string{" TRUST", " TRUSTEES"}, "Trust"},
	{[]string{" PARTNERS", " PARTNERSHIP"}, "Partnership"},
	{[]string{" ASSOC", " ASSOCIATION"}, "Association"},
	{[]string{"CITY OF", "STATE OF", "USA "}, "Government"},
	{[]string{" CO ", " COMPANY"}, "Company"},
}

// maxIndividualTokens: owner names with at most this many space-separated
// tokens and no comma are classified as individuals when no entity rule
// matches.
const maxIndividualTokens = 3

// EntityType classifies an owner name string into an entity category.
func EntityType(name string) string {
	if name == "" {
		return "Unknown"
	}
	upper := strings.ToUpper(name)
	for _, rule := range entityRules {
		for _, needle := range rule.needles {
			if strings.Contains(upper, needle) {
				return rule.label
			}
		}
	}
	words := strings.Fields(strings.TrimSpace(name))
	if len(words) <= maxIndividualTokens && !strings.Contains(upper, ",") {
		return "Individual"
	}
	return "Unknown"
}

// ViolationCounts is the per-property open/total violation rollup used by
// owner aggregation.
type ViolationCounts struct {
	Open  int `json:"open"`
	Total int `json:"total"`
}

// OwnerPortfolio is the derived, never-persisted aggregation of one exact
// owner-name string over the property set.
type OwnerPortfolio struct {
	Name                string             `json:"name"`
	EntityType          string             `json:"entityType"`
	PropertyCount       int                `json:"propertyCount"`
	Properties          []ScoredProperty   `json:"properties"`
	TotalAssessed       int                `json:"totalAssessed"`
	TotalSF             int                `json:"totalSF"`
	TotalLotArea        int                `json:"totalLotArea"`
	AvgHoldingPeriod    *float64           `json:"avgHoldingPeriod"`
	TotalOpenViolations int                `json:"totalOpenViolations"`
	TotalViolations     int                `json:"totalViolations"`
	ConcentrationScore  float64            `json:"concentrationScore"`
	Blocks              []string           `json:"blocks"`
}

const daysPerHoldingYear = 365.25

// AggregateOwners groups properties by exact owner-name string and computes
// the portfolio rollup for each: totals, violation counts, average holding
// period (properties without a sale are excluded from the average) and the
// block concentration score. Owners are returned sorted by total assessed
// value descending. The grouping index is built fresh on every call.
func AggregateOwners(
	properties []*models.Property,
	violationsByBBL map[string][]models.Violation,
	latestSaleByBBL map[string]*models.Sale,
	now time.Time,
) []OwnerPortfolio {
	type ownerAccum struct {
		portfolio      OwnerPortfolio
		blocks         map[string]struct{}
		holdingPeriods []float64
	}

	byOwner := make(map[string]*ownerAccum)
	order := make([]string, 0)

	for _, p := range properties {
		name := "Unknown"
		if p.OwnerName != nil && *p.OwnerName != "" {
			name = *p.OwnerName
		}
		acc, ok := byOwner[name]
		if !ok {
			acc = &ownerAccum{
				portfolio: OwnerPortfolio{
					Name:       name,
					EntityType: EntityType(name),
				},
				blocks: make(map[string]struct{}),
			}
			byOwner[name] = acc
			order = append(order, name)
		}

		scored := Score(p, violationsByBBL[p.BBL])
		_, total := openAndTotal(violationsByBBL[p.BBL])
		acc.portfolio.Properties = append(acc.portfolio.Properties, scored)
		acc.portfolio.TotalOpenViolations += scored.ViolationCount
		acc.portfolio.TotalViolations += total

		if p.AssessedTotal != nil {
			acc.portfolio.TotalAssessed += *p.AssessedTotal
		}
		if p.BldgArea != nil {
			acc.portfolio.TotalSF += *p.BldgArea
		}
		if p.LotArea != nil {
			acc.portfolio.TotalLotArea += *p.LotArea
		}
		if block := models.BlockKey(p.BBL); block != "" {
			acc.blocks[block] = struct{}{}
		}
		if sale := latestSaleByBBL[p.BBL]; sale != nil && sale.SaleDate != nil {
			years := now.Sub(*sale.SaleDate).Hours() / 24 / daysPerHoldingYear
			acc.holdingPeriods = append(acc.holdingPeriods, years)
		}
	}

	owners := make([]OwnerPortfolio, 0, len(byOwner))
	for _, name := range order {
		acc := byOwner[name]
		o := acc.portfolio
		o.PropertyCount = len(o.Properties)
		o.ConcentrationScore = concentration(len(acc.blocks), o.PropertyCount)
		o.Blocks = sortedKeys(acc.blocks)
		if len(acc.holdingPeriods) > 0 {
			avg := mean(acc.holdingPeriods)
			rounded := math.Round(avg*10) / 10
			o.AvgHoldingPeriod = &rounded
		}
		owners = append(owners, o)
	}

	sort.SliceStable(owners, func(i, j int) bool {
		return owners[i].TotalAssessed > owners[j].TotalAssessed
	})
	return owners
}

// concentration scores geographic clustering of a portfolio:
// 1 - min(distinctBlocks/propertyCount, 1) for multi-property owners,
// 0 for single-property owners. Rounded to two decimals.
func concentration(distinctBlocks, propertyCount int) float64 {
	if propertyCount <= 1 {
		return 0
	}
	ratio := float64(distinctBlocks) / float64(propertyCount)
	if ratio > 1 {
		ratio = 1
	}
	return math.Round((1-ratio)*100) / 100
}

func openAndTotal(violations []models.Violation) (open, total int) {
	for i := range violations {
		total++
		if violations[i].IsOpen() {
			open++
		}
	}
	return open, total
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
