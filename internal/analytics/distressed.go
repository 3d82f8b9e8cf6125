package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/nycre/explorer/internal/models"
)

// Distressed-owner ranking weights. Components are capped individually;
// the theoretical maximum is 100.
const (
	violPerPropScale     = 10.0
	violPerPropCap       = 40.0
	spreadThreshold      = 0.5
	spreadBonus          = 20.0
	chronicAgeScale      = 10.0
	chronicAgeCap        = 20.0
	singleAssetBonus     = 5.0
	overwhelmedRatio     = 5
	overwhelmedBonus     = 15.0
	chronicAgeDays       = 365.0
	manyViolationsFloor  = 10
)

// DistressedOwnerOptions bounds the ranking output.
type DistressedOwnerOptions struct {
	Limit         int
	MinScore      int
	MinProperties int
}

// DefaultDistressedOwnerOptions mirrors the query defaults.
func DefaultDistressedOwnerOptions() DistressedOwnerOptions {
	return DistressedOwnerOptions{Limit: 50, MinScore: 20, MinProperties: 1}
}

// DistressedOwner is one entry in the owner distress ranking.
type DistressedOwner struct {
	Name                string   `json:"name"`
	PropertyCount       int      `json:"propertyCount"`
	TotalAssessed       int      `json:"totalAssessed"`
	OpenViolations      int      `json:"openViolations"`
	PctWithViolations   int      `json:"pctWithViolations"`
	AvgViolationAgeDays int      `json:"avgViolationAgeDays"`
	DistressScore       int      `json:"distressScore"`
	EntityType          string   `json:"entityType"`
	TopIssues           []string `json:"topIssues"`
}

// RankDistressedOwners scores every owner in the property set by the
// distress signals of their portfolio and returns the ranking, highest
// score first. Only open violations are considered. The score sums five
// capped components: violations per property, portfolio spread, chronic
// violation age, single-asset risk and an overwhelmed-portfolio bonus.
func RankDistressedOwners(
	properties []*models.Property,
	openViolationsByBBL map[string][]models.Violation,
	now time.Time,
	opts DistressedOwnerOptions,
) []DistressedOwner {
	type ownerAccum struct {
		name            string
		propertyCount   int
		totalAssessed   int
		totalViolations int
		propsWithViols  int
		violationAges   []float64
	}

	byOwner := make(map[string]*ownerAccum)
	order := make([]string, 0)

	for _, p := range properties {
		name := "Unknown Owner"
		if p.OwnerName != nil && *p.OwnerName != "" {
			name = *p.OwnerName
		}
		acc, ok := byOwner[name]
		if !ok {
			acc = &ownerAccum{name: name}
			byOwner[name] = acc
			order = append(order, name)
		}
		acc.propertyCount++
		if p.AssessedTotal != nil {
			acc.totalAssessed += *p.AssessedTotal
		}
		viols := openViolationsByBBL[p.BBL]
		if len(viols) == 0 {
			continue
		}
		acc.totalViolations += len(viols)
		acc.propsWithViols++
		for i := range viols {
			if viols[i].IssueDate != nil {
				ageDays := now.Sub(*viols[i].IssueDate).Hours() / 24
				acc.violationAges = append(acc.violationAges, ageDays)
			}
		}
	}

	ranked := make([]DistressedOwner, 0, len(byOwner))
	for _, name := range order {
		acc := byOwner[name]
		if acc.propertyCount < opts.MinProperties {
			continue
		}

		pctWithViols := float64(acc.propsWithViols) / float64(acc.propertyCount)
		avgAge := 0.0
		if len(acc.violationAges) > 0 {
			avgAge = mean(acc.violationAges)
		}

		var score float64
		violationsPerProp := float64(acc.totalViolations) / float64(acc.propertyCount)
		score += math.Min(violationsPerProp*violPerPropScale, violPerPropCap)
		if pctWithViols > spreadThreshold {
			score += spreadBonus
		}
		score += math.Min(avgAge/chronicAgeDays*chronicAgeScale, chronicAgeCap)
		if acc.propertyCount == 1 && acc.totalViolations > 0 {
			score += singleAssetBonus
		}
		if acc.totalViolations > acc.propertyCount*overwhelmedRatio {
			score += overwhelmedBonus
		}

		entry := DistressedOwner{
			Name:                acc.name,
			PropertyCount:       acc.propertyCount,
			TotalAssessed:       acc.totalAssessed,
			OpenViolations:      acc.totalViolations,
			PctWithViolations:   int(math.Round(pctWithViols * 100)),
			AvgViolationAgeDays: int(math.Round(avgAge)),
			DistressScore:       int(math.Round(score)),
			EntityType:          EntityType(acc.name),
			TopIssues:           topIssues(acc.totalViolations, avgAge, pctWithViols),
		}
		if entry.DistressScore < opts.MinScore {
			continue
		}
		ranked = append(ranked, entry)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistressScore > ranked[j].DistressScore
	})
	if opts.Limit > 0 && len(ranked) > opts.Limit {
		ranked = ranked[:opts.Limit]
	}
	return ranked
}

func topIssues(violations int, avgAgeDays, pctWithViols float64) []string {
	issues := []string{}
	if violations > manyViolationsFloor {
		issues = append(issues, "Many Violations")
	}
	if avgAgeDays > chronicAgeDays {
		issues = append(issues, "Chronic Issues")
	}
	if pctWithViols > spreadThreshold {
		issues = append(issues, "Portfolio Contamination")
	}
	if len(issues) == 0 && violations > 0 {
		issues = append(issues, "Minor Violations")
	}
	return issues
}
