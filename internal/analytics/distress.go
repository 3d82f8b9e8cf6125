package analytics

import "github.com/nycre/explorer/internal/models"

// Distress score caps. HPD violations count 1 point each, DOB violations 5
// points each, capped per term so neither source can dominate the score.
const (
	hpdPointCap     = 20
	dobPointsPer    = 5
	dobPointCap     = 30
	MaxDistressScore = hpdPointCap + dobPointCap
)

// ScoredProperty pairs a property with the signals recomputed from its
// live violation set. Stored distress columns are never trusted; scores
// are always recalculated at read time.
type ScoredProperty struct {
	Property       *models.Property `json:"property"`
	DistressScore  int              `json:"distress_score"`
	ViolationCount int              `json:"violation_count"`
	MaxFAR         float64          `json:"max_far"`
}

// DistressScore computes the bounded distress signal for a property from
// its violations: min(openHPD, 20) + min(openDOB*5, 30). Violations from
// other sources (ECB, FDNY, ...) count toward the open total but not the
// score. Returns the score and the open-violation count.
func DistressScore(violations []models.Violation) (score, openCount int) {
	var hpd, dob int
	for i := range violations {
		v := &violations[i]
		if !v.IsOpen() {
			continue
		}
		openCount++
		switch v.ViolationType {
		case models.ViolationTypeHPD:
			hpd++
		case models.ViolationTypeDOB:
			dob++
		}
	}
	if hpd > hpdPointCap {
		hpd = hpdPointCap
	}
	dobPoints := dob * dobPointsPer
	if dobPoints > dobPointCap {
		dobPoints = dobPointCap
	}
	return hpd + dobPoints, openCount
}

// Score builds a ScoredProperty from a property and its violations.
func Score(p *models.Property, violations []models.Violation) ScoredProperty {
	score, open := DistressScore(violations)
	return ScoredProperty{
		Property:       p,
		DistressScore:  score,
		ViolationCount: open,
		MaxFAR:         p.MaxFAR(),
	}
}
