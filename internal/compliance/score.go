package compliance

import (
	"math"
	"sort"
)

// Requirement weights for the weighted score average. Mandatory obligations
// count double.
const (
	weightMandatory = 2.0
	weightOptional  = 1.0
)

func requirementWeight(r Requirement) float64 {
	if r.Mandatory {
		return weightMandatory
	}
	return weightOptional
}

// CategoryScore is the weighted score restricted to one category.
type CategoryScore struct {
	Category     Category `json:"category"`
	Score        int      `json:"score"`
	Requirements int      `json:"requirements"`
}

// Scorecard is the aggregate output of scoring one assessment.
type Scorecard struct {
	Overall    int             `json:"overall"`
	Mandatory  int             `json:"mandatory"`
	ByCategory []CategoryScore `json:"by_category"`
	Risk       RiskLevel       `json:"risk_level"`
}

// EffectiveStatus looks up the stored status for a requirement, defaulting
// missing rows to not_assessed.
func EffectiveStatus(statuses map[string]Status, requirementID string) Status {
	if s, ok := statuses[requirementID]; ok && s != "" {
		return s
	}
	return StatusNotAssessed
}

// Score computes the weighted compliance scorecard for the applicable
// requirement set against the stored statuses. Statuses map requirement id
// to status; requirements without a row count as not_assessed. Scores are
// weighted averages of status contributions (compliant 1.0, partial 0.5,
// otherwise 0) times 100, rounded. With no applicable requirements every
// score is 0.
func Score(applicable []Requirement, statuses map[string]Status) Scorecard {
	var (
		sum, weight                   float64
		mandatorySum, mandatoryWeight float64
		unresolvedMandatory           bool
	)
	type catAcc struct {
		sum, weight float64
		count       int
	}
	byCat := make(map[Category]*catAcc)

	for _, req := range applicable {
		w := requirementWeight(req)
		c := EffectiveStatus(statuses, req.ID).contribution()

		sum += w * c
		weight += w

		if req.Mandatory {
			mandatorySum += w * c
			mandatoryWeight += w
			if EffectiveStatus(statuses, req.ID).Unresolved() {
				unresolvedMandatory = true
			}
		}

		acc := byCat[req.Category]
		if acc == nil {
			acc = &catAcc{}
			byCat[req.Category] = acc
		}
		acc.sum += w * c
		acc.weight += w
		acc.count++
	}

	card := Scorecard{
		Overall:   roundScore(sum, weight),
		Mandatory: roundScore(mandatorySum, mandatoryWeight),
	}

	card.ByCategory = make([]CategoryScore, 0, len(byCat))
	for cat, acc := range byCat {
		card.ByCategory = append(card.ByCategory, CategoryScore{
			Category:     cat,
			Score:        roundScore(acc.sum, acc.weight),
			Requirements: acc.count,
		})
	}
	sort.Slice(card.ByCategory, func(i, j int) bool {
		return card.ByCategory[i].Category < card.ByCategory[j].Category
	})

	card.Risk = DeriveRisk(card.Overall, unresolvedMandatory)
	return card
}

func roundScore(sum, weight float64) int {
	if weight <= 0 {
		return 0
	}
	return int(math.Round(sum / weight * 100))
}

// DeriveRisk buckets a 0-100 score and applies the mandatory override: any
// unresolved mandatory requirement forces the level to at least high.
func DeriveRisk(score int, unresolvedMandatory bool) RiskLevel {
	risk := riskFromScore(score)
	if unresolvedMandatory && (risk == RiskLow || risk == RiskMedium) {
		return RiskHigh
	}
	return risk
}

func riskFromScore(score int) RiskLevel {
	switch {
	case score >= 80:
		return RiskLow
	case score >= 60:
		return RiskMedium
	case score >= 40:
		return RiskHigh
	default:
		return RiskCritical
	}
}
