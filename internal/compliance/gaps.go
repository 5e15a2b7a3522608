package compliance

import "sort"

// Priority buckets a gap's remediation urgency.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Gap priority bucket thresholds on weight = requirement weight x category
// weight.
const (
	gapWeightHigh   = 3.0
	gapWeightMedium = 1.5
)

// Gap is one applicable requirement left unresolved (non_compliant or
// not_assessed), flattened for report and dashboard rendering.
type Gap struct {
	RequirementID string       `json:"requirement_id"`
	Jurisdiction  Jurisdiction `json:"jurisdiction"`
	ArticleRef    string       `json:"article_ref"`
	Title         string       `json:"title"`
	Category      Category     `json:"category"`
	Mandatory     bool         `json:"mandatory"`
	Status        Status       `json:"status"`
	Priority      Priority     `json:"priority"`
	Weight        float64      `json:"weight"`
}

// Gaps enumerates every applicable requirement whose effective status is
// non_compliant or not_assessed. Compliant and partial requirements never
// appear. Results are ordered by priority weight descending, ties broken by
// requirement id ascending so output is stable.
func Gaps(applicable []Requirement, statuses map[string]Status) []Gap {
	gaps := make([]Gap, 0)
	for _, req := range applicable {
		status := EffectiveStatus(statuses, req.ID)
		if !status.Unresolved() {
			continue
		}
		w := requirementWeight(req) * CategoryWeight(req.Category)
		gaps = append(gaps, Gap{
			RequirementID: req.ID,
			Jurisdiction:  req.Jurisdiction,
			ArticleRef:    req.ArticleRef,
			Title:         req.Title,
			Category:      req.Category,
			Mandatory:     req.Mandatory,
			Status:        status,
			Priority:      priorityForWeight(w),
			Weight:        w,
		})
	}
	sort.Slice(gaps, func(i, j int) bool {
		if gaps[i].Weight != gaps[j].Weight {
			return gaps[i].Weight > gaps[j].Weight
		}
		return gaps[i].RequirementID < gaps[j].RequirementID
	})
	return gaps
}

func priorityForWeight(w float64) Priority {
	switch {
	case w >= gapWeightHigh:
		return PriorityHigh
	case w >= gapWeightMedium:
		return PriorityMedium
	default:
		return PriorityLow
	}
}
