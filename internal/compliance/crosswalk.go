package compliance

import (
	"fmt"

	pkgerrors "github.com/caelexhq/caelex-backend/internal/pkg/errors"
)

// EffortType classifies how much implementation work two mapped
// requirements share.
type EffortType string

const (
	EffortSingleImplementation EffortType = "single_implementation"
	EffortPartialOverlap       EffortType = "partial_overlap"
	EffortSeparateEffort       EffortType = "separate_effort"
)

func ParseEffortType(s string) (EffortType, error) {
	switch EffortType(s) {
	case EffortSingleImplementation, EffortPartialOverlap, EffortSeparateEffort:
		return EffortType(s), nil
	}
	return "", fmt.Errorf("%w: unknown effort type %q", pkgerrors.ErrInvalidArgument, s)
}

// WeeksSaved is the static effort estimate attached to each overlap.
func (e EffortType) WeeksSaved() int {
	switch e {
	case EffortSingleImplementation:
		return 6
	case EffortPartialOverlap:
		return 3
	default:
		return 0
	}
}

// CrosswalkMapping is one curated association between requirement ids in
// two catalogs.
type CrosswalkMapping struct {
	AID    string     `json:"a_id" yaml:"a"`
	BID    string     `json:"b_id" yaml:"b"`
	Effort EffortType `json:"effort" yaml:"effort"`
	Note   string     `json:"note,omitempty" yaml:"note,omitempty"`
}

// Overlap pairs two applicable requirements that share implementation work.
type Overlap struct {
	A          Requirement `json:"a"`
	B          Requirement `json:"b"`
	Effort     EffortType  `json:"effort"`
	WeeksSaved int         `json:"weeks_saved"`
	Note       string      `json:"note,omitempty"`
}

// Overlaps applies the static mapping table to two resolved requirement
// sets. A mapping row is emitted only when both sides are applicable, and
// each requirement participates in at most one overlap (first mapping in
// table order wins), so len(result) <= min(len(applicableA),
// len(applicableB)). Pure table lookup, no inference.
func Overlaps(applicableA, applicableB []Requirement, mappings []CrosswalkMapping) []Overlap {
	byIDA := make(map[string]Requirement, len(applicableA))
	for _, r := range applicableA {
		byIDA[r.ID] = r
	}
	byIDB := make(map[string]Requirement, len(applicableB))
	for _, r := range applicableB {
		byIDB[r.ID] = r
	}

	usedA := make(map[string]bool, len(applicableA))
	usedB := make(map[string]bool, len(applicableB))

	overlaps := make([]Overlap, 0)
	for _, m := range mappings {
		a, okA := byIDA[m.AID]
		b, okB := byIDB[m.BID]
		if !okA || !okB || usedA[m.AID] || usedB[m.BID] {
			continue
		}
		usedA[m.AID] = true
		usedB[m.BID] = true
		overlaps = append(overlaps, Overlap{
			A:          a,
			B:          b,
			Effort:     m.Effort,
			WeeksSaved: m.Effort.WeeksSaved(),
			Note:       m.Note,
		})
	}
	return overlaps
}

// TotalWeeksSaved sums the static estimates across an overlap list.
func TotalWeeksSaved(overlaps []Overlap) int {
	total := 0
	for _, o := range overlaps {
		total += o.WeeksSaved
	}
	return total
}
