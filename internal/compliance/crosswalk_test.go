package compliance

import "testing"

func crosswalkFixtures() (a, b []Requirement, mappings []CrosswalkMapping) {
	a = []Requirement{
		{ID: "eu-1", Jurisdiction: JurisdictionEUSpaceAct, Category: CategoryCyber, Mandatory: true},
		{ID: "eu-2", Jurisdiction: JurisdictionEUSpaceAct, Category: CategoryDebris, Mandatory: true},
		{ID: "eu-3", Jurisdiction: JurisdictionEUSpaceAct, Category: CategoryInsurance},
	}
	b = []Requirement{
		{ID: "us-1", Jurisdiction: JurisdictionUSFCC, Category: CategoryCyber, Mandatory: true},
		{ID: "us-2", Jurisdiction: JurisdictionUSFCC, Category: CategoryDebris, Mandatory: true},
	}
	mappings = []CrosswalkMapping{
		{AID: "eu-1", BID: "us-1", Effort: EffortSingleImplementation, Note: "shared ISMS"},
		{AID: "eu-2", BID: "us-2", Effort: EffortPartialOverlap},
		{AID: "eu-3", BID: "us-9", Effort: EffortSeparateEffort}, // us-9 not applicable
	}
	return a, b, mappings
}

func TestOverlapsEmitsOnlyWhenBothSidesApplicable(t *testing.T) {
	a, b, mappings := crosswalkFixtures()

	overlaps := Overlaps(a, b, mappings)
	if len(overlaps) != 2 {
		t.Fatalf("overlaps: want=2 got=%d", len(overlaps))
	}
	if overlaps[0].A.ID != "eu-1" || overlaps[0].B.ID != "us-1" {
		t.Fatalf("overlaps[0]: got %s -> %s", overlaps[0].A.ID, overlaps[0].B.ID)
	}
	if overlaps[0].WeeksSaved != 6 {
		t.Fatalf("single_implementation weeks: want=6 got=%d", overlaps[0].WeeksSaved)
	}
	if overlaps[1].WeeksSaved != 3 {
		t.Fatalf("partial_overlap weeks: want=3 got=%d", overlaps[1].WeeksSaved)
	}
	if got := TotalWeeksSaved(overlaps); got != 9 {
		t.Fatalf("total weeks: want=9 got=%d", got)
	}
}

func TestOverlapsBoundedByMinSide(t *testing.T) {
	a, b, mappings := crosswalkFixtures()

	// Pile on extra mappings reusing the same requirements; dedupe must keep
	// the count at or below the smaller applicable side.
	mappings = append(mappings,
		CrosswalkMapping{AID: "eu-1", BID: "us-2", Effort: EffortPartialOverlap},
		CrosswalkMapping{AID: "eu-3", BID: "us-1", Effort: EffortPartialOverlap},
	)

	overlaps := Overlaps(a, b, mappings)
	min := len(a)
	if len(b) < min {
		min = len(b)
	}
	if len(overlaps) > min {
		t.Fatalf("overlap count %d exceeds min side %d", len(overlaps), min)
	}
}

func TestOverlapsFirstMappingWins(t *testing.T) {
	a := []Requirement{{ID: "eu-1", Jurisdiction: JurisdictionEUSpaceAct, Category: CategoryCyber}}
	b := []Requirement{
		{ID: "uk-1", Jurisdiction: JurisdictionUKSIA, Category: CategoryCyber},
		{ID: "uk-2", Jurisdiction: JurisdictionUKSIA, Category: CategoryCyber},
	}
	mappings := []CrosswalkMapping{
		{AID: "eu-1", BID: "uk-1", Effort: EffortSingleImplementation},
		{AID: "eu-1", BID: "uk-2", Effort: EffortPartialOverlap},
	}

	overlaps := Overlaps(a, b, mappings)
	if len(overlaps) != 1 {
		t.Fatalf("overlaps: want=1 got=%d", len(overlaps))
	}
	if overlaps[0].B.ID != "uk-1" {
		t.Fatalf("first mapping must win, got B=%s", overlaps[0].B.ID)
	}
}

func TestOverlapsEmptyInputs(t *testing.T) {
	_, b, mappings := crosswalkFixtures()
	if got := Overlaps(nil, b, mappings); len(got) != 0 {
		t.Fatalf("nil A side: want=0 got=%d", len(got))
	}
	a, _, _ := crosswalkFixtures()
	if got := Overlaps(a, nil, mappings); len(got) != 0 {
		t.Fatalf("nil B side: want=0 got=%d", len(got))
	}
	if got := Overlaps(a, b, nil); len(got) != 0 {
		t.Fatalf("no mappings: want=0 got=%d", len(got))
	}
	if got := TotalWeeksSaved(nil); got != 0 {
		t.Fatalf("TotalWeeksSaved(nil): want=0 got=%d", got)
	}
}

func TestEffortTypeWeeksSaved(t *testing.T) {
	if EffortSingleImplementation.WeeksSaved() != 6 {
		t.Fatalf("single_implementation: want=6")
	}
	if EffortPartialOverlap.WeeksSaved() != 3 {
		t.Fatalf("partial_overlap: want=3")
	}
	if EffortSeparateEffort.WeeksSaved() != 0 {
		t.Fatalf("separate_effort: want=0")
	}
}
