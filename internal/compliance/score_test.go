package compliance

import "testing"

func scoreCatalog() []Requirement {
	return []Requirement{
		{ID: "m1", Category: CategoryAuthorization, Mandatory: true},
		{ID: "m2", Category: CategorySafety, Mandatory: true},
		{ID: "o1", Category: CategoryEnvironmental},
		{ID: "o2", Category: CategoryRegistration},
	}
}

func allWith(reqs []Requirement, status Status) map[string]Status {
	out := make(map[string]Status, len(reqs))
	for _, r := range reqs {
		out[r.ID] = status
	}
	return out
}

func TestScoreAllCompliantIsHundred(t *testing.T) {
	reqs := scoreCatalog()
	card := Score(reqs, allWith(reqs, StatusCompliant))

	if card.Overall != 100 {
		t.Fatalf("overall: want=100 got=%d", card.Overall)
	}
	if card.Mandatory != 100 {
		t.Fatalf("mandatory: want=100 got=%d", card.Mandatory)
	}
	if card.Risk != RiskLow {
		t.Fatalf("risk: want=%s got=%s", RiskLow, card.Risk)
	}
	for _, cs := range card.ByCategory {
		if cs.Score != 100 {
			t.Fatalf("category %s: want=100 got=%d", cs.Category, cs.Score)
		}
	}
}

func TestScoreAllNotAssessedIsZeroCritical(t *testing.T) {
	reqs := scoreCatalog()

	// Missing rows count as not_assessed; an empty map is the canonical case.
	card := Score(reqs, map[string]Status{})
	if card.Overall != 0 {
		t.Fatalf("overall: want=0 got=%d", card.Overall)
	}
	if card.Mandatory != 0 {
		t.Fatalf("mandatory: want=0 got=%d", card.Mandatory)
	}
	if card.Risk != RiskCritical {
		t.Fatalf("risk: want=%s got=%s", RiskCritical, card.Risk)
	}
}

func TestScoreWeightsMandatoryDouble(t *testing.T) {
	reqs := []Requirement{
		{ID: "m1", Category: CategoryAuthorization, Mandatory: true},
		{ID: "o1", Category: CategoryEnvironmental},
	}
	statuses := map[string]Status{
		"m1": StatusCompliant,
		"o1": StatusNonCompliant,
	}
	// weighted: (2*1 + 1*0) / 3 = 0.666... -> 67
	card := Score(reqs, statuses)
	if card.Overall != 67 {
		t.Fatalf("overall: want=67 got=%d", card.Overall)
	}
	if card.Mandatory != 100 {
		t.Fatalf("mandatory: want=100 got=%d", card.Mandatory)
	}
}

func TestScorePartialContributesHalf(t *testing.T) {
	reqs := []Requirement{{ID: "m1", Category: CategorySafety, Mandatory: true}}
	card := Score(reqs, map[string]Status{"m1": StatusPartial})
	if card.Overall != 50 {
		t.Fatalf("overall: want=50 got=%d", card.Overall)
	}
	// Partial resolves the requirement, so no mandatory override applies:
	// 50 buckets to high on its own.
	if card.Risk != RiskHigh {
		t.Fatalf("risk: want=%s got=%s", RiskHigh, card.Risk)
	}
}

func TestScoreEmptyApplicableSetIsZero(t *testing.T) {
	card := Score(nil, nil)
	if card.Overall != 0 || card.Mandatory != 0 {
		t.Fatalf("empty set: want zeros got overall=%d mandatory=%d", card.Overall, card.Mandatory)
	}
	if len(card.ByCategory) != 0 {
		t.Fatalf("empty set: want no categories got %d", len(card.ByCategory))
	}
	// No mandatory requirement exists, so no override: 0 is critical by score.
	if card.Risk != RiskCritical {
		t.Fatalf("risk: want=%s got=%s", RiskCritical, card.Risk)
	}
}

func TestScoreByCategoryIsSortedAndCounted(t *testing.T) {
	reqs := []Requirement{
		{ID: "s1", Category: CategorySafety, Mandatory: true},
		{ID: "a1", Category: CategoryAuthorization, Mandatory: true},
		{ID: "a2", Category: CategoryAuthorization},
	}
	card := Score(reqs, allWith(reqs, StatusCompliant))

	if len(card.ByCategory) != 2 {
		t.Fatalf("categories: want=2 got=%d", len(card.ByCategory))
	}
	if card.ByCategory[0].Category != CategoryAuthorization || card.ByCategory[1].Category != CategorySafety {
		t.Fatalf("categories not sorted: %v", card.ByCategory)
	}
	if card.ByCategory[0].Requirements != 2 {
		t.Fatalf("authorization count: want=2 got=%d", card.ByCategory[0].Requirements)
	}
}

func TestDeriveRiskThresholdsAndOverride(t *testing.T) {
	tests := []struct {
		name                string
		score               int
		unresolvedMandatory bool
		want                RiskLevel
	}{
		{"80 is low", 80, false, RiskLow},
		{"79 is medium", 79, false, RiskMedium},
		{"60 is medium", 60, false, RiskMedium},
		{"59 is high", 59, false, RiskHigh},
		{"40 is high", 40, false, RiskHigh},
		{"39 is critical", 39, false, RiskCritical},
		{"override lifts low to high", 95, true, RiskHigh},
		{"override lifts medium to high", 65, true, RiskHigh},
		{"override leaves high alone", 45, true, RiskHigh},
		{"override never lowers critical", 10, true, RiskCritical},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeriveRisk(tc.score, tc.unresolvedMandatory); got != tc.want {
				t.Fatalf("DeriveRisk(%d, %v): want=%s got=%s", tc.score, tc.unresolvedMandatory, tc.want, got)
			}
		})
	}
}

func TestScoreMandatoryOverrideFromUnresolvedRow(t *testing.T) {
	reqs := []Requirement{
		{ID: "m1", Category: CategoryAuthorization, Mandatory: true},
		{ID: "o1", Category: CategoryEnvironmental},
		{ID: "o2", Category: CategoryRegistration},
		{ID: "o3", Category: CategorySpectrum},
		{ID: "o4", Category: CategoryInsurance},
		{ID: "o5", Category: CategoryCyber},
		{ID: "o6", Category: CategorySafety},
		{ID: "o7", Category: CategoryDebris},
	}
	statuses := allWith(reqs, StatusCompliant)
	statuses["m1"] = StatusNonCompliant

	// 7 compliant optionals vs one failed mandatory: (7*1)/(7+2) = 78.
	card := Score(reqs, statuses)
	if card.Overall != 78 {
		t.Fatalf("overall: want=78 got=%d", card.Overall)
	}
	if card.Risk != RiskHigh {
		t.Fatalf("risk: unresolved mandatory must force high, got=%s", card.Risk)
	}
}

func TestEffectiveStatusDefaultsMissingRows(t *testing.T) {
	statuses := map[string]Status{"known": StatusPartial, "blank": ""}
	if got := EffectiveStatus(statuses, "known"); got != StatusPartial {
		t.Fatalf("known: want=%s got=%s", StatusPartial, got)
	}
	if got := EffectiveStatus(statuses, "missing"); got != StatusNotAssessed {
		t.Fatalf("missing: want=%s got=%s", StatusNotAssessed, got)
	}
	if got := EffectiveStatus(statuses, "blank"); got != StatusNotAssessed {
		t.Fatalf("blank: want=%s got=%s", StatusNotAssessed, got)
	}
	if got := EffectiveStatus(nil, "anything"); got != StatusNotAssessed {
		t.Fatalf("nil map: want=%s got=%s", StatusNotAssessed, got)
	}
}
