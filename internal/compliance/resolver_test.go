package compliance

import (
	"errors"
	"testing"

	pkgerrors "github.com/caelexhq/caelex-backend/internal/pkg/errors"
)

func f64(v float64) *float64 { return &v }

func leoProfile() Profile {
	return Profile{
		OperatorType:  OperatorSpacecraft,
		ActivityTypes: []ActivityType{ActivitySatelliteOps},
		SizeClass:     SizeSmall,
		OrbitType:     OrbitLEO,
		MassKg:        200,
	}
}

func TestResolveFiltersByPredicate(t *testing.T) {
	// R1 applies to all LEO operators, R2 only above 500 kg.
	r1 := Requirement{
		ID: "r1", Jurisdiction: JurisdictionEUSpaceAct, ArticleRef: "Art. 1",
		Title: "LEO baseline", Category: CategoryDebris, Mandatory: true,
		Applicability: &Predicate{OrbitTypes: []OrbitType{OrbitLEO}},
	}
	r2 := Requirement{
		ID: "r2", Jurisdiction: JurisdictionEUSpaceAct, ArticleRef: "Art. 2",
		Title: "Heavy spacecraft", Category: CategorySafety, Mandatory: true,
		Applicability: &Predicate{MinMassKg: f64(500.01)},
	}

	got := Resolve(leoProfile(), []Requirement{r1, r2})
	if len(got) != 1 {
		t.Fatalf("applicable: want=1 got=%d", len(got))
	}
	if got[0].ID != "r1" {
		t.Fatalf("applicable[0]: want=r1 got=%s", got[0].ID)
	}
}

func TestResolveIsIdempotentAndOrderPreserving(t *testing.T) {
	catalog := []Requirement{
		{ID: "a", Category: CategoryAuthorization, Mandatory: true},
		{ID: "b", Category: CategorySafety, Applicability: &Predicate{OrbitTypes: []OrbitType{OrbitLEO}}},
		{ID: "c", Category: CategoryCyber, Applicability: &Predicate{RequiredFlags: []Flag{FlagEUMarket}}},
		{ID: "d", Category: CategoryInsurance, Mandatory: true},
	}
	profile := leoProfile()

	first := Resolve(profile, catalog)
	second := Resolve(profile, catalog)
	if len(first) != len(second) {
		t.Fatalf("idempotence broken: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("order differs at %d: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}

	// Catalog order must survive: a before b before d (c fails its flag).
	wantOrder := []string{"a", "b", "d"}
	if len(first) != len(wantOrder) {
		t.Fatalf("applicable: want=%d got=%d", len(wantOrder), len(first))
	}
	for i, want := range wantOrder {
		if first[i].ID != want {
			t.Fatalf("applicable[%d]: want=%s got=%s", i, want, first[i].ID)
		}
	}
}

func TestPredicateClauses(t *testing.T) {
	base := leoProfile()
	withFlags := base
	withFlags.Flags = map[Flag]bool{FlagEUMarket: true, FlagUSSpectrum: false}

	tests := []struct {
		name    string
		pred    Predicate
		profile Profile
		want    bool
	}{
		{"empty predicate matches anything", Predicate{}, base, true},
		{"operator membership pass", Predicate{OperatorTypes: []OperatorType{OperatorSpacecraft, OperatorSpaceport}}, base, true},
		{"operator membership fail", Predicate{OperatorTypes: []OperatorType{OperatorGroundSegment}}, base, false},
		{"activity any-of pass", Predicate{ActivityTypes: []ActivityType{ActivityLaunch, ActivitySatelliteOps}}, base, true},
		{"activity any-of fail", Predicate{ActivityTypes: []ActivityType{ActivityLaunch}}, base, false},
		{"orbit membership fail", Predicate{OrbitTypes: []OrbitType{OrbitGEO}}, base, false},
		{"size membership pass", Predicate{SizeClasses: []SizeClass{SizeSmall, SizeMedium}}, base, true},
		{"min mass inclusive", Predicate{MinMassKg: f64(200)}, base, true},
		{"min mass exclusive above", Predicate{MinMassKg: f64(200.1)}, base, false},
		{"max mass inclusive", Predicate{MaxMassKg: f64(200)}, base, true},
		{"max mass exceeded", Predicate{MaxMassKg: f64(199.9)}, base, false},
		{"required flag set", Predicate{RequiredFlags: []Flag{FlagEUMarket}}, withFlags, true},
		{"required flag false", Predicate{RequiredFlags: []Flag{FlagUSSpectrum}}, withFlags, false},
		{"required flag missing on nil map", Predicate{RequiredFlags: []Flag{FlagUKActivity}}, base, false},
		{"all clauses must pass", Predicate{OrbitTypes: []OrbitType{OrbitLEO}, RequiredFlags: []Flag{FlagUKActivity}}, base, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.pred.Matches(tc.profile); got != tc.want {
				t.Fatalf("Matches: want=%v got=%v", tc.want, got)
			}
		})
	}
}

func TestRequirementWithoutPredicateIsUniversal(t *testing.T) {
	universal := Requirement{ID: "u", Category: CategoryAuthorization}
	empty := Requirement{ID: "e", Category: CategoryAuthorization, Applicability: &Predicate{}}

	profiles := []Profile{
		leoProfile(),
		{OperatorType: OperatorSpaceport, SizeClass: SizeLarge, OrbitType: OrbitGEO, MassKg: 4000},
		{},
	}
	for _, p := range profiles {
		if !universal.Applies(p) {
			t.Fatalf("nil predicate must always apply")
		}
		if !empty.Applies(p) {
			t.Fatalf("empty predicate must always apply")
		}
	}
}

func TestParseEnumsRejectUnknownValues(t *testing.T) {
	if _, err := ParseJurisdiction("mars_colony"); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("ParseJurisdiction: want ErrInvalidArgument, got %v", err)
	}
	if _, err := ParseOperatorType("balloon"); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("ParseOperatorType: want ErrInvalidArgument, got %v", err)
	}
	if _, err := ParseStatus("done"); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("ParseStatus: want ErrInvalidArgument, got %v", err)
	}
	if _, err := ParseOrbitType("leo"); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("ParseOrbitType is case sensitive: want ErrInvalidArgument, got %v", err)
	}

	if got, err := ParseJurisdiction("eu_space_act"); err != nil || got != JurisdictionEUSpaceAct {
		t.Fatalf("ParseJurisdiction(eu_space_act): got=%s err=%v", got, err)
	}
}
