package catalog

import (
	"strings"
	"testing"

	"github.com/caelexhq/caelex-backend/internal/compliance"
)

func mustCatalog(t *testing.T) *Catalog {
	t.Helper()
	cat, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cat
}

func TestLoadEmbeddedCatalog(t *testing.T) {
	cat := mustCatalog(t)

	if cat.Version() == "" {
		t.Fatalf("catalog version must not be empty")
	}

	wantJurs := []compliance.Jurisdiction{
		compliance.JurisdictionEUSpaceAct,
		compliance.JurisdictionNIS2,
		compliance.JurisdictionUKSIA,
		compliance.JurisdictionUSFCC,
	}
	gotJurs := cat.Jurisdictions()
	if len(gotJurs) != len(wantJurs) {
		t.Fatalf("jurisdictions: want=%d got=%d", len(wantJurs), len(gotJurs))
	}
	for i, want := range wantJurs {
		if gotJurs[i] != want {
			t.Fatalf("jurisdiction[%d]: want=%s got=%s", i, want, gotJurs[i])
		}
	}

	for _, jur := range wantJurs {
		if len(cat.Jurisdiction(jur)) < 5 {
			t.Fatalf("jurisdiction %s: expected at least 5 requirements, got %d", jur, len(cat.Jurisdiction(jur)))
		}
	}
	if len(cat.Mappings()) == 0 {
		t.Fatalf("expected crosswalk mappings")
	}
}

func TestCatalogRequirementInvariants(t *testing.T) {
	cat := mustCatalog(t)

	seen := map[string]bool{}
	for _, req := range cat.Requirements() {
		if seen[req.ID] {
			t.Fatalf("duplicate requirement id %s", req.ID)
		}
		seen[req.ID] = true

		if req.Title == "" || req.ArticleRef == "" {
			t.Fatalf("requirement %s: missing title or article", req.ID)
		}
		if _, err := compliance.ParseCategory(string(req.Category)); err != nil {
			t.Fatalf("requirement %s: bad category: %v", req.ID, err)
		}
		if _, err := compliance.ParseJurisdiction(string(req.Jurisdiction)); err != nil {
			t.Fatalf("requirement %s: bad jurisdiction: %v", req.ID, err)
		}

		got, ok := cat.RequirementByID(req.ID)
		if !ok || got.ID != req.ID {
			t.Fatalf("RequirementByID(%s) lookup failed", req.ID)
		}
	}
}

func TestCatalogCrosswalkReferentialIntegrity(t *testing.T) {
	cat := mustCatalog(t)

	for _, m := range cat.Mappings() {
		a, okA := cat.RequirementByID(m.AID)
		b, okB := cat.RequirementByID(m.BID)
		if !okA || !okB {
			t.Fatalf("mapping %s -> %s references unknown requirement", m.AID, m.BID)
		}
		if a.Jurisdiction == b.Jurisdiction {
			t.Fatalf("mapping %s -> %s links requirements in the same jurisdiction", m.AID, m.BID)
		}
		if _, err := compliance.ParseEffortType(string(m.Effort)); err != nil {
			t.Fatalf("mapping %s -> %s: %v", m.AID, m.BID, err)
		}
	}
}

func TestForJurisdictionsPreservesCatalogOrder(t *testing.T) {
	cat := mustCatalog(t)

	// Selection order must not matter: output always follows catalog order.
	selected := []compliance.Jurisdiction{compliance.JurisdictionUSFCC, compliance.JurisdictionEUSpaceAct}
	got := cat.ForJurisdictions(selected)
	if len(got) == 0 {
		t.Fatalf("expected requirements for selected jurisdictions")
	}

	sawFCC := false
	for _, req := range got {
		switch req.Jurisdiction {
		case compliance.JurisdictionUSFCC:
			sawFCC = true
		case compliance.JurisdictionEUSpaceAct:
			if sawFCC {
				t.Fatalf("eu_space_act requirement %s appeared after us_fcc; catalog order broken", req.ID)
			}
		default:
			t.Fatalf("unexpected jurisdiction %s in selection", req.Jurisdiction)
		}
	}
	if !sawFCC {
		t.Fatalf("expected us_fcc requirements in selection")
	}
}

func TestMappingsBetweenOrientsSides(t *testing.T) {
	cat := mustCatalog(t)

	forward := cat.MappingsBetween(compliance.JurisdictionEUSpaceAct, compliance.JurisdictionNIS2)
	if len(forward) == 0 {
		t.Fatalf("expected eu_space_act <-> nis2 mappings")
	}
	for _, m := range forward {
		a, _ := cat.RequirementByID(m.AID)
		b, _ := cat.RequirementByID(m.BID)
		if a.Jurisdiction != compliance.JurisdictionEUSpaceAct || b.Jurisdiction != compliance.JurisdictionNIS2 {
			t.Fatalf("mapping %s -> %s not oriented to (eu_space_act, nis2)", m.AID, m.BID)
		}
	}

	reverse := cat.MappingsBetween(compliance.JurisdictionNIS2, compliance.JurisdictionEUSpaceAct)
	if len(reverse) != len(forward) {
		t.Fatalf("reverse lookup: want=%d mappings got=%d", len(forward), len(reverse))
	}
	for _, m := range reverse {
		a, _ := cat.RequirementByID(m.AID)
		if a.Jurisdiction != compliance.JurisdictionNIS2 {
			t.Fatalf("reverse mapping %s -> %s not oriented to (nis2, eu_space_act)", m.AID, m.BID)
		}
	}
}

func TestCatalogUniversalBaselinesExist(t *testing.T) {
	cat := mustCatalog(t)

	// The EU Space Act carries universal baseline requirements that bind
	// every profile regardless of shape.
	baseline := 0
	for _, req := range cat.Jurisdiction(compliance.JurisdictionEUSpaceAct) {
		if req.Applicability == nil || req.Applicability.IsEmpty() {
			baseline++
		}
	}
	if baseline == 0 {
		t.Fatalf("expected at least one universal baseline requirement in eu_space_act")
	}

	// Flag-gated catalogs must never leak into profiles without the flag.
	profile := compliance.Profile{
		OperatorType:  compliance.OperatorSpacecraft,
		ActivityTypes: []compliance.ActivityType{compliance.ActivitySatelliteOps},
		SizeClass:     compliance.SizeSmall,
		OrbitType:     compliance.OrbitLEO,
		MassKg:        200,
	}
	for _, req := range compliance.Resolve(profile, cat.Jurisdiction(compliance.JurisdictionUKSIA)) {
		t.Fatalf("uk_sia requirement %s applied without uk_activity flag", req.ID)
	}
	for _, req := range compliance.Resolve(profile, cat.Jurisdiction(compliance.JurisdictionUSFCC)) {
		t.Fatalf("us_fcc requirement %s applied without us_spectrum flag", req.ID)
	}
}

func TestCatalogIDsFollowJurisdictionPrefix(t *testing.T) {
	cat := mustCatalog(t)

	prefixes := map[compliance.Jurisdiction]string{
		compliance.JurisdictionEUSpaceAct: "eusa-",
		compliance.JurisdictionNIS2:       "nis2-",
		compliance.JurisdictionUKSIA:      "uksia-",
		compliance.JurisdictionUSFCC:      "usfcc-",
	}
	for jur, prefix := range prefixes {
		for _, req := range cat.Jurisdiction(jur) {
			if !strings.HasPrefix(req.ID, prefix) {
				t.Fatalf("requirement %s in %s does not carry prefix %s", req.ID, jur, prefix)
			}
		}
	}
}
