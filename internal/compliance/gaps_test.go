package compliance

import "testing"

func TestGapsExcludeResolvedRequirements(t *testing.T) {
	reqs := []Requirement{
		{ID: "a", Category: CategoryAuthorization, Mandatory: true},
		{ID: "b", Category: CategorySafety, Mandatory: true},
		{ID: "c", Category: CategoryEnvironmental},
		{ID: "d", Category: CategoryRegistration},
	}
	statuses := map[string]Status{
		"a": StatusCompliant,
		"b": StatusPartial,
		"c": StatusNonCompliant,
		// d has no row -> not_assessed
	}

	gaps := Gaps(reqs, statuses)
	if len(gaps) != 2 {
		t.Fatalf("gaps: want=2 got=%d", len(gaps))
	}
	for _, g := range gaps {
		if g.RequirementID == "a" || g.RequirementID == "b" {
			t.Fatalf("resolved requirement %s must not appear in gaps", g.RequirementID)
		}
		if g.Status != StatusNonCompliant && g.Status != StatusNotAssessed {
			t.Fatalf("gap %s carries status %s", g.RequirementID, g.Status)
		}
	}
}

func TestGapsPriorityBuckets(t *testing.T) {
	tests := []struct {
		name string
		req  Requirement
		want Priority
	}{
		// mandatory(2.0) x authorization(2.0) = 4.0
		{"mandatory authorization is high", Requirement{ID: "x", Category: CategoryAuthorization, Mandatory: true}, PriorityHigh},
		// mandatory(2.0) x registration(1.0) = 2.0
		{"mandatory registration is medium", Requirement{ID: "x", Category: CategoryRegistration, Mandatory: true}, PriorityMedium},
		// optional(1.0) x debris(1.5) = 1.5
		{"optional debris is medium", Requirement{ID: "x", Category: CategoryDebris}, PriorityMedium},
		// optional(1.0) x environmental(1.0) = 1.0
		{"optional environmental is low", Requirement{ID: "x", Category: CategoryEnvironmental}, PriorityLow},
		// mandatory(2.0) x safety(2.0) = 4.0
		{"mandatory safety is high", Requirement{ID: "x", Category: CategorySafety, Mandatory: true}, PriorityHigh},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gaps := Gaps([]Requirement{tc.req}, nil)
			if len(gaps) != 1 {
				t.Fatalf("gaps: want=1 got=%d", len(gaps))
			}
			if gaps[0].Priority != tc.want {
				t.Fatalf("priority: want=%s got=%s (weight=%v)", tc.want, gaps[0].Priority, gaps[0].Weight)
			}
		})
	}
}

func TestGapsOrderingIsDeterministic(t *testing.T) {
	reqs := []Requirement{
		{ID: "z-low", Category: CategoryEnvironmental},
		{ID: "b-high", Category: CategorySafety, Mandatory: true},
		{ID: "a-high", Category: CategoryAuthorization, Mandatory: true},
		{ID: "m-med", Category: CategoryRegistration, Mandatory: true},
	}

	gaps := Gaps(reqs, nil)
	wantOrder := []string{"a-high", "b-high", "m-med", "z-low"}
	if len(gaps) != len(wantOrder) {
		t.Fatalf("gaps: want=%d got=%d", len(wantOrder), len(gaps))
	}
	for i, want := range wantOrder {
		if gaps[i].RequirementID != want {
			t.Fatalf("gaps[%d]: want=%s got=%s", i, want, gaps[i].RequirementID)
		}
	}

	// Same inputs, same order, every time.
	again := Gaps(reqs, nil)
	for i := range gaps {
		if gaps[i].RequirementID != again[i].RequirementID {
			t.Fatalf("ordering unstable at %d", i)
		}
	}
}

func TestGapsCarryRequirementFields(t *testing.T) {
	req := Requirement{
		ID:           "eusa-debris-02",
		Jurisdiction: JurisdictionEUSpaceAct,
		ArticleRef:   "Art. 21",
		Title:        "End-of-life disposal and passivation",
		Category:     CategoryDebris,
		Mandatory:    true,
	}
	gaps := Gaps([]Requirement{req}, map[string]Status{req.ID: StatusNonCompliant})
	if len(gaps) != 1 {
		t.Fatalf("gaps: want=1 got=%d", len(gaps))
	}
	g := gaps[0]
	if g.Jurisdiction != req.Jurisdiction || g.ArticleRef != req.ArticleRef || g.Title != req.Title {
		t.Fatalf("gap fields not carried over: %+v", g)
	}
	if !g.Mandatory || g.Status != StatusNonCompliant {
		t.Fatalf("gap flags wrong: %+v", g)
	}
}
