package compliance

// Predicate is the closed applicability rule attached to a requirement.
// Every present clause must pass (AND semantics); absent clauses pass
// vacuously, so the zero Predicate matches every profile. List clauses are
// any-of memberships; RequiredFlags must all be set; mass bounds are
// inclusive.
type Predicate struct {
	OperatorTypes []OperatorType `json:"operator_types,omitempty" yaml:"operator_types,omitempty"`
	ActivityTypes []ActivityType `json:"activity_types,omitempty" yaml:"activity_types,omitempty"`
	OrbitTypes    []OrbitType    `json:"orbit_types,omitempty" yaml:"orbit_types,omitempty"`
	SizeClasses   []SizeClass    `json:"size_classes,omitempty" yaml:"size_classes,omitempty"`
	MinMassKg     *float64       `json:"min_mass_kg,omitempty" yaml:"min_mass_kg,omitempty"`
	MaxMassKg     *float64       `json:"max_mass_kg,omitempty" yaml:"max_mass_kg,omitempty"`
	RequiredFlags []Flag         `json:"required_flags,omitempty" yaml:"required_flags,omitempty"`
}

// IsEmpty reports whether the predicate has no clauses at all, i.e. the
// requirement is a universal baseline.
func (p Predicate) IsEmpty() bool {
	return len(p.OperatorTypes) == 0 &&
		len(p.ActivityTypes) == 0 &&
		len(p.OrbitTypes) == 0 &&
		len(p.SizeClasses) == 0 &&
		p.MinMassKg == nil &&
		p.MaxMassKg == nil &&
		len(p.RequiredFlags) == 0
}

// Matches evaluates the predicate against a profile.
func (p Predicate) Matches(profile Profile) bool {
	if len(p.OperatorTypes) > 0 && !containsOperator(p.OperatorTypes, profile.OperatorType) {
		return false
	}
	if len(p.ActivityTypes) > 0 {
		any := false
		for _, a := range p.ActivityTypes {
			if profile.hasActivity(a) {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	if len(p.OrbitTypes) > 0 && !containsOrbit(p.OrbitTypes, profile.OrbitType) {
		return false
	}
	if len(p.SizeClasses) > 0 && !containsSize(p.SizeClasses, profile.SizeClass) {
		return false
	}
	if p.MinMassKg != nil && profile.MassKg < *p.MinMassKg {
		return false
	}
	if p.MaxMassKg != nil && profile.MassKg > *p.MaxMassKg {
		return false
	}
	for _, f := range p.RequiredFlags {
		if !profile.HasFlag(f) {
			return false
		}
	}
	return true
}

// Applies reports whether the requirement binds the profile. A nil or empty
// predicate is a universal baseline and always applies.
func (r Requirement) Applies(profile Profile) bool {
	if r.Applicability == nil || r.Applicability.IsEmpty() {
		return true
	}
	return r.Applicability.Matches(profile)
}

// Resolve filters the catalog down to the requirements applicable to the
// profile. Output preserves catalog order; the same inputs always produce
// the same ordered result. A requirement only drops out through an explicit
// predicate failure.
func Resolve(profile Profile, catalog []Requirement) []Requirement {
	applicable := make([]Requirement, 0, len(catalog))
	for _, req := range catalog {
		if req.Applies(profile) {
			applicable = append(applicable, req)
		}
	}
	return applicable
}

func containsOperator(set []OperatorType, v OperatorType) bool {
	for _, got := range set {
		if got == v {
			return true
		}
	}
	return false
}

func containsOrbit(set []OrbitType, v OrbitType) bool {
	for _, got := range set {
		if got == v {
			return true
		}
	}
	return false
}

func containsSize(set []SizeClass, v SizeClass) bool {
	for _, got := range set {
		if got == v {
			return true
		}
	}
	return false
}
