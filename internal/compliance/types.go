package compliance

import (
	"fmt"

	pkgerrors "github.com/caelexhq/caelex-backend/internal/pkg/errors"
)

// Jurisdiction identifies a regulatory framework with its own requirement
// catalog.
type Jurisdiction string

const (
	JurisdictionEUSpaceAct Jurisdiction = "eu_space_act"
	JurisdictionNIS2       Jurisdiction = "nis2"
	JurisdictionUKSIA      Jurisdiction = "uk_sia"
	JurisdictionUSFCC      Jurisdiction = "us_fcc"
)

func ParseJurisdiction(s string) (Jurisdiction, error) {
	switch Jurisdiction(s) {
	case JurisdictionEUSpaceAct, JurisdictionNIS2, JurisdictionUKSIA, JurisdictionUSFCC:
		return Jurisdiction(s), nil
	}
	return "", fmt.Errorf("%w: unknown jurisdiction %q", pkgerrors.ErrInvalidArgument, s)
}

// OperatorType classifies the assessed entity.
type OperatorType string

const (
	OperatorSpacecraft     OperatorType = "spacecraft"
	OperatorLaunchProvider OperatorType = "launch_provider"
	OperatorGroundSegment  OperatorType = "ground_segment"
	OperatorSpaceport      OperatorType = "spaceport"
)

func ParseOperatorType(s string) (OperatorType, error) {
	switch OperatorType(s) {
	case OperatorSpacecraft, OperatorLaunchProvider, OperatorGroundSegment, OperatorSpaceport:
		return OperatorType(s), nil
	}
	return "", fmt.Errorf("%w: unknown operator type %q", pkgerrors.ErrInvalidArgument, s)
}

// ActivityType describes a licensed space activity carried out by the
// operator.
type ActivityType string

const (
	ActivityLaunch           ActivityType = "launch"
	ActivitySatelliteOps     ActivityType = "satellite_operations"
	ActivityCommunications   ActivityType = "communications"
	ActivityEarthObservation ActivityType = "earth_observation"
	ActivityInOrbitServicing ActivityType = "in_orbit_servicing"
	ActivityReentry          ActivityType = "reentry"
)

func ParseActivityType(s string) (ActivityType, error) {
	switch ActivityType(s) {
	case ActivityLaunch, ActivitySatelliteOps, ActivityCommunications,
		ActivityEarthObservation, ActivityInOrbitServicing, ActivityReentry:
		return ActivityType(s), nil
	}
	return "", fmt.Errorf("%w: unknown activity type %q", pkgerrors.ErrInvalidArgument, s)
}

// SizeClass follows the EU enterprise-size buckets NIS2 keys its scope on.
type SizeClass string

const (
	SizeMicro  SizeClass = "micro"
	SizeSmall  SizeClass = "small"
	SizeMedium SizeClass = "medium"
	SizeLarge  SizeClass = "large"
)

func ParseSizeClass(s string) (SizeClass, error) {
	switch SizeClass(s) {
	case SizeMicro, SizeSmall, SizeMedium, SizeLarge:
		return SizeClass(s), nil
	}
	return "", fmt.Errorf("%w: unknown size class %q", pkgerrors.ErrInvalidArgument, s)
}

// OrbitType is the coarse orbit regime of the primary mission.
type OrbitType string

const (
	OrbitLEO OrbitType = "LEO"
	OrbitMEO OrbitType = "MEO"
	OrbitGEO OrbitType = "GEO"
	OrbitHEO OrbitType = "HEO"
)

func ParseOrbitType(s string) (OrbitType, error) {
	switch OrbitType(s) {
	case OrbitLEO, OrbitMEO, OrbitGEO, OrbitHEO:
		return OrbitType(s), nil
	}
	return "", fmt.Errorf("%w: unknown orbit type %q", pkgerrors.ErrInvalidArgument, s)
}

// Flag is a boolean jurisdiction-nexus marker on a profile, e.g. "the
// operator places services on the EU market".
type Flag string

const (
	FlagEUMarket      Flag = "eu_market"
	FlagUKActivity    Flag = "uk_activity"
	FlagUSSpectrum    Flag = "us_spectrum"
	FlagCriticalInfra Flag = "critical_infrastructure"
)

func ParseFlag(s string) (Flag, error) {
	switch Flag(s) {
	case FlagEUMarket, FlagUKActivity, FlagUSSpectrum, FlagCriticalInfra:
		return Flag(s), nil
	}
	return "", fmt.Errorf("%w: unknown profile flag %q", pkgerrors.ErrInvalidArgument, s)
}

// Status is the recorded compliance state of one requirement within one
// assessment.
type Status string

const (
	StatusCompliant    Status = "compliant"
	StatusPartial      Status = "partial"
	StatusNonCompliant Status = "non_compliant"
	StatusNotAssessed  Status = "not_assessed"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusCompliant, StatusPartial, StatusNonCompliant, StatusNotAssessed:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: unknown compliance status %q", pkgerrors.ErrInvalidArgument, s)
}

// contribution maps a status to its score contribution in [0,1].
func (s Status) contribution() float64 {
	switch s {
	case StatusCompliant:
		return 1.0
	case StatusPartial:
		return 0.5
	default:
		// non_compliant, not_assessed and anything unrecognized contribute
		// nothing; unknown stored strings degrade to not_assessed rather
		// than failing the whole scorecard.
		return 0
	}
}

// Unresolved reports whether this status leaves the requirement open: it is
// true for non_compliant and not_assessed, the two states gap analysis and
// the mandatory risk override act on.
func (s Status) Unresolved() bool {
	return s != StatusCompliant && s != StatusPartial
}

// RiskLevel buckets an overall score, ordered low < medium < high < critical.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Category groups requirements for per-category scores and gap weighting.
type Category string

const (
	CategoryAuthorization Category = "authorization"
	CategorySafety        Category = "safety"
	CategoryDebris        Category = "debris_mitigation"
	CategoryCyber         Category = "cybersecurity"
	CategoryInsurance     Category = "insurance_liability"
	CategoryRegistration  Category = "registration_reporting"
	CategoryEnvironmental Category = "environmental"
	CategorySpectrum      Category = "spectrum"
)

func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryAuthorization, CategorySafety, CategoryDebris, CategoryCyber,
		CategoryInsurance, CategoryRegistration, CategoryEnvironmental, CategorySpectrum:
		return Category(s), nil
	}
	return "", fmt.Errorf("%w: unknown requirement category %q", pkgerrors.ErrInvalidArgument, s)
}

// categoryWeights bias gap priority toward the categories regulators act on
// first. Unlisted categories weigh 1.0. These weights never affect the
// score itself, only gap ordering.
var categoryWeights = map[Category]float64{
	CategoryAuthorization: 2.0,
	CategorySafety:        2.0,
	CategoryDebris:        1.5,
	CategoryCyber:         1.5,
	CategoryInsurance:     1.25,
	CategoryRegistration:  1.0,
	CategoryEnvironmental: 1.0,
	CategorySpectrum:      1.25,
}

// CategoryWeight returns the gap-priority weight for a category.
func CategoryWeight(c Category) float64 {
	if w, ok := categoryWeights[c]; ok {
		return w
	}
	return 1.0
}

// Profile is the engine-side view of an operator profile. Enum fields are
// validated at the API boundary; the engine assumes well-formed values.
type Profile struct {
	OperatorType  OperatorType   `json:"operator_type"`
	ActivityTypes []ActivityType `json:"activity_types"`
	SizeClass     SizeClass      `json:"size_class"`
	OrbitType     OrbitType      `json:"orbit_type"`
	MassKg        float64        `json:"mass_kg"`
	Flags         map[Flag]bool  `json:"flags,omitempty"`
}

// HasFlag is nil-map safe.
func (p Profile) HasFlag(f Flag) bool {
	return p.Flags[f]
}

func (p Profile) hasActivity(a ActivityType) bool {
	for _, got := range p.ActivityTypes {
		if got == a {
			return true
		}
	}
	return false
}

// Requirement is one immutable catalog entry. Applicability == nil (or an
// empty predicate) marks a universal baseline requirement.
type Requirement struct {
	ID            string       `json:"id"`
	Jurisdiction  Jurisdiction `json:"jurisdiction"`
	ArticleRef    string       `json:"article_ref"`
	Title         string       `json:"title"`
	Category      Category     `json:"category"`
	Mandatory     bool         `json:"mandatory"`
	Applicability *Predicate   `json:"applicability,omitempty"`
}
