package compliance

import "time"

// DisposalRule names the post-mission disposal regime applied to a mission.
type DisposalRule string

const (
	// DisposalRule5Year is the post-2024 FCC rule for LEO missions.
	DisposalRule5Year DisposalRule = "fcc_5_year"
	// DisposalRule25Year is the legacy IADC guideline for everything else.
	DisposalRule25Year DisposalRule = "iadc_25_year"
)

// LEOAltitudeThresholdKm is the single altitude threshold that selects the
// 5-year rule: LEO regime missions, or anything at or below this altitude.
const LEOAltitudeThresholdKm = 2000.0

const (
	disposalYears5Rule  = 5
	disposalYears25Rule = 25
)

// DisposalEstimate is the output of the deadline calculator.
type DisposalEstimate struct {
	Rule                  DisposalRule `json:"rule"`
	RequiredDisposalYears int          `json:"required_disposal_years"`
	EndOfMission          time.Time    `json:"end_of_mission"`
	DisposalDeadline      time.Time    `json:"disposal_deadline"`
}

// EstimateDisposal selects the disposal rule from the orbit regime and
// altitude, then does plain date arithmetic: end of mission is the launch
// date plus the mission duration, the deadline adds the required disposal
// window. The orbit value must already be validated; the calculator never
// rejects input.
func EstimateDisposal(orbit OrbitType, altitudeKm float64, launchDate time.Time, missionDurationYears int) DisposalEstimate {
	rule := DisposalRule25Year
	years := disposalYears25Rule
	if orbit == OrbitLEO || altitudeKm <= LEOAltitudeThresholdKm {
		rule = DisposalRule5Year
		years = disposalYears5Rule
	}

	endOfMission := launchDate.AddDate(missionDurationYears, 0, 0)
	return DisposalEstimate{
		Rule:                  rule,
		RequiredDisposalYears: years,
		EndOfMission:          endOfMission,
		DisposalDeadline:      endOfMission.AddDate(years, 0, 0),
	}
}
