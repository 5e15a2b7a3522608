package compliance

import (
	"testing"
	"time"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestEstimateDisposalLEOFiveYearRule(t *testing.T) {
	got := EstimateDisposal(OrbitLEO, 500, date(2025, 1, 1), 5)

	if got.Rule != DisposalRule5Year {
		t.Fatalf("rule: want=%s got=%s", DisposalRule5Year, got.Rule)
	}
	if got.RequiredDisposalYears != 5 {
		t.Fatalf("years: want=5 got=%d", got.RequiredDisposalYears)
	}
	if !got.EndOfMission.Equal(date(2030, 1, 1)) {
		t.Fatalf("end of mission: want=2030-01-01 got=%s", got.EndOfMission)
	}
	if !got.DisposalDeadline.Equal(date(2035, 1, 1)) {
		t.Fatalf("deadline: want=2035-01-01 got=%s", got.DisposalDeadline)
	}
}

func TestEstimateDisposalRuleSelection(t *testing.T) {
	launch := date(2024, 6, 15)
	tests := []struct {
		name       string
		orbit      OrbitType
		altitudeKm float64
		wantRule   DisposalRule
		wantYears  int
	}{
		{"LEO regime always 5-year", OrbitLEO, 550, DisposalRule5Year, 5},
		{"LEO regime above threshold still 5-year", OrbitLEO, 2100, DisposalRule5Year, 5},
		{"low altitude without LEO tag still 5-year", OrbitHEO, 1800, DisposalRule5Year, 5},
		{"threshold altitude is inclusive", OrbitMEO, 2000, DisposalRule5Year, 5},
		{"MEO above threshold 25-year", OrbitMEO, 20200, DisposalRule25Year, 25},
		{"GEO 25-year", OrbitGEO, 35786, DisposalRule25Year, 25},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := EstimateDisposal(tc.orbit, tc.altitudeKm, launch, 7)
			if got.Rule != tc.wantRule {
				t.Fatalf("rule: want=%s got=%s", tc.wantRule, got.Rule)
			}
			if got.RequiredDisposalYears != tc.wantYears {
				t.Fatalf("years: want=%d got=%d", tc.wantYears, got.RequiredDisposalYears)
			}
			wantDeadline := launch.AddDate(7+tc.wantYears, 0, 0)
			if !got.DisposalDeadline.Equal(wantDeadline) {
				t.Fatalf("deadline: want=%s got=%s", wantDeadline, got.DisposalDeadline)
			}
		})
	}
}

func TestEstimateDisposalZeroDuration(t *testing.T) {
	launch := date(2026, 3, 1)
	got := EstimateDisposal(OrbitGEO, 35786, launch, 0)
	if !got.EndOfMission.Equal(launch) {
		t.Fatalf("zero duration: end of mission must equal launch, got=%s", got.EndOfMission)
	}
	if !got.DisposalDeadline.Equal(launch.AddDate(25, 0, 0)) {
		t.Fatalf("deadline: want=%s got=%s", launch.AddDate(25, 0, 0), got.DisposalDeadline)
	}
}
