package services

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/caelexhq/caelex-backend/internal/compliance"
	types "github.com/caelexhq/caelex-backend/internal/domain"
	pkgerrors "github.com/caelexhq/caelex-backend/internal/pkg/errors"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
	"github.com/caelexhq/caelex-backend/internal/pkg/pointers"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "simple", in: "Caelex Space", want: "caelex-space"},
		{name: "collapses whitespace", in: "  Astra   Dynamics  ", want: "astra-dynamics"},
		{name: "drops trailing punctuation", in: "ACME Corp.", want: "acme-corp"},
		{name: "non ascii becomes dash", in: "déjà vu", want: "d-j-vu"},
		{name: "all punctuation", in: "!!!", want: ""},
		{name: "empty", in: "", want: ""},
		{
			name: "caps at sixty bytes",
			in:   strings.Repeat("a", 70),
			want: strings.Repeat("a", 60),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := slugify(tc.in); got != tc.want {
				t.Fatalf("slugify(%q)=%q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestWithinLimit(t *testing.T) {
	cases := []struct {
		name    string
		limit   int64
		current int64
		want    bool
	}{
		{name: "negative means unlimited", limit: -1, current: 1_000_000, want: true},
		{name: "under limit", limit: 5, current: 4, want: true},
		{name: "at limit", limit: 5, current: 5, want: false},
		{name: "zero limit blocks everything", limit: 0, current: 0, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := withinLimit(tc.limit, tc.current); got != tc.want {
				t.Fatalf("withinLimit(%d, %d)=%v, want %v", tc.limit, tc.current, got, tc.want)
			}
		})
	}
}

func TestTitleFromContent(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "whitespace only", in: "   \n\t ", want: ""},
		{name: "short message kept whole", in: "Do we need an SSA license?", want: "Do we need an SSA license?"},
		{name: "collapses inner whitespace", in: "Hello    world", want: "Hello world"},
		{
			name: "exactly sixty runes kept without ellipsis",
			in:   strings.Repeat("a", 60),
			want: strings.Repeat("a", 60),
		},
		{
			name: "counts runes not bytes",
			in:   strings.Repeat("é", 60),
			want: strings.Repeat("é", 60),
		},
		{
			name: "single oversized word hard cut",
			in:   strings.Repeat("a", 61),
			want: strings.Repeat("a", 60) + "…",
		},
		{
			name: "cuts at word boundary",
			in:   strings.Repeat("a", 58) + " more words here",
			want: strings.Repeat("a", 58) + "…",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := titleFromContent(tc.in); got != tc.want {
				t.Fatalf("titleFromContent(%q)=%q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseJurisdictionList(t *testing.T) {
	cases := []struct {
		name    string
		in      []string
		want    []compliance.Jurisdiction
		wantErr bool
	}{
		{name: "nil", in: nil, wantErr: true},
		{name: "empty", in: []string{}, wantErr: true},
		{
			name: "single",
			in:   []string{"eu_space_act"},
			want: []compliance.Jurisdiction{compliance.JurisdictionEUSpaceAct},
		},
		{
			name: "trims and dedupes preserving order",
			in:   []string{" eu_space_act ", "us_fcc", "eu_space_act"},
			want: []compliance.Jurisdiction{compliance.JurisdictionEUSpaceAct, compliance.JurisdictionUSFCC},
		},
		{
			name: "all frameworks",
			in:   []string{"eu_space_act", "nis2", "uk_sia", "us_fcc"},
			want: []compliance.Jurisdiction{
				compliance.JurisdictionEUSpaceAct,
				compliance.JurisdictionNIS2,
				compliance.JurisdictionUKSIA,
				compliance.JurisdictionUSFCC,
			},
		},
		{name: "unknown framework", in: []string{"mars_treaty"}, wantErr: true},
		{name: "one bad entry fails the list", in: []string{"eu_space_act", "bogus"}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseJurisdictionList(tc.in)
			if tc.wantErr {
				if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
					t.Fatalf("parseJurisdictionList(%v) err=%v, want ErrInvalidArgument", tc.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseJurisdictionList(%v) unexpected error: %v", tc.in, err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("parseJurisdictionList(%v)=%v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestValidateProfileInput(t *testing.T) {
	valid := ProfileInput{
		OperatorType:  "spacecraft",
		ActivityTypes: []string{"satellite_operations"},
		SizeClass:     "small",
	}
	cases := []struct {
		name    string
		mutate  func(in *ProfileInput)
		wantErr bool
	}{
		{name: "minimal valid", mutate: func(in *ProfileInput) {}},
		{
			name: "orbit optional but validated when set",
			mutate: func(in *ProfileInput) {
				in.OrbitType = "LEO"
			},
		},
		{
			name: "full valid",
			mutate: func(in *ProfileInput) {
				in.OperatorType = "launch_provider"
				in.ActivityTypes = []string{"launch", "reentry"}
				in.SizeClass = "large"
				in.OrbitType = "GEO"
				in.MassKg = pointers.Float64(1200)
				in.Flags = map[string]bool{"eu_market": true, "critical_infrastructure": false}
				in.LaunchDate = pointers.Ptr(time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC))
				in.MissionDurationYears = pointers.Int(7)
				in.AltitudeKm = pointers.Float64(35786)
				in.NoradCatID = pointers.Ptr(int64(25544))
			},
		},
		{
			name:    "unknown operator type",
			mutate:  func(in *ProfileInput) { in.OperatorType = "asteroid_miner" },
			wantErr: true,
		},
		{
			name:    "no activities",
			mutate:  func(in *ProfileInput) { in.ActivityTypes = nil },
			wantErr: true,
		},
		{
			name:    "unknown activity",
			mutate:  func(in *ProfileInput) { in.ActivityTypes = []string{"satellite_operations", "mining"} },
			wantErr: true,
		},
		{
			name:    "unknown size class",
			mutate:  func(in *ProfileInput) { in.SizeClass = "gigantic" },
			wantErr: true,
		},
		{
			name:    "unknown orbit",
			mutate:  func(in *ProfileInput) { in.OrbitType = "SSO" },
			wantErr: true,
		},
		{
			name:    "unknown flag",
			mutate:  func(in *ProfileInput) { in.Flags = map[string]bool{"lunar_market": true} },
			wantErr: true,
		},
		{
			name:    "negative mass",
			mutate:  func(in *ProfileInput) { in.MassKg = pointers.Float64(-1) },
			wantErr: true,
		},
		{
			name:   "zero mass allowed",
			mutate: func(in *ProfileInput) { in.MassKg = pointers.Float64(0) },
		},
		{
			name:    "negative altitude",
			mutate:  func(in *ProfileInput) { in.AltitudeKm = pointers.Float64(-550) },
			wantErr: true,
		},
		{
			name:    "zero mission duration",
			mutate:  func(in *ProfileInput) { in.MissionDurationYears = pointers.Int(0) },
			wantErr: true,
		},
		{
			name:    "non positive norad id",
			mutate:  func(in *ProfileInput) { in.NoradCatID = pointers.Ptr(int64(0)) },
			wantErr: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			in.ActivityTypes = append([]string(nil), valid.ActivityTypes...)
			tc.mutate(&in)
			err := validateProfileInput(in)
			if tc.wantErr {
				if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
					t.Fatalf("validateProfileInput err=%v, want ErrInvalidArgument", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("validateProfileInput unexpected error: %v", err)
			}
		})
	}
}

func TestEngineProfileFromRow(t *testing.T) {
	log := testLogger(t)

	t.Run("full row", func(t *testing.T) {
		row := &types.OperatorProfile{
			OperatorType:  "spacecraft",
			ActivityTypes: datatypes.JSON(`["satellite_operations","communications"]`),
			SizeClass:     "small",
			OrbitType:     "LEO",
			MassKg:        pointers.Float64(250.5),
			Flags:         datatypes.JSON(`{"eu_market":true,"uk_activity":false}`),
		}
		got := engineProfileFromRow(row, log)
		if got.OperatorType != compliance.OperatorSpacecraft {
			t.Fatalf("OperatorType=%q, want %q", got.OperatorType, compliance.OperatorSpacecraft)
		}
		wantActivities := []compliance.ActivityType{compliance.ActivitySatelliteOps, compliance.ActivityCommunications}
		if !reflect.DeepEqual(got.ActivityTypes, wantActivities) {
			t.Fatalf("ActivityTypes=%v, want %v", got.ActivityTypes, wantActivities)
		}
		if got.SizeClass != compliance.SizeSmall || got.OrbitType != compliance.OrbitLEO {
			t.Fatalf("SizeClass=%q OrbitType=%q, want small/LEO", got.SizeClass, got.OrbitType)
		}
		if got.MassKg != 250.5 {
			t.Fatalf("MassKg=%v, want 250.5", got.MassKg)
		}
		if !got.HasFlag(compliance.FlagEUMarket) {
			t.Fatalf("eu_market flag lost in conversion")
		}
		if got.HasFlag(compliance.FlagUKActivity) {
			t.Fatalf("uk_activity=false came through as set")
		}
	})

	t.Run("malformed columns degrade to empty", func(t *testing.T) {
		row := &types.OperatorProfile{
			OperatorType:  "spacecraft",
			ActivityTypes: datatypes.JSON(`{not json`),
			SizeClass:     "micro",
			Flags:         datatypes.JSON(`[broken`),
		}
		got := engineProfileFromRow(row, log)
		if len(got.ActivityTypes) != 0 {
			t.Fatalf("ActivityTypes=%v, want empty on malformed column", got.ActivityTypes)
		}
		if got.Flags != nil {
			t.Fatalf("Flags=%v, want nil on malformed column", got.Flags)
		}
	})

	t.Run("nil mass becomes zero", func(t *testing.T) {
		row := &types.OperatorProfile{OperatorType: "ground_segment", SizeClass: "medium"}
		if got := engineProfileFromRow(row, log); got.MassKg != 0 {
			t.Fatalf("MassKg=%v, want 0 for nil column", got.MassKg)
		}
	})
}

func TestDisposalViewFromProfile(t *testing.T) {
	launch := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	t.Run("missing launch date", func(t *testing.T) {
		row := &types.OperatorProfile{MissionDurationYears: pointers.Int(5)}
		if _, err := disposalViewFromProfile(row); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
			t.Fatalf("err=%v, want ErrInvalidArgument", err)
		}
	})

	t.Run("missing mission duration", func(t *testing.T) {
		row := &types.OperatorProfile{LaunchDate: &launch}
		if _, err := disposalViewFromProfile(row); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
			t.Fatalf("err=%v, want ErrInvalidArgument", err)
		}
	})

	t.Run("LEO mission gets the five year rule", func(t *testing.T) {
		row := &types.OperatorProfile{
			OrbitType:            "LEO",
			AltitudeKm:           pointers.Float64(550),
			LaunchDate:           &launch,
			MissionDurationYears: pointers.Int(5),
		}
		got, err := disposalViewFromProfile(row)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Estimate.Rule != compliance.DisposalRule5Year {
			t.Fatalf("Rule=%q, want %q", got.Estimate.Rule, compliance.DisposalRule5Year)
		}
		wantEnd := launch.AddDate(5, 0, 0)
		if !got.Estimate.EndOfMission.Equal(wantEnd) {
			t.Fatalf("EndOfMission=%v, want %v", got.Estimate.EndOfMission, wantEnd)
		}
		if !got.Estimate.DisposalDeadline.Equal(wantEnd.AddDate(5, 0, 0)) {
			t.Fatalf("DisposalDeadline=%v, want %v", got.Estimate.DisposalDeadline, wantEnd.AddDate(5, 0, 0))
		}
	})

	t.Run("unknown altitude defers to orbit regime", func(t *testing.T) {
		row := &types.OperatorProfile{
			OrbitType:            "GEO",
			LaunchDate:           &launch,
			MissionDurationYears: pointers.Int(15),
		}
		got, err := disposalViewFromProfile(row)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Estimate.Rule != compliance.DisposalRule25Year {
			t.Fatalf("Rule=%q, want %q", got.Estimate.Rule, compliance.DisposalRule25Year)
		}
		if got.AltitudeKm != nil {
			t.Fatalf("AltitudeKm=%v, want nil passthrough", *got.AltitudeKm)
		}
	})
}
