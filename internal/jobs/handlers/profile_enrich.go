package handlers

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	assessrepos "github.com/caelexhq/caelex-backend/internal/data/repos/assessments"
	types "github.com/caelexhq/caelex-backend/internal/domain"
	"github.com/caelexhq/caelex-backend/internal/jobs/runtime"
	"github.com/caelexhq/caelex-backend/internal/pkg/dbctx"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
	"github.com/caelexhq/caelex-backend/internal/satellites"
	"github.com/caelexhq/caelex-backend/internal/services"
)

// ProfileEnrich fills missing orbit facts on an operator profile from the
// public satellite catalog, then rescores the assessment. It only ever
// fills blanks; operator-entered values win.
type ProfileEnrich struct {
	db  *gorm.DB
	log *logger.Logger

	profiles    assessrepos.OperatorProfileRepo
	assessments services.AssessmentService
	sats        satellites.Service
	notify      services.AssessmentNotifier
}

func NewProfileEnrich(
	db *gorm.DB,
	baseLog *logger.Logger,
	profiles assessrepos.OperatorProfileRepo,
	assessments services.AssessmentService,
	sats satellites.Service,
	notify services.AssessmentNotifier,
) *ProfileEnrich {
	return &ProfileEnrich{
		db:          db,
		log:         baseLog.With("job", "profile_enrich"),
		profiles:    profiles,
		assessments: assessments,
		sats:        sats,
		notify:      notify,
	}
}

func (h *ProfileEnrich) Type() string { return "profile_enrich" }

func (h *ProfileEnrich) Run(jc *runtime.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	assessmentID, ok := jc.PayloadUUID("assessment_id")
	if !ok || assessmentID == uuid.Nil {
		jc.Fail("validate", fmt.Errorf("missing assessment_id"))
		return nil
	}
	norad, ok := jc.PayloadInt64("norad_cat_id")
	if !ok || norad <= 0 {
		jc.Fail("validate", fmt.Errorf("missing norad_cat_id"))
		return nil
	}
	if h.sats == nil {
		jc.Fail("validate", fmt.Errorf("satellite lookups not configured"))
		return nil
	}

	jc.Progress("lookup", 10, "Looking up satellite")
	sat, err := h.sats.Get(jc.Ctx, norad)
	if err != nil {
		jc.Fail("lookup", err)
		return nil
	}

	jc.Progress("apply", 50, "Applying catalog facts")
	var (
		applied []string
		scored  *types.Assessment
	)
	if err := h.db.WithContext(jc.Ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: jc.Ctx, Tx: tx}

		profile, err := h.profiles.GetByAssessmentID(dbc, assessmentID)
		if err != nil {
			return fmt.Errorf("fetch profile: %w", err)
		}
		if profile == nil {
			return fmt.Errorf("assessment %s has no profile", assessmentID)
		}

		if profile.OrbitType == "" && sat.OrbitClass != "" {
			profile.OrbitType = sat.OrbitClass
			applied = append(applied, "orbit_type")
		}
		if profile.LaunchDate == nil && sat.LaunchDate != nil {
			profile.LaunchDate = sat.LaunchDate
			applied = append(applied, "launch_date")
		}
		if profile.AltitudeKm == nil {
			if alt := meanAltitudeKm(sat); alt != nil {
				profile.AltitudeKm = alt
				applied = append(applied, "altitude_km")
			}
		}
		if len(applied) == 0 {
			return nil
		}

		if err := h.profiles.Upsert(dbc, profile); err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		scored, err = h.assessments.Rescore(dbc, jc.Job.OrgID, assessmentID)
		return err
	}); err != nil {
		jc.Fail("apply", err)
		return nil
	}

	if scored != nil {
		h.notify.AssessmentScored(jc.Job.OrgID, scored)
	}

	jc.Succeed("done", map[string]any{
		"assessment_id":  assessmentID.String(),
		"norad_cat_id":   norad,
		"satellite":      sat.Name,
		"fields_applied": applied,
	})
	return nil
}

// meanAltitudeKm averages apogee and perigee; with either missing the
// altitude stays unknown rather than guessed.
func meanAltitudeKm(sat *satellites.Satellite) *float64 {
	if sat == nil || sat.ApogeeKm == nil || sat.PerigeeKm == nil {
		return nil
	}
	alt := (*sat.ApogeeKm + *sat.PerigeeKm) / 2
	return &alt
}
