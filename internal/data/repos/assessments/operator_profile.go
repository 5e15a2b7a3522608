package assessments

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/caelexhq/caelex-backend/internal/domain"
	"github.com/caelexhq/caelex-backend/internal/pkg/dbctx"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
)

type OperatorProfileRepo interface {
	Upsert(dbc dbctx.Context, row *types.OperatorProfile) error
	GetByAssessmentID(dbc dbctx.Context, assessmentID uuid.UUID) (*types.OperatorProfile, error)
	DeleteByAssessmentID(dbc dbctx.Context, assessmentID uuid.UUID) error
}

type operatorProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOperatorProfileRepo(db *gorm.DB, baseLog *logger.Logger) OperatorProfileRepo {
	return &operatorProfileRepo{db: db, log: baseLog.With("repo", "OperatorProfileRepo")}
}

func (r *operatorProfileRepo) Upsert(dbc dbctx.Context, row *types.OperatorProfile) error {
	if row == nil || row.AssessmentID == uuid.Nil {
		return fmt.Errorf("missing assessment_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.UpdatedAt = time.Now().UTC()
	return txx.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "assessment_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"operator_type",
				"activity_types",
				"size_class",
				"orbit_type",
				"mass_kg",
				"flags",
				"launch_date",
				"mission_duration_years",
				"altitude_km",
				"norad_cat_id",
				"updated_at",
			}),
		}).
		Create(row).Error
}

func (r *operatorProfileRepo) GetByAssessmentID(dbc dbctx.Context, assessmentID uuid.UUID) (*types.OperatorProfile, error) {
	if assessmentID == uuid.Nil {
		return nil, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var row types.OperatorProfile
	if err := txx.WithContext(dbc.Ctx).
		Where("assessment_id = ?", assessmentID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// DeleteByAssessmentID removes the profile outright. Profiles only die with
// their parent assessment, so there is nothing to keep for history.
func (r *operatorProfileRepo) DeleteByAssessmentID(dbc dbctx.Context, assessmentID uuid.UUID) error {
	if assessmentID == uuid.Nil {
		return fmt.Errorf("missing assessment_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Unscoped().
		Where("assessment_id = ?", assessmentID).
		Delete(&types.OperatorProfile{}).Error
}
