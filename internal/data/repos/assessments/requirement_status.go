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

type RequirementStatusRepo interface {
	Upsert(dbc dbctx.Context, rows []*types.RequirementStatus) error
	ListByAssessmentID(dbc dbctx.Context, assessmentID uuid.UUID) ([]*types.RequirementStatus, error)
	DeleteByAssessmentID(dbc dbctx.Context, assessmentID uuid.UUID) error
}

type requirementStatusRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRequirementStatusRepo(db *gorm.DB, baseLog *logger.Logger) RequirementStatusRepo {
	return &requirementStatusRepo{db: db, log: baseLog.With("repo", "RequirementStatusRepo")}
}

func (r *requirementStatusRepo) Upsert(dbc dbctx.Context, rows []*types.RequirementStatus) error {
	if len(rows) == 0 {
		return nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row == nil || row.AssessmentID == uuid.Nil || row.RequirementID == "" {
			return fmt.Errorf("missing assessment_id or requirement_id")
		}
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		row.UpdatedAt = now
	}
	return txx.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "assessment_id"}, {Name: "requirement_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status",
				"note",
				"evidence_url",
				"updated_by",
				"updated_at",
			}),
		}).
		Create(&rows).Error
}

// ListByAssessmentID returns every status row for the assessment. The set is
// bounded by the requirement catalog, so no limit is applied.
func (r *requirementStatusRepo) ListByAssessmentID(dbc dbctx.Context, assessmentID uuid.UUID) ([]*types.RequirementStatus, error) {
	if assessmentID == uuid.Nil {
		return nil, fmt.Errorf("missing assessment_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.RequirementStatus
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.RequirementStatus{}).
		Where("assessment_id = ?", assessmentID).
		Order("requirement_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *requirementStatusRepo) DeleteByAssessmentID(dbc dbctx.Context, assessmentID uuid.UUID) error {
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
		Delete(&types.RequirementStatus{}).Error
}
