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

type AssessmentRepo interface {
	Create(dbc dbctx.Context, rows []*types.Assessment) ([]*types.Assessment, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Assessment, error)
	GetForOrg(dbc dbctx.Context, orgID, id uuid.UUID) (*types.Assessment, error)
	ListByOrg(dbc dbctx.Context, orgID uuid.UUID, limit int) ([]*types.Assessment, error)
	CountByOrg(dbc dbctx.Context, orgID uuid.UUID) (int64, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Assessment, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type assessmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssessmentRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentRepo {
	return &assessmentRepo{db: db, log: baseLog.With("repo", "AssessmentRepo")}
}

func (r *assessmentRepo) Create(dbc dbctx.Context, rows []*types.Assessment) ([]*types.Assessment, error) {
	if len(rows) == 0 {
		return []*types.Assessment{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *assessmentRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Assessment, error) {
	if len(ids) == 0 {
		return []*types.Assessment{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Assessment
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Assessment{}).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assessmentRepo) GetForOrg(dbc dbctx.Context, orgID, id uuid.UUID) (*types.Assessment, error) {
	if orgID == uuid.Nil || id == uuid.Nil {
		return nil, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var row types.Assessment
	if err := txx.WithContext(dbc.Ctx).
		Where("id = ? AND org_id = ?", id, orgID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *assessmentRepo) ListByOrg(dbc dbctx.Context, orgID uuid.UUID, limit int) ([]*types.Assessment, error) {
	if orgID == uuid.Nil {
		return nil, fmt.Errorf("missing org_id")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Assessment
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Assessment{}).
		Where("org_id = ?", orgID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assessmentRepo) CountByOrg(dbc dbctx.Context, orgID uuid.UUID) (int64, error) {
	if orgID == uuid.Nil {
		return 0, fmt.Errorf("missing org_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var count int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Assessment{}).
		Where("org_id = ?", orgID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *assessmentRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Assessment, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID requires dbc.Tx")
	}
	var out types.Assessment
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *assessmentRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["updated_at"] = time.Now().UTC()
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.Assessment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *assessmentRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.Assessment{}).Error
}
