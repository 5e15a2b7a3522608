package identity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/caelexhq/caelex-backend/internal/domain"
	"github.com/caelexhq/caelex-backend/internal/pkg/dbctx"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
)

type OrgMembershipRepo interface {
	Create(dbc dbctx.Context, rows []*types.OrgMembership) ([]*types.OrgMembership, error)
	GetByOrgAndUser(dbc dbctx.Context, orgID, userID uuid.UUID) (*types.OrgMembership, error)
	ListByOrg(dbc dbctx.Context, orgID uuid.UUID, limit int) ([]*types.OrgMembership, error)
	CountByOrg(dbc dbctx.Context, orgID uuid.UUID) (int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type orgMembershipRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrgMembershipRepo(db *gorm.DB, baseLog *logger.Logger) OrgMembershipRepo {
	return &orgMembershipRepo{db: db, log: baseLog.With("repo", "OrgMembershipRepo")}
}

func (r *orgMembershipRepo) Create(dbc dbctx.Context, rows []*types.OrgMembership) ([]*types.OrgMembership, error) {
	if len(rows) == 0 {
		return []*types.OrgMembership{}, nil
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

func (r *orgMembershipRepo) GetByOrgAndUser(dbc dbctx.Context, orgID, userID uuid.UUID) (*types.OrgMembership, error) {
	if orgID == uuid.Nil || userID == uuid.Nil {
		return nil, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var row types.OrgMembership
	if err := txx.WithContext(dbc.Ctx).
		Where("org_id = ? AND user_id = ?", orgID, userID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *orgMembershipRepo) ListByOrg(dbc dbctx.Context, orgID uuid.UUID, limit int) ([]*types.OrgMembership, error) {
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
	var out []*types.OrgMembership
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.OrgMembership{}).
		Where("org_id = ?", orgID).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *orgMembershipRepo) CountByOrg(dbc dbctx.Context, orgID uuid.UUID) (int64, error) {
	if orgID == uuid.Nil {
		return 0, fmt.Errorf("missing org_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var count int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.OrgMembership{}).
		Where("org_id = ?", orgID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *orgMembershipRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.OrgMembership{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *orgMembershipRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.OrgMembership{}).Error
}
