package identity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/caelexhq/caelex-backend/internal/domain"
	"github.com/caelexhq/caelex-backend/internal/pkg/dbctx"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
)

type OrgRepo interface {
	Create(dbc dbctx.Context, rows []*types.Org) ([]*types.Org, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Org, error)
	GetBySlug(dbc dbctx.Context, slug string) (*types.Org, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.Org, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type orgRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrgRepo(db *gorm.DB, baseLog *logger.Logger) OrgRepo {
	return &orgRepo{db: db, log: baseLog.With("repo", "OrgRepo")}
}

func (r *orgRepo) Create(dbc dbctx.Context, rows []*types.Org) ([]*types.Org, error) {
	if len(rows) == 0 {
		return []*types.Org{}, nil
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

func (r *orgRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Org, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var row types.Org
	if err := txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *orgRepo) GetBySlug(dbc dbctx.Context, slug string) (*types.Org, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var row types.Org
	if err := txx.WithContext(dbc.Ctx).
		Where("slug = ?", slug).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *orgRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.Org, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Org
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Org{}).
		Joins("JOIN org_membership ON org_membership.org_id = org.id").
		Where("org_membership.user_id = ? AND org_membership.deleted_at IS NULL", userID).
		Order("org.created_at ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *orgRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.Org{}).
		Where("id = ?", id).
		Updates(updates).Error
}
