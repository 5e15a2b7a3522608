package billing

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/caelexhq/caelex-backend/internal/domain"
	"github.com/caelexhq/caelex-backend/internal/pkg/dbctx"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
)

type PlanRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Plan, error)
	GetByKey(dbc dbctx.Context, key string) (*types.Plan, error)
	List(dbc dbctx.Context) ([]*types.Plan, error)
	ListEntitlements(dbc dbctx.Context, planID uuid.UUID) ([]*types.PlanEntitlement, error)
}

type planRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlanRepo(db *gorm.DB, baseLog *logger.Logger) PlanRepo {
	return &planRepo{db: db, log: baseLog.With("repo", "PlanRepo")}
}

func (r *planRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Plan, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var row types.Plan
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

func (r *planRepo) GetByKey(dbc dbctx.Context, key string) (*types.Plan, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var row types.Plan
	if err := txx.WithContext(dbc.Ctx).
		Where("key = ?", key).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *planRepo) List(dbc dbctx.Context) ([]*types.Plan, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Plan
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Plan{}).
		Order("price_cents_month ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *planRepo) ListEntitlements(dbc dbctx.Context, planID uuid.UUID) ([]*types.PlanEntitlement, error) {
	if planID == uuid.Nil {
		return []*types.PlanEntitlement{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.PlanEntitlement
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.PlanEntitlement{}).
		Where("plan_id = ?", planID).
		Order("key ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
