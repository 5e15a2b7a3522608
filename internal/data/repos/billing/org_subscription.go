package billing

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

type OrgSubscriptionRepo interface {
	Upsert(dbc dbctx.Context, row *types.OrgSubscription) error
	GetByOrgID(dbc dbctx.Context, orgID uuid.UUID) (*types.OrgSubscription, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type orgSubscriptionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrgSubscriptionRepo(db *gorm.DB, baseLog *logger.Logger) OrgSubscriptionRepo {
	return &orgSubscriptionRepo{db: db, log: baseLog.With("repo", "OrgSubscriptionRepo")}
}

func (r *orgSubscriptionRepo) Upsert(dbc dbctx.Context, row *types.OrgSubscription) error {
	if row == nil || row.OrgID == uuid.Nil {
		return fmt.Errorf("missing org_id")
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
			Columns: []clause.Column{{Name: "org_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"plan_id",
				"status",
				"started_at",
				"canceled_at",
				"updated_at",
			}),
		}).
		Create(row).Error
}

func (r *orgSubscriptionRepo) GetByOrgID(dbc dbctx.Context, orgID uuid.UUID) (*types.OrgSubscription, error) {
	if orgID == uuid.Nil {
		return nil, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var row types.OrgSubscription
	if err := txx.WithContext(dbc.Ctx).
		Where("org_id = ?", orgID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *orgSubscriptionRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.OrgSubscription{}).
		Where("id = ?", id).
		Updates(updates).Error
}
