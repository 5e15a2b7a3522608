package chat

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

type ChatThreadRepo interface {
	Create(dbc dbctx.Context, rows []*types.ChatThread) ([]*types.ChatThread, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ChatThread, error)
	GetForOrg(dbc dbctx.Context, orgID, id uuid.UUID) (*types.ChatThread, error)
	ListByUser(dbc dbctx.Context, orgID, userID uuid.UUID, limit int) ([]*types.ChatThread, error)
	CountByOrg(dbc dbctx.Context, orgID uuid.UUID) (int64, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.ChatThread, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type chatThreadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatThreadRepo(db *gorm.DB, log *logger.Logger) ChatThreadRepo {
	return &chatThreadRepo{db: db, log: log.With("repo", "ChatThreadRepo")}
}

func (r *chatThreadRepo) Create(dbc dbctx.Context, rows []*types.ChatThread) ([]*types.ChatThread, error) {
	if len(rows) == 0 {
		return []*types.ChatThread{}, nil
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

func (r *chatThreadRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ChatThread, error) {
	if len(ids) == 0 {
		return []*types.ChatThread{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.ChatThread
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.ChatThread{}).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *chatThreadRepo) GetForOrg(dbc dbctx.Context, orgID, id uuid.UUID) (*types.ChatThread, error) {
	if orgID == uuid.Nil || id == uuid.Nil {
		return nil, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var row types.ChatThread
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

func (r *chatThreadRepo) ListByUser(dbc dbctx.Context, orgID, userID uuid.UUID, limit int) ([]*types.ChatThread, error) {
	if orgID == uuid.Nil {
		return nil, fmt.Errorf("missing org_id")
	}
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
	var out []*types.ChatThread
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.ChatThread{}).
		Where("org_id = ? AND user_id = ? AND status = ?", orgID, userID, "active").
		Order("last_message_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *chatThreadRepo) CountByOrg(dbc dbctx.Context, orgID uuid.UUID) (int64, error) {
	if orgID == uuid.Nil {
		return 0, fmt.Errorf("missing org_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var count int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.ChatThread{}).
		Where("org_id = ? AND status = ?", orgID, "active").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *chatThreadRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.ChatThread, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID requires dbc.Tx")
	}
	var out types.ChatThread
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *chatThreadRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.ChatThread{}).
		Where("id = ?", id).
		Updates(updates).Error
}
