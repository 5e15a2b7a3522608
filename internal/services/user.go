package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	identityrepos "github.com/caelexhq/caelex-backend/internal/data/repos/identity"
	types "github.com/caelexhq/caelex-backend/internal/domain"
	"github.com/caelexhq/caelex-backend/internal/pkg/ctxutil"
	"github.com/caelexhq/caelex-backend/internal/pkg/dbctx"
	pkgerrors "github.com/caelexhq/caelex-backend/internal/pkg/errors"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
)

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo identityrepos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo identityrepos.UserRepo) UserService {
	serviceLog := log.With("service", "UserService")
	return &userService{
		db:       db,
		log:      serviceLog,
		userRepo: userRepo,
	}
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("missing request identity: %w", pkgerrors.ErrUnauthorized)
	}
	user, err := us.userRepo.GetByID(dbctx.Context{Ctx: ctx}, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", rd.UserID, pkgerrors.ErrNotFound)
	}
	return user, nil
}
