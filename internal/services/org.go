package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	identityrepos "github.com/caelexhq/caelex-backend/internal/data/repos/identity"
	types "github.com/caelexhq/caelex-backend/internal/domain"
	"github.com/caelexhq/caelex-backend/internal/pkg/ctxutil"
	"github.com/caelexhq/caelex-backend/internal/pkg/dbctx"
	pkgerrors "github.com/caelexhq/caelex-backend/internal/pkg/errors"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
)

// MemberView joins a membership row with the member's public user fields.
type MemberView struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	JoinedAt  time.Time `json:"joined_at"`
}

type OrgService interface {
	Create(ctx context.Context, name, countryCode string) (*types.Org, error)
	ListMine(ctx context.Context) ([]*types.Org, error)
	Get(ctx context.Context) (*types.Org, error)

	AddMember(ctx context.Context, email, role string) (*MemberView, error)
	ListMembers(ctx context.Context) ([]MemberView, error)
	RemoveMember(ctx context.Context, userID uuid.UUID) error
}

type orgService struct {
	db             *gorm.DB
	log            *logger.Logger
	orgRepo        identityrepos.OrgRepo
	membershipRepo identityrepos.OrgMembershipRepo
	userRepo       identityrepos.UserRepo
	billing        BillingService
}

var validMemberRoles = map[string]struct{}{
	types.OrgRoleAdmin:  {},
	types.OrgRoleMember: {},
}

func NewOrgService(db *gorm.DB, log *logger.Logger, orgRepo identityrepos.OrgRepo, membershipRepo identityrepos.OrgMembershipRepo, userRepo identityrepos.UserRepo, billing BillingService) OrgService {
	serviceLog := log.With("service", "OrgService")
	return &orgService{
		db:             db,
		log:            serviceLog,
		orgRepo:        orgRepo,
		membershipRepo: membershipRepo,
		userRepo:       userRepo,
		billing:        billing,
	}
}

func (os *orgService) Create(ctx context.Context, name, countryCode string) (*types.Org, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("missing request identity: %w", pkgerrors.ErrUnauthorized)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("org name required: %w", pkgerrors.ErrInvalidArgument)
	}
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	if countryCode != "" && len(countryCode) != 2 {
		return nil, fmt.Errorf("country_code must be ISO 3166-1 alpha-2: %w", pkgerrors.ErrInvalidArgument)
	}

	var out *types.Org
	if err := os.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		slug := slugify(name)
		if existing, err := os.orgRepo.GetBySlug(dbc, slug); err != nil {
			return fmt.Errorf("check slug: %w", err)
		} else if existing != nil {
			slug = slug + "-" + uuid.NewString()[:8]
		}

		org := &types.Org{
			ID:          uuid.New(),
			Name:        name,
			Slug:        slug,
			CountryCode: countryCode,
		}
		if _, err := os.orgRepo.Create(dbc, []*types.Org{org}); err != nil {
			return fmt.Errorf("create org: %w", err)
		}

		membership := &types.OrgMembership{
			ID:     uuid.New(),
			OrgID:  org.ID,
			UserID: rd.UserID,
			Role:   types.OrgRoleOwner,
		}
		if _, err := os.membershipRepo.Create(dbc, []*types.OrgMembership{membership}); err != nil {
			return fmt.Errorf("create owner membership: %w", err)
		}

		out = org
		return nil
	}); err != nil {
		return nil, err
	}
	return out, nil
}

func (os *orgService) ListMine(ctx context.Context) ([]*types.Org, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("missing request identity: %w", pkgerrors.ErrUnauthorized)
	}
	orgs, err := os.orgRepo.ListByUser(dbctx.Context{Ctx: ctx}, rd.UserID, 0)
	if err != nil {
		return nil, fmt.Errorf("list orgs: %w", err)
	}
	return orgs, nil
}

func (os *orgService) Get(ctx context.Context) (*types.Org, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("missing request identity: %w", pkgerrors.ErrUnauthorized)
	}
	if rd.OrgID == uuid.Nil {
		return nil, fmt.Errorf("missing org scope: %w", pkgerrors.ErrForbidden)
	}
	org, err := os.orgRepo.GetByID(dbctx.Context{Ctx: ctx}, rd.OrgID)
	if err != nil {
		return nil, fmt.Errorf("fetch org: %w", err)
	}
	if org == nil {
		return nil, fmt.Errorf("org %s: %w", rd.OrgID, pkgerrors.ErrNotFound)
	}
	return org, nil
}

func (os *orgService) AddMember(ctx context.Context, email, role string) (*MemberView, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("missing request identity: %w", pkgerrors.ErrUnauthorized)
	}
	if rd.OrgID == uuid.Nil {
		return nil, fmt.Errorf("missing org scope: %w", pkgerrors.ErrForbidden)
	}
	if rd.OrgRole != types.OrgRoleOwner && rd.OrgRole != types.OrgRoleAdmin {
		return nil, fmt.Errorf("only owners and admins manage members: %w", pkgerrors.ErrForbidden)
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("email required: %w", pkgerrors.ErrInvalidArgument)
	}
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		role = types.OrgRoleMember
	}
	if _, ok := validMemberRoles[role]; !ok {
		return nil, fmt.Errorf("invalid member role %q: %w", role, pkgerrors.ErrInvalidArgument)
	}

	var out *MemberView
	if err := os.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		user, err := os.userRepo.GetByEmail(dbc, email)
		if err != nil {
			return fmt.Errorf("fetch user: %w", err)
		}
		if user == nil {
			return fmt.Errorf("no account for %s: %w", email, pkgerrors.ErrNotFound)
		}

		existing, err := os.membershipRepo.GetByOrgAndUser(dbc, rd.OrgID, user.ID)
		if err != nil {
			return fmt.Errorf("check membership: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("%s is already a member: %w", email, pkgerrors.ErrInvalidArgument)
		}

		count, err := os.membershipRepo.CountByOrg(dbc, rd.OrgID)
		if err != nil {
			return fmt.Errorf("count members: %w", err)
		}
		if err := os.billing.CheckLimit(dbc, rd.OrgID, types.EntitlementMaxMembers, count); err != nil {
			return err
		}

		membership := &types.OrgMembership{
			ID:     uuid.New(),
			OrgID:  rd.OrgID,
			UserID: user.ID,
			Role:   role,
		}
		if _, err := os.membershipRepo.Create(dbc, []*types.OrgMembership{membership}); err != nil {
			return fmt.Errorf("create membership: %w", err)
		}

		out = &MemberView{
			UserID:    user.ID,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Role:      membership.Role,
			JoinedAt:  membership.CreatedAt,
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return out, nil
}

func (os *orgService) ListMembers(ctx context.Context) ([]MemberView, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("missing request identity: %w", pkgerrors.ErrUnauthorized)
	}
	if rd.OrgID == uuid.Nil {
		return nil, fmt.Errorf("missing org scope: %w", pkgerrors.ErrForbidden)
	}

	dbc := dbctx.Context{Ctx: ctx}
	memberships, err := os.membershipRepo.ListByOrg(dbc, rd.OrgID, 0)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}

	userIDs := make([]uuid.UUID, 0, len(memberships))
	for _, m := range memberships {
		userIDs = append(userIDs, m.UserID)
	}
	users, err := os.userRepo.GetByIDs(dbc, userIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch members: %w", err)
	}
	byID := make(map[uuid.UUID]*types.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]MemberView, 0, len(memberships))
	for _, m := range memberships {
		view := MemberView{
			UserID:   m.UserID,
			Role:     m.Role,
			JoinedAt: m.CreatedAt,
		}
		if u := byID[m.UserID]; u != nil {
			view.Email = u.Email
			view.FirstName = u.FirstName
			view.LastName = u.LastName
		}
		out = append(out, view)
	}
	return out, nil
}

func (os *orgService) RemoveMember(ctx context.Context, userID uuid.UUID) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return fmt.Errorf("missing request identity: %w", pkgerrors.ErrUnauthorized)
	}
	if rd.OrgID == uuid.Nil {
		return fmt.Errorf("missing org scope: %w", pkgerrors.ErrForbidden)
	}
	if rd.OrgRole != types.OrgRoleOwner && rd.OrgRole != types.OrgRoleAdmin {
		return fmt.Errorf("only owners and admins manage members: %w", pkgerrors.ErrForbidden)
	}
	if userID == uuid.Nil {
		return fmt.Errorf("missing user id: %w", pkgerrors.ErrInvalidArgument)
	}

	return os.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		target, err := os.membershipRepo.GetByOrgAndUser(dbc, rd.OrgID, userID)
		if err != nil {
			return fmt.Errorf("fetch membership: %w", err)
		}
		if target == nil {
			return fmt.Errorf("membership for %s: %w", userID, pkgerrors.ErrNotFound)
		}
		if target.Role == types.OrgRoleOwner {
			return fmt.Errorf("the owner cannot be removed: %w", pkgerrors.ErrForbidden)
		}
		if target.Role == types.OrgRoleAdmin && rd.OrgRole != types.OrgRoleOwner {
			return fmt.Errorf("only the owner removes admins: %w", pkgerrors.ErrForbidden)
		}

		if err := os.membershipRepo.Delete(dbc, target.ID); err != nil {
			return fmt.Errorf("delete membership: %w", err)
		}
		return nil
	})
}

// slugify derives a URL-safe identifier from the org name: lowercase
// alphanumerics with single dashes, capped at 60 bytes.
func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
		if b.Len() >= 60 {
			break
		}
	}
	return strings.Trim(b.String(), "-")
}
