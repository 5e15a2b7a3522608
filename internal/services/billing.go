package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	billingrepos "github.com/caelexhq/caelex-backend/internal/data/repos/billing"
	types "github.com/caelexhq/caelex-backend/internal/domain"
	"github.com/caelexhq/caelex-backend/internal/pkg/ctxutil"
	"github.com/caelexhq/caelex-backend/internal/pkg/dbctx"
	pkgerrors "github.com/caelexhq/caelex-backend/internal/pkg/errors"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
)

// PlanView is a plan row with its entitlements flattened to a key/value
// map for the pricing page.
type PlanView struct {
	Plan         *types.Plan      `json:"plan"`
	Entitlements map[string]int64 `json:"entitlements"`
}

// SubscriptionView is what an org sees on its billing page. Subscription
// is nil for orgs on the implicit free plan.
type SubscriptionView struct {
	Subscription *types.OrgSubscription `json:"subscription,omitempty"`
	Plan         *types.Plan            `json:"plan"`
	Entitlements map[string]int64       `json:"entitlements"`
}

// BillingService resolves plans and enforces entitlements. Creation paths
// in other services call CheckLimit/FeatureEnabled inside their own
// transactions so the count they check against cannot race the insert.
type BillingService interface {
	ListPlans(ctx context.Context) ([]PlanView, error)
	GetSubscription(ctx context.Context) (*SubscriptionView, error)

	EntitlementValue(dbc dbctx.Context, orgID uuid.UUID, key string) (int64, error)
	CheckLimit(dbc dbctx.Context, orgID uuid.UUID, key string, current int64) error
	FeatureEnabled(dbc dbctx.Context, orgID uuid.UUID, key string) (bool, error)
}

type billingService struct {
	db       *gorm.DB
	log      *logger.Logger
	planRepo billingrepos.PlanRepo
	subRepo  billingrepos.OrgSubscriptionRepo
}

func NewBillingService(db *gorm.DB, log *logger.Logger, planRepo billingrepos.PlanRepo, subRepo billingrepos.OrgSubscriptionRepo) BillingService {
	serviceLog := log.With("service", "BillingService")
	return &billingService{
		db:       db,
		log:      serviceLog,
		planRepo: planRepo,
		subRepo:  subRepo,
	}
}

func (bs *billingService) ListPlans(ctx context.Context) ([]PlanView, error) {
	dbc := dbctx.Context{Ctx: ctx}
	plans, err := bs.planRepo.List(dbc)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	out := make([]PlanView, 0, len(plans))
	for _, plan := range plans {
		ents, err := bs.entitlementMap(dbc, plan.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, PlanView{Plan: plan, Entitlements: ents})
	}
	return out, nil
}

func (bs *billingService) GetSubscription(ctx context.Context) (*SubscriptionView, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("missing request identity: %w", pkgerrors.ErrUnauthorized)
	}
	if rd.OrgID == uuid.Nil {
		return nil, fmt.Errorf("missing org scope: %w", pkgerrors.ErrForbidden)
	}

	dbc := dbctx.Context{Ctx: ctx}
	sub, plan, err := bs.planForOrg(dbc, rd.OrgID)
	if err != nil {
		return nil, err
	}
	ents, err := bs.entitlementMap(dbc, plan.ID)
	if err != nil {
		return nil, err
	}
	return &SubscriptionView{Subscription: sub, Plan: plan, Entitlements: ents}, nil
}

func (bs *billingService) EntitlementValue(dbc dbctx.Context, orgID uuid.UUID, key string) (int64, error) {
	if orgID == uuid.Nil {
		return 0, fmt.Errorf("missing org id: %w", pkgerrors.ErrInvalidArgument)
	}
	_, plan, err := bs.planForOrg(dbc, orgID)
	if err != nil {
		return 0, err
	}
	ents, err := bs.entitlementMap(dbc, plan.ID)
	if err != nil {
		return 0, err
	}
	// Keys absent from the plan deny: 0 works as both a closed feature
	// gate and an exhausted limit.
	return ents[key], nil
}

func (bs *billingService) CheckLimit(dbc dbctx.Context, orgID uuid.UUID, key string, current int64) error {
	limit, err := bs.EntitlementValue(dbc, orgID, key)
	if err != nil {
		return err
	}
	if !withinLimit(limit, current) {
		return fmt.Errorf("%s limit reached (%d): %w", key, limit, pkgerrors.ErrLimitExceeded)
	}
	return nil
}

func (bs *billingService) FeatureEnabled(dbc dbctx.Context, orgID uuid.UUID, key string) (bool, error) {
	value, err := bs.EntitlementValue(dbc, orgID, key)
	if err != nil {
		return false, err
	}
	return value != 0, nil
}

// planForOrg resolves the org's effective plan: an active subscription's
// plan, otherwise free. Past-due and canceled subscriptions degrade to
// free rather than keeping paid limits alive.
func (bs *billingService) planForOrg(dbc dbctx.Context, orgID uuid.UUID) (*types.OrgSubscription, *types.Plan, error) {
	sub, err := bs.subRepo.GetByOrgID(dbc, orgID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch subscription: %w", err)
	}
	if sub != nil && sub.Status == "active" {
		plan, err := bs.planRepo.GetByID(dbc, sub.PlanID)
		if err != nil {
			return nil, nil, fmt.Errorf("fetch plan: %w", err)
		}
		if plan != nil {
			return sub, plan, nil
		}
		bs.log.Warn("subscription references missing plan, falling back to free", "org_id", orgID, "plan_id", sub.PlanID)
	}

	free, err := bs.planRepo.GetByKey(dbc, types.PlanKeyFree)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch free plan: %w", err)
	}
	if free == nil {
		return nil, nil, fmt.Errorf("free plan not seeded")
	}
	return nil, free, nil
}

func (bs *billingService) entitlementMap(dbc dbctx.Context, planID uuid.UUID) (map[string]int64, error) {
	rows, err := bs.planRepo.ListEntitlements(dbc, planID)
	if err != nil {
		return nil, fmt.Errorf("list entitlements: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// withinLimit reports whether adding one more resource stays inside the
// entitlement. Negative limits mean unlimited.
func withinLimit(limit, current int64) bool {
	if limit < 0 {
		return true
	}
	return current < limit
}
