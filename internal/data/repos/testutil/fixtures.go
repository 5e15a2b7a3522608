package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	types "github.com/caelexhq/caelex-backend/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedOrg(tb testing.TB, ctx context.Context, tx *gorm.DB, slug string) *types.Org {
	tb.Helper()
	o := &types.Org{
		ID:          uuid.New(),
		Name:        "Org " + slug,
		Slug:        slug,
		CountryCode: "FR",
	}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		tb.Fatalf("seed org: %v", err)
	}
	return o
}

func SeedMembership(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID, userID uuid.UUID, role string) *types.OrgMembership {
	tb.Helper()
	m := &types.OrgMembership{
		ID:     uuid.New(),
		OrgID:  orgID,
		UserID: userID,
		Role:   role,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed membership: %v", err)
	}
	return m
}

func SeedAssessment(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID, createdBy uuid.UUID, name string) *types.Assessment {
	tb.Helper()
	a := &types.Assessment{
		ID:             uuid.New(),
		OrgID:          orgID,
		CreatedBy:      createdBy,
		Name:           name,
		Jurisdictions:  datatypes.JSON([]byte(`["eu_space_act"]`)),
		ByCategory:     datatypes.JSON([]byte("[]")),
		CatalogVersion: "2025.2",
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed assessment: %v", err)
	}
	return a
}

func SeedOperatorProfile(tb testing.TB, ctx context.Context, tx *gorm.DB, assessmentID uuid.UUID) *types.OperatorProfile {
	tb.Helper()
	p := &types.OperatorProfile{
		ID:            uuid.New(),
		AssessmentID:  assessmentID,
		OperatorType:  "spacecraft_operator",
		ActivityTypes: datatypes.JSON([]byte(`["satellite_operations"]`)),
		SizeClass:     "small",
		OrbitType:     "LEO",
		Flags:         datatypes.JSON([]byte("{}")),
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed operator profile: %v", err)
	}
	return p
}

func SeedRequirementStatus(tb testing.TB, ctx context.Context, tx *gorm.DB, assessmentID uuid.UUID, requirementID, status string, updatedBy uuid.UUID) *types.RequirementStatus {
	tb.Helper()
	rs := &types.RequirementStatus{
		ID:            uuid.New(),
		AssessmentID:  assessmentID,
		RequirementID: requirementID,
		Status:        status,
		UpdatedBy:     updatedBy,
	}
	if err := tx.WithContext(ctx).Create(rs).Error; err != nil {
		tb.Fatalf("seed requirement status: %v", err)
	}
	return rs
}

func SeedPlan(tb testing.TB, ctx context.Context, tx *gorm.DB, key string, priceCents int64) *types.Plan {
	tb.Helper()
	p := &types.Plan{
		ID:              uuid.New(),
		Key:             key,
		Name:            key,
		PriceCentsMonth: priceCents,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed plan: %v", err)
	}
	return p
}

func SeedPlanEntitlement(tb testing.TB, ctx context.Context, tx *gorm.DB, planID uuid.UUID, key string, value int64) *types.PlanEntitlement {
	tb.Helper()
	e := &types.PlanEntitlement{
		ID:     uuid.New(),
		PlanID: planID,
		Key:    key,
		Value:  value,
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed plan entitlement: %v", err)
	}
	return e
}

func SeedChatThread(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID, userID uuid.UUID) *types.ChatThread {
	tb.Helper()
	th := &types.ChatThread{
		ID:            uuid.New(),
		OrgID:         orgID,
		UserID:        userID,
		Title:         "New thread",
		Status:        "active",
		Metadata:      datatypes.JSON([]byte("{}")),
		LastMessageAt: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(th).Error; err != nil {
		tb.Fatalf("seed chat thread: %v", err)
	}
	return th
}

func SeedJobRun(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID, ownerUserID uuid.UUID, jobType string, entityType string, entityID uuid.UUID) *types.JobRun {
	tb.Helper()
	j := &types.JobRun{
		ID:          uuid.New(),
		OrgID:       orgID,
		OwnerUserID: ownerUserID,
		JobType:     jobType,
		EntityType:  entityType,
		EntityID:    PtrUUID(entityID),
		Status:      "queued",
		Payload:     datatypes.JSON([]byte("{}")),
	}
	if err := tx.WithContext(ctx).Create(j).Error; err != nil {
		tb.Fatalf("seed job run: %v", err)
	}
	return j
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
