package assessments

import (
	"context"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/caelexhq/caelex-backend/internal/data/repos/testutil"
	types "github.com/caelexhq/caelex-backend/internal/domain"
	"github.com/caelexhq/caelex-backend/internal/pkg/dbctx"
	"github.com/google/uuid"
)

func TestAssessmentRepos(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)

	assessRepo := NewAssessmentRepo(db, log)
	profileRepo := NewOperatorProfileRepo(db, log)
	statusRepo := NewRequirementStatusRepo(db, log)

	user := testutil.SeedUser(t, ctx, tx, "ops@caelex.test")
	org := testutil.SeedOrg(t, ctx, tx, "orbita")

	now := time.Now().UTC()
	first := &types.Assessment{
		ID:             uuid.New(),
		OrgID:          org.ID,
		CreatedBy:      user.ID,
		Name:           "Constellation A",
		Jurisdictions:  datatypes.JSON([]byte(`["eu_space_act","nis2"]`)),
		ByCategory:     datatypes.JSON([]byte("[]")),
		CatalogVersion: "2025.2",
		CreatedAt:      now.Add(-2 * time.Hour),
		UpdatedAt:      now.Add(-2 * time.Hour),
	}
	second := &types.Assessment{
		ID:             uuid.New(),
		OrgID:          org.ID,
		CreatedBy:      user.ID,
		Name:           "Constellation B",
		Jurisdictions:  datatypes.JSON([]byte(`["eu_space_act"]`)),
		ByCategory:     datatypes.JSON([]byte("[]")),
		CatalogVersion: "2025.2",
		CreatedAt:      now.Add(-1 * time.Hour),
		UpdatedAt:      now.Add(-1 * time.Hour),
	}
	if _, err := assessRepo.Create(dbc, []*types.Assessment{first, second}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := assessRepo.GetForOrg(dbc, org.ID, first.ID)
	if err != nil {
		t.Fatalf("GetForOrg: %v", err)
	}
	if got == nil || got.Name != "Constellation A" {
		t.Fatalf("GetForOrg: unexpected row %+v", got)
	}
	if got, err := assessRepo.GetForOrg(dbc, uuid.New(), first.ID); err != nil || got != nil {
		t.Fatalf("GetForOrg (wrong org): expected nil, err=%v got=%v", err, got)
	}

	list, err := assessRepo.ListByOrg(dbc, org.ID, 10)
	if err != nil {
		t.Fatalf("ListByOrg: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("ListByOrg: expected 2, got %d", len(list))
	}
	if list[0].ID != second.ID {
		t.Fatalf("ListByOrg: expected newest first, got %v", list[0].ID)
	}

	count, err := assessRepo.CountByOrg(dbc, org.ID)
	if err != nil {
		t.Fatalf("CountByOrg: %v", err)
	}
	if count != 2 {
		t.Fatalf("CountByOrg: expected 2, got %d", count)
	}

	// Profile upsert is keyed by assessment: a second write must update the
	// same row, not insert another one.
	profile := &types.OperatorProfile{
		AssessmentID:  first.ID,
		OperatorType:  "spacecraft_operator",
		ActivityTypes: datatypes.JSON([]byte(`["satellite_operations"]`)),
		SizeClass:     "small",
		OrbitType:     "LEO",
		Flags:         datatypes.JSON([]byte("{}")),
	}
	if err := profileRepo.Upsert(dbc, profile); err != nil {
		t.Fatalf("Upsert profile: %v", err)
	}
	stored, err := profileRepo.GetByAssessmentID(dbc, first.ID)
	if err != nil {
		t.Fatalf("GetByAssessmentID: %v", err)
	}
	if stored == nil || stored.OperatorType != "spacecraft_operator" {
		t.Fatalf("GetByAssessmentID: unexpected row %+v", stored)
	}

	replacement := &types.OperatorProfile{
		AssessmentID:  first.ID,
		OperatorType:  "launch_provider",
		ActivityTypes: datatypes.JSON([]byte(`["launch"]`)),
		SizeClass:     "large",
		OrbitType:     "",
		Flags:         datatypes.JSON([]byte(`{"eu_market":true}`)),
	}
	if err := profileRepo.Upsert(dbc, replacement); err != nil {
		t.Fatalf("Upsert profile (update): %v", err)
	}
	updated, err := profileRepo.GetByAssessmentID(dbc, first.ID)
	if err != nil {
		t.Fatalf("GetByAssessmentID (update): %v", err)
	}
	if updated == nil || updated.ID != stored.ID {
		t.Fatalf("Upsert profile: expected in-place update of %v, got %+v", stored.ID, updated)
	}
	if updated.OperatorType != "launch_provider" || updated.SizeClass != "large" {
		t.Fatalf("Upsert profile: stale fields %+v", updated)
	}

	// Status upsert dedupes on (assessment, requirement).
	rows := []*types.RequirementStatus{
		{AssessmentID: first.ID, RequirementID: "eusa-auth-01", Status: "compliant", UpdatedBy: user.ID},
		{AssessmentID: first.ID, RequirementID: "eusa-cyber-01", Status: "in_progress", UpdatedBy: user.ID},
	}
	if err := statusRepo.Upsert(dbc, rows); err != nil {
		t.Fatalf("Upsert statuses: %v", err)
	}
	if err := statusRepo.Upsert(dbc, []*types.RequirementStatus{
		{AssessmentID: first.ID, RequirementID: "eusa-cyber-01", Status: "compliant", Note: "ISO 27001 cert", UpdatedBy: user.ID},
	}); err != nil {
		t.Fatalf("Upsert statuses (update): %v", err)
	}
	statuses, err := statusRepo.ListByAssessmentID(dbc, first.ID)
	if err != nil {
		t.Fatalf("ListByAssessmentID: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("ListByAssessmentID: expected 2, got %d", len(statuses))
	}
	for _, rs := range statuses {
		if rs.RequirementID == "eusa-cyber-01" {
			if rs.Status != "compliant" || rs.Note != "ISO 27001 cert" {
				t.Fatalf("Upsert statuses: row not updated: %+v", rs)
			}
		}
	}

	if err := statusRepo.DeleteByAssessmentID(dbc, first.ID); err != nil {
		t.Fatalf("DeleteByAssessmentID: %v", err)
	}
	statuses, err = statusRepo.ListByAssessmentID(dbc, first.ID)
	if err != nil {
		t.Fatalf("ListByAssessmentID (after delete): %v", err)
	}
	if len(statuses) != 0 {
		t.Fatalf("ListByAssessmentID: expected 0 after delete, got %d", len(statuses))
	}

	if err := assessRepo.UpdateFields(dbc, first.ID, map[string]interface{}{
		"overall_score": 67,
		"risk_level":    "medium",
	}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	if err := assessRepo.Delete(dbc, first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, err := assessRepo.GetForOrg(dbc, org.ID, first.ID); err != nil || got != nil {
		t.Fatalf("GetForOrg (deleted): expected nil, err=%v got=%v", err, got)
	}
	count, err = assessRepo.CountByOrg(dbc, org.ID)
	if err != nil {
		t.Fatalf("CountByOrg (after delete): %v", err)
	}
	if count != 1 {
		t.Fatalf("CountByOrg: expected 1 after delete, got %d", count)
	}
}
