package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/caelexhq/caelex-backend/internal/data/repos/testutil"
	types "github.com/caelexhq/caelex-backend/internal/domain"
	"github.com/caelexhq/caelex-backend/internal/pkg/dbctx"
)

func TestJobRunRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewJobRunRepo(db, testutil.Logger(t))

	now := time.Now().UTC()
	orgID := uuid.New()
	ownerUserID := uuid.New()

	queued := &types.JobRun{
		ID:          uuid.New(),
		OrgID:       orgID,
		OwnerUserID: ownerUserID,
		JobType:     "test_job",
		EntityType:  "assessment",
		EntityID:    ptrUUID(uuid.New()),
		Status:      "queued",
		Stage:       "queued",
		Payload:     datatypes.JSON([]byte("{}")),
		Result:      datatypes.JSON([]byte("{}")),
		CreatedAt:   now.Add(-3 * time.Hour),
		UpdatedAt:   now.Add(-3 * time.Hour),
	}
	failed := &types.JobRun{
		ID:          uuid.New(),
		OrgID:       orgID,
		OwnerUserID: ownerUserID,
		JobType:     "test_job",
		EntityType:  "assessment",
		EntityID:    ptrUUID(uuid.New()),
		Status:      "failed",
		Stage:       "failed",
		Attempts:    0,
		LastErrorAt: ptrTime(now.Add(-2 * time.Hour)),
		Payload:     datatypes.JSON([]byte("{}")),
		Result:      datatypes.JSON([]byte("{}")),
		CreatedAt:   now.Add(-2 * time.Hour),
		UpdatedAt:   now.Add(-2 * time.Hour),
	}
	staleRunning := &types.JobRun{
		ID:          uuid.New(),
		OrgID:       orgID,
		OwnerUserID: ownerUserID,
		JobType:     "test_job",
		EntityType:  "assessment",
		EntityID:    ptrUUID(uuid.New()),
		Status:      "running",
		Stage:       "running",
		Attempts:    0,
		HeartbeatAt: ptrTime(now.Add(-10 * time.Hour)),
		Payload:     datatypes.JSON([]byte("{}")),
		Result:      datatypes.JSON([]byte("{}")),
		CreatedAt:   now.Add(-1 * time.Hour),
		UpdatedAt:   now.Add(-1 * time.Hour),
	}

	created, err := repo.Create(dbc, []*types.JobRun{queued, failed, staleRunning})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("Create: expected 3, got %d", len(created))
	}

	if rows, err := repo.GetByIDs(dbc, []uuid.UUID{queued.ID, failed.ID, staleRunning.ID}); err != nil || len(rows) != 3 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(rows))
	}

	// GetForOrg enforces tenant scope.
	got, err := repo.GetForOrg(dbc, orgID, queued.ID)
	if err != nil {
		t.Fatalf("GetForOrg: %v", err)
	}
	if got == nil || got.ID != queued.ID {
		t.Fatalf("GetForOrg: expected %v got %v", queued.ID, got)
	}
	if got, err := repo.GetForOrg(dbc, uuid.New(), queued.ID); err != nil || got != nil {
		t.Fatalf("GetForOrg (wrong org): expected nil, err=%v got=%v", err, got)
	}

	// GetLatestByEntity
	entityType := "assessment"
	entityID := uuid.New()
	older := &types.JobRun{
		ID:          uuid.New(),
		OrgID:       orgID,
		OwnerUserID: ownerUserID,
		JobType:     "profile_enrich",
		EntityType:  entityType,
		EntityID:    &entityID,
		Status:      "queued",
		Stage:       "queued",
		Payload:     datatypes.JSON([]byte("{}")),
		Result:      datatypes.JSON([]byte("{}")),
		CreatedAt:   now.Add(-5 * time.Hour),
		UpdatedAt:   now.Add(-5 * time.Hour),
	}
	newer := &types.JobRun{
		ID:          uuid.New(),
		OrgID:       orgID,
		OwnerUserID: ownerUserID,
		JobType:     "profile_enrich",
		EntityType:  entityType,
		EntityID:    &entityID,
		Status:      "queued",
		Stage:       "queued",
		Payload:     datatypes.JSON([]byte("{}")),
		Result:      datatypes.JSON([]byte("{}")),
		CreatedAt:   now.Add(-4 * time.Hour),
		UpdatedAt:   now.Add(-4 * time.Hour),
	}
	if _, err := repo.Create(dbc, []*types.JobRun{older, newer}); err != nil {
		t.Fatalf("seed latest: %v", err)
	}
	latest, err := repo.GetLatestByEntity(dbc, orgID, entityType, entityID, "profile_enrich")
	if err != nil {
		t.Fatalf("GetLatestByEntity: %v", err)
	}
	if latest == nil || latest.ID != newer.ID {
		t.Fatalf("GetLatestByEntity: expected %v got %v", newer.ID, latest)
	}

	// ClaimNextRunnable should walk the runnable set in created_at ASC order.
	claim1, err := repo.ClaimNextRunnable(dbc, 3, 1*time.Hour, 1*time.Hour)
	if err != nil {
		t.Fatalf("ClaimNextRunnable #1: %v", err)
	}
	if claim1 == nil || claim1.ID != older.ID {
		t.Fatalf("ClaimNextRunnable #1: expected %v got %v", older.ID, claim1)
	}

	claim2, err := repo.ClaimNextRunnable(dbc, 3, 1*time.Hour, 1*time.Hour)
	if err != nil {
		t.Fatalf("ClaimNextRunnable #2: %v", err)
	}
	if claim2 == nil || claim2.ID != newer.ID {
		t.Fatalf("ClaimNextRunnable #2: expected %v got %v", newer.ID, claim2)
	}

	claim3, err := repo.ClaimNextRunnable(dbc, 3, 1*time.Hour, 1*time.Hour)
	if err != nil {
		t.Fatalf("ClaimNextRunnable #3: %v", err)
	}
	if claim3 == nil || claim3.ID != queued.ID {
		t.Fatalf("ClaimNextRunnable #3: expected %v got %v", queued.ID, claim3)
	}

	claim4, err := repo.ClaimNextRunnable(dbc, 3, 1*time.Hour, 1*time.Hour)
	if err != nil {
		t.Fatalf("ClaimNextRunnable #4: %v", err)
	}
	if claim4 == nil || claim4.ID != failed.ID {
		t.Fatalf("ClaimNextRunnable #4: expected %v got %v", failed.ID, claim4)
	}

	claim5, err := repo.ClaimNextRunnable(dbc, 3, 1*time.Hour, 1*time.Hour)
	if err != nil {
		t.Fatalf("ClaimNextRunnable #5: %v", err)
	}
	if claim5 == nil || claim5.ID != staleRunning.ID {
		t.Fatalf("ClaimNextRunnable #5: expected %v got %v", staleRunning.ID, claim5)
	}

	claim6, err := repo.ClaimNextRunnable(dbc, 3, 1*time.Hour, 1*time.Hour)
	if err != nil {
		t.Fatalf("ClaimNextRunnable #6: %v", err)
	}
	if claim6 != nil {
		t.Fatalf("ClaimNextRunnable #6: expected nil, got %v", claim6)
	}

	// UpdateFields
	if err := repo.UpdateFields(dbc, queued.ID, map[string]interface{}{"status": "failed", "stage": "error"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	// UpdateFieldsUnlessStatus must not touch canceled runs.
	if err := repo.UpdateFields(dbc, newer.ID, map[string]interface{}{"status": "canceled"}); err != nil {
		t.Fatalf("cancel newer: %v", err)
	}
	applied, err := repo.UpdateFieldsUnlessStatus(dbc, newer.ID, []string{"canceled"}, map[string]interface{}{"progress": 50})
	if err != nil {
		t.Fatalf("UpdateFieldsUnlessStatus: %v", err)
	}
	if applied {
		t.Fatalf("UpdateFieldsUnlessStatus: expected no-op on canceled run")
	}
	applied, err = repo.UpdateFieldsUnlessStatus(dbc, older.ID, []string{"canceled"}, map[string]interface{}{"progress": 50})
	if err != nil {
		t.Fatalf("UpdateFieldsUnlessStatus (running): %v", err)
	}
	if !applied {
		t.Fatalf("UpdateFieldsUnlessStatus (running): expected update to apply")
	}

	// Heartbeat only touches running rows.
	if err := repo.Heartbeat(dbc, older.ID); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}

	// HasRunnableForEntity / ExistsRunnable
	rEntityID := uuid.New()
	runnable := &types.JobRun{
		ID:          uuid.New(),
		OrgID:       orgID,
		OwnerUserID: ownerUserID,
		JobType:     "assistant_reply",
		EntityType:  "chat_thread",
		EntityID:    &rEntityID,
		Status:      "queued",
		Stage:       "queued",
		Payload:     datatypes.JSON([]byte("{}")),
		Result:      datatypes.JSON([]byte("{}")),
	}
	if _, err := repo.Create(dbc, []*types.JobRun{runnable}); err != nil {
		t.Fatalf("seed runnable: %v", err)
	}

	has, err := repo.HasRunnableForEntity(dbc, orgID, "chat_thread", rEntityID, "assistant_reply")
	if err != nil {
		t.Fatalf("HasRunnableForEntity: %v", err)
	}
	if !has {
		t.Fatalf("HasRunnableForEntity: expected true")
	}

	exists, err := repo.ExistsRunnable(dbc, orgID, "assistant_reply", "", nil)
	if err != nil {
		t.Fatalf("ExistsRunnable: %v", err)
	}
	if !exists {
		t.Fatalf("ExistsRunnable: expected true")
	}

	exists, err = repo.ExistsRunnable(dbc, orgID, "assistant_reply", "chat_thread", &rEntityID)
	if err != nil {
		t.Fatalf("ExistsRunnable (scoped): %v", err)
	}
	if !exists {
		t.Fatalf("ExistsRunnable (scoped): expected true")
	}

	exists, err = repo.ExistsRunnable(dbc, orgID, "other", "chat_thread", &rEntityID)
	if err != nil {
		t.Fatalf("ExistsRunnable (other): %v", err)
	}
	if exists {
		t.Fatalf("ExistsRunnable (other): expected false")
	}

	// ListRecentByOrg returns newest first, scoped to org.
	recent, err := repo.ListRecentByOrg(dbc, orgID, 10)
	if err != nil {
		t.Fatalf("ListRecentByOrg: %v", err)
	}
	if len(recent) != 6 {
		t.Fatalf("ListRecentByOrg: expected 6, got %d", len(recent))
	}
	if recent[0].ID != runnable.ID {
		t.Fatalf("ListRecentByOrg: expected newest first, got %v", recent[0].ID)
	}
}

func ptrTime(t time.Time) *time.Time { return &t }

func ptrUUID(u uuid.UUID) *uuid.UUID { return &u }
