package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	jobrepos "github.com/caelexhq/caelex-backend/internal/data/repos/jobs"
	types "github.com/caelexhq/caelex-backend/internal/domain"
	"github.com/caelexhq/caelex-backend/internal/pkg/ctxutil"
	"github.com/caelexhq/caelex-backend/internal/pkg/dbctx"
	pkgerrors "github.com/caelexhq/caelex-backend/internal/pkg/errors"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
)

type JobService interface {
	Enqueue(dbc dbctx.Context, orgID, ownerUserID uuid.UUID, jobType string, entityType string, entityID *uuid.UUID, payload map[string]any) (*types.JobRun, error)
	Dispatch(dbc dbctx.Context, jobID uuid.UUID) error
	EnqueueProfileEnrichIfNeeded(dbc dbctx.Context, orgID, ownerUserID, assessmentID uuid.UUID, noradCatID int64, trigger string) (*types.JobRun, bool, error)
	EnqueueAssistantReply(dbc dbctx.Context, orgID, ownerUserID, threadID, messageID uuid.UUID) (*types.JobRun, error)
	GetForRequestOrg(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error)
	ListRecentForRequestOrg(dbc dbctx.Context, limit int) ([]*types.JobRun, error)
	GetLatestForEntityForRequestOrg(dbc dbctx.Context, entityType string, entityID uuid.UUID, jobType string) (*types.JobRun, error)
	CancelForRequestOrg(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error)
}

type jobService struct {
	db     *gorm.DB
	log    *logger.Logger
	repo   jobrepos.JobRunRepo
	notify JobNotifier

	temporal          temporalsdkclient.Client
	temporalTaskQueue string
}

// NewJobService wires the queue. tc may be nil: without Temporal the
// polling worker claims queued rows straight from Postgres and Dispatch
// becomes a no-op.
func NewJobService(
	db *gorm.DB,
	baseLog *logger.Logger,
	repo jobrepos.JobRunRepo,
	notify JobNotifier,
	tc temporalsdkclient.Client,
	taskQueue string,
) JobService {
	return &jobService{
		db:                db,
		log:               baseLog.With("service", "JobService"),
		repo:              repo,
		notify:            notify,
		temporal:          tc,
		temporalTaskQueue: strings.TrimSpace(taskQueue),
	}
}

func (s *jobService) Enqueue(dbc dbctx.Context, orgID, ownerUserID uuid.UUID, jobType string, entityType string, entityID *uuid.UUID, payload map[string]any) (*types.JobRun, error) {
	if orgID == uuid.Nil {
		return nil, fmt.Errorf("missing org_id: %w", pkgerrors.ErrInvalidArgument)
	}
	if ownerUserID == uuid.Nil {
		return nil, fmt.Errorf("missing owner_user_id: %w", pkgerrors.ErrInvalidArgument)
	}
	if jobType == "" {
		return nil, fmt.Errorf("missing job_type: %w", pkgerrors.ErrInvalidArgument)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	if td := ctxutil.GetTraceData(dbc.Ctx); td != nil {
		if td.TraceID != "" {
			if _, ok := payload["trace_id"]; !ok {
				payload["trace_id"] = td.TraceID
			}
		}
		if td.RequestID != "" {
			if _, ok := payload["request_id"]; !ok {
				payload["request_id"] = td.RequestID
			}
		}
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	now := time.Now()
	job := &types.JobRun{
		ID:          uuid.New(),
		OrgID:       orgID,
		OwnerUserID: ownerUserID,
		JobType:     jobType,
		EntityType:  entityType,
		EntityID:    entityID,
		Status:      "queued",
		Stage:       "queued",
		Progress:    0,
		Attempts:    0,
		Payload:     datatypes.JSON(payloadJSON),
		Result:      datatypes.JSON([]byte(`{}`)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.repo.Create(dbc, []*types.JobRun{job}); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	s.notify.JobCreated(ownerUserID, job)

	// Inside a real DB transaction the Temporal start must wait for the
	// commit; callers invoke Dispatch afterwards. gorm.DB pointers are
	// cloned by WithContext/Session, so pointer inequality is not a
	// reliable transaction detector.
	if isDBTransaction(dbc.Tx) {
		s.log.Debug("job enqueued inside transaction; dispatch deferred", "job_id", job.ID, "job_type", job.JobType)
		return job, nil
	}
	if err := s.Dispatch(dbctx.Context{Ctx: dbc.Ctx}, job.ID); err != nil {
		return job, err
	}
	return job, nil
}

type txCommitter interface {
	Commit() error
	Rollback() error
}

func isDBTransaction(db *gorm.DB) bool {
	if db == nil || db.Statement == nil || db.Statement.ConnPool == nil {
		return false
	}
	_, ok := db.Statement.ConnPool.(txCommitter)
	return ok
}

func (s *jobService) Dispatch(dbc dbctx.Context, jobID uuid.UUID) error {
	if jobID == uuid.Nil {
		return fmt.Errorf("missing job id: %w", pkgerrors.ErrInvalidArgument)
	}
	if s.temporal == nil {
		// Polling worker picks the row up from the queue table.
		return nil
	}
	ctx := dbc.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	err := s.startTemporalJobWorkflow(ctx, jobID, enums.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE)
	if err == nil {
		return nil
	}
	if _, ok := err.(*serviceerror.WorkflowExecutionAlreadyStarted); ok {
		return nil
	}

	now := time.Now().UTC()
	// Mark the job failed so it is not stuck queued forever; the claim
	// query retries failed rows after the backoff window.
	if s.repo != nil {
		_ = s.repo.UpdateFields(dbctx.Context{Ctx: ctx}, jobID, map[string]interface{}{
			"status":        "failed",
			"stage":         "dispatch",
			"error":         err.Error(),
			"last_error_at": now,
			"locked_at":     nil,
			"updated_at":    now,
		})
		if rows, rerr := s.repo.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{jobID}); rerr == nil && len(rows) > 0 && rows[0] != nil {
			j := rows[0]
			s.notify.JobFailed(j.OwnerUserID, j, "dispatch", err.Error())
		}
	}
	return fmt.Errorf("start temporal workflow: %w", err)
}

// EnqueueProfileEnrichIfNeeded queues a satellite-catalog lookup for an
// assessment unless one is already queued or running for it.
func (s *jobService) EnqueueProfileEnrichIfNeeded(dbc dbctx.Context, orgID, ownerUserID, assessmentID uuid.UUID, noradCatID int64, trigger string) (*types.JobRun, bool, error) {
	if assessmentID == uuid.Nil {
		return nil, false, fmt.Errorf("missing assessment_id: %w", pkgerrors.ErrInvalidArgument)
	}
	if noradCatID <= 0 {
		return nil, false, fmt.Errorf("missing norad_cat_id: %w", pkgerrors.ErrInvalidArgument)
	}

	has, err := s.repo.HasRunnableForEntity(dbc, orgID, "assessment", assessmentID, "profile_enrich")
	if err != nil {
		return nil, false, err
	}
	if has {
		return nil, false, nil
	}

	payload := map[string]any{
		"assessment_id": assessmentID.String(),
		"norad_cat_id":  noradCatID,
		"trigger":       trigger,
	}
	entityID := assessmentID
	job, err := s.Enqueue(dbc, orgID, ownerUserID, "profile_enrich", "assessment", &entityID, payload)
	if err != nil {
		return nil, false, err
	}
	return job, true, nil
}

// EnqueueAssistantReply queues the reply generation for one user message.
// Every message gets its own job; no dedupe.
func (s *jobService) EnqueueAssistantReply(dbc dbctx.Context, orgID, ownerUserID, threadID, messageID uuid.UUID) (*types.JobRun, error) {
	if threadID == uuid.Nil || messageID == uuid.Nil {
		return nil, fmt.Errorf("missing thread or message id: %w", pkgerrors.ErrInvalidArgument)
	}
	payload := map[string]any{
		"thread_id":  threadID.String(),
		"message_id": messageID.String(),
	}
	entityID := threadID
	return s.Enqueue(dbc, orgID, ownerUserID, "assistant_reply", "chat_thread", &entityID, payload)
}

func (s *jobService) GetForRequestOrg(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error) {
	rd, err := requireOrgScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	if jobID == uuid.Nil {
		return nil, fmt.Errorf("missing job id: %w", pkgerrors.ErrInvalidArgument)
	}
	job, err := s.repo.GetForOrg(dbc, rd.OrgID, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("job %s: %w", jobID, pkgerrors.ErrNotFound)
	}
	return job, nil
}

func (s *jobService) ListRecentForRequestOrg(dbc dbctx.Context, limit int) ([]*types.JobRun, error) {
	rd, err := requireOrgScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListRecentByOrg(dbc, rd.OrgID, limit)
}

func (s *jobService) GetLatestForEntityForRequestOrg(dbc dbctx.Context, entityType string, entityID uuid.UUID, jobType string) (*types.JobRun, error) {
	rd, err := requireOrgScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	if entityType == "" || entityID == uuid.Nil || jobType == "" {
		return nil, fmt.Errorf("missing entity/job info: %w", pkgerrors.ErrInvalidArgument)
	}
	return s.repo.GetLatestByEntity(dbc, rd.OrgID, entityType, entityID, jobType)
}

func (s *jobService) CancelForRequestOrg(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error) {
	rd, err := requireOrgScope(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	if jobID == uuid.Nil {
		return nil, fmt.Errorf("missing job id: %w", pkgerrors.ErrInvalidArgument)
	}

	var (
		updated      *types.JobRun
		shouldNotify bool
	)
	err = s.db.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: txx}
		job, err := s.repo.GetForOrg(inner, rd.OrgID, jobID)
		if err != nil {
			return err
		}
		if job == nil {
			return fmt.Errorf("job %s: %w", jobID, pkgerrors.ErrNotFound)
		}
		// The job's owner can cancel it; so can org owners and admins.
		if job.OwnerUserID != rd.UserID && rd.OrgRole != types.OrgRoleOwner && rd.OrgRole != types.OrgRoleAdmin {
			return fmt.Errorf("cannot cancel another member's job: %w", pkgerrors.ErrForbidden)
		}

		status := strings.ToLower(strings.TrimSpace(job.Status))
		if status == "succeeded" || status == "failed" || status == "canceled" {
			updated = job
			return nil
		}

		now := time.Now().UTC()
		if err := s.repo.UpdateFields(inner, jobID, map[string]interface{}{
			"status":       "canceled",
			"locked_at":    nil,
			"heartbeat_at": now,
			"updated_at":   now,
		}); err != nil {
			return err
		}
		job.Status = "canceled"
		job.LockedAt = nil
		job.HeartbeatAt = &now
		job.UpdatedAt = now
		updated = job
		shouldNotify = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if shouldNotify && updated != nil {
		s.notify.JobCanceled(updated.OwnerUserID, updated)
	}
	// Best effort: stop the backing workflow if one exists.
	if s.temporal != nil {
		_ = s.temporal.CancelWorkflow(dbc.Ctx, jobID.String(), "")
	}
	return updated, nil
}

func (s *jobService) startTemporalJobWorkflow(ctx context.Context, jobID uuid.UUID, reusePolicy enums.WorkflowIdReusePolicy) error {
	if s.temporal == nil || jobID == uuid.Nil {
		return fmt.Errorf("temporal not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	tq := strings.TrimSpace(s.temporalTaskQueue)
	if tq == "" {
		tq = "caelex"
	}
	opts := temporalsdkclient.StartWorkflowOptions{
		ID:                    jobID.String(),
		TaskQueue:             tq,
		WorkflowIDReusePolicy: reusePolicy,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    30 * time.Second,
			BackoffCoefficient: 1.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    5,
		},
	}
	// Workflow name stays a literal to avoid importing the workflow
	// package from here.
	_, err := s.temporal.ExecuteWorkflow(ctx, opts, "job_run")
	return err
}
