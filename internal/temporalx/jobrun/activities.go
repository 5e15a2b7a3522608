package jobrun

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	"gorm.io/gorm"

	jobrepos "github.com/caelexhq/caelex-backend/internal/data/repos/jobs"
	types "github.com/caelexhq/caelex-backend/internal/domain"
	jobrt "github.com/caelexhq/caelex-backend/internal/jobs/runtime"
	"github.com/caelexhq/caelex-backend/internal/pkg/dbctx"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
	"github.com/caelexhq/caelex-backend/internal/services"
)

// Activities carries the dependencies a tick needs. One Activities value is
// registered per worker process.
type Activities struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Jobs     jobrepos.JobRunRepo
	Registry *jobrt.Registry
	Notify   services.JobNotifier
}

// Tick claims the job row, runs its handler once and reports the resulting
// status. Terminal rows are not re-run; the tick just re-emits their SSE
// event so late subscribers converge.
func (a *Activities) Tick(ctx context.Context, jobID string) (TickResult, error) {
	res := TickResult{JobID: strings.TrimSpace(jobID)}
	if a == nil || a.DB == nil || a.Jobs == nil || a.Registry == nil {
		return res, fmt.Errorf("jobrun: activity not configured")
	}

	parsedJobID, err := uuid.Parse(res.JobID)
	if err != nil || parsedJobID == uuid.Nil {
		return res, fmt.Errorf("jobrun: invalid job_id")
	}

	job, err := a.loadJob(ctx, parsedJobID)
	if err != nil {
		return res, err
	}
	if job == nil {
		return res, fmt.Errorf("jobrun: job not found")
	}

	status := strings.ToLower(strings.TrimSpace(job.Status))
	if status == "succeeded" || status == "failed" || status == "canceled" {
		if a.Notify != nil && job.OwnerUserID != uuid.Nil {
			switch status {
			case "succeeded":
				a.Notify.JobDone(job.OwnerUserID, job)
			case "failed":
				a.Notify.JobFailed(job.OwnerUserID, job, job.Stage, strings.TrimSpace(job.Error))
			case "canceled":
				a.Notify.JobCanceled(job.OwnerUserID, job)
			}
		}
		res.Status = job.Status
		res.Stage = job.Stage
		res.Progress = job.Progress
		return res, nil
	}

	stopHB := a.startHeartbeat(ctx, parsedJobID)
	defer stopHB()

	// Mark running. Best-effort: a concurrent cancel wins.
	now := time.Now().UTC()
	_ = a.DB.WithContext(ctx).
		Model(&types.JobRun{}).
		Where("id = ? AND status <> ?", parsedJobID, "canceled").
		Updates(map[string]any{
			"status":       "running",
			"attempts":     gorm.Expr("attempts + 1"),
			"locked_at":    now,
			"heartbeat_at": now,
			"updated_at":   now,
		}).Error

	job.Status = "running"
	job.LockedAt = &now
	job.HeartbeatAt = &now
	job.UpdatedAt = now

	handlerReturnedNil := false
	h, ok := a.Registry.Get(job.JobType)
	jc := jobrt.NewContext(ctx, a.DB, job, a.Jobs, a.Notify)
	if !ok {
		jc.Fail("dispatch", fmt.Errorf("no handler registered for job_type=%s", job.JobType))
	} else {
		func() {
			defer func() {
				if r := recover(); r != nil {
					if a.Log != nil {
						a.Log.Error("Job handler panic", "job_id", parsedJobID, "job_type", job.JobType, "panic", r)
					}
					jc.Fail("panic", fmt.Errorf("panic: unexpected error"))
				}
			}()
			if runErr := h.Run(jc); runErr != nil {
				jc.Fail("run", runErr)
				return
			}
			handlerReturnedNil = true
		}()
	}

	updated, err := a.loadJob(ctx, parsedJobID)
	if err != nil {
		return res, err
	}
	if updated == nil {
		return res, fmt.Errorf("jobrun: job not found after tick")
	}

	// Safety net: a handler that returns nil without reaching a terminal
	// status would leave the row stuck in "running" and the workflow ticking
	// forever. Treat that as success, preserving any result it wrote.
	if handlerReturnedNil && strings.EqualFold(strings.TrimSpace(updated.Status), "running") {
		if a.Log != nil {
			a.Log.Warn("Job handler returned nil without terminal status; marking succeeded", "job_id", parsedJobID, "job_type", updated.JobType, "stage", updated.Stage)
		}
		finalStage := "done"
		if s := strings.TrimSpace(updated.Stage); s != "" && !strings.EqualFold(s, "queued") && !strings.EqualFold(s, "running") {
			finalStage = s
		}
		var finalResult any
		if raw := strings.TrimSpace(string(updated.Result)); raw != "" && raw != "null" {
			finalResult = json.RawMessage(updated.Result)
		}
		jc.Succeed(finalStage, finalResult)

		// Reload once so the TickResult reflects the terminal state.
		if r2, rerr := a.loadJob(ctx, parsedJobID); rerr == nil && r2 != nil {
			updated = r2
		}
	}

	res.Status = updated.Status
	res.Stage = updated.Stage
	res.Progress = updated.Progress
	return res, nil
}

func (a *Activities) loadJob(ctx context.Context, jobID uuid.UUID) (*types.JobRun, error) {
	rows, err := a.Jobs.GetByIDs(dbctx.Context{Ctx: ctx, Tx: a.DB}, []uuid.UUID{jobID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0] == nil {
		return nil, nil
	}
	return rows[0], nil
}

// startHeartbeat keeps both Temporal and the job row alive while the handler
// runs: Temporal heartbeats every 10s (the activity's HeartbeatTimeout is
// 30s) and the row's heartbeat_at every 30s so the polling worker does not
// reclaim it as stale.
func (a *Activities) startHeartbeat(ctx context.Context, jobID uuid.UUID) func() {
	done := make(chan struct{})
	go func() {
		temporalHB := time.NewTicker(10 * time.Second)
		defer temporalHB.Stop()

		dbHB := time.NewTicker(30 * time.Second)
		defer dbHB.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-temporalHB.C:
				activity.RecordHeartbeat(ctx)
			case <-dbHB.C:
				if a == nil || a.DB == nil || a.Jobs == nil || jobID == uuid.Nil {
					continue
				}
				_ = a.Jobs.Heartbeat(dbctx.Context{Ctx: ctx, Tx: a.DB}, jobID)
			}
		}
	}()
	return func() { close(done) }
}
