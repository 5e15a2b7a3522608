package jobrun

import (
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/workflow"
)

// Workflow drives one job_run row to a terminal status by ticking the
// activity in a loop. The workflow ID is the job ID, so duplicate enqueues
// collapse onto the running execution.
func Workflow(ctx workflow.Context) error {
	jobID := strings.TrimSpace(workflow.GetInfo(ctx).WorkflowExecution.ID)
	if jobID == "" {
		return fmt.Errorf("jobrun: missing job_id")
	}

	const (
		pollInterval         = 2 * time.Second
		continueTickLimit    = 2000
		continueHistoryLimit = 15000
	)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 24 * time.Hour,
		HeartbeatTimeout:    30 * time.Second,
		RetryPolicy:         nil, // job retries are handled at the workflow level
	})

	tickCount := 0
	for {
		tickCount++
		var out TickResult
		if err := workflow.ExecuteActivity(ctx, ActivityTick, jobID).Get(ctx, &out); err != nil {
			return err
		}

		switch strings.ToLower(strings.TrimSpace(out.Status)) {
		case "succeeded", "canceled":
			return nil
		case "failed":
			// Returning an error hands the retry decision to the
			// workflow-level RetryPolicy set at enqueue time.
			return fmt.Errorf("job failed (stage=%s)", strings.TrimSpace(out.Stage))
		default:
			if err := workflow.Sleep(ctx, pollInterval); err != nil {
				return err
			}
			if shouldContinueAsNew(ctx, tickCount, continueTickLimit, continueHistoryLimit) {
				return workflow.NewContinueAsNewError(ctx, Workflow)
			}
		}
	}
}

func shouldContinueAsNew(ctx workflow.Context, ticks, maxTicks, maxHistory int) bool {
	if maxTicks > 0 && ticks >= maxTicks {
		return true
	}
	info := workflow.GetInfo(ctx)
	if info == nil || maxHistory <= 0 {
		return false
	}
	return info.GetCurrentHistoryLength() >= maxHistory
}
