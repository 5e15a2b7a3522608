package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	jobrepos "github.com/caelexhq/caelex-backend/internal/data/repos/jobs"
	types "github.com/caelexhq/caelex-backend/internal/domain"
	"github.com/caelexhq/caelex-backend/internal/pkg/ctxutil"
	"github.com/caelexhq/caelex-backend/internal/pkg/dbctx"
	"github.com/caelexhq/caelex-backend/internal/services"
)

// Context is the execution handle for one claimed job run. Handlers never
// touch the job_run row directly; Progress, Fail and Succeed are the only
// sanctioned transitions, and all of them refuse to overwrite a canceled
// row. Human-readable text travels only on the SSE events; the row keeps
// machine state.
type Context struct {
	Ctx    context.Context
	DB     *gorm.DB
	Job    *types.JobRun
	Repo   jobrepos.JobRunRepo
	Notify services.JobNotifier

	payload map[string]any
}

// NewContext decodes the payload eagerly and restores the trace identifiers
// the enqueuer stamped, so worker logs correlate with the originating
// request. A malformed payload is not fatal here; handlers validate the
// fields they need.
func NewContext(ctx context.Context, db *gorm.DB, job *types.JobRun, repo jobrepos.JobRunRepo, notify services.JobNotifier) *Context {
	c := &Context{
		Ctx:    ctx,
		DB:     db,
		Job:    job,
		Repo:   repo,
		Notify: notify,
	}
	c.decodePayload()
	c.applyTraceData()
	return c
}

func (c *Context) decodePayload() {
	c.payload = map[string]any{}
	if c.Job == nil || len(c.Job.Payload) == 0 {
		return
	}
	var m map[string]any
	if err := json.Unmarshal(c.Job.Payload, &m); err == nil {
		c.payload = m
	}
}

func (c *Context) applyTraceData() {
	if c == nil || c.Ctx == nil {
		return
	}
	traceID, _ := c.payload["trace_id"].(string)
	requestID, _ := c.payload["request_id"].(string)
	traceID = strings.TrimSpace(traceID)
	requestID = strings.TrimSpace(requestID)
	if traceID == "" && requestID == "" {
		return
	}
	c.Ctx = ctxutil.WithTraceData(c.Ctx, &ctxutil.TraceData{
		TraceID:   traceID,
		RequestID: requestID,
	})
}

// Payload never returns nil.
func (c *Context) Payload() map[string]any {
	if c.payload == nil {
		c.payload = map[string]any{}
	}
	return c.payload
}

// PayloadUUID reads a payload field as a UUID; ok is false when the field
// is missing or unparseable.
func (c *Context) PayloadUUID(key string) (uuid.UUID, bool) {
	v, ok := c.Payload()[key]
	if !ok || v == nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(fmt.Sprint(v))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// PayloadInt64 reads a numeric payload field. JSON numbers decode as
// float64, so both forms are accepted.
func (c *Context) PayloadInt64(key string) (int64, bool) {
	v, ok := c.Payload()[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}

// PayloadString reads a payload field as a trimmed string.
func (c *Context) PayloadString(key string) string {
	v, ok := c.Payload()[key]
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func (c *Context) dbc() dbctx.Context {
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return dbctx.New(ctx)
}

// Progress publishes a non-terminal update: stage and percentage onto the
// row plus a heartbeat, the message only onto the owner's SSE channel.
func (c *Context) Progress(stage string, pct int, msg string) {
	if c == nil {
		return
	}
	now := time.Now()
	if c.Repo != nil && c.Job != nil && c.Job.ID != uuid.Nil {
		ok, _ := c.Repo.UpdateFieldsUnlessStatus(c.dbc(), c.Job.ID, []string{"canceled"}, map[string]interface{}{
			"stage":        stage,
			"progress":     pct,
			"heartbeat_at": now,
			"updated_at":   now,
		})
		if !ok {
			return
		}
	}
	if c.Job != nil {
		c.Job.Stage = stage
		c.Job.Progress = pct
		c.Job.HeartbeatAt = &now
		c.Job.UpdatedAt = now
	}
	if c.Notify != nil && c.Job != nil {
		c.Notify.JobProgress(c.Job.OwnerUserID, c.Job, stage, pct, msg)
	}
}

// Fail marks the run terminally failed and releases the lock so retry
// selection can pick it back up once the delay passes.
func (c *Context) Fail(stage string, err error) {
	if c == nil {
		return
	}
	now := time.Now()
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if c.Repo != nil && c.Job != nil && c.Job.ID != uuid.Nil {
		ok, _ := c.Repo.UpdateFieldsUnlessStatus(c.dbc(), c.Job.ID, []string{"canceled"}, map[string]interface{}{
			"status":        "failed",
			"stage":         stage,
			"error":         msg,
			"last_error_at": now,
			"locked_at":     nil,
			"updated_at":    now,
		})
		if !ok {
			return
		}
	}
	if c.Job != nil {
		c.Job.Status = "failed"
		c.Job.Stage = stage
		c.Job.Error = msg
		c.Job.LastErrorAt = &now
		c.Job.LockedAt = nil
		c.Job.UpdatedAt = now
	}
	if c.Notify != nil && c.Job != nil {
		c.Notify.JobFailed(c.Job.OwnerUserID, c.Job, stage, msg)
	}
}

// Succeed marks the run terminally succeeded and persists the result
// payload onto the row.
func (c *Context) Succeed(finalStage string, result any) {
	if c == nil {
		return
	}
	now := time.Now()
	var res datatypes.JSON
	if result != nil {
		if b, err := json.Marshal(result); err == nil {
			res = datatypes.JSON(b)
		}
	}
	if c.Repo != nil && c.Job != nil && c.Job.ID != uuid.Nil {
		ok, _ := c.Repo.UpdateFieldsUnlessStatus(c.dbc(), c.Job.ID, []string{"canceled"}, map[string]interface{}{
			"status":       "succeeded",
			"stage":        finalStage,
			"progress":     100,
			"error":        "",
			"result":       res,
			"locked_at":    nil,
			"heartbeat_at": now,
			"updated_at":   now,
		})
		if !ok {
			return
		}
	}
	if c.Job != nil {
		c.Job.Status = "succeeded"
		c.Job.Stage = finalStage
		c.Job.Progress = 100
		c.Job.Error = ""
		c.Job.Result = res
		c.Job.LockedAt = nil
		c.Job.HeartbeatAt = &now
		c.Job.UpdatedAt = now
	}
	if c.Notify != nil && c.Job != nil {
		c.Notify.JobDone(c.Job.OwnerUserID, c.Job)
	}
}
