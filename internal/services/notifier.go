package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/caelexhq/caelex-backend/internal/domain"
	"github.com/caelexhq/caelex-backend/internal/realtime"
)

// =========================
// Job notifier
// =========================

// JobNotifier publishes job lifecycle events to the owning user's channel.
// All methods tolerate a nil receiver and nil job so callers never guard.
type JobNotifier interface {
	JobCreated(userID uuid.UUID, job *types.JobRun)
	JobProgress(userID uuid.UUID, job *types.JobRun, stage string, progress int, message string)
	JobFailed(userID uuid.UUID, job *types.JobRun, stage string, errorMessage string)
	JobDone(userID uuid.UUID, job *types.JobRun)
	JobCanceled(userID uuid.UUID, job *types.JobRun)
}

type jobNotifier struct {
	emit SSEEmitter
}

func NewJobNotifier(emit SSEEmitter) JobNotifier {
	return &jobNotifier{emit: emit}
}

func (n *jobNotifier) JobCreated(userID uuid.UUID, job *types.JobRun) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: realtime.UserChannel(userID),
		Event:   realtime.SSEEventJobCreated,
		Data:    map[string]any{"job": job},
	})
}

func (n *jobNotifier) JobProgress(userID uuid.UUID, job *types.JobRun, stage string, progress int, message string) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: realtime.UserChannel(userID),
		Event:   realtime.SSEEventJobProgress,
		Data: map[string]any{
			"job_id":   safeJobID(job),
			"job_type": safeJobType(job),
			"stage":    stage,
			"progress": progress,
			"message":  message,
			"job":      job,
		},
	})
}

func (n *jobNotifier) JobFailed(userID uuid.UUID, job *types.JobRun, stage string, errorMessage string) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: realtime.UserChannel(userID),
		Event:   realtime.SSEEventJobFailed,
		Data: map[string]any{
			"job_id":   safeJobID(job),
			"job_type": safeJobType(job),
			"stage":    stage,
			"error":    errorMessage,
			"job":      job,
		},
	})
}

func (n *jobNotifier) JobDone(userID uuid.UUID, job *types.JobRun) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: realtime.UserChannel(userID),
		Event:   realtime.SSEEventJobDone,
		Data: map[string]any{
			"job_id":   safeJobID(job),
			"job_type": safeJobType(job),
			"job":      job,
		},
	})
}

func (n *jobNotifier) JobCanceled(userID uuid.UUID, job *types.JobRun) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: realtime.UserChannel(userID),
		Event:   realtime.SSEEventJobCanceled,
		Data: map[string]any{
			"job_id":   safeJobID(job),
			"job_type": safeJobType(job),
			"job":      job,
		},
	})
}

// =========================
// Assessment notifier
// =========================

// AssessmentNotifier fans scorecard updates out to the whole org, so every
// member with the dashboard open sees scores move.
type AssessmentNotifier interface {
	AssessmentScored(orgID uuid.UUID, assessment *types.Assessment)
}

type assessmentNotifier struct {
	emit SSEEmitter
}

func NewAssessmentNotifier(emit SSEEmitter) AssessmentNotifier {
	return &assessmentNotifier{emit: emit}
}

func (n *assessmentNotifier) AssessmentScored(orgID uuid.UUID, assessment *types.Assessment) {
	if n == nil || n.emit == nil || orgID == uuid.Nil || assessment == nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: realtime.OrgChannel(orgID),
		Event:   realtime.SSEEventAssessmentScored,
		Data: map[string]any{
			"assessment_id": assessment.ID,
			"risk_level":    assessment.RiskLevel,
			"assessment":    assessment,
		},
	})
}

// =========================
// helpers
// =========================

func safeJobID(job *types.JobRun) uuid.UUID {
	if job == nil {
		return uuid.Nil
	}
	return job.ID
}

func safeJobType(job *types.JobRun) string {
	if job == nil {
		return ""
	}
	return job.JobType
}
