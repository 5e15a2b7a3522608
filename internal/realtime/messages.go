package realtime

import "github.com/google/uuid"

type SSEEvent string

const (
	SSEEventJobCreated  SSEEvent = "JobCreated"
	SSEEventJobProgress SSEEvent = "JobProgress"
	SSEEventJobDone     SSEEvent = "JobDone"
	SSEEventJobFailed   SSEEvent = "JobFailed"
	SSEEventJobCanceled SSEEvent = "JobCanceled"

	SSEEventChatThreadCreated  SSEEvent = "ChatThreadCreated"
	SSEEventChatThreadRenamed  SSEEvent = "ChatThreadRenamed"
	SSEEventChatMessageCreated SSEEvent = "ChatMessageCreated"

	SSEEventAssessmentScored SSEEvent = "AssessmentScored"
)

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}

// Channel naming is shared between the hub, the redis bus and the
// frontend: everything a browser subscribes to is one of these.
func UserChannel(userID uuid.UUID) string     { return "user:" + userID.String() }
func OrgChannel(orgID uuid.UUID) string       { return "org:" + orgID.String() }
func ThreadChannel(threadID uuid.UUID) string { return "thread:" + threadID.String() }
