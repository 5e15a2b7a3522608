package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/caelexhq/caelex-backend/internal/domain"
	"github.com/caelexhq/caelex-backend/internal/realtime"
)

// ChatNotifier publishes thread lifecycle events. Thread creation goes to
// the owning user's channel; everything after that goes to the thread
// channel, which both the owner's open tab and the worker-driven assistant
// share.
type ChatNotifier interface {
	ThreadCreated(userID uuid.UUID, thread *types.ChatThread)
	ThreadRenamed(threadID uuid.UUID, title string)
	MessageCreated(threadID uuid.UUID, msg *types.ChatMessage, meta map[string]any)
}

type chatNotifier struct {
	emit SSEEmitter
}

func NewChatNotifier(emit SSEEmitter) ChatNotifier {
	return &chatNotifier{emit: emit}
}

func (n *chatNotifier) ThreadCreated(userID uuid.UUID, thread *types.ChatThread) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: realtime.UserChannel(userID),
		Event:   realtime.SSEEventChatThreadCreated,
		Data:    map[string]any{"thread": thread},
	})
}

func (n *chatNotifier) ThreadRenamed(threadID uuid.UUID, title string) {
	if n == nil || n.emit == nil || threadID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: realtime.ThreadChannel(threadID),
		Event:   realtime.SSEEventChatThreadRenamed,
		Data: map[string]any{
			"thread_id": threadID,
			"title":     title,
		},
	})
}

func (n *chatNotifier) MessageCreated(threadID uuid.UUID, msg *types.ChatMessage, meta map[string]any) {
	if n == nil || n.emit == nil || threadID == uuid.Nil {
		return
	}
	data := map[string]any{"thread_id": threadID, "message": msg}
	for k, v := range meta {
		data[k] = v
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: realtime.ThreadChannel(threadID),
		Event:   realtime.SSEEventChatMessageCreated,
		Data:    data,
	})
}
