package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/caelexhq/caelex-backend/internal/services"
)

type ChatHandler struct {
	chat services.ChatService
}

func NewChatHandler(chat services.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// POST /api/orgs/:orgID/chat/threads
func (ch *ChatHandler) CreateThread(c *gin.Context) {
	var req struct {
		Title        string     `json:"title"`
		AssessmentID *uuid.UUID `json:"assessment_id,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	thread, err := ch.chat.CreateThread(c.Request.Context(), req.Title, req.AssessmentID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, gin.H{"thread": thread})
}

// GET /api/orgs/:orgID/chat/threads?limit=
func (ch *ChatHandler) ListThreads(c *gin.Context) {
	limit := parseLimit(c, 50)
	threads, err := ch.chat.ListThreads(c.Request.Context(), limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"threads": threads})
}

// GET /api/orgs/:orgID/chat/threads/:threadID
func (ch *ChatHandler) GetThread(c *gin.Context) {
	threadID, ok := pathUUID(c, "threadID")
	if !ok {
		return
	}
	limit := parseLimit(c, 100)
	thread, messages, err := ch.chat.GetThread(c.Request.Context(), threadID, limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"thread": thread, "messages": messages})
}

// POST /api/orgs/:orgID/chat/threads/:threadID/messages
//
// The Idempotency-Key header (or the body field, for clients that cannot
// set headers) makes retried posts return the original message instead of
// appending a duplicate.
func (ch *ChatHandler) PostMessage(c *gin.Context) {
	threadID, ok := pathUUID(c, "threadID")
	if !ok {
		return
	}
	var req struct {
		Content        string `json:"content"`
		IdempotencyKey string `json:"idempotency_key,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	key := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if key == "" {
		key = strings.TrimSpace(req.IdempotencyKey)
	}
	message, job, err := ch.chat.PostMessage(c.Request.Context(), threadID, req.Content, key)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, gin.H{"message": message, "job": job})
}

// GET /api/orgs/:orgID/chat/threads/:threadID/messages?limit=&after_seq=
func (ch *ChatHandler) ListMessages(c *gin.Context) {
	threadID, ok := pathUUID(c, "threadID")
	if !ok {
		return
	}
	limit := parseLimit(c, 100)
	var afterSeq *int64
	if raw := strings.TrimSpace(c.Query("after_seq")); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_after_seq", err)
			return
		}
		afterSeq = &n
	}
	messages, err := ch.chat.ListMessages(c.Request.Context(), threadID, limit, afterSeq)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"messages": messages})
}
