package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	assessrepos "github.com/caelexhq/caelex-backend/internal/data/repos/assessments"
	chatrepos "github.com/caelexhq/caelex-backend/internal/data/repos/chat"
	jobrepos "github.com/caelexhq/caelex-backend/internal/data/repos/jobs"
	types "github.com/caelexhq/caelex-backend/internal/domain"
	"github.com/caelexhq/caelex-backend/internal/pkg/dbctx"
	pkgerrors "github.com/caelexhq/caelex-backend/internal/pkg/errors"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
)

const (
	defaultThreadTitle = "New thread"
	maxMessageLength   = 20000
	maxIdempotencyKey  = 200
)

type ChatService interface {
	CreateThread(ctx context.Context, title string, assessmentID *uuid.UUID) (*types.ChatThread, error)
	ListThreads(ctx context.Context, limit int) ([]*types.ChatThread, error)
	GetThread(ctx context.Context, threadID uuid.UUID, limit int) (*types.ChatThread, []*types.ChatMessage, error)
	ListMessages(ctx context.Context, threadID uuid.UUID, limit int, afterSeq *int64) ([]*types.ChatMessage, error)

	// PostMessage persists a user message and enqueues the assistant reply
	// job. Retries carrying the same idempotency key return the original
	// message instead of appending a duplicate.
	PostMessage(ctx context.Context, threadID uuid.UUID, content string, idempotencyKey string) (*types.ChatMessage, *types.JobRun, error)

	// AppendAssistantMessage is the job-facing append. The reply worker
	// calls it inside its own transaction so the seq advance and the
	// message land together; notification stays with the caller.
	AppendAssistantMessage(dbc dbctx.Context, orgID, threadID uuid.UUID, content, model string, metadata map[string]any) (*types.ChatMessage, error)
}

type chatService struct {
	db  *gorm.DB
	log *logger.Logger

	threads    chatrepos.ChatThreadRepo
	messages   chatrepos.ChatMessageRepo
	assessRepo assessrepos.AssessmentRepo
	jobRuns    jobrepos.JobRunRepo

	billing BillingService
	jobs    JobService
	notify  ChatNotifier
}

func NewChatService(
	db *gorm.DB,
	log *logger.Logger,
	threadRepo chatrepos.ChatThreadRepo,
	messageRepo chatrepos.ChatMessageRepo,
	assessRepo assessrepos.AssessmentRepo,
	jobRunRepo jobrepos.JobRunRepo,
	billing BillingService,
	jobs JobService,
	notify ChatNotifier,
) ChatService {
	serviceLog := log.With("service", "ChatService")
	return &chatService{
		db:         db,
		log:        serviceLog,
		threads:    threadRepo,
		messages:   messageRepo,
		assessRepo: assessRepo,
		jobRuns:    jobRunRepo,
		billing:    billing,
		jobs:       jobs,
		notify:     notify,
	}
}

func (s *chatService) CreateThread(ctx context.Context, title string, assessmentID *uuid.UUID) (*types.ChatThread, error) {
	rd, err := requireOrgScope(ctx)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultThreadTitle
	}

	var out *types.ChatThread
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		count, err := s.threads.CountByOrg(dbc, rd.OrgID)
		if err != nil {
			return fmt.Errorf("count threads: %w", err)
		}
		if err := s.billing.CheckLimit(dbc, rd.OrgID, types.EntitlementMaxChatThreads, count); err != nil {
			return err
		}

		// A thread can anchor on an assessment so the assistant answers
		// with that assessment's scorecard and gaps in context.
		if assessmentID != nil && *assessmentID != uuid.Nil {
			assessment, err := s.assessRepo.GetForOrg(dbc, rd.OrgID, *assessmentID)
			if err != nil {
				return fmt.Errorf("fetch assessment: %w", err)
			}
			if assessment == nil {
				return fmt.Errorf("assessment %s: %w", *assessmentID, pkgerrors.ErrNotFound)
			}
		} else {
			assessmentID = nil
		}

		now := time.Now().UTC()
		thread := &types.ChatThread{
			ID:            uuid.New(),
			OrgID:         rd.OrgID,
			UserID:        rd.UserID,
			AssessmentID:  assessmentID,
			Title:         title,
			Status:        "active",
			Metadata:      datatypes.JSON([]byte(`{}`)),
			NextSeq:       0,
			LastMessageAt: now,
			LastViewedAt:  now,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		created, err := s.threads.Create(dbc, []*types.ChatThread{thread})
		if err != nil {
			return fmt.Errorf("create thread: %w", err)
		}
		if len(created) == 0 || created[0] == nil {
			return fmt.Errorf("create thread: empty result")
		}
		out = created[0]
		return nil
	}); err != nil {
		return nil, err
	}

	s.notify.ThreadCreated(rd.UserID, out)
	return out, nil
}

func (s *chatService) ListThreads(ctx context.Context, limit int) ([]*types.ChatThread, error) {
	rd, err := requireOrgScope(ctx)
	if err != nil {
		return nil, err
	}
	return s.threads.ListByUser(dbctx.Context{Ctx: ctx}, rd.OrgID, rd.UserID, limit)
}

func (s *chatService) GetThread(ctx context.Context, threadID uuid.UUID, limit int) (*types.ChatThread, []*types.ChatMessage, error) {
	rd, err := requireOrgScope(ctx)
	if err != nil {
		return nil, nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	thread, err := s.loadOwnedThread(dbc, rd.OrgID, rd.UserID, threadID)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := s.messages.ListByThread(dbc, threadID, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("list messages: %w", err)
	}

	now := time.Now().UTC()
	if err := s.threads.UpdateFields(dbc, threadID, map[string]interface{}{
		"last_viewed_at": now,
	}); err != nil {
		s.log.Warn("update last_viewed_at failed", "thread_id", threadID, "error", err)
	}
	return thread, msgs, nil
}

func (s *chatService) ListMessages(ctx context.Context, threadID uuid.UUID, limit int, afterSeq *int64) ([]*types.ChatMessage, error) {
	rd, err := requireOrgScope(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := s.loadOwnedThread(dbc, rd.OrgID, rd.UserID, threadID); err != nil {
		return nil, err
	}
	if afterSeq != nil {
		return s.messages.ListSinceSeq(dbc, threadID, *afterSeq, limit)
	}
	return s.messages.ListByThread(dbc, threadID, limit)
}

func (s *chatService) PostMessage(ctx context.Context, threadID uuid.UUID, content string, idempotencyKey string) (*types.ChatMessage, *types.JobRun, error) {
	rd, err := requireOrgScope(ctx)
	if err != nil {
		return nil, nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil, fmt.Errorf("missing content: %w", pkgerrors.ErrInvalidArgument)
	}
	if len(content) > maxMessageLength {
		return nil, nil, fmt.Errorf("message too long: %w", pkgerrors.ErrInvalidArgument)
	}
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if len(idempotencyKey) > maxIdempotencyKey {
		return nil, nil, fmt.Errorf("idempotency key too long: %w", pkgerrors.ErrInvalidArgument)
	}

	dbc := dbctx.Context{Ctx: ctx}

	enabled, err := s.billing.FeatureEnabled(dbc, rd.OrgID, types.EntitlementAssistantEnabled)
	if err != nil {
		return nil, nil, err
	}
	if !enabled {
		return nil, nil, fmt.Errorf("assistant is not available on the current plan: %w", pkgerrors.ErrForbidden)
	}

	// Fast-path idempotency outside the lock: safe to answer retries while
	// a reply is still being generated.
	if idempotencyKey != "" {
		if existing, job, err := s.findByIdempotencyKey(dbc, rd.OrgID, rd.UserID, threadID, idempotencyKey); err != nil {
			return nil, nil, err
		} else if existing != nil {
			return existing, job, nil
		}
	}

	var (
		userMsg  *types.ChatMessage
		job      *types.JobRun
		newTitle string
		replayed bool
	)
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}

		// Lock the thread for concurrency-safe sequencing.
		thread, err := s.threads.LockByID(inner, threadID)
		if err != nil {
			return fmt.Errorf("lock thread: %w", err)
		}
		if thread == nil || thread.OrgID != rd.OrgID || thread.UserID != rd.UserID {
			return fmt.Errorf("thread %s: %w", threadID, pkgerrors.ErrNotFound)
		}

		// Re-check the key inside the lock to close the race window.
		if idempotencyKey != "" {
			existing, existingJob, err := s.findByIdempotencyKey(inner, rd.OrgID, rd.UserID, threadID, idempotencyKey)
			if err != nil {
				return err
			}
			if existing != nil {
				userMsg = existing
				job = existingJob
				replayed = true
				return nil
			}
		}

		// One reply generation at a time per thread keeps assistant context
		// ordering sane.
		busy, err := s.jobRuns.HasRunnableForEntity(inner, rd.OrgID, "chat_thread", threadID, "assistant_reply")
		if err != nil {
			return err
		}
		if busy {
			return fmt.Errorf("a reply is already being generated for this thread: %w", pkgerrors.ErrConflict)
		}

		now := time.Now().UTC()
		seq := thread.NextSeq + 1
		userMsg = &types.ChatMessage{
			ID:             uuid.New(),
			ThreadID:       threadID,
			UserID:         rd.UserID,
			Seq:            seq,
			Role:           types.ChatRoleUser,
			Status:         "sent",
			Content:        content,
			Metadata:       datatypes.JSON([]byte(`{}`)),
			IdempotencyKey: idempotencyKey,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if _, err := s.messages.Create(inner, []*types.ChatMessage{userMsg}); err != nil {
			return fmt.Errorf("create message: %w", err)
		}

		updates := map[string]interface{}{
			"next_seq":        seq,
			"last_message_at": now,
			"last_viewed_at":  now,
			"updated_at":      now,
		}
		// First message names the thread.
		if thread.Title == defaultThreadTitle && seq == 1 {
			newTitle = titleFromContent(content)
			if newTitle != "" {
				updates["title"] = newTitle
			}
		}
		if err := s.threads.UpdateFields(inner, threadID, updates); err != nil {
			return fmt.Errorf("advance thread: %w", err)
		}

		enqueued, err := s.jobs.EnqueueAssistantReply(inner, rd.OrgID, rd.UserID, threadID, userMsg.ID)
		if err != nil {
			return err
		}
		job = enqueued
		return nil
	}); err != nil {
		return nil, nil, err
	}

	if replayed {
		return userMsg, job, nil
	}

	meta := map[string]any{}
	if job != nil {
		meta["job_id"] = job.ID.String()
	}
	s.notify.MessageCreated(threadID, userMsg, meta)
	if newTitle != "" {
		s.notify.ThreadRenamed(threadID, newTitle)
	}
	if job != nil {
		if err := s.jobs.Dispatch(dbctx.Context{Ctx: ctx}, job.ID); err != nil {
			return userMsg, job, err
		}
	}
	return userMsg, job, nil
}

func (s *chatService) AppendAssistantMessage(dbc dbctx.Context, orgID, threadID uuid.UUID, content, model string, metadata map[string]any) (*types.ChatMessage, error) {
	thread, err := s.threads.LockByID(dbc, threadID)
	if err != nil {
		return nil, fmt.Errorf("lock thread: %w", err)
	}
	if thread == nil || thread.OrgID != orgID {
		return nil, fmt.Errorf("thread %s: %w", threadID, pkgerrors.ErrNotFound)
	}

	metaJSON := datatypes.JSON([]byte(`{}`))
	if len(metadata) > 0 {
		if b, err := json.Marshal(metadata); err == nil {
			metaJSON = datatypes.JSON(b)
		}
	}

	now := time.Now().UTC()
	msg := &types.ChatMessage{
		ID:        uuid.New(),
		ThreadID:  threadID,
		UserID:    thread.UserID,
		Seq:       thread.NextSeq + 1,
		Role:      types.ChatRoleAssistant,
		Status:    "sent",
		Content:   content,
		Model:     model,
		Metadata:  metaJSON,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.messages.Create(dbc, []*types.ChatMessage{msg}); err != nil {
		return nil, fmt.Errorf("create assistant message: %w", err)
	}
	if err := s.threads.UpdateFields(dbc, threadID, map[string]interface{}{
		"next_seq":        msg.Seq,
		"last_message_at": now,
		"updated_at":      now,
	}); err != nil {
		return nil, fmt.Errorf("advance thread: %w", err)
	}
	return msg, nil
}

func (s *chatService) loadOwnedThread(dbc dbctx.Context, orgID, userID, threadID uuid.UUID) (*types.ChatThread, error) {
	if threadID == uuid.Nil {
		return nil, fmt.Errorf("missing thread id: %w", pkgerrors.ErrInvalidArgument)
	}
	thread, err := s.threads.GetForOrg(dbc, orgID, threadID)
	if err != nil {
		return nil, fmt.Errorf("fetch thread: %w", err)
	}
	// Threads are private to their creator inside the org.
	if thread == nil || thread.UserID != userID {
		return nil, fmt.Errorf("thread %s: %w", threadID, pkgerrors.ErrNotFound)
	}
	return thread, nil
}

func (s *chatService) findByIdempotencyKey(dbc dbctx.Context, orgID, userID, threadID uuid.UUID, key string) (*types.ChatMessage, *types.JobRun, error) {
	if _, err := s.loadOwnedThread(dbc, orgID, userID, threadID); err != nil {
		return nil, nil, err
	}
	existing, err := s.messages.GetByIdempotencyKey(dbc, threadID, key)
	if err != nil {
		return nil, nil, fmt.Errorf("idempotency lookup: %w", err)
	}
	if existing == nil {
		return nil, nil, nil
	}
	job, err := s.jobRuns.GetLatestByEntity(dbc, orgID, "chat_thread", threadID, "assistant_reply")
	if err != nil {
		s.log.Warn("latest reply job lookup failed", "thread_id", threadID, "error", err)
		return existing, nil, nil
	}
	return existing, job, nil
}

// titleFromContent derives a short thread title from the first message:
// whitespace collapsed, cut at a word boundary near 60 runes.
func titleFromContent(content string) string {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return ""
	}
	const maxRunes = 60
	title := ""
	for _, f := range fields {
		candidate := title
		if candidate != "" {
			candidate += " "
		}
		candidate += f
		if len([]rune(candidate)) > maxRunes {
			if title == "" {
				// Single oversized word: hard cut.
				runes := []rune(f)
				title = string(runes[:maxRunes])
			}
			return title + "…"
		}
		title = candidate
	}
	return title
}
