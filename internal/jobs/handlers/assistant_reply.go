package handlers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	assistantclient "github.com/caelexhq/caelex-backend/internal/clients/assistant"
	chatrepos "github.com/caelexhq/caelex-backend/internal/data/repos/chat"
	types "github.com/caelexhq/caelex-backend/internal/domain"
	"github.com/caelexhq/caelex-backend/internal/jobs/runtime"
	"github.com/caelexhq/caelex-backend/internal/pkg/dbctx"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
	"github.com/caelexhq/caelex-backend/internal/services"
)

const (
	assistantHistoryLimit = 20
	assistantContextGaps  = 5
)

const assistantSystemPrompt = `You are the Caelex compliance assistant. You help space operators understand their regulatory obligations across the EU Space Act, NIS2, the UK Space Industry Act and US FCC rules. Ground your answers in the assessment context when one is attached, cite requirement IDs and article references when you rely on them, and say plainly when a question is outside your scope. You explain regulations; you do not give legal advice.`

// AssistantReply generates the assistant's answer for one posted user
// message and appends it to the thread.
type AssistantReply struct {
	db  *gorm.DB
	log *logger.Logger

	threads  chatrepos.ChatThreadRepo
	messages chatrepos.ChatMessageRepo

	chat        services.ChatService
	assessments services.AssessmentService
	client      assistantclient.Client
	notify      services.ChatNotifier
}

func NewAssistantReply(
	db *gorm.DB,
	baseLog *logger.Logger,
	threads chatrepos.ChatThreadRepo,
	messages chatrepos.ChatMessageRepo,
	chat services.ChatService,
	assessments services.AssessmentService,
	client assistantclient.Client,
	notify services.ChatNotifier,
) *AssistantReply {
	return &AssistantReply{
		db:          db,
		log:         baseLog.With("job", "assistant_reply"),
		threads:     threads,
		messages:    messages,
		chat:        chat,
		assessments: assessments,
		client:      client,
		notify:      notify,
	}
}

func (h *AssistantReply) Type() string { return "assistant_reply" }

func (h *AssistantReply) Run(jc *runtime.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	threadID, ok := jc.PayloadUUID("thread_id")
	if !ok || threadID == uuid.Nil {
		jc.Fail("validate", fmt.Errorf("missing thread_id"))
		return nil
	}
	messageID, ok := jc.PayloadUUID("message_id")
	if !ok || messageID == uuid.Nil {
		jc.Fail("validate", fmt.Errorf("missing message_id"))
		return nil
	}
	if h.client == nil {
		jc.Fail("validate", fmt.Errorf("assistant client not configured"))
		return nil
	}

	dbc := dbctx.New(jc.Ctx)
	jc.Progress("context", 10, "Collecting context")

	thread, err := h.threads.GetForOrg(dbc, jc.Job.OrgID, threadID)
	if err != nil {
		jc.Fail("context", fmt.Errorf("fetch thread: %w", err))
		return nil
	}
	if thread == nil {
		jc.Fail("context", fmt.Errorf("thread %s not found", threadID))
		return nil
	}

	history, err := h.messages.ListByThread(dbc, threadID, assistantHistoryLimit)
	if err != nil {
		jc.Fail("context", fmt.Errorf("list messages: %w", err))
		return nil
	}
	prompt := transcript(history)
	if prompt == "" {
		jc.Fail("context", fmt.Errorf("thread %s has no messages", threadID))
		return nil
	}

	system := assistantSystemPrompt
	if thread.AssessmentID != nil && *thread.AssessmentID != uuid.Nil {
		detail, err := h.assessments.DetailForOrg(dbc, jc.Job.OrgID, *thread.AssessmentID)
		if err != nil {
			// Context is additive; a vanished assessment should not kill
			// the reply.
			h.log.Warn("assessment context unavailable",
				"thread_id", threadID,
				"assessment_id", *thread.AssessmentID,
				"error", err,
			)
		} else {
			system += "\n\n" + assessmentContext(detail)
		}
	}

	jc.Progress("generate", 40, "Generating reply")
	reply, err := h.client.GenerateText(jc.Ctx, system, prompt)
	if err != nil {
		jc.Fail("generate", err)
		return nil
	}
	if strings.TrimSpace(reply) == "" {
		jc.Fail("generate", fmt.Errorf("assistant returned an empty reply"))
		return nil
	}

	jc.Progress("persist", 80, "Saving reply")
	var saved *types.ChatMessage
	if err := h.db.WithContext(jc.Ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: jc.Ctx, Tx: tx}
		msg, err := h.chat.AppendAssistantMessage(inner, jc.Job.OrgID, threadID, reply, h.client.Model(), map[string]any{
			"job_id":          jc.Job.ID.String(),
			"user_message_id": messageID.String(),
		})
		if err != nil {
			return err
		}
		saved = msg
		return nil
	}); err != nil {
		jc.Fail("persist", err)
		return nil
	}

	h.notify.MessageCreated(threadID, saved, map[string]any{"job_id": jc.Job.ID.String()})

	jc.Succeed("done", map[string]any{
		"thread_id":        threadID.String(),
		"message_id":       messageID.String(),
		"reply_message_id": saved.ID.String(),
		"reply_chars":      len(reply),
	})
	return nil
}

// transcript renders the recent history as labeled turns, oldest first.
func transcript(history []*types.ChatMessage) string {
	var b strings.Builder
	for _, m := range history {
		if m == nil || m.Role == types.ChatRoleSystem {
			continue
		}
		label := "User"
		if m.Role == types.ChatRoleAssistant {
			label = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n\n", label, m.Content)
	}
	return strings.TrimSpace(b.String())
}

// assessmentContext summarizes the anchored assessment for the system
// prompt: identity, live scores and the highest-priority gaps.
func assessmentContext(d *services.AssessmentDetail) string {
	var b strings.Builder
	b.WriteString("Assessment context:\n")
	fmt.Fprintf(&b, "- Name: %s\n", d.Assessment.Name)

	var jurs []string
	if len(d.Assessment.Jurisdictions) > 0 {
		_ = json.Unmarshal(d.Assessment.Jurisdictions, &jurs)
	}
	if len(jurs) > 0 {
		fmt.Fprintf(&b, "- Jurisdictions: %s\n", strings.Join(jurs, ", "))
	}
	fmt.Fprintf(&b, "- Overall score: %d/100, mandatory %d/100, risk %s (catalog %s)\n",
		d.Scorecard.Overall, d.Scorecard.Mandatory, d.Scorecard.Risk, d.CatalogVersion)
	fmt.Fprintf(&b, "- Applicable requirements: %d\n", len(d.Requirements))

	if len(d.Gaps) > 0 {
		b.WriteString("- Top gaps:\n")
		for i, g := range d.Gaps {
			if i == assistantContextGaps {
				break
			}
			fmt.Fprintf(&b, "  %d. [%s] %s (%s, %s, %s)\n",
				i+1, g.RequirementID, g.Title, g.ArticleRef, g.Priority, g.Status)
		}
	}
	return b.String()
}
