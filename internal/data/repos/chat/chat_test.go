package chat

import (
	"context"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/caelexhq/caelex-backend/internal/data/repos/testutil"
	types "github.com/caelexhq/caelex-backend/internal/domain"
	chatdomain "github.com/caelexhq/caelex-backend/internal/domain/chat"
	"github.com/caelexhq/caelex-backend/internal/pkg/dbctx"
	"github.com/google/uuid"
)

func TestChatRepos(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)

	threadRepo := NewChatThreadRepo(db, log)
	messageRepo := NewChatMessageRepo(db, log)

	user := testutil.SeedUser(t, ctx, tx, "chat@caelex.test")
	org := testutil.SeedOrg(t, ctx, tx, "chat-org")

	now := time.Now().UTC()
	older := &types.ChatThread{
		ID:            uuid.New(),
		OrgID:         org.ID,
		UserID:        user.ID,
		Title:         "Older",
		Status:        "active",
		Metadata:      datatypes.JSON([]byte("{}")),
		LastMessageAt: now.Add(-2 * time.Hour),
	}
	newer := &types.ChatThread{
		ID:            uuid.New(),
		OrgID:         org.ID,
		UserID:        user.ID,
		Title:         "Newer",
		Status:        "active",
		Metadata:      datatypes.JSON([]byte("{}")),
		LastMessageAt: now.Add(-1 * time.Hour),
	}
	if _, err := threadRepo.Create(dbc, []*types.ChatThread{older, newer}); err != nil {
		t.Fatalf("Create threads: %v", err)
	}

	list, err := threadRepo.ListByUser(dbc, org.ID, user.ID, 10)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 2 || list[0].ID != newer.ID {
		t.Fatalf("ListByUser: expected newest first, got %+v", list)
	}

	if got, err := threadRepo.GetForOrg(dbc, uuid.New(), older.ID); err != nil || got != nil {
		t.Fatalf("GetForOrg (wrong org): expected nil, err=%v got=%v", err, got)
	}

	count, err := threadRepo.CountByOrg(dbc, org.ID)
	if err != nil || count != 2 {
		t.Fatalf("CountByOrg: err=%v count=%d", err, count)
	}

	// Messages carry a per-thread seq assigned by the caller from GetMaxSeq.
	maxSeq, err := messageRepo.GetMaxSeq(dbc, older.ID)
	if err != nil {
		t.Fatalf("GetMaxSeq (empty): %v", err)
	}
	if maxSeq != 0 {
		t.Fatalf("GetMaxSeq: expected 0 on empty thread, got %d", maxSeq)
	}

	msgs := []*types.ChatMessage{
		{
			ID:             uuid.New(),
			ThreadID:       older.ID,
			UserID:         user.ID,
			Seq:            1,
			Role:           types.ChatRoleUser,
			Status:         chatdomain.MessageStatusSent,
			Content:        "Which debris requirements apply to our LEO fleet?",
			Metadata:       datatypes.JSON([]byte("{}")),
			IdempotencyKey: "client-key-1",
		},
		{
			ID:       uuid.New(),
			ThreadID: older.ID,
			UserID:   user.ID,
			Seq:      2,
			Role:     types.ChatRoleAssistant,
			Status:   chatdomain.MessageStatusSent,
			Content:  "Two debris mitigation requirements apply to the fleet.",
			Metadata: datatypes.JSON([]byte("{}")),
		},
	}
	if _, err := messageRepo.Create(dbc, msgs); err != nil {
		t.Fatalf("Create messages: %v", err)
	}

	maxSeq, err = messageRepo.GetMaxSeq(dbc, older.ID)
	if err != nil || maxSeq != 2 {
		t.Fatalf("GetMaxSeq: err=%v got=%d want 2", err, maxSeq)
	}

	dup, err := messageRepo.GetByIdempotencyKey(dbc, older.ID, "client-key-1")
	if err != nil {
		t.Fatalf("GetByIdempotencyKey: %v", err)
	}
	if dup == nil || dup.ID != msgs[0].ID {
		t.Fatalf("GetByIdempotencyKey: expected %v got %v", msgs[0].ID, dup)
	}
	if dup, err := messageRepo.GetByIdempotencyKey(dbc, older.ID, "other-key"); err != nil || dup != nil {
		t.Fatalf("GetByIdempotencyKey (missing): expected nil, err=%v got=%v", err, dup)
	}

	asc, err := messageRepo.ListByThread(dbc, older.ID, 10)
	if err != nil {
		t.Fatalf("ListByThread: %v", err)
	}
	if len(asc) != 2 || asc[0].Seq != 1 || asc[1].Seq != 2 {
		t.Fatalf("ListByThread: expected ascending seq, got %+v", asc)
	}

	since, err := messageRepo.ListSinceSeq(dbc, older.ID, 1, 10)
	if err != nil {
		t.Fatalf("ListSinceSeq: %v", err)
	}
	if len(since) != 1 || since[0].Seq != 2 {
		t.Fatalf("ListSinceSeq: expected only seq 2, got %+v", since)
	}

	hits, err := messageRepo.LexicalSearchHits(dbc, ChatMessageLexicalQuery{
		ThreadID: older.ID,
		Query:    "debris",
		Limit:    10,
	})
	if err != nil {
		t.Fatalf("LexicalSearchHits: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("LexicalSearchHits: expected 2 hits, got %d", len(hits))
	}
}
