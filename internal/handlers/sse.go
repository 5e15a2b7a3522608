package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	chatrepos "github.com/caelexhq/caelex-backend/internal/data/repos/chat"
	identityrepos "github.com/caelexhq/caelex-backend/internal/data/repos/identity"
	"github.com/caelexhq/caelex-backend/internal/observability"
	"github.com/caelexhq/caelex-backend/internal/pkg/ctxutil"
	"github.com/caelexhq/caelex-backend/internal/pkg/dbctx"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
	"github.com/caelexhq/caelex-backend/internal/realtime"
)

type SSEHandler struct {
	log         *logger.Logger
	hub         *realtime.SSEHub
	memberships identityrepos.OrgMembershipRepo
	threads     chatrepos.ChatThreadRepo
}

func NewSSEHandler(
	log *logger.Logger,
	hub *realtime.SSEHub,
	memberships identityrepos.OrgMembershipRepo,
	threads chatrepos.ChatThreadRepo,
) *SSEHandler {
	return &SSEHandler{
		log:         log.With("handler", "SSEHandler"),
		hub:         hub,
		memberships: memberships,
		threads:     threads,
	}
}

// GET /api/sse?channels=org:<id>,thread:<id>
//
// Every connection is subscribed to the caller's own user channel; the
// channels query names additional subscriptions, each checked against the
// caller's org memberships before the stream opens. One bad channel fails
// the whole request so clients notice misconfigured subscriptions instead
// of silently missing events.
func (sh *SSEHandler) Stream(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("not authenticated"))
		return
	}

	channels := []string{realtime.UserChannel(rd.UserID)}
	if raw := strings.TrimSpace(c.Query("channels")); raw != "" {
		for _, ch := range strings.Split(raw, ",") {
			ch = strings.TrimSpace(ch)
			if ch == "" {
				continue
			}
			if err := sh.checkGrant(c, rd.UserID, ch); err != nil {
				RespondError(c, http.StatusForbidden, "forbidden_channel", err)
				return
			}
			channels = append(channels, ch)
		}
	}

	client := sh.hub.NewSSEClient(rd.UserID)
	client.Logger = sh.log.With("sse_client_id", client.ID)
	for _, ch := range channels {
		sh.hub.AddChannel(client, ch)
	}

	if m := observability.Current(); m != nil {
		m.SSEClientsInc()
		defer m.SSEClientsDec()
	}

	sh.hub.ServeHTTP(c.Writer, c.Request, client)
	sh.hub.CloseClient(client)
}

// checkGrant verifies one channel subscription: your own user channel, an
// org you belong to, or a thread inside an org you belong to.
func (sh *SSEHandler) checkGrant(c *gin.Context, userID uuid.UUID, channel string) error {
	kind, rawID, ok := strings.Cut(channel, ":")
	if !ok {
		return fmt.Errorf("malformed channel %q", channel)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("malformed channel id in %q", channel)
	}

	dbc := dbctx.New(c.Request.Context())
	switch kind {
	case "user":
		if id != userID {
			return fmt.Errorf("cannot subscribe to another user's channel")
		}
		return nil
	case "org":
		membership, err := sh.memberships.GetByOrgAndUser(dbc, id, userID)
		if err != nil {
			return fmt.Errorf("membership lookup: %w", err)
		}
		if membership == nil {
			return fmt.Errorf("not a member of org %s", id)
		}
		return nil
	case "thread":
		threads, err := sh.threads.GetByIDs(dbc, []uuid.UUID{id})
		if err != nil {
			return fmt.Errorf("thread lookup: %w", err)
		}
		if len(threads) == 0 {
			return fmt.Errorf("thread %s not found", id)
		}
		membership, err := sh.memberships.GetByOrgAndUser(dbc, threads[0].OrgID, userID)
		if err != nil {
			return fmt.Errorf("membership lookup: %w", err)
		}
		if membership == nil {
			return fmt.Errorf("not a member of the thread's org")
		}
		return nil
	default:
		return fmt.Errorf("unknown channel kind %q", kind)
	}
}
