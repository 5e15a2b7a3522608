package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	identityrepos "github.com/caelexhq/caelex-backend/internal/data/repos/identity"
	"github.com/caelexhq/caelex-backend/internal/pkg/ctxutil"
	"github.com/caelexhq/caelex-backend/internal/pkg/dbctx"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
)

type TenantMiddleware struct {
	log         *logger.Logger
	memberships identityrepos.OrgMembershipRepo
}

func NewTenantMiddleware(log *logger.Logger, memberships identityrepos.OrgMembershipRepo) *TenantMiddleware {
	return &TenantMiddleware{
		log:         log.With("middleware", "TenantMiddleware"),
		memberships: memberships,
	}
}

// RequireOrg binds the :orgID route param to the request identity. The
// caller must already be authenticated; a membership row is what grants
// access, and its role is stamped onto the request data for the services
// to enforce finer-grained rules.
func (tm *TenantMiddleware) RequireOrg() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		if rd == nil || rd.UserID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing or invalid token", "code": "unauthorized"},
			})
			return
		}

		orgID, err := uuid.Parse(c.Param("orgID"))
		if err != nil || orgID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": gin.H{"message": "invalid org id", "code": "invalid_argument"},
			})
			return
		}

		membership, err := tm.memberships.GetByOrgAndUser(dbctx.New(c.Request.Context()), orgID, rd.UserID)
		if err != nil {
			tm.log.Error("Membership lookup failed", "org_id", orgID, "user_id", rd.UserID, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{"message": "internal error", "code": "internal"},
			})
			return
		}
		if membership == nil {
			// 404, not 403: don't confirm the org exists to outsiders.
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error": gin.H{"message": "org not found", "code": "not_found"},
			})
			return
		}

		scoped := *rd
		scoped.OrgID = orgID
		scoped.OrgRole = membership.Role
		c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), &scoped))
		c.Next()
	}
}
