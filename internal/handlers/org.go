package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/caelexhq/caelex-backend/internal/services"
)

type OrgHandler struct {
	orgService services.OrgService
}

func NewOrgHandler(orgService services.OrgService) *OrgHandler {
	return &OrgHandler{orgService: orgService}
}

// POST /api/orgs
func (oh *OrgHandler) Create(c *gin.Context) {
	var req struct {
		Name        string `json:"name"`
		CountryCode string `json:"country_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	org, err := oh.orgService.Create(c.Request.Context(), req.Name, req.CountryCode)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, gin.H{"org": org})
}

// GET /api/orgs
func (oh *OrgHandler) ListMine(c *gin.Context) {
	orgs, err := oh.orgService.ListMine(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"orgs": orgs})
}

// GET /api/orgs/:orgID
func (oh *OrgHandler) Get(c *gin.Context) {
	org, err := oh.orgService.Get(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"org": org})
}

// POST /api/orgs/:orgID/members
func (oh *OrgHandler) AddMember(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	member, err := oh.orgService.AddMember(c.Request.Context(), req.Email, req.Role)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, gin.H{"member": member})
}

// GET /api/orgs/:orgID/members
func (oh *OrgHandler) ListMembers(c *gin.Context) {
	members, err := oh.orgService.ListMembers(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"members": members})
}

// DELETE /api/orgs/:orgID/members/:userID
func (oh *OrgHandler) RemoveMember(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	if err := oh.orgService.RemoveMember(c.Request.Context(), userID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"ok": true})
}
