package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/caelexhq/caelex-backend/internal/services"
)

type AssessmentHandler struct {
	assessments services.AssessmentService
}

func NewAssessmentHandler(assessments services.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments}
}

// POST /api/orgs/:orgID/assessments
func (ah *AssessmentHandler) Create(c *gin.Context) {
	var req services.CreateAssessmentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	detail, err := ah.assessments.Create(c.Request.Context(), req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, detail)
}

// GET /api/orgs/:orgID/assessments?limit=
func (ah *AssessmentHandler) List(c *gin.Context) {
	limit := parseLimit(c, 50)
	assessments, err := ah.assessments.List(c.Request.Context(), limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"assessments": assessments})
}

// GET /api/orgs/:orgID/assessments/:id
func (ah *AssessmentHandler) Get(c *gin.Context) {
	assessmentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	detail, err := ah.assessments.Get(c.Request.Context(), assessmentID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, detail)
}

// PATCH /api/orgs/:orgID/assessments/:id/profile
func (ah *AssessmentHandler) UpdateProfile(c *gin.Context) {
	assessmentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req services.ProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	detail, err := ah.assessments.UpdateProfile(c.Request.Context(), assessmentID, req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, detail)
}

// DELETE /api/orgs/:orgID/assessments/:id
func (ah *AssessmentHandler) Delete(c *gin.Context) {
	assessmentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := ah.assessments.Delete(c.Request.Context(), assessmentID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"ok": true})
}

// PUT /api/orgs/:orgID/assessments/:id/statuses/:requirementID
func (ah *AssessmentHandler) UpsertStatus(c *gin.Context) {
	assessmentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	requirementID := strings.TrimSpace(c.Param("requirementID"))
	var req services.StatusInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	view, err := ah.assessments.UpsertStatus(c.Request.Context(), assessmentID, requirementID, req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, view)
}

// GET /api/orgs/:orgID/assessments/:id/statuses
func (ah *AssessmentHandler) ListStatuses(c *gin.Context) {
	assessmentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	statuses, err := ah.assessments.ListStatuses(c.Request.Context(), assessmentID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"statuses": statuses})
}

// GET /api/orgs/:orgID/assessments/:id/score
func (ah *AssessmentHandler) Score(c *gin.Context) {
	assessmentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	view, err := ah.assessments.Score(c.Request.Context(), assessmentID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, view)
}

// GET /api/orgs/:orgID/assessments/:id/gaps
func (ah *AssessmentHandler) Gaps(c *gin.Context) {
	assessmentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	gaps, err := ah.assessments.Gaps(c.Request.Context(), assessmentID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"gaps": gaps})
}

// GET /api/orgs/:orgID/assessments/:id/crosswalk?with=
func (ah *AssessmentHandler) Crosswalk(c *gin.Context) {
	assessmentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	view, err := ah.assessments.Crosswalk(c.Request.Context(), assessmentID, c.Query("with"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, view)
}

// GET /api/orgs/:orgID/assessments/:id/deadlines
func (ah *AssessmentHandler) Deadlines(c *gin.Context) {
	assessmentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	view, err := ah.assessments.Deadlines(c.Request.Context(), assessmentID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, view)
}

// pathUUID parses a UUID route param, responding 400 on failure.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil || id == uuid.Nil {
		RespondError(c, http.StatusBadRequest, "invalid_"+name, err)
		return uuid.Nil, false
	}
	return id, true
}

// parseLimit reads a ?limit= query, falling back when absent or junk.
func parseLimit(c *gin.Context, def int) int {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
