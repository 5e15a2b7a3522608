package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/caelexhq/caelex-backend/internal/pkg/dbctx"
	"github.com/caelexhq/caelex-backend/internal/services"
)

type JobHandler struct {
	jobs services.JobService
}

func NewJobHandler(jobs services.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// GET /api/orgs/:orgID/jobs?limit=
func (jh *JobHandler) ListRecent(c *gin.Context) {
	limit := parseLimit(c, 25)
	jobs, err := jh.jobs.ListRecentForRequestOrg(dbctx.New(c.Request.Context()), limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"jobs": jobs})
}

// GET /api/orgs/:orgID/jobs/:jobID
func (jh *JobHandler) Get(c *gin.Context) {
	jobID, ok := pathUUID(c, "jobID")
	if !ok {
		return
	}
	job, err := jh.jobs.GetForRequestOrg(dbctx.New(c.Request.Context()), jobID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"job": job})
}

// POST /api/orgs/:orgID/jobs/:jobID/cancel
func (jh *JobHandler) Cancel(c *gin.Context) {
	jobID, ok := pathUUID(c, "jobID")
	if !ok {
		return
	}
	job, err := jh.jobs.CancelForRequestOrg(dbctx.New(c.Request.Context()), jobID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"job": job})
}
