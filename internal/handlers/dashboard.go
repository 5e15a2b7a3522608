package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/caelexhq/caelex-backend/internal/services"
)

type DashboardHandler struct {
	dashboard services.DashboardService
}

func NewDashboardHandler(dashboard services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// GET /api/orgs/:orgID/dashboard
func (dh *DashboardHandler) Get(c *gin.Context) {
	view, err := dh.dashboard.Get(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, view)
}
