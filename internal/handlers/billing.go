package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/caelexhq/caelex-backend/internal/services"
)

type BillingHandler struct {
	billing services.BillingService
}

func NewBillingHandler(billing services.BillingService) *BillingHandler {
	return &BillingHandler{billing: billing}
}

// GET /api/billing/plans
func (bh *BillingHandler) ListPlans(c *gin.Context) {
	plans, err := bh.billing.ListPlans(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"plans": plans})
}

// GET /api/orgs/:orgID/billing/subscription
func (bh *BillingHandler) Subscription(c *gin.Context) {
	view, err := bh.billing.GetSubscription(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, view)
}
