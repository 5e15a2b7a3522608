package server

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/caelexhq/caelex-backend/internal/handlers"
	"github.com/caelexhq/caelex-backend/internal/middleware"
	"github.com/caelexhq/caelex-backend/internal/observability"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics

	AuthMiddleware   *middleware.AuthMiddleware
	TenantMiddleware *middleware.TenantMiddleware

	HealthHandler     *handlers.HealthHandler
	AuthHandler       *handlers.AuthHandler
	UserHandler       *handlers.UserHandler
	OrgHandler        *handlers.OrgHandler
	DashboardHandler  *handlers.DashboardHandler
	CatalogHandler    *handlers.CatalogHandler
	AssessmentHandler *handlers.AssessmentHandler
	DeorbitHandler    *handlers.DeorbitHandler
	SatelliteHandler  *handlers.SatelliteHandler
	BillingHandler    *handlers.BillingHandler
	ChatHandler       *handlers.ChatHandler
	JobHandler        *handlers.JobHandler
	SSEHandler        *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(otelgin.Middleware("caelex-backend"))
	router.Use(middleware.AttachTraceContext())
	router.Use(middleware.RequestLogger(cfg.Log))
	router.Use(middleware.Metrics(cfg.Metrics))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}
	router.POST("/api/auth/login", cfg.AuthHandler.Login)

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	{
		api.GET("/me", cfg.UserHandler.GetMe)

		api.POST("/orgs", cfg.OrgHandler.Create)
		api.GET("/orgs", cfg.OrgHandler.ListMine)

		api.GET("/catalog/jurisdictions", cfg.CatalogHandler.Jurisdictions)
		api.GET("/catalog/requirements", cfg.CatalogHandler.Requirements)
		api.GET("/catalog/crosswalk", cfg.CatalogHandler.Crosswalk)

		api.POST("/deorbit/estimate", cfg.DeorbitHandler.Estimate)
		api.GET("/satellites/:noradID", cfg.SatelliteHandler.Get)

		api.GET("/billing/plans", cfg.BillingHandler.ListPlans)

		api.GET("/sse", cfg.SSEHandler.Stream)
	}

	// Everything below is scoped to one org; the tenancy middleware
	// resolves :orgID into the request identity and enforces membership.
	org := api.Group("/orgs/:orgID")
	org.Use(cfg.TenantMiddleware.RequireOrg())
	{
		org.GET("", cfg.OrgHandler.Get)
		org.POST("/members", cfg.OrgHandler.AddMember)
		org.GET("/members", cfg.OrgHandler.ListMembers)
		org.DELETE("/members/:userID", cfg.OrgHandler.RemoveMember)

		org.GET("/dashboard", cfg.DashboardHandler.Get)

		org.POST("/assessments", cfg.AssessmentHandler.Create)
		org.GET("/assessments", cfg.AssessmentHandler.List)
		org.GET("/assessments/:id", cfg.AssessmentHandler.Get)
		org.PATCH("/assessments/:id/profile", cfg.AssessmentHandler.UpdateProfile)
		org.DELETE("/assessments/:id", cfg.AssessmentHandler.Delete)
		org.PUT("/assessments/:id/statuses/:requirementID", cfg.AssessmentHandler.UpsertStatus)
		org.GET("/assessments/:id/statuses", cfg.AssessmentHandler.ListStatuses)
		org.GET("/assessments/:id/score", cfg.AssessmentHandler.Score)
		org.GET("/assessments/:id/gaps", cfg.AssessmentHandler.Gaps)
		org.GET("/assessments/:id/crosswalk", cfg.AssessmentHandler.Crosswalk)
		org.GET("/assessments/:id/deadlines", cfg.AssessmentHandler.Deadlines)

		org.GET("/billing/subscription", cfg.BillingHandler.Subscription)

		org.POST("/chat/threads", cfg.ChatHandler.CreateThread)
		org.GET("/chat/threads", cfg.ChatHandler.ListThreads)
		org.GET("/chat/threads/:threadID", cfg.ChatHandler.GetThread)
		org.POST("/chat/threads/:threadID/messages", cfg.ChatHandler.PostMessage)
		org.GET("/chat/threads/:threadID/messages", cfg.ChatHandler.ListMessages)

		org.GET("/jobs", cfg.JobHandler.ListRecent)
		org.GET("/jobs/:jobID", cfg.JobHandler.Get)
		org.POST("/jobs/:jobID/cancel", cfg.JobHandler.Cancel)
	}

	return router
}
