package app

import (
	"github.com/gin-gonic/gin"

	"github.com/caelexhq/caelex-backend/internal/handlers"
	"github.com/caelexhq/caelex-backend/internal/middleware"
	"github.com/caelexhq/caelex-backend/internal/observability"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
	"github.com/caelexhq/caelex-backend/internal/realtime"
	"github.com/caelexhq/caelex-backend/internal/server"
)

type Middleware struct {
	Auth   *middleware.AuthMiddleware
	Tenant *middleware.TenantMiddleware
}

type Handlers struct {
	Health     *handlers.HealthHandler
	Auth       *handlers.AuthHandler
	User       *handlers.UserHandler
	Org        *handlers.OrgHandler
	Dashboard  *handlers.DashboardHandler
	Catalog    *handlers.CatalogHandler
	Assessment *handlers.AssessmentHandler
	Deorbit    *handlers.DeorbitHandler
	Satellite  *handlers.SatelliteHandler
	Billing    *handlers.BillingHandler
	Chat       *handlers.ChatHandler
	Job        *handlers.JobHandler
	SSE        *handlers.SSEHandler
}

func wireMiddleware(log *logger.Logger, reposet Repos, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth:   middleware.NewAuthMiddleware(log, services.Auth),
		Tenant: middleware.NewTenantMiddleware(log, reposet.OrgMembership),
	}
}

func wireHandlers(log *logger.Logger, reposet Repos, services Services, sseHub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     handlers.NewHealthHandler(),
		Auth:       handlers.NewAuthHandler(services.Auth),
		User:       handlers.NewUserHandler(services.User),
		Org:        handlers.NewOrgHandler(services.Org),
		Dashboard:  handlers.NewDashboardHandler(services.Dashboard),
		Catalog:    handlers.NewCatalogHandler(services.Catalog),
		Assessment: handlers.NewAssessmentHandler(services.Assessment),
		Deorbit:    handlers.NewDeorbitHandler(),
		Satellite:  handlers.NewSatelliteHandler(services.Satellites),
		Billing:    handlers.NewBillingHandler(services.Billing),
		Chat:       handlers.NewChatHandler(services.Chat),
		Job:        handlers.NewJobHandler(services.JobService),
		SSE:        handlers.NewSSEHandler(log, sseHub, reposet.OrgMembership, reposet.ChatThread),
	}
}

func wireRouter(log *logger.Logger, metrics *observability.Metrics, handlerset Handlers, middlewareset Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		Log:     log,
		Metrics: metrics,

		AuthMiddleware:   middlewareset.Auth,
		TenantMiddleware: middlewareset.Tenant,

		HealthHandler:     handlerset.Health,
		AuthHandler:       handlerset.Auth,
		UserHandler:       handlerset.User,
		OrgHandler:        handlerset.Org,
		DashboardHandler:  handlerset.Dashboard,
		CatalogHandler:    handlerset.Catalog,
		AssessmentHandler: handlerset.Assessment,
		DeorbitHandler:    handlerset.Deorbit,
		SatelliteHandler:  handlerset.Satellite,
		BillingHandler:    handlerset.Billing,
		ChatHandler:       handlerset.Chat,
		JobHandler:        handlerset.Job,
		SSEHandler:        handlerset.SSE,
	})
}
