package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/caelexhq/caelex-backend/internal/catalog"
	jobhandlers "github.com/caelexhq/caelex-backend/internal/jobs/handlers"
	jobrt "github.com/caelexhq/caelex-backend/internal/jobs/runtime"
	jobworker "github.com/caelexhq/caelex-backend/internal/jobs/worker"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
	"github.com/caelexhq/caelex-backend/internal/realtime"
	"github.com/caelexhq/caelex-backend/internal/satellites"
	"github.com/caelexhq/caelex-backend/internal/services"
)

type Services struct {
	Auth       services.AuthService
	User       services.UserService
	Org        services.OrgService
	Billing    services.BillingService
	Catalog    services.CatalogService
	Assessment services.AssessmentService
	Dashboard  services.DashboardService
	Chat       services.ChatService
	Satellites satellites.Service
	JobService services.JobService

	JobNotifier services.JobNotifier
	JobRegistry *jobrt.Registry
	JobWorker   *jobworker.Worker
}

func wireServices(
	db *gorm.DB,
	log *logger.Logger,
	cfg Config,
	cat *catalog.Catalog,
	reposet Repos,
	clients Clients,
	sseHub *realtime.SSEHub,
) (Services, error) {
	log.Info("Wiring services...")

	// Events go through the redis bus when one is configured so every
	// replica's hub sees them; otherwise straight into the local hub.
	var emitter services.SSEEmitter
	if clients.SSEBus != nil {
		emitter = &services.RedisEmitter{Bus: clients.SSEBus}
	} else {
		emitter = &services.HubEmitter{Hub: sseHub}
	}
	jobNotifier := services.NewJobNotifier(emitter)
	chatNotifier := services.NewChatNotifier(emitter)
	assessmentNotifier := services.NewAssessmentNotifier(emitter)

	authService := services.NewAuthService(db, log, reposet.User, cfg.JWTSecretKey, cfg.AccessTokenTTL)
	userService := services.NewUserService(db, log, reposet.User)
	billingService := services.NewBillingService(db, log, reposet.Plan, reposet.OrgSubscription)
	orgService := services.NewOrgService(db, log, reposet.Org, reposet.OrgMembership, reposet.User, billingService)
	catalogService := services.NewCatalogService(log, cat)

	satService, err := satellites.NewService(clients.Satellites, log)
	if err != nil {
		return Services{}, fmt.Errorf("init satellite service: %w", err)
	}

	jobService := services.NewJobService(db, log, reposet.JobRun, jobNotifier, clients.Temporal, cfg.Temporal.TaskQueue)

	assessmentService := services.NewAssessmentService(
		db, log, cat,
		reposet.Assessment, reposet.OperatorProfile, reposet.RequirementStatus,
		billingService, jobService, assessmentNotifier,
	)
	dashboardService := services.NewDashboardService(
		db, log, cat,
		reposet.Assessment, reposet.OperatorProfile, reposet.RequirementStatus,
	)
	chatService := services.NewChatService(
		db, log,
		reposet.ChatThread, reposet.ChatMessage, reposet.Assessment, reposet.JobRun,
		billingService, jobService, chatNotifier,
	)

	registry := jobrt.NewRegistry()
	if err := registry.Register(jobhandlers.NewAssistantReply(
		db, log,
		reposet.ChatThread, reposet.ChatMessage,
		chatService, assessmentService,
		clients.Assistant, chatNotifier,
	)); err != nil {
		return Services{}, fmt.Errorf("register assistant_reply: %w", err)
	}
	if err := registry.Register(jobhandlers.NewProfileEnrich(
		db, log,
		reposet.OperatorProfile, assessmentService, satService, assessmentNotifier,
	)); err != nil {
		return Services{}, fmt.Errorf("register profile_enrich: %w", err)
	}

	worker := jobworker.NewWorker(db, log, reposet.JobRun, registry, jobNotifier)

	return Services{
		Auth:       authService,
		User:       userService,
		Org:        orgService,
		Billing:    billingService,
		Catalog:    catalogService,
		Assessment: assessmentService,
		Dashboard:  dashboardService,
		Chat:       chatService,
		Satellites: satService,
		JobService: jobService,

		JobNotifier: jobNotifier,
		JobRegistry: registry,
		JobWorker:   worker,
	}, nil
}
