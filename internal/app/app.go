package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/caelexhq/caelex-backend/internal/catalog"
	"github.com/caelexhq/caelex-backend/internal/data/db"
	"github.com/caelexhq/caelex-backend/internal/observability"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
	"github.com/caelexhq/caelex-backend/internal/realtime"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Catalog  *catalog.Catalog
	Clients  Clients
	Repos    Repos
	Services Services
	SSEHub   *realtime.SSEHub
	Metrics  *observability.Metrics

	httpSrv *http.Server
	cancel  context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	cat, err := catalog.Load()
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load requirement catalog: %w", err)
	}
	log.Info("Requirement catalog loaded", "version", cat.Version(), "requirements", len(cat.Requirements()))

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	metrics := observability.Init(log)
	sseHub := realtime.NewSSEHub(log)

	clients, err := wireClients(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, cat, reposet, clients, sseHub)
	if err != nil {
		clients.Close()
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(log, reposet, serviceset, sseHub)
	middlewareset := wireMiddleware(log, reposet, serviceset)
	router := wireRouter(log, metrics, handlerset, middlewareset)

	return &App{
		Log:      log,
		DB:       theDB,
		Router:   router,
		Cfg:      cfg,
		Catalog:  cat,
		Clients:  clients,
		Repos:    reposet,
		Services: serviceset,
		SSEHub:   sseHub,
		Metrics:  metrics,
	}, nil
}

// Start brings up the background machinery: the job worker, the redis
// fanout forwarder, and the metrics collectors. Separate from New so
// tests can wire an App without spawning goroutines.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Services.JobWorker != nil {
		a.Services.JobWorker.Start(ctx)
	}

	if a.Clients.SSEBus != nil {
		if err := a.Clients.SSEBus.StartForwarder(ctx, a.SSEHub.Broadcast); err != nil {
			a.Log.Error("SSE bus forwarder failed to start", "error", err)
		}
	}

	if a.Metrics != nil {
		a.Metrics.StartPostgresCollector(ctx, a.Log, a.DB)
		a.Metrics.StartJobQueueCollector(ctx, a.Log, a.DB)
		if addr := os.Getenv("REDIS_ADDR"); addr != "" {
			a.Metrics.StartRedisCollector(ctx, a.Log, addr)
		}
	}
}

// Run serves HTTP until ctx is canceled, then drains in-flight requests.
func (a *App) Run(ctx context.Context, addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	a.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return a.httpSrv.Shutdown(shutdownCtx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.Close()
	if a.Log != nil {
		a.Log.Sync()
	}
}
