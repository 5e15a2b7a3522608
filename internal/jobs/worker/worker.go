package worker

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	jobrepos "github.com/caelexhq/caelex-backend/internal/data/repos/jobs"
	types "github.com/caelexhq/caelex-backend/internal/domain"
	"github.com/caelexhq/caelex-backend/internal/jobs/runtime"
	"github.com/caelexhq/caelex-backend/internal/observability"
	"github.com/caelexhq/caelex-backend/internal/pkg/dbctx"
	"github.com/caelexhq/caelex-backend/internal/pkg/envutil"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
	"github.com/caelexhq/caelex-backend/internal/services"
)

const (
	pollInterval = 1 * time.Second
	maxAttempts  = 5
	retryDelay   = 30 * time.Second
	// A running row with no heartbeat for this long is treated as
	// abandoned and reclaimed. Handlers heartbeat on every Progress call.
	staleRunning = 10 * time.Minute
)

// Worker polls job_run with SKIP LOCKED claims and runs the registered
// handler for each row. It is the only executor when Temporal is not
// configured, and the retry path either way.
type Worker struct {
	db       *gorm.DB
	log      *logger.Logger
	repo     jobrepos.JobRunRepo
	registry *runtime.Registry
	notify   services.JobNotifier
}

func NewWorker(db *gorm.DB, baseLog *logger.Logger, repo jobrepos.JobRunRepo, registry *runtime.Registry, notify services.JobNotifier) *Worker {
	return &Worker{
		db:       db,
		log:      baseLog.With("component", "JobWorker"),
		repo:     repo,
		registry: registry,
		notify:   notify,
	}
}

func (w *Worker) Start(ctx context.Context) {
	concurrency := envutil.GetEnvAsInt("WORKER_CONCURRENCY", 4, w.log)
	if concurrency < 1 {
		concurrency = 1
	}
	w.log.Info("Starting job worker pool", "concurrency", concurrency)

	for i := 0; i < concurrency; i++ {
		workerID := i + 1
		go w.runLoop(ctx, workerID)
	}
}

func (w *Worker) runLoop(ctx context.Context, workerID int) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker loop stopped", "worker_id", workerID)
			return
		case <-ticker.C:
			job, err := w.repo.ClaimNextRunnable(dbctx.New(ctx), maxAttempts, retryDelay, staleRunning)
			if err != nil {
				w.log.Warn("ClaimNextRunnable failed", "worker_id", workerID, "error", err)
				continue
			}
			if job == nil {
				continue
			}
			w.execute(ctx, workerID, job)
		}
	}
}

func (w *Worker) execute(ctx context.Context, workerID int, job *types.JobRun) {
	started := time.Now()
	jc := runtime.NewContext(ctx, w.db, job, w.repo, w.notify)

	h, ok := w.registry.Get(job.JobType)
	if !ok {
		w.log.Warn("No handler registered for job_type",
			"worker_id", workerID,
			"job_type", job.JobType,
			"job_id", job.ID,
		)
		jc.Fail("dispatch", fmt.Errorf("no handler registered for job_type=%s", job.JobType))
		w.observe(job, started)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Job handler panic",
				"worker_id", workerID,
				"job_id", job.ID,
				"job_type", job.JobType,
				"panic", r,
			)
			jc.Fail("panic", fmt.Errorf("panic: %v", r))
		}
		w.observe(job, started)
	}()

	if runErr := h.Run(jc); runErr != nil {
		// Handlers normally call jc.Fail themselves; this is a safety net.
		jc.Fail("run", runErr)
	}
}

func (w *Worker) observe(job *types.JobRun, started time.Time) {
	if metrics := observability.Current(); metrics != nil {
		metrics.ObserveJob(job.JobType, job.Status, time.Since(started))
	}
}
