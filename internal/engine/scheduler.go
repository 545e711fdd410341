package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/careline-io/careline/internal/config"
	"github.com/careline-io/careline/internal/domain"
	"github.com/careline-io/careline/pkg/careline/core"
	"github.com/careline-io/careline/pkg/careline/models"
)

// ResumeScheduler periodically sweeps parked executions whose delay has
// elapsed, claims each one, and re-enters the runner from the stored
// offset. The claim is the mutual-exclusion mechanism: two concurrent
// sweeps can never double-resume the same execution.
type ResumeScheduler struct {
	workflowRepo  WorkflowRepo
	executionRepo ExecutionRepo
	runner        *Runner
	clock         core.Clock
	queue         chan domain.WorkflowExecution
	wakeup        chan struct{}
}

func NewResumeScheduler(workflowRepo WorkflowRepo, executionRepo ExecutionRepo, runner *Runner, clock core.Clock) *ResumeScheduler {
	return &ResumeScheduler{
		workflowRepo:  workflowRepo,
		executionRepo: executionRepo,
		runner:        runner,
		clock:         clock,
		wakeup:        make(chan struct{}, 1),
	}
}

// Start runs the sweep loop at the given interval with a pool of resume
// workers, until the context is cancelled.
func (s *ResumeScheduler) Start(ctx context.Context, pollInterval time.Duration) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	queueSize := config.GetSystemSettingInteger(config.RESUME_BATCH_SIZE)
	if queueSize <= 0 {
		queueSize = 10
	}
	s.queue = make(chan domain.WorkflowExecution, queueSize)

	workers := config.GetSystemSettingInteger(config.RESUME_WORKER_SIZE)
	slog.Info("Starting resume scheduler", "workers", workers, "queue_size", queueSize, "poll_interval", pollInterval.String())
	for i := 0; i < workers; i++ {
		go Worker(ctx, i, s.runner, s.queue)
	}

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Resume scheduler stopping due to context cancel")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		case <-s.wakeup:
			s.Sweep(ctx)
		}
	}
}

// Sweep claims and resumes every due waiting execution. It is safe to call
// directly from an external cron-like caller; without Start it resumes
// inline instead of through the worker pool.
func (s *ResumeScheduler) Sweep(ctx context.Context) {
	batch := config.GetSystemSettingInteger(config.RESUME_BATCH_SIZE)
	if batch <= 0 {
		batch = 10
	}

	due, err := s.executionRepo.FindDueWaiting(batch)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to find due executions", "error", err)
		return
	}
	if due == nil {
		return
	}

	for _, ex := range *due {
		if !s.executionRepo.ClaimForResume(ex.ID, ex.Modified) {
			// another sweeper got there first, not an error
			slog.InfoContext(ctx, "Execution already claimed, skipping", "execution_id", ex.ID)
			continue
		}
		ex.Status = models.ExecStatusRunning

		wf, err := s.workflowRepo.FindByID(ex.WorkflowID, ex.TenantID)
		if err != nil || wf == nil || wf.Status != models.WorkflowStatusActive {
			slog.WarnContext(ctx, "Workflow inactive or gone, skipping execution instead of resuming",
				"execution_id", ex.ID, "workflow_id", ex.WorkflowID)
			if err := s.executionRepo.MarkFinished(ex.ID, models.ExecStatusSkipped, ex.StepsExecuted, "workflow no longer active"); err != nil {
				slog.ErrorContext(ctx, "Failed to skip execution", "execution_id", ex.ID, "error", err)
			}
			continue
		}

		if s.queue != nil {
			s.queue <- ex
			continue
		}
		s.runner.Resume(ctx, &ex)
	}
}

// Wakeup nudges the scheduler to sweep ahead of the next tick.
func (s *ResumeScheduler) Wakeup() {
	select {
	case s.wakeup <- struct{}{}:
	default:
	}
}
