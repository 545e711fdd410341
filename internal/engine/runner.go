package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/careline-io/careline/internal/config"
	"github.com/careline-io/careline/internal/domain"
	"github.com/careline-io/careline/pkg/careline/core"
	"github.com/careline-io/careline/pkg/careline/models"
)

// Runner drives a workflow's ordered steps against a trigger context,
// persisting progress after every pause or finish so the process can
// restart at any point without losing the execution.
type Runner struct {
	workflowRepo  WorkflowRepo
	executionRepo ExecutionRepo
	handlers      map[StepType]StepHandler
	clock         core.Clock
	stepTimeout   time.Duration
}

func NewRunner(workflowRepo WorkflowRepo, executionRepo ExecutionRepo,
	transport MessageTransport, tags TagStore, marks MarkStore, clock core.Clock) *Runner {
	timeout := time.Duration(config.GetSystemSettingInteger(config.STEP_TIMEOUT_SECONDS)) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Runner{
		workflowRepo:  workflowRepo,
		executionRepo: executionRepo,
		handlers:      newStepHandlers(transport, tags, marks),
		clock:         clock,
		stepTimeout:   timeout,
	}
}

// Execute starts a fresh run of a workflow for the given trigger context.
// A workflow that cannot be loaded fails without an execution row; a
// workflow with zero steps is skipped without one.
func (r *Runner) Execute(ctx context.Context, workflowID int64, contextData map[string]any, tenantID string) models.ExecutionResult {
	wf, err := r.workflowRepo.FindByID(workflowID, tenantID)
	if err != nil || wf == nil {
		slog.ErrorContext(ctx, "Workflow not loadable", "workflow_id", workflowID, "tenant_id", tenantID, "error", err)
		return models.ExecutionResult{Status: models.ExecStatusFailed}
	}

	steps, err := r.workflowRepo.ListSteps(wf.ID)
	if err != nil {
		slog.ErrorContext(ctx, "Workflow steps not loadable", "workflow_id", workflowID, "tenant_id", tenantID, "error", err)
		return models.ExecutionResult{Status: models.ExecStatusFailed}
	}
	if steps == nil || len(*steps) == 0 {
		slog.InfoContext(ctx, "Workflow has no steps, skipping", "workflow_id", workflowID, "tenant_id", tenantID)
		return models.ExecutionResult{Status: models.ExecStatusSkipped}
	}

	triggerJSON, _ := json.Marshal(contextData)
	ex := &domain.WorkflowExecution{
		WorkflowID:     wf.ID,
		TenantID:       tenantID,
		TriggerContext: sql.NullString{String: string(triggerJSON), Valid: true},
		Status:         models.ExecStatusRunning,
		StepsTotal:     len(*steps),
	}
	if _, err := r.executionRepo.Save(ex); err != nil {
		return models.ExecutionResult{
			Status:     models.ExecStatusFailed,
			StepsTotal: len(*steps),
			Error:      "execution log creation failed",
		}
	}

	slog.InfoContext(ctx, "Starting execution", "execution_id", ex.ID, "workflow_id", wf.ID, "steps_total", ex.StepsTotal)
	return r.runSteps(ctx, ex, *steps, contextData, 0, 0, "")
}

// Resume continues a claimed execution from its stored offset, restoring
// the persisted trigger context. It may chain into another waiting state.
func (r *Runner) Resume(ctx context.Context, ex *domain.WorkflowExecution) models.ExecutionResult {
	wf, err := r.workflowRepo.FindByID(ex.WorkflowID, ex.TenantID)
	if err != nil || wf == nil {
		slog.ErrorContext(ctx, "Workflow not loadable on resume", "execution_id", ex.ID, "workflow_id", ex.WorkflowID, "error", err)
		return r.finish(ctx, ex, models.ExecStatusFailed, ex.StepsExecuted, ex.StepsTotal, "workflow not loadable on resume")
	}
	steps, err := r.workflowRepo.ListSteps(wf.ID)
	if err != nil || steps == nil || len(*steps) == 0 {
		slog.ErrorContext(ctx, "Workflow steps not loadable on resume", "execution_id", ex.ID, "workflow_id", ex.WorkflowID, "error", err)
		return r.finish(ctx, ex, models.ExecStatusFailed, ex.StepsExecuted, ex.StepsTotal, "workflow steps not loadable on resume")
	}

	contextData := map[string]any{}
	if ex.TriggerContext.Valid && ex.TriggerContext.String != "" {
		if err := json.Unmarshal([]byte(ex.TriggerContext.String), &contextData); err != nil {
			slog.ErrorContext(ctx, "Malformed trigger context on resume", "execution_id", ex.ID, "error", err)
		}
	}

	// an error captured before the pause still decides the terminal status
	lastErr := ""
	if ex.Error.Valid {
		lastErr = ex.Error.String
	}

	slog.InfoContext(ctx, "Resuming execution", "execution_id", ex.ID, "workflow_id", wf.ID, "from_index", ex.CurrentStepIndex)
	return r.runSteps(ctx, ex, *steps, contextData, ex.CurrentStepIndex, ex.StepsExecuted, lastErr)
}

func (r *Runner) runSteps(ctx context.Context, ex *domain.WorkflowExecution, steps []domain.WorkflowStep,
	contextData map[string]any, startIndex int, stepsExecuted int, lastErr string) models.ExecutionResult {

	sc := &StepContext{TenantID: ex.TenantID, Trigger: contextData}

	for i := startIndex; i < len(steps); i++ {
		step := steps[i]
		cfg := parseStepConfig(&step)

		if StepType(step.StepType) == StepWait {
			resumeAt := r.clock.Now().UTC().Add(waitDuration(cfg))
			if err := r.executionRepo.MarkWaiting(ex.ID, i+1, stepsExecuted, resumeAt); err != nil {
				slog.ErrorContext(ctx, "Failed to park execution", "execution_id", ex.ID, "error", err)
			}
			slog.InfoContext(ctx, "Execution waiting", "execution_id", ex.ID, "resume_at", resumeAt, "steps_executed", stepsExecuted)
			return models.ExecutionResult{
				ExecutionID:   ex.ID,
				Status:        models.ExecStatusWaiting,
				StepsExecuted: stepsExecuted,
				StepsTotal:    len(steps),
				Error:         lastErr,
			}
		}

		handler, ok := r.handlers[StepType(step.StepType)]
		if !ok {
			handler = &unknownStepHandler{stepType: step.StepType}
		}

		stepCtx, cancel := context.WithTimeout(ctx, r.stepTimeout)
		err := handler.Run(stepCtx, cfg, sc)
		cancel()
		if err != nil {
			// recovered locally: record and keep going, last error wins
			lastErr = err.Error()
			slog.ErrorContext(ctx, "Step failed, continuing", "execution_id", ex.ID, "step_index", i, "step_type", step.StepType, "error", err)
		}
		stepsExecuted++
	}

	status := models.ExecStatusCompleted
	if lastErr != "" {
		status = models.ExecStatusFailed
	}
	return r.finish(ctx, ex, status, stepsExecuted, len(steps), lastErr)
}

func (r *Runner) finish(ctx context.Context, ex *domain.WorkflowExecution, status string, stepsExecuted int, stepsTotal int, errText string) models.ExecutionResult {
	if err := r.executionRepo.MarkFinished(ex.ID, status, stepsExecuted, errText); err != nil {
		slog.ErrorContext(ctx, "Failed to persist execution result", "execution_id", ex.ID, "status", status, "error", err)
	}
	slog.InfoContext(ctx, "Execution finished", "execution_id", ex.ID, "status", status, "steps_executed", stepsExecuted)
	return models.ExecutionResult{
		ExecutionID:   ex.ID,
		Status:        status,
		StepsExecuted: stepsExecuted,
		StepsTotal:    stepsTotal,
		Error:         errText,
	}
}
