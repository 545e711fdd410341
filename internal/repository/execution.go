package repository

import (
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/careline-io/careline/internal/domain"
	"github.com/careline-io/careline/pkg/careline/core"
	"github.com/careline-io/careline/pkg/careline/models"
)

// ExecutionRepository persists workflow execution progress records. Rows
// are append-only from the outside: only the runner and the resume
// scheduler mutate them, and terminal rows are never touched again.
type ExecutionRepository struct {
	db    *sql.DB
	clock core.Clock
}

const EXECUTION_COLUMNS = ` id, workflow_id, tenant_id, trigger_context, status, current_step_index,
	       steps_total, steps_executed, resume_at, error, started, completed, modified `

func NewExecutionRepository(db *sql.DB, clock core.Clock) *ExecutionRepository {
	return &ExecutionRepository{db: db, clock: clock}
}

// Save inserts a fresh execution row. A zero ID is assigned a new uuid.
func (r *ExecutionRepository) Save(ex *domain.WorkflowExecution) (string, error) {
	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}
	now := r.clock.Now().UTC()
	ex.Started = now
	ex.Modified = now

	vals := []interface{}{ex.ID, ex.WorkflowID, ex.TenantID, ex.TriggerContext, ex.Status,
		ex.CurrentStepIndex, ex.StepsTotal, ex.StepsExecuted, formatDateInDatabaseNull(ex.ResumeAt),
		ex.Error, formatDateInDatabase(ex.Started), formatDateInDatabaseNull(ex.Completed), formatDateInDatabase(ex.Modified)}
	pps := make([]string, 0, len(vals))
	for i := range vals {
		pps = append(pps, placeholder(i+1))
	}
	query := `INSERT INTO workflow_executions (
		id, workflow_id, tenant_id, trigger_context, status, current_step_index,
		steps_total, steps_executed, resume_at, error, started, completed, modified
	) VALUES (` + strings.Join(pps, ", ") + `)`

	if _, err := r.db.Exec(query, vals...); err != nil {
		slog.Error("Failed to save workflow execution", "error", err, "workflow_id", ex.WorkflowID)
		return "", err
	}
	return ex.ID, nil
}

func (r *ExecutionRepository) FindByID(id string, tenantID string) (*domain.WorkflowExecution, error) {
	query := `
		SELECT ` + EXECUTION_COLUMNS + `
		FROM workflow_executions WHERE id = ` + placeholder(1) + ` AND tenant_id = ` + placeholder(2) + `
	`
	var ex domain.WorkflowExecution
	err := r.db.QueryRow(query, id, tenantID).Scan(
		&ex.ID,
		&ex.WorkflowID,
		&ex.TenantID,
		&ex.TriggerContext,
		&ex.Status,
		&ex.CurrentStepIndex,
		&ex.StepsTotal,
		&ex.StepsExecuted,
		&ex.ResumeAt,
		&ex.Error,
		&ex.Started,
		&ex.Completed,
		&ex.Modified,
	)
	if err != nil {
		return nil, err
	}
	return &ex, nil
}

// MarkWaiting parks an execution until resumeAt. CurrentStepIndex points at
// the step immediately after the wait that caused the pause.
func (r *ExecutionRepository) MarkWaiting(id string, currentStepIndex int, stepsExecuted int, resumeAt time.Time) error {
	query := `
		UPDATE workflow_executions
		SET status = '` + models.ExecStatusWaiting + `', current_step_index = ` + placeholder(1) + `,
		    steps_executed = ` + placeholder(2) + `, resume_at = ` + placeholder(3) + `,
		    modified = ` + nowFunc(r.clock) + `
		WHERE id = ` + placeholder(4) + `
	`
	_, err := r.db.Exec(query, currentStepIndex, stepsExecuted, formatDateInDatabase(resumeAt), id)
	return err
}

// MarkFinished moves an execution to a terminal status and clears resume_at.
func (r *ExecutionRepository) MarkFinished(id string, status string, stepsExecuted int, errText string) error {
	errVal := sql.NullString{}
	if errText != "" {
		errVal = sql.NullString{String: errText, Valid: true}
	}
	query := `
		UPDATE workflow_executions
		SET status = ` + placeholder(1) + `, steps_executed = ` + placeholder(2) + `,
		    current_step_index = steps_total, resume_at = NULL, error = ` + placeholder(3) + `,
		    completed = ` + nowFunc(r.clock) + `, modified = ` + nowFunc(r.clock) + `
		WHERE id = ` + placeholder(4) + `
	`
	_, err := r.db.Exec(query, status, stepsExecuted, errVal, id)
	return err
}

// FindDueWaiting returns waiting executions whose resume_at has elapsed,
// across all tenants (each row carries its own tenant scope).
func (r *ExecutionRepository) FindDueWaiting(limit int) (*[]domain.WorkflowExecution, error) {
	query := `
		SELECT ` + EXECUTION_COLUMNS + `
		FROM workflow_executions
		WHERE status = '` + models.ExecStatusWaiting + `'
		  AND ` + dateBeforeOrAtNow("resume_at", r.clock) + `
		ORDER BY resume_at ASC
		LIMIT ` + placeholder(1) + `
	`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var executions []domain.WorkflowExecution
	for rows.Next() {
		var ex domain.WorkflowExecution
		if err := rows.Scan(
			&ex.ID,
			&ex.WorkflowID,
			&ex.TenantID,
			&ex.TriggerContext,
			&ex.Status,
			&ex.CurrentStepIndex,
			&ex.StepsTotal,
			&ex.StepsExecuted,
			&ex.ResumeAt,
			&ex.Error,
			&ex.Started,
			&ex.Completed,
			&ex.Modified,
		); err != nil {
			return nil, err
		}
		executions = append(executions, ex)
	}
	return &executions, rows.Err()
}

// ClaimForResume conditionally transitions waiting -> running, guarded by
// the modified timestamp so two concurrent sweepers cannot both claim the
// same execution.
func (r *ExecutionRepository) ClaimForResume(id string, modified time.Time) bool {
	query := `
		UPDATE workflow_executions
		SET status = '` + models.ExecStatusRunning + `', modified = ` + nowFunc(r.clock) + `
		WHERE id = ` + placeholder(1) + ` AND modified = ` + placeholder(2) + `
		  AND status = '` + models.ExecStatusWaiting + `'
	`
	result, err := r.db.Exec(query, id, formatDateInDatabase(modified))
	if err != nil {
		slog.Error("Failed to claim execution for resume", "error", err, "execution_id", id)
		return false
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false
	}
	return rowsAffected == 1
}

// FindByWorkflowID returns recent executions of a workflow, newest first.
func (r *ExecutionRepository) FindByWorkflowID(workflowID int64, tenantID string, limit int) (*[]domain.WorkflowExecution, error) {
	query := `
		SELECT ` + EXECUTION_COLUMNS + `
		FROM workflow_executions
		WHERE workflow_id = ` + placeholder(1) + ` AND tenant_id = ` + placeholder(2) + `
		ORDER BY started DESC
		LIMIT ` + placeholder(3) + `
	`
	rows, err := r.db.Query(query, workflowID, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var executions []domain.WorkflowExecution
	for rows.Next() {
		var ex domain.WorkflowExecution
		if err := rows.Scan(
			&ex.ID,
			&ex.WorkflowID,
			&ex.TenantID,
			&ex.TriggerContext,
			&ex.Status,
			&ex.CurrentStepIndex,
			&ex.StepsTotal,
			&ex.StepsExecuted,
			&ex.ResumeAt,
			&ex.Error,
			&ex.Started,
			&ex.Completed,
			&ex.Modified,
		); err != nil {
			return nil, err
		}
		executions = append(executions, ex)
	}
	return &executions, rows.Err()
}
