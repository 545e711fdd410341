package repository

import (
	"database/sql"

	"github.com/careline-io/careline/internal/domain"
	"github.com/careline-io/careline/pkg/careline/core"
	"github.com/careline-io/careline/pkg/careline/models"
)

// WorkflowRepository reads tenant-scoped workflow definitions and their
// ordered steps. Definitions are authored elsewhere; this engine never
// writes them.
type WorkflowRepository struct {
	db    *sql.DB
	clock core.Clock
}

const WORKFLOW_COLUMNS = ` id, tenant_id, name, status, trigger_type, trigger_config, created, modified `

func NewWorkflowRepository(db *sql.DB, clock core.Clock) *WorkflowRepository {
	return &WorkflowRepository{db: db, clock: clock}
}

func (r *WorkflowRepository) FindByID(id int64, tenantID string) (*domain.Workflow, error) {
	query := `
		SELECT ` + WORKFLOW_COLUMNS + `
		FROM workflows WHERE id = ` + placeholder(1) + ` AND tenant_id = ` + placeholder(2) + `
	`
	var wf domain.Workflow
	err := r.db.QueryRow(query, id, tenantID).Scan(
		&wf.ID,
		&wf.TenantID,
		&wf.Name,
		&wf.Status,
		&wf.TriggerType,
		&wf.TriggerConfig,
		&wf.Created,
		&wf.Modified,
	)
	if err != nil {
		return nil, err
	}
	return &wf, nil
}

// FindActiveByTrigger returns the active workflows of a tenant subscribed
// to the given trigger type, ordered by id so firing order is stable.
func (r *WorkflowRepository) FindActiveByTrigger(tenantID string, triggerType string) (*[]domain.Workflow, error) {
	query := `
		SELECT ` + WORKFLOW_COLUMNS + `
		FROM workflows
		WHERE tenant_id = ` + placeholder(1) + `
		  AND status = ` + placeholder(2) + `
		  AND trigger_type = ` + placeholder(3) + `
		ORDER BY id ASC
	`
	rows, err := r.db.Query(query, tenantID, models.WorkflowStatusActive, triggerType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workflows []domain.Workflow
	for rows.Next() {
		var wf domain.Workflow
		err := rows.Scan(
			&wf.ID,
			&wf.TenantID,
			&wf.Name,
			&wf.Status,
			&wf.TriggerType,
			&wf.TriggerConfig,
			&wf.Created,
			&wf.Modified,
		)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, wf)
	}
	return &workflows, rows.Err()
}

// ListSteps returns the steps of a workflow ordered by sort_order ascending.
func (r *WorkflowRepository) ListSteps(workflowID int64) (*[]domain.WorkflowStep, error) {
	query := `
		SELECT id, workflow_id, sort_order, step_type, config, created
		FROM workflow_steps
		WHERE workflow_id = ` + placeholder(1) + `
		ORDER BY sort_order ASC
	`
	rows, err := r.db.Query(query, workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []domain.WorkflowStep
	for rows.Next() {
		var s domain.WorkflowStep
		if err := rows.Scan(
			&s.ID,
			&s.WorkflowID,
			&s.SortOrder,
			&s.StepType,
			&s.Config,
			&s.Created,
		); err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return &steps, rows.Err()
}
