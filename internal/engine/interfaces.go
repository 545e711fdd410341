package engine

import (
	"context"
	"time"

	"github.com/careline-io/careline/internal/domain"
)

// WorkflowRepo defines the persistence interface for workflow definitions,
// matching repository.WorkflowRepository.
type WorkflowRepo interface {
	FindByID(id int64, tenantID string) (*domain.Workflow, error)
	FindActiveByTrigger(tenantID string, triggerType string) (*[]domain.Workflow, error)
	ListSteps(workflowID int64) (*[]domain.WorkflowStep, error)
}

// ExecutionRepo defines the persistence interface for execution progress
// records, matching repository.ExecutionRepository.
type ExecutionRepo interface {
	Save(ex *domain.WorkflowExecution) (string, error)
	FindByID(id string, tenantID string) (*domain.WorkflowExecution, error)
	MarkWaiting(id string, currentStepIndex int, stepsExecuted int, resumeAt time.Time) error
	MarkFinished(id string, status string, stepsExecuted int, errText string) error
	FindDueWaiting(limit int) (*[]domain.WorkflowExecution, error)
	ClaimForResume(id string, modified time.Time) bool
	FindByWorkflowID(workflowID int64, tenantID string, limit int) (*[]domain.WorkflowExecution, error)
}

// MessageTransport delivers a text message to a recipient on the external
// messaging channel.
type MessageTransport interface {
	Send(ctx context.Context, recipientID string, text string) error
}

// TagStore attaches and detaches tags on a patient record.
type TagStore interface {
	AddTag(ctx context.Context, tenantID string, patientID string, tagID int64) error
	RemoveTag(ctx context.Context, tenantID string, patientID string, tagID int64) error
}

// MarkStore replaces the current mark on a patient record.
type MarkStore interface {
	SetMark(ctx context.Context, tenantID string, patientID string, mark string) error
}
