package controllers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/careline-io/careline/internal/domain"
	"github.com/careline-io/careline/pkg/careline/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readableExecutionRepo struct {
	stubExecutionRepo
	records map[string]*domain.WorkflowExecution
}

func (r *readableExecutionRepo) FindByID(id string, tenantID string) (*domain.WorkflowExecution, error) {
	ex := r.records[id]
	if ex == nil || ex.TenantID != tenantID {
		return nil, sql.ErrNoRows
	}
	return ex, nil
}

func (r *readableExecutionRepo) FindByWorkflowID(workflowID int64, tenantID string, limit int) (*[]domain.WorkflowExecution, error) {
	out := []domain.WorkflowExecution{}
	for _, ex := range r.records {
		if ex.WorkflowID == workflowID && ex.TenantID == tenantID && len(out) < limit {
			out = append(out, *ex)
		}
	}
	return &out, nil
}

func newExecutionsMux(records map[string]*domain.WorkflowExecution) *http.ServeMux {
	mux := http.NewServeMux()
	repo := &readableExecutionRepo{records: records}
	NewExecutionsController(repo, validKeyRepo("tenant-a")).RegisterRoutes(mux)
	return mux
}

func waitingExecution() *domain.WorkflowExecution {
	resumeAt := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	return &domain.WorkflowExecution{
		ID:               "exec-1",
		WorkflowID:       1,
		TenantID:         "tenant-a",
		TriggerContext:   sql.NullString{String: `{"patient_id":"p-001"}`, Valid: true},
		Status:           models.ExecStatusWaiting,
		CurrentStepIndex: 2,
		StepsTotal:       3,
		StepsExecuted:    1,
		ResumeAt:         sql.NullTime{Time: resumeAt, Valid: true},
		Started:          time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestGetExecutionById(t *testing.T) {
	mux := newExecutionsMux(map[string]*domain.WorkflowExecution{"exec-1": waitingExecution()})

	req := httptest.NewRequest(http.MethodGet, "/api/executions/exec-1", nil)
	req.Header.Set("X-API-Key", "cl_validkey")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.ExecutionApiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "exec-1", resp.ID)
	assert.Equal(t, models.ExecStatusWaiting, resp.Status)
	assert.Equal(t, 2, resp.CurrentStepIndex)
	assert.Equal(t, 1, resp.StepsExecuted)
	require.NotNil(t, resp.ResumeAt)
	assert.Equal(t, "p-001", resp.TriggerContext["patient_id"])
}

func TestGetExecutionById_NotFound(t *testing.T) {
	mux := newExecutionsMux(map[string]*domain.WorkflowExecution{})

	req := httptest.NewRequest(http.MethodGet, "/api/executions/exec-404", nil)
	req.Header.Set("X-API-Key", "cl_validkey")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetExecutionById_WrongTenantIsNotFound(t *testing.T) {
	ex := waitingExecution()
	ex.TenantID = "tenant-b"
	mux := newExecutionsMux(map[string]*domain.WorkflowExecution{"exec-1": ex})

	req := httptest.NewRequest(http.MethodGet, "/api/executions/exec-1", nil)
	req.Header.Set("X-API-Key", "cl_validkey")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListExecutionsForWorkflow(t *testing.T) {
	mux := newExecutionsMux(map[string]*domain.WorkflowExecution{"exec-1": waitingExecution()})

	req := httptest.NewRequest(http.MethodGet, "/api/workflows/1/executions", nil)
	req.Header.Set("X-API-Key", "cl_validkey")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp []models.ExecutionApiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "exec-1", resp[0].ID)
}

func TestListExecutionsForWorkflow_InvalidId(t *testing.T) {
	mux := newExecutionsMux(map[string]*domain.WorkflowExecution{})

	req := httptest.NewRequest(http.MethodGet, "/api/workflows/not-a-number/executions", nil)
	req.Header.Set("X-API-Key", "cl_validkey")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
