package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/careline-io/careline/internal/domain"
	"github.com/careline-io/careline/internal/engine"
	"github.com/careline-io/careline/internal/util"
	"github.com/careline-io/careline/pkg/careline/models"
)

// ExecutionsController exposes read-only execution detail — the
// out-of-band channel for per-step diagnostics the trigger response does
// not carry.
type ExecutionsController struct {
	AuthController
	ExecutionRepo engine.ExecutionRepo
}

func NewExecutionsController(executionRepo engine.ExecutionRepo, apiKeyRepo APIKeyRepo) *ExecutionsController {
	return &ExecutionsController{ExecutionRepo: executionRepo, AuthController: AuthController{
		APIKeyRepo: apiKeyRepo,
	}}
}

func (c *ExecutionsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/executions/{id}", c.RequireTenant(c.handleGetExecutionById))
	mux.HandleFunc("GET /api/workflows/{id}/executions", c.RequireTenant(c.handleListExecutionsForWorkflow))
}

func (c *ExecutionsController) handleGetExecutionById(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	result, err := c.ExecutionRepo.FindByID(id, TenantFromContext(r.Context()))
	if err != nil || result == nil {
		http.Error(w, "execution not found", http.StatusNotFound)
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, mapExecutionToApiExecution(result))
}

func (c *ExecutionsController) handleListExecutionsForWorkflow(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	results, err := c.ExecutionRepo.FindByWorkflowID(int64(id), TenantFromContext(r.Context()), limit)
	if err != nil {
		slog.Error("Failed to list executions", "workflow_id", id, "error", err)
		http.Error(w, "failed to list executions", http.StatusInternalServerError)
		return
	}

	apiResults := []models.ExecutionApiResponse{}
	if results != nil {
		for i := range *results {
			apiResults = append(apiResults, mapExecutionToApiExecution(&(*results)[i]))
		}
	}
	util.WriteJSONResponse(w, http.StatusOK, apiResults)
}

func mapExecutionToApiExecution(ex *domain.WorkflowExecution) models.ExecutionApiResponse {
	resp := models.ExecutionApiResponse{
		ID:               ex.ID,
		WorkflowID:       ex.WorkflowID,
		Status:           ex.Status,
		CurrentStepIndex: ex.CurrentStepIndex,
		StepsTotal:       ex.StepsTotal,
		StepsExecuted:    ex.StepsExecuted,
		Started:          ex.Started,
	}
	if ex.TriggerContext.Valid && ex.TriggerContext.String != "" {
		trigger := map[string]any{}
		if err := json.Unmarshal([]byte(ex.TriggerContext.String), &trigger); err == nil {
			resp.TriggerContext = trigger
		}
	}
	if ex.ResumeAt.Valid {
		t := ex.ResumeAt.Time
		resp.ResumeAt = &t
	}
	if ex.Error.Valid {
		resp.Error = ex.Error.String
	}
	if ex.Completed.Valid {
		t := ex.Completed.Time
		resp.Completed = &t
	}
	return resp
}
