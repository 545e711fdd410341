package controllers

import (
	"log/slog"
	"net/http"

	"github.com/careline-io/careline/internal/engine"
	"github.com/careline-io/careline/internal/util"
	"github.com/careline-io/careline/pkg/careline/models"
)

// TriggersController is the ingest point for business events produced by
// external systems (tag added, reservation created, payment completed,
// manual trigger).
type TriggersController struct {
	AuthController
	Matcher *engine.Matcher
}

func NewTriggersController(matcher *engine.Matcher, apiKeyRepo APIKeyRepo) *TriggersController {
	return &TriggersController{Matcher: matcher, AuthController: AuthController{
		APIKeyRepo: apiKeyRepo,
	}}
}

func (c *TriggersController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/triggers", c.RequireTenant(c.handleFireTrigger))
}

func (c *TriggersController) handleFireTrigger(w http.ResponseWriter, r *http.Request) {
	req, err := util.DecodeJSONBody[models.FireTriggerRequest](r)
	if err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	if req.TriggerType == "" {
		http.Error(w, "triggerType is required", http.StatusBadRequest)
		return
	}
	if req.Context == nil {
		req.Context = map[string]any{}
	}

	tenantID := TenantFromContext(r.Context())
	slog.InfoContext(r.Context(), "Firing trigger", "trigger_type", req.TriggerType, "tenant_id", tenantID)

	results := c.Matcher.FireTrigger(r.Context(), req.TriggerType, req.Context, tenantID)
	util.WriteJSONResponse(w, http.StatusOK, models.FireTriggerResponse{Results: results})
}
