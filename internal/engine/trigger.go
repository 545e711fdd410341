package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"reflect"

	"github.com/careline-io/careline/internal/domain"
	"github.com/careline-io/careline/pkg/careline/models"
)

// Matcher fans a business event out to every active workflow of the tenant
// subscribed to that trigger type whose filter matches the event context.
type Matcher struct {
	workflowRepo WorkflowRepo
	runner       *Runner
}

func NewMatcher(workflowRepo WorkflowRepo, runner *Runner) *Matcher {
	return &Matcher{workflowRepo: workflowRepo, runner: runner}
}

// FireTrigger runs every matching workflow once and collects the results.
// A store error or an empty candidate set yields an empty slice; a failed
// execution never prevents the remaining matches from being attempted.
func (m *Matcher) FireTrigger(ctx context.Context, triggerType string, contextData map[string]any, tenantID string) []models.ExecutionResult {
	results := []models.ExecutionResult{}

	workflows, err := m.workflowRepo.FindActiveByTrigger(tenantID, triggerType)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load workflows for trigger", "trigger_type", triggerType, "tenant_id", tenantID, "error", err)
		return results
	}
	if workflows == nil {
		return results
	}

	for _, wf := range *workflows {
		if !triggerMatches(&wf, contextData) {
			continue
		}
		slog.InfoContext(ctx, "Trigger matched workflow", "trigger_type", triggerType, "workflow_id", wf.ID, "workflow_name", wf.Name)
		results = append(results, m.runner.Execute(ctx, wf.ID, contextData, tenantID))
	}
	return results
}

// triggerMatches tests the workflow's equality filter against the event
// context. A null or empty filter matches everything; otherwise every
// configured key must be present and exactly equal.
func triggerMatches(wf *domain.Workflow, contextData map[string]any) bool {
	if !wf.TriggerConfig.Valid || wf.TriggerConfig.String == "" || wf.TriggerConfig.String == "null" {
		return true
	}

	filter := map[string]any{}
	if err := json.Unmarshal([]byte(wf.TriggerConfig.String), &filter); err != nil {
		slog.Warn("Malformed trigger config, workflow will not match", "workflow_id", wf.ID, "error", err)
		return false
	}
	if len(filter) == 0 {
		return true
	}

	for key, want := range filter {
		got, ok := contextData[key]
		if !ok || !valuesEqual(want, got) {
			return false
		}
	}
	return true
}

// valuesEqual compares a filter value with a context value. JSON numbers
// normalize to float64 on both sides; there is no cross-type coercion, so
// "42" never matches 42.
func valuesEqual(a any, b any) bool {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	if aok || bok {
		return aok && bok && fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
