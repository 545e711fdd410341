package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/careline-io/careline/internal/domain"
)

// StepType is the closed set of step kinds a workflow can contain. New
// kinds authored by newer admin versions fall through to the unknown
// handler so an old engine keeps executing the rest of the sequence.
type StepType string

const (
	StepSendMessage StepType = "send_message"
	StepWait        StepType = "wait"
	StepAddTag      StepType = "add_tag"
	StepRemoveTag   StepType = "remove_tag"
	StepMarkChange  StepType = "mark_change"
)

// StepContext carries the tenant scope and the triggering context a step
// handler draws its identifiers from.
type StepContext struct {
	TenantID string
	Trigger  map[string]any
}

// StepHandler performs one unit of work given the step config and the
// trigger context. Handler errors are non-fatal to the run.
type StepHandler interface {
	Run(ctx context.Context, cfg map[string]any, sc *StepContext) error
}

// newStepHandlers builds the registry with one handler per step type.
// StepWait is deliberately absent: the runner consumes it as a control
// signal and never dispatches it.
func newStepHandlers(transport MessageTransport, tags TagStore, marks MarkStore) map[StepType]StepHandler {
	return map[StepType]StepHandler{
		StepSendMessage: &sendMessageHandler{transport: transport},
		StepAddTag:      &tagHandler{tags: tags, remove: false},
		StepRemoveTag:   &tagHandler{tags: tags, remove: true},
		StepMarkChange:  &markChangeHandler{marks: marks},
	}
}

// parseStepConfig decodes the step's JSON config column. A null or
// malformed config yields an empty map; the handler decides whether any
// required key is missing.
func parseStepConfig(step *domain.WorkflowStep) map[string]any {
	cfg := map[string]any{}
	if !step.Config.Valid || step.Config.String == "" {
		return cfg
	}
	if err := json.Unmarshal([]byte(step.Config.String), &cfg); err != nil {
		slog.Warn("Malformed step config", "step_id", step.ID, "step_type", step.StepType, "error", err)
	}
	return cfg
}

func cfgString(cfg map[string]any, key string) string {
	if v, ok := cfg[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func cfgInt(cfg map[string]any, key string) (int64, bool) {
	switch v := cfg[key].(type) {
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	}
	return 0, false
}

func triggerString(sc *StepContext, key string) string {
	if v, ok := sc.Trigger[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// waitDuration reads duration_minutes from a wait step config. Missing or
// invalid values become zero, making the execution due on the next sweep.
func waitDuration(cfg map[string]any) time.Duration {
	mins, ok := cfgInt(cfg, "duration_minutes")
	if !ok || mins < 0 {
		slog.Warn("Wait step without a usable duration_minutes, resuming on next sweep")
		return 0
	}
	return time.Duration(mins) * time.Minute
}

type sendMessageHandler struct {
	transport MessageTransport
}

func (h *sendMessageHandler) Run(ctx context.Context, cfg map[string]any, sc *StepContext) error {
	recipient := triggerString(sc, "line_user_id")
	if recipient == "" {
		return errors.New("no recipient")
	}
	text := cfgString(cfg, "text")
	if err := h.transport.Send(ctx, recipient, text); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

type tagHandler struct {
	tags   TagStore
	remove bool
}

func (h *tagHandler) Run(ctx context.Context, cfg map[string]any, sc *StepContext) error {
	patientID := triggerString(sc, "patient_id")
	if patientID == "" {
		return errors.New("missing patient_id in trigger context")
	}
	tagID, ok := cfgInt(cfg, "tag_id")
	if !ok {
		return errors.New("missing tag_id in step config")
	}
	if h.remove {
		return h.tags.RemoveTag(ctx, sc.TenantID, patientID, tagID)
	}
	return h.tags.AddTag(ctx, sc.TenantID, patientID, tagID)
}

type markChangeHandler struct {
	marks MarkStore
}

func (h *markChangeHandler) Run(ctx context.Context, cfg map[string]any, sc *StepContext) error {
	patientID := triggerString(sc, "patient_id")
	if patientID == "" {
		return errors.New("missing patient_id in trigger context")
	}
	return h.marks.SetMark(ctx, sc.TenantID, patientID, cfgString(cfg, "mark"))
}

// unknownStepHandler reports unrecognized step types as a recoverable
// error, keeping forward compatibility with newer authoring versions.
type unknownStepHandler struct {
	stepType string
}

func (h *unknownStepHandler) Run(ctx context.Context, cfg map[string]any, sc *StepContext) error {
	return fmt.Errorf("unrecognized step type %q", h.stepType)
}
