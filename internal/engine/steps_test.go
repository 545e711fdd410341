package engine

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/careline-io/careline/internal/domain"
)

func TestParseStepConfig(t *testing.T) {
	s := domain.WorkflowStep{ID: 1, StepType: "send_message"}
	if cfg := parseStepConfig(&s); len(cfg) != 0 {
		t.Errorf("null config should yield an empty map, got %v", cfg)
	}

	s.Config = sql.NullString{String: `{"text":"hi"}`, Valid: true}
	if cfg := parseStepConfig(&s); cfg["text"] != "hi" {
		t.Errorf("expected text key, got %v", cfg)
	}

	s.Config = sql.NullString{String: `{"text":`, Valid: true}
	if cfg := parseStepConfig(&s); len(cfg) != 0 {
		t.Errorf("malformed config should yield an empty map, got %v", cfg)
	}
}

func TestWaitDuration(t *testing.T) {
	tests := []struct {
		name string
		cfg  map[string]any
		want time.Duration
	}{
		{"minutes as json number", map[string]any{"duration_minutes": float64(60)}, 60 * time.Minute},
		{"zero minutes", map[string]any{"duration_minutes": float64(0)}, 0},
		{"missing key", map[string]any{}, 0},
		{"negative minutes", map[string]any{"duration_minutes": float64(-5)}, 0},
		{"non numeric", map[string]any{"duration_minutes": "soon"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := waitDuration(tt.cfg); got != tt.want {
				t.Errorf("waitDuration(%v) = %s, want %s", tt.cfg, got, tt.want)
			}
		})
	}
}

func TestSendMessageHandler_NoRecipient(t *testing.T) {
	transport := &fakeTransport{}
	h := &sendMessageHandler{transport: transport}

	err := h.Run(context.Background(), map[string]any{"text": "hi"}, &StepContext{TenantID: "tenant-a", Trigger: map[string]any{}})

	if err == nil || !strings.Contains(err.Error(), "no recipient") {
		t.Errorf("expected no recipient error, got %v", err)
	}
	if len(transport.sent) != 0 {
		t.Errorf("nothing should be sent, got %v", transport.sent)
	}
}

func TestTagHandler_MissingPatient(t *testing.T) {
	h := &tagHandler{tags: &fakeTagStore{}}

	err := h.Run(context.Background(), map[string]any{"tag_id": float64(42)}, &StepContext{TenantID: "tenant-a", Trigger: map[string]any{}})

	if err == nil || !strings.Contains(err.Error(), "missing patient_id") {
		t.Errorf("expected missing patient_id error, got %v", err)
	}
}

func TestTagHandler_MissingTagID(t *testing.T) {
	h := &tagHandler{tags: &fakeTagStore{}}
	sc := &StepContext{TenantID: "tenant-a", Trigger: map[string]any{"patient_id": "p-001"}}

	err := h.Run(context.Background(), map[string]any{}, sc)

	if err == nil || !strings.Contains(err.Error(), "missing tag_id") {
		t.Errorf("expected missing tag_id error, got %v", err)
	}
}

func TestTagHandler_RemoveUsesRemove(t *testing.T) {
	tags := &fakeTagStore{}
	h := &tagHandler{tags: tags, remove: true}
	sc := &StepContext{TenantID: "tenant-a", Trigger: map[string]any{"patient_id": "p-001"}}

	if err := h.Run(context.Background(), map[string]any{"tag_id": float64(7)}, sc); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(tags.removed) != 1 || tags.removed[0] != 7 {
		t.Errorf("expected tag 7 removed, got %v", tags.removed)
	}
	if len(tags.added) != 0 {
		t.Errorf("nothing should be added, got %v", tags.added)
	}
}

func TestMarkChangeHandler(t *testing.T) {
	marks := &fakeMarkStore{}
	h := &markChangeHandler{marks: marks}
	sc := &StepContext{TenantID: "tenant-a", Trigger: map[string]any{"patient_id": "p-001"}}

	if err := h.Run(context.Background(), map[string]any{"mark": "vip"}, sc); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(marks.marks) != 1 || marks.marks[0] != "p-001=vip" {
		t.Errorf("expected mark set, got %v", marks.marks)
	}
}

func TestUnknownStepHandler(t *testing.T) {
	h := &unknownStepHandler{stepType: "start_video_call"}

	err := h.Run(context.Background(), map[string]any{}, &StepContext{})

	if err == nil || !strings.Contains(err.Error(), `"start_video_call"`) {
		t.Errorf("expected unrecognized step type error naming the type, got %v", err)
	}
}

func TestStepHandlerRegistryHasNoWaitEntry(t *testing.T) {
	handlers := newStepHandlers(&fakeTransport{}, &fakeTagStore{}, &fakeMarkStore{})
	if _, ok := handlers[StepWait]; ok {
		t.Error("wait is a control signal, not a dispatchable handler")
	}
	for _, st := range []StepType{StepSendMessage, StepAddTag, StepRemoveTag, StepMarkChange} {
		if _, ok := handlers[st]; !ok {
			t.Errorf("missing handler for %s", st)
		}
	}
}
