package models

import "time"

// FireTriggerRequest is the payload for firing a business event at the
// trigger matcher. Context carries at minimum the actor identifier
// (patient_id) and transport identifier (line_user_id) most steps need.
type FireTriggerRequest struct {
	TriggerType string         `json:"triggerType"`
	Context     map[string]any `json:"context"`
}

// FireTriggerResponse wraps the per-matched-workflow results.
type FireTriggerResponse struct {
	Results []ExecutionResult `json:"results"`
}

// ExecutionApiResponse represents the API view of a persisted execution.
type ExecutionApiResponse struct {
	ID               string         `json:"id"`
	WorkflowID       int64          `json:"workflowId"`
	Status           string         `json:"status"`
	CurrentStepIndex int            `json:"currentStepIndex"`
	StepsTotal       int            `json:"stepsTotal"`
	StepsExecuted    int            `json:"stepsExecuted"`
	TriggerContext   map[string]any `json:"triggerContext,omitempty"`
	ResumeAt         *time.Time     `json:"resumeAt,omitempty"`
	Error            string         `json:"error,omitempty"`
	Started          time.Time      `json:"started"`
	Completed        *time.Time     `json:"completed,omitempty"`
}
