package models

// Execution statuses. The first two are live, the rest are terminal and
// never mutated again once written.
const (
	ExecStatusRunning   = "running"
	ExecStatusWaiting   = "waiting"
	ExecStatusCompleted = "completed"
	ExecStatusFailed    = "failed"
	ExecStatusSkipped   = "skipped"
)

// Workflow statuses as authored by the (external) admin surface.
const (
	WorkflowStatusActive   = "active"
	WorkflowStatusInactive = "inactive"
)

// ExecutionResult is the single per-run outcome surfaced to trigger
// producers and the resume scheduler. ExecutionID is empty when the run
// failed before an execution row could be created.
type ExecutionResult struct {
	ExecutionID   string `json:"executionId"`
	Status        string `json:"status"`
	StepsExecuted int    `json:"stepsExecuted"`
	StepsTotal    int    `json:"stepsTotal"`
	Error         string `json:"error,omitempty"`
}
