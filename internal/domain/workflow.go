package domain

import (
	"database/sql"
	"time"
)

// Workflow is a tenant-scoped automation definition: a trigger subscription
// plus an ordered step sequence. Definitions are authored by an external
// admin surface; the engine only reads them.
type Workflow struct {
	ID            int64
	TenantID      string
	Name          string
	Status        string
	TriggerType   string
	TriggerConfig sql.NullString
	Created       time.Time
	Modified      time.Time
}

// WorkflowStep is one unit of a workflow's sequence. Config is a JSON
// object whose keys depend on the step type.
type WorkflowStep struct {
	ID         int64
	WorkflowID int64
	SortOrder  int
	StepType   string
	Config     sql.NullString
	Created    time.Time
}
