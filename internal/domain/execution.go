package domain

import (
	"database/sql"
	"time"
)

// WorkflowExecution is the durable progress record of one workflow run.
// CurrentStepIndex is the next step to run, so a row parked by a wait step
// can be resumed after a process restart without re-running earlier steps.
type WorkflowExecution struct {
	ID               string
	WorkflowID       int64
	TenantID         string
	TriggerContext   sql.NullString
	Status           string
	CurrentStepIndex int
	StepsTotal       int
	StepsExecuted    int
	ResumeAt         sql.NullTime
	Error            sql.NullString
	Started          time.Time
	Completed        sql.NullTime
	Modified         time.Time
}
