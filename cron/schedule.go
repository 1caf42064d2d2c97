package cron

import (
	"time"

	"github.com/xraph/conduct"
	"github.com/xraph/conduct/id"
)

// Schedule binds a workflow to a recurring cron expression.
type Schedule struct {
	conduct.Entity

	ID         id.ScheduleID `json:"id"`
	WorkflowID id.WorkflowID `json:"workflow_id"`
	Expr       string        `json:"expr"`
	LastRunAt  *time.Time    `json:"last_run_at,omitempty"`
	NextRunAt  *time.Time    `json:"next_run_at,omitempty"`
	Enabled    bool          `json:"enabled"`
}
