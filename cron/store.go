package cron

import (
	"context"

	"github.com/xraph/conduct/id"
)

// Store defines the persistence contract for schedules.
type Store interface {
	// SaveSchedule persists a new schedule.
	SaveSchedule(ctx context.Context, sched *Schedule) error

	// GetSchedule retrieves a schedule by ID.
	// Returns conduct.ErrScheduleNotFound if it does not exist.
	GetSchedule(ctx context.Context, scheduleID id.ScheduleID) (*Schedule, error)

	// ListSchedules returns all schedules.
	ListSchedules(ctx context.Context) ([]*Schedule, error)

	// UpdateSchedule replaces a stored schedule (Enabled, LastRunAt,
	// NextRunAt). Returns conduct.ErrScheduleNotFound if it does not exist.
	UpdateSchedule(ctx context.Context, sched *Schedule) error

	// DeleteSchedule removes a schedule by ID. Deleting a missing
	// schedule is not an error.
	DeleteSchedule(ctx context.Context, scheduleID id.ScheduleID) error
}
