package conduct

import "errors"

var (
	// Lifecycle errors.
	ErrNotBuilt = errors.New("conduct: engine not built")

	// Store errors.
	ErrNoStore         = errors.New("conduct: no store configured")
	ErrStoreClosed     = errors.New("conduct: store closed")
	ErrMigrationFailed = errors.New("conduct: migration failed")

	// Not found errors.
	ErrWorkflowNotFound = errors.New("conduct: workflow not found")
	ErrRunNotFound      = errors.New("conduct: run not found")
	ErrScheduleNotFound = errors.New("conduct: schedule not found")

	// Execution errors.
	ErrUnknownCapability = errors.New("conduct: unknown capability")

	// Conflict errors.
	ErrRunAlreadyExists = errors.New("conduct: run already exists")

	// Validation errors.
	ErrInvalidCronExpression = errors.New("conduct: invalid cron expression")

	// State errors.
	ErrInvalidState = errors.New("conduct: invalid state transition")
)
