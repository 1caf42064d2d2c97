// Package cron provides recurring workflow scheduling.
//
// Schedules are stored in the database, so they survive restarts. The
// [Scheduler] evaluates due schedules on every tick, starts the target
// workflow, and advances LastRunAt and NextRunAt.
//
// # Schedule
//
// A [Schedule] binds a workflow to a cron expression:
//   - Expr: five-field cron expression (e.g., "0 9 * * 1")
//   - WorkflowID: the workflow to start when the schedule fires
//   - Enabled: whether the schedule fires
//
// # Expressions
//
// Expressions use the five standard fields (minute, hour, day of month,
// month, day of week). Each field is either "*" or a single integer in
// range; ranges, lists, and step values are rejected by [ValidateExpr].
//
// # Enable / Disable
//
// Schedules can be enabled or disabled at runtime via the admin API
// (POST /v1/schedules/:scheduleId/enable and
// POST /v1/schedules/:scheduleId/disable).
package cron
