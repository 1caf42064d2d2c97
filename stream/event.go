// Package stream provides a real-time event broker for Conduct lifecycle
// events. It bridges the ext.Extension system to connected clients via
// topic-based pub/sub.
package stream

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of lifecycle event.
type EventType string

const (
	// Run events.
	EventRunStarted    EventType = "run.started"
	EventNodeCompleted EventType = "run.node_completed"
	EventNodeFailed    EventType = "run.node_failed"
	EventRunCompleted  EventType = "run.completed"
	EventRunFailed     EventType = "run.failed"

	// Schedule events.
	EventScheduleFired EventType = "schedule.fired"
)

// Event is the envelope sent to subscribers on a topic channel.
type Event struct {
	// Type identifies the lifecycle event.
	Type EventType `json:"type"`

	// Timestamp is when the event was emitted.
	Timestamp time.Time `json:"ts"`

	// Topic is the channel this event was published on.
	Topic string `json:"topic"`

	// Data is the event-specific payload.
	Data json.RawMessage `json:"data"`
}

// RunEventData is the payload for run lifecycle events.
// Message mirrors the entry appended to the run log for the same
// transition, so live subscribers and later log readers see the
// identical text.
type RunEventData struct {
	RunID      string `json:"run_id"`
	WorkflowID string `json:"workflow_id"`
	State      string `json:"state"`
	Capability string `json:"capability,omitempty"`
	NodeIndex  int    `json:"node_index,omitempty"`
	Message    string `json:"message,omitempty"`
	ElapsedMs  int64  `json:"elapsed_ms,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ScheduleEventData is the payload for schedule lifecycle events.
type ScheduleEventData struct {
	ScheduleID string `json:"schedule_id"`
	WorkflowID string `json:"workflow_id"`
	Expr       string `json:"expr"`
	RunID      string `json:"run_id"`
}
