package mongo

import (
	"fmt"
	"time"

	"github.com/xraph/conduct"
	"github.com/xraph/conduct/cron"
	"github.com/xraph/conduct/id"
	"github.com/xraph/conduct/workflow"
)

// ── Workflow model ────────────────────────────────────────────────

type nodeModel struct {
	Capability string            `bson:"capability"`
	Fields     map[string]string `bson:"fields,omitempty"`
}

type workflowModel struct {
	ID        string      `bson:"_id"`
	Name      string      `bson:"name"`
	Nodes     []nodeModel `bson:"nodes"`
	CreatedAt time.Time   `bson:"created_at"`
	UpdatedAt time.Time   `bson:"updated_at"`
}

func toWorkflowModel(wf *workflow.Workflow) *workflowModel {
	nodes := make([]nodeModel, len(wf.Nodes))
	for i, n := range wf.Nodes {
		nodes[i] = nodeModel{Capability: n.Capability, Fields: n.Fields}
	}
	return &workflowModel{
		ID:        wf.ID.String(),
		Name:      wf.Name,
		Nodes:     nodes,
		CreatedAt: wf.CreatedAt,
		UpdatedAt: wf.UpdatedAt,
	}
}

func fromWorkflowModel(m *workflowModel) (*workflow.Workflow, error) {
	parsedID, err := id.ParseWorkflowID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("conduct/mongo: parse workflow id %q: %w", m.ID, err)
	}

	nodes := make([]workflow.Node, len(m.Nodes))
	for i, n := range m.Nodes {
		nodes[i] = workflow.Node{Capability: n.Capability, Fields: n.Fields}
	}

	return &workflow.Workflow{
		Entity: conduct.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:    parsedID,
		Name:  m.Name,
		Nodes: nodes,
	}, nil
}

// ── Run model ─────────────────────────────────────────────────────

type logEntryModel struct {
	Timestamp time.Time `bson:"ts"`
	Level     string    `bson:"level"`
	Message   string    `bson:"msg"`
}

type runModel struct {
	ID         string          `bson:"_id"`
	WorkflowID string          `bson:"workflow_id"`
	State      string          `bson:"state"`
	StartedAt  time.Time       `bson:"started_at"`
	FinishedAt *time.Time      `bson:"finished_at,omitempty"`
	Logs       []logEntryModel `bson:"logs"`
	CreatedAt  time.Time       `bson:"created_at"`
	UpdatedAt  time.Time       `bson:"updated_at"`
}

func toRunModel(run *workflow.Run) *runModel {
	logs := make([]logEntryModel, len(run.Logs))
	for i, e := range run.Logs {
		logs[i] = logEntryModel{Timestamp: e.Timestamp, Level: string(e.Level), Message: e.Message}
	}
	return &runModel{
		ID:         run.ID.String(),
		WorkflowID: run.WorkflowID.String(),
		State:      string(run.State),
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Logs:       logs,
		CreatedAt:  run.CreatedAt,
		UpdatedAt:  run.UpdatedAt,
	}
}

func fromRunModel(m *runModel) (*workflow.Run, error) {
	runID, err := id.ParseRunID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("conduct/mongo: parse run id %q: %w", m.ID, err)
	}
	wfID, err := id.ParseWorkflowID(m.WorkflowID)
	if err != nil {
		return nil, fmt.Errorf("conduct/mongo: parse workflow id %q: %w", m.WorkflowID, err)
	}

	logs := make([]workflow.LogEntry, len(m.Logs))
	for i, e := range m.Logs {
		logs[i] = workflow.LogEntry{
			Timestamp: e.Timestamp,
			Level:     workflow.LogLevel(e.Level),
			Message:   e.Message,
		}
	}

	return &workflow.Run{
		Entity: conduct.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:         runID,
		WorkflowID: wfID,
		State:      workflow.RunState(m.State),
		StartedAt:  m.StartedAt,
		FinishedAt: m.FinishedAt,
		Logs:       logs,
	}, nil
}

// ── Schedule model ────────────────────────────────────────────────

type scheduleModel struct {
	ID         string     `bson:"_id"`
	WorkflowID string     `bson:"workflow_id"`
	Expr       string     `bson:"expr"`
	LastRunAt  *time.Time `bson:"last_run_at,omitempty"`
	NextRunAt  *time.Time `bson:"next_run_at,omitempty"`
	Enabled    bool       `bson:"enabled"`
	CreatedAt  time.Time  `bson:"created_at"`
	UpdatedAt  time.Time  `bson:"updated_at"`
}

func toScheduleModel(sched *cron.Schedule) *scheduleModel {
	return &scheduleModel{
		ID:         sched.ID.String(),
		WorkflowID: sched.WorkflowID.String(),
		Expr:       sched.Expr,
		LastRunAt:  sched.LastRunAt,
		NextRunAt:  sched.NextRunAt,
		Enabled:    sched.Enabled,
		CreatedAt:  sched.CreatedAt,
		UpdatedAt:  sched.UpdatedAt,
	}
}

func fromScheduleModel(m *scheduleModel) (*cron.Schedule, error) {
	schedID, err := id.ParseScheduleID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("conduct/mongo: parse schedule id %q: %w", m.ID, err)
	}
	wfID, err := id.ParseWorkflowID(m.WorkflowID)
	if err != nil {
		return nil, fmt.Errorf("conduct/mongo: parse workflow id %q: %w", m.WorkflowID, err)
	}

	return &cron.Schedule{
		Entity: conduct.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:         schedID,
		WorkflowID: wfID,
		Expr:       m.Expr,
		LastRunAt:  m.LastRunAt,
		NextRunAt:  m.NextRunAt,
		Enabled:    m.Enabled,
	}, nil
}
