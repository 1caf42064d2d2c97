package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/conduct"
	"github.com/xraph/conduct/id"
	"github.com/xraph/conduct/workflow"
)

// UpsertWorkflow creates or replaces a workflow by ID.
func (s *Store) UpsertWorkflow(ctx context.Context, wf *workflow.Workflow) error {
	m := toWorkflowModel(wf)
	m.UpdatedAt = now()

	col := s.db.Collection(colWorkflows)
	opts := options.Replace().SetUpsert(true)
	_, err := col.ReplaceOne(ctx, bson.M{"_id": m.ID}, m, opts)
	if err != nil {
		return fmt.Errorf("conduct/mongo: upsert workflow: %w", err)
	}
	return nil
}

// GetWorkflow retrieves a workflow by ID.
func (s *Store) GetWorkflow(ctx context.Context, workflowID id.WorkflowID) (*workflow.Workflow, error) {
	col := s.db.Collection(colWorkflows)
	var m workflowModel
	err := col.FindOne(ctx, bson.M{"_id": workflowID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, conduct.ErrWorkflowNotFound
		}
		return nil, fmt.Errorf("conduct/mongo: get workflow: %w", err)
	}
	return fromWorkflowModel(&m)
}

// ListWorkflows returns summaries of all workflows.
func (s *Store) ListWorkflows(ctx context.Context) ([]workflow.Summary, error) {
	col := s.db.Collection(colWorkflows)

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetProjection(bson.M{"nodes": 0})
	cursor, err := col.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("conduct/mongo: list workflows: %w", err)
	}
	defer cursor.Close(ctx)

	var models []workflowModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("conduct/mongo: list workflows decode: %w", err)
	}

	summaries := make([]workflow.Summary, 0, len(models))
	for i := range models {
		wf, convErr := fromWorkflowModel(&models[i])
		if convErr != nil {
			return nil, fmt.Errorf("conduct/mongo: list workflows convert: %w", convErr)
		}
		summaries = append(summaries, wf.Summary())
	}
	return summaries, nil
}

// DeleteWorkflow removes a workflow by ID. Missing IDs are ignored.
func (s *Store) DeleteWorkflow(ctx context.Context, workflowID id.WorkflowID) error {
	col := s.db.Collection(colWorkflows)
	_, err := col.DeleteOne(ctx, bson.M{"_id": workflowID.String()})
	if err != nil {
		return fmt.Errorf("conduct/mongo: delete workflow: %w", err)
	}
	return nil
}

// CreateRun persists a new run record.
func (s *Store) CreateRun(ctx context.Context, run *workflow.Run) error {
	m := toRunModel(run)
	col := s.db.Collection(colRuns)
	_, err := col.InsertOne(ctx, m)
	if err != nil {
		if isDuplicateKey(err) {
			return conduct.ErrRunAlreadyExists
		}
		return fmt.Errorf("conduct/mongo: create run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID, including its log.
func (s *Store) GetRun(ctx context.Context, runID id.RunID) (*workflow.Run, error) {
	col := s.db.Collection(colRuns)
	var m runModel
	err := col.FindOne(ctx, bson.M{"_id": runID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, conduct.ErrRunNotFound
		}
		return nil, fmt.Errorf("conduct/mongo: get run: %w", err)
	}
	return fromRunModel(&m)
}

// ListRuns returns runs matching the given options, ordered by start
// time ascending.
func (s *Store) ListRuns(ctx context.Context, opts workflow.ListRunOpts) ([]*workflow.Run, error) {
	col := s.db.Collection(colRuns)
	filter := bson.M{}

	if opts.State != "" {
		filter["state"] = string(opts.State)
	}
	if !opts.WorkflowID.IsNil() {
		filter["workflow_id"] = opts.WorkflowID.String()
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "started_at", Value: 1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts.SetSkip(int64(opts.Offset))
	}

	cursor, err := col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("conduct/mongo: list runs: %w", err)
	}
	defer cursor.Close(ctx)

	var models []runModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("conduct/mongo: list runs decode: %w", err)
	}

	runs := make([]*workflow.Run, 0, len(models))
	for i := range models {
		r, convErr := fromRunModel(&models[i])
		if convErr != nil {
			return nil, fmt.Errorf("conduct/mongo: list runs convert: %w", convErr)
		}
		runs = append(runs, r)
	}
	return runs, nil
}

// AppendRunLog appends one log entry to a run with $push, so concurrent
// appends never clobber each other.
func (s *Store) AppendRunLog(ctx context.Context, runID id.RunID, entry workflow.LogEntry) error {
	col := s.db.Collection(colRuns)
	update := bson.M{
		"$push": bson.M{"logs": logEntryModel{
			Timestamp: entry.Timestamp,
			Level:     string(entry.Level),
			Message:   entry.Message,
		}},
		"$set": bson.M{"updated_at": now()},
	}
	res, err := col.UpdateOne(ctx, bson.M{"_id": runID.String()}, update)
	if err != nil {
		return fmt.Errorf("conduct/mongo: append run log: %w", err)
	}
	if res.MatchedCount == 0 {
		return conduct.ErrRunNotFound
	}
	return nil
}

// SetRunState sets the run's state and finish timestamp.
func (s *Store) SetRunState(ctx context.Context, runID id.RunID, state workflow.RunState, finishedAt time.Time) error {
	col := s.db.Collection(colRuns)
	update := bson.M{
		"$set": bson.M{
			"state":       string(state),
			"finished_at": finishedAt,
			"updated_at":  now(),
		},
	}
	res, err := col.UpdateOne(ctx, bson.M{"_id": runID.String()}, update)
	if err != nil {
		return fmt.Errorf("conduct/mongo: set run state: %w", err)
	}
	if res.MatchedCount == 0 {
		return conduct.ErrRunNotFound
	}
	return nil
}
