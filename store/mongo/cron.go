package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/conduct"
	"github.com/xraph/conduct/cron"
	"github.com/xraph/conduct/id"
)

// SaveSchedule persists a new schedule.
func (s *Store) SaveSchedule(ctx context.Context, sched *cron.Schedule) error {
	m := toScheduleModel(sched)
	col := s.db.Collection(colSchedules)
	_, err := col.InsertOne(ctx, m)
	if err != nil {
		return fmt.Errorf("conduct/mongo: save schedule: %w", err)
	}
	return nil
}

// GetSchedule retrieves a schedule by ID.
func (s *Store) GetSchedule(ctx context.Context, scheduleID id.ScheduleID) (*cron.Schedule, error) {
	col := s.db.Collection(colSchedules)
	var m scheduleModel
	err := col.FindOne(ctx, bson.M{"_id": scheduleID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, conduct.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("conduct/mongo: get schedule: %w", err)
	}
	return fromScheduleModel(&m)
}

// ListSchedules returns all schedules.
func (s *Store) ListSchedules(ctx context.Context) ([]*cron.Schedule, error) {
	col := s.db.Collection(colSchedules)

	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := col.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("conduct/mongo: list schedules: %w", err)
	}
	defer cursor.Close(ctx)

	var models []scheduleModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("conduct/mongo: list schedules decode: %w", err)
	}

	schedules := make([]*cron.Schedule, 0, len(models))
	for i := range models {
		sched, convErr := fromScheduleModel(&models[i])
		if convErr != nil {
			return nil, fmt.Errorf("conduct/mongo: list schedules convert: %w", convErr)
		}
		schedules = append(schedules, sched)
	}
	return schedules, nil
}

// UpdateSchedule replaces a stored schedule.
func (s *Store) UpdateSchedule(ctx context.Context, sched *cron.Schedule) error {
	m := toScheduleModel(sched)
	m.UpdatedAt = now()

	col := s.db.Collection(colSchedules)
	res, err := col.ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("conduct/mongo: update schedule: %w", err)
	}
	if res.MatchedCount == 0 {
		return conduct.ErrScheduleNotFound
	}
	return nil
}

// DeleteSchedule removes a schedule by ID. Missing IDs are ignored.
func (s *Store) DeleteSchedule(ctx context.Context, scheduleID id.ScheduleID) error {
	col := s.db.Collection(colSchedules)
	_, err := col.DeleteOne(ctx, bson.M{"_id": scheduleID.String()})
	if err != nil {
		return fmt.Errorf("conduct/mongo: delete schedule: %w", err)
	}
	return nil
}
