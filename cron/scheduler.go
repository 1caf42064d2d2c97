package cron

import (
	"context"
	"log/slog"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/xraph/conduct"
	"github.com/xraph/conduct/id"
)

// StartFunc is the callback the scheduler uses to start workflow runs.
// This breaks the import cycle: the engine provides the implementation.
type StartFunc func(ctx context.Context, workflowID id.WorkflowID, params map[string]string) (id.RunID, error)

// Emitter emits schedule lifecycle events.
// ext.Registry satisfies this interface via EmitScheduleFired.
type Emitter interface {
	EmitScheduleFired(ctx context.Context, sched *Schedule, runID id.RunID)
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithTickInterval sets how often the scheduler checks for due schedules.
func WithTickInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.tickInterval = d }
}

// Scheduler fires due schedules on a tick loop. Due-ness is driven by
// the persisted NextRunAt, so schedules recover across restarts: a
// schedule whose NextRunAt passed while the process was down fires on
// the first tick after startup.
type Scheduler struct {
	store   Store
	start   StartFunc
	emitter Emitter
	logger  *slog.Logger

	tickInterval time.Duration

	// parsed caches parsed cron expressions by their text.
	parsedMu sync.RWMutex
	parsed   map[string]cronlib.Schedule

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewScheduler creates a Scheduler.
func NewScheduler(store Store, start StartFunc, emitter Emitter, logger *slog.Logger, opts ...SchedulerOption) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		store:        store,
		start:        start,
		emitter:      emitter,
		logger:       logger,
		tickInterval: 1 * time.Second,
		parsed:       make(map[string]cronlib.Schedule),
		stopCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates expr, stamps the schedule's NextRunAt, and
// persists it. The schedule is created enabled.
func (s *Scheduler) Register(ctx context.Context, workflowID id.WorkflowID, expr string) (*Schedule, error) {
	sched, err := s.getOrParse(expr)
	if err != nil {
		return nil, err
	}

	next := sched.Next(time.Now().UTC())
	entry := &Schedule{
		Entity:     conduct.NewEntity(),
		ID:         id.NewScheduleID(),
		WorkflowID: workflowID,
		Expr:       expr,
		NextRunAt:  &next,
		Enabled:    true,
	}
	if err := s.store.SaveSchedule(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("schedule registered",
		slog.String("schedule_id", entry.ID.String()),
		slog.String("workflow_id", workflowID.String()),
		slog.String("expr", expr),
		slog.Time("next_run_at", next),
	)
	return entry, nil
}

// Start launches the tick goroutine.
func (s *Scheduler) Start(_ context.Context) error {
	s.wg.Add(1)
	go s.tickLoop()
	s.logger.Info("scheduler started", slog.Duration("tick_interval", s.tickInterval))
	return nil
}

// Stop signals the scheduler to stop and waits for the tick goroutine.
func (s *Scheduler) Stop(_ context.Context) error {
	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) tickLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// Tick evaluates all schedules once and fires those that are due.
// Exposed for tests; the tick loop calls it on every interval.
func (s *Scheduler) Tick(ctx context.Context) {
	entries, err := s.store.ListSchedules(ctx)
	if err != nil {
		s.logger.Error("list schedules error", slog.String("error", err.Error()))
		return
	}

	now := time.Now().UTC()
	for _, entry := range entries {
		if !entry.Enabled {
			continue
		}
		if entry.NextRunAt == nil || entry.NextRunAt.After(now) {
			continue
		}
		s.fire(ctx, entry, now)
	}
}

func (s *Scheduler) tick() {
	s.Tick(context.Background())
}

func (s *Scheduler) fire(ctx context.Context, entry *Schedule, now time.Time) {
	runID, startErr := s.start(ctx, entry.WorkflowID, nil)
	if startErr != nil {
		s.logger.Error("schedule fire error",
			slog.String("schedule_id", entry.ID.String()),
			slog.String("workflow_id", entry.WorkflowID.String()),
			slog.String("error", startErr.Error()),
		)
	}

	// Advance the schedule even when the start failed, so a broken
	// workflow does not refire on every tick.
	entry.LastRunAt = &now
	sched, parseErr := s.getOrParse(entry.Expr)
	if parseErr != nil {
		s.logger.Error("parse schedule error",
			slog.String("schedule_id", entry.ID.String()),
			slog.String("expr", entry.Expr),
			slog.String("error", parseErr.Error()),
		)
	} else {
		next := sched.Next(now)
		entry.NextRunAt = &next
	}
	entry.UpdatedAt = now
	if err := s.store.UpdateSchedule(ctx, entry); err != nil {
		s.logger.Error("update schedule error",
			slog.String("schedule_id", entry.ID.String()),
			slog.String("error", err.Error()),
		)
	}

	if startErr != nil {
		return
	}

	if s.emitter != nil {
		s.emitter.EmitScheduleFired(ctx, entry, runID)
	}

	s.logger.Info("schedule fired",
		slog.String("schedule_id", entry.ID.String()),
		slog.String("workflow_id", entry.WorkflowID.String()),
		slog.String("run_id", runID.String()),
	)
}

// getOrParse caches parsed cron expressions.
func (s *Scheduler) getOrParse(expr string) (cronlib.Schedule, error) {
	s.parsedMu.RLock()
	sched, ok := s.parsed[expr]
	s.parsedMu.RUnlock()
	if ok {
		return sched, nil
	}

	sched, err := ParseExpr(expr)
	if err != nil {
		return nil, err
	}

	s.parsedMu.Lock()
	s.parsed[expr] = sched
	s.parsedMu.Unlock()
	return sched, nil
}
