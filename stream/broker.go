package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xraph/conduct/cron"
	"github.com/xraph/conduct/ext"
	"github.com/xraph/conduct/id"
	"github.com/xraph/conduct/workflow"
)

// Compile-time interface checks.
var (
	_ ext.Extension     = (*Broker)(nil)
	_ ext.RunStarted    = (*Broker)(nil)
	_ ext.NodeCompleted = (*Broker)(nil)
	_ ext.NodeFailed    = (*Broker)(nil)
	_ ext.RunCompleted  = (*Broker)(nil)
	_ ext.RunFailed     = (*Broker)(nil)
	_ ext.ScheduleFired = (*Broker)(nil)
	_ ext.Shutdown      = (*Broker)(nil)
)

// DefaultBufferSize is the default per-subscriber event buffer.
const DefaultBufferSize = 256

// DefaultCredits is the default initial credits for new subscribers.
const DefaultCredits int64 = 1000

// Broker is the real-time stream broker. It implements the ext.Extension
// interface to receive lifecycle events and fans them out to subscribers
// via topic-based pub/sub.
type Broker struct {
	topics *TopicRegistry
	logger *slog.Logger

	// Subscriber management.
	subscribers sync.Map // subscriberID → *Subscriber

	// Metrics.
	totalPublished atomic.Int64

	// Config.
	bufferSize     int
	defaultCredits int64
}

// BrokerOption configures a Broker.
type BrokerOption func(*Broker)

// WithBufferSize sets the per-subscriber event buffer size.
func WithBufferSize(size int) BrokerOption {
	return func(b *Broker) { b.bufferSize = size }
}

// WithDefaultCredits sets the initial credits for new subscribers.
func WithDefaultCredits(credits int64) BrokerOption {
	return func(b *Broker) { b.defaultCredits = credits }
}

// NewBroker creates a new stream broker.
func NewBroker(logger *slog.Logger, opts ...BrokerOption) *Broker {
	b := &Broker{
		topics:         NewTopicRegistry(),
		logger:         logger,
		bufferSize:     DefaultBufferSize,
		defaultCredits: DefaultCredits,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name implements ext.Extension.
func (b *Broker) Name() string { return "stream-broker" }

// Topics returns the topic registry for external use.
func (b *Broker) Topics() *TopicRegistry { return b.topics }

// Subscribe creates a new subscriber on the given topics.
func (b *Broker) Subscribe(subscriberID string, topics ...string) *Subscriber {
	sub := NewSubscriber(subscriberID, b.bufferSize, b.defaultCredits)
	b.subscribers.Store(subscriberID, sub)
	for _, topic := range topics {
		b.topics.Subscribe(topic, sub)
	}
	return sub
}

// SubscribeTo adds an existing subscriber to additional topics.
func (b *Broker) SubscribeTo(subscriberID string, topics ...string) {
	val, ok := b.subscribers.Load(subscriberID)
	if !ok {
		return
	}
	sub := val.(*Subscriber) //nolint:errcheck // sync.Map always stores *Subscriber
	for _, topic := range topics {
		b.topics.Subscribe(topic, sub)
	}
}

// Unsubscribe removes a subscriber from specific topics.
func (b *Broker) Unsubscribe(subscriberID string, topics ...string) {
	for _, topic := range topics {
		b.topics.Unsubscribe(topic, subscriberID)
	}
}

// RemoveSubscriber removes a subscriber from all topics and closes it.
func (b *Broker) RemoveSubscriber(subscriberID string) {
	b.topics.UnsubscribeAll(subscriberID)
	if val, ok := b.subscribers.LoadAndDelete(subscriberID); ok {
		val.(*Subscriber).Close() //nolint:errcheck // sync.Map always stores *Subscriber
	}
}

// GetSubscriber returns a subscriber by ID.
func (b *Broker) GetSubscriber(subscriberID string) (*Subscriber, bool) {
	val, ok := b.subscribers.Load(subscriberID)
	if !ok {
		return nil, false
	}
	return val.(*Subscriber), true //nolint:errcheck // sync.Map always stores *Subscriber
}

// Stats returns broker statistics.
func (b *Broker) Stats() BrokerStats {
	count := 0
	var dropped int64
	b.subscribers.Range(func(_, val any) bool {
		count++
		dropped += val.(*Subscriber).Dropped() //nolint:errcheck // sync.Map always stores *Subscriber
		return true
	})
	return BrokerStats{
		TopicCount:      b.topics.TopicCount(),
		SubscriberCount: count,
		TotalPublished:  b.totalPublished.Load(),
		TotalDropped:    dropped,
	}
}

// BrokerStats contains broker metrics.
type BrokerStats struct {
	TopicCount      int   `json:"topic_count"`
	SubscriberCount int   `json:"subscriber_count"`
	TotalPublished  int64 `json:"total_published"`
	TotalDropped    int64 `json:"total_dropped"`
}

// publish creates an event and broadcasts it to all matching topics.
func (b *Broker) publish(evt *Event) {
	topics := resolveTopics(evt)
	delivered := b.topics.Broadcast(topics, evt)
	b.totalPublished.Add(int64(delivered))
}

// mustMarshal marshals data to JSON, panicking on error (programming error).
func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic("stream: marshal event data: " + err.Error())
	}
	return data
}

// ── Run lifecycle hooks ─────────────────────────────

func (b *Broker) OnRunStarted(_ context.Context, run *workflow.Run) error {
	b.publish(&Event{
		Type:      EventRunStarted,
		Timestamp: time.Now().UTC(),
		Topic:     RunTopic(run.ID.String()),
		Data: mustMarshal(RunEventData{
			RunID:      run.ID.String(),
			WorkflowID: run.WorkflowID.String(),
			State:      string(workflow.RunStateRunning),
		}),
	})
	return nil
}

func (b *Broker) OnNodeCompleted(_ context.Context, run *workflow.Run, index int, node workflow.Node) error {
	b.publish(&Event{
		Type:      EventNodeCompleted,
		Timestamp: time.Now().UTC(),
		Topic:     RunTopic(run.ID.String()),
		Data: mustMarshal(RunEventData{
			RunID:      run.ID.String(),
			WorkflowID: run.WorkflowID.String(),
			State:      string(workflow.RunStateRunning),
			Capability: node.Capability,
			NodeIndex:  index,
			Message:    node.Capability + " ok",
		}),
	})
	return nil
}

func (b *Broker) OnNodeFailed(_ context.Context, run *workflow.Run, index int, node workflow.Node, nodeErr error) error {
	b.publish(&Event{
		Type:      EventNodeFailed,
		Timestamp: time.Now().UTC(),
		Topic:     RunTopic(run.ID.String()),
		Data: mustMarshal(RunEventData{
			RunID:      run.ID.String(),
			WorkflowID: run.WorkflowID.String(),
			State:      string(workflow.RunStateFailed),
			Capability: node.Capability,
			NodeIndex:  index,
			Message:    nodeErr.Error(),
			Error:      nodeErr.Error(),
		}),
	})
	return nil
}

func (b *Broker) OnRunCompleted(_ context.Context, run *workflow.Run, elapsed time.Duration) error {
	b.publish(&Event{
		Type:      EventRunCompleted,
		Timestamp: time.Now().UTC(),
		Topic:     RunTopic(run.ID.String()),
		Data: mustMarshal(RunEventData{
			RunID:      run.ID.String(),
			WorkflowID: run.WorkflowID.String(),
			State:      string(workflow.RunStateCompleted),
			Message:    "completed",
			ElapsedMs:  elapsed.Milliseconds(),
		}),
	})
	return nil
}

func (b *Broker) OnRunFailed(_ context.Context, run *workflow.Run, runErr error) error {
	b.publish(&Event{
		Type:      EventRunFailed,
		Timestamp: time.Now().UTC(),
		Topic:     RunTopic(run.ID.String()),
		Data: mustMarshal(RunEventData{
			RunID:      run.ID.String(),
			WorkflowID: run.WorkflowID.String(),
			State:      string(workflow.RunStateFailed),
			Error:      runErr.Error(),
		}),
	})
	return nil
}

// ── Other lifecycle hooks ───────────────────────────

func (b *Broker) OnScheduleFired(_ context.Context, sched *cron.Schedule, runID id.RunID) error {
	b.publish(&Event{
		Type:      EventScheduleFired,
		Timestamp: time.Now().UTC(),
		Topic:     WorkflowTopic(sched.WorkflowID.String()),
		Data: mustMarshal(ScheduleEventData{
			ScheduleID: sched.ID.String(),
			WorkflowID: sched.WorkflowID.String(),
			Expr:       sched.Expr,
			RunID:      runID.String(),
		}),
	})
	return nil
}

// OnShutdown closes all subscribers.
func (b *Broker) OnShutdown(_ context.Context) error {
	b.subscribers.Range(func(key, val any) bool {
		b.topics.UnsubscribeAll(key.(string)) //nolint:errcheck // keys are strings
		val.(*Subscriber).Close()             //nolint:errcheck // sync.Map always stores *Subscriber
		b.subscribers.Delete(key)
		return true
	})
	b.logger.Debug("stream broker shut down")
	return nil
}
