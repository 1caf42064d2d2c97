package stream

import (
	"fmt"
	"strings"
	"sync"
)

// Topic names follow a pattern:
//
//	run:<runID>         — events for a specific run
//	workflow:<wfID>     — events for every run of a workflow
//	runs                — all run lifecycle events
//	schedules           — all schedule lifecycle events
//	firehose            — everything

const (
	TopicRuns      = "runs"
	TopicSchedules = "schedules"
	TopicFirehose  = "firehose"
)

// RunTopic returns the topic name for a specific run.
func RunTopic(runID string) string { return "run:" + runID }

// WorkflowTopic returns the topic name for all runs of a workflow.
func WorkflowTopic(workflowID string) string { return "workflow:" + workflowID }

// TopicRegistry manages subscriber sets per topic.
// It is safe for concurrent use.
type TopicRegistry struct {
	mu     sync.RWMutex
	topics map[string]map[string]*Subscriber // topic → subscriberID → subscriber
}

// NewTopicRegistry creates an empty topic registry.
func NewTopicRegistry() *TopicRegistry {
	return &TopicRegistry{
		topics: make(map[string]map[string]*Subscriber),
	}
}

// Subscribe adds a subscriber to a topic, creating the topic on first use.
func (r *TopicRegistry) Subscribe(topic string, sub *Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := r.topics[topic]
	if subs == nil {
		subs = make(map[string]*Subscriber)
		r.topics[topic] = subs
	}
	subs[sub.ID()] = sub
	sub.addTopic(topic)
}

// Unsubscribe removes a subscriber from a topic. A topic with no
// subscribers left is dropped from the registry.
func (r *TopicRegistry) Unsubscribe(topic, subscriberID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detach(topic, subscriberID)
}

// UnsubscribeAll removes a subscriber from every topic it is on.
func (r *TopicRegistry) UnsubscribeAll(subscriberID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for topic := range r.topics {
		r.detach(topic, subscriberID)
	}
}

// detach removes one subscriber from one topic. Caller holds the write lock.
func (r *TopicRegistry) detach(topic, subscriberID string) {
	subs, ok := r.topics[topic]
	if !ok {
		return
	}
	if sub, exists := subs[subscriberID]; exists {
		sub.removeTopic(topic)
		delete(subs, subscriberID)
	}
	if len(subs) == 0 {
		delete(r.topics, topic)
	}
}

// Publish sends an event to all subscribers on one topic and returns how
// many of them accepted it.
func (r *TopicRegistry) Publish(topic string, evt *Event) int {
	return r.Broadcast([]string{topic}, evt)
}

// Broadcast sends an event to the union of subscribers across the listed
// topics; a subscriber on several of them receives the event once. The
// snapshot is taken under the read lock, the sends happen outside it.
func (r *TopicRegistry) Broadcast(topics []string, evt *Event) int {
	r.mu.RLock()
	targets := make(map[string]*Subscriber)
	for _, topic := range topics {
		for id, sub := range r.topics[topic] {
			targets[id] = sub
		}
	}
	r.mu.RUnlock()

	delivered := 0
	for _, sub := range targets {
		if sub.send(evt) {
			delivered++
		}
	}
	return delivered
}

// TopicCount returns the number of active topics.
func (r *TopicRegistry) TopicCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.topics)
}

// SubscriberCount returns the number of subscribers on a topic.
func (r *TopicRegistry) SubscriberCount(topic string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.topics[topic])
}

// resolveTopics returns all topics an event should be published to
// based on its type and topic field.
func resolveTopics(evt *Event) []string {
	topics := []string{TopicFirehose}

	evtType := string(evt.Type)
	if strings.HasPrefix(evtType, "run.") {
		topics = append(topics, TopicRuns)
	} else if strings.HasPrefix(evtType, "schedule.") {
		topics = append(topics, TopicSchedules)
	}

	// Add entity-specific topic from the event's own topic field.
	if evt.Topic != "" {
		topics = append(topics, evt.Topic)
	}

	return topics
}

// ParseTopicEntity extracts the entity type and ID from a topic string.
// For example, "run:wf_abc123-20250101T000000.000000000Z" returns
// ("run", "wf_abc123-20250101T000000.000000000Z").
// Returns ("", "") for global topics like "runs" or "firehose".
func ParseTopicEntity(topic string) (entityType, entityID string) {
	idx := strings.IndexByte(topic, ':')
	if idx < 0 {
		return "", ""
	}
	return topic[:idx], topic[idx+1:]
}

// ValidateTopic checks whether a topic string is valid.
func ValidateTopic(topic string) error {
	switch topic {
	case TopicRuns, TopicSchedules, TopicFirehose:
		return nil
	}

	entityType, entityID := ParseTopicEntity(topic)
	if entityType == "" || entityID == "" {
		return fmt.Errorf("stream: invalid topic %q", topic)
	}

	switch entityType {
	case "run", "workflow":
		return nil
	default:
		return fmt.Errorf("stream: unknown topic entity type %q", entityType)
	}
}
