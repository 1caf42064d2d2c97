package api

import (
	"fmt"
	"sync/atomic"

	"github.com/xraph/forge"

	"github.com/xraph/conduct/stream"
)

var sseCounter atomic.Int64

// streamRuns serves live run events over Server-Sent Events. The optional
// topic query parameter narrows the subscription (for example run:<id> or
// workflow:<id>); it defaults to the runs topic.
func (a *API) streamRuns(ctx forge.Context, sseStream forge.Stream) error {
	broker := a.eng.Broker()
	if broker == nil {
		return fmt.Errorf("api: stream broker not configured")
	}

	topic := ctx.Query("topic")
	if topic == "" {
		topic = stream.TopicRuns
	}
	if err := stream.ValidateTopic(topic); err != nil {
		return forge.BadRequest(fmt.Sprintf("invalid topic: %v", err))
	}

	connID := fmt.Sprintf("sse-%d", sseCounter.Add(1))
	sub := broker.Subscribe(connID, topic)
	defer broker.RemoveSubscriber(connID)

	for {
		select {
		case evt, ok := <-sub.C():
			if !ok {
				return nil
			}
			if sendErr := sseStream.SendJSON(string(evt.Type), evt); sendErr != nil {
				return sendErr
			}
			if flushErr := sseStream.Flush(); flushErr != nil {
				return flushErr
			}
		case <-sseStream.Context().Done():
			return nil
		}
	}
}
