package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"homefix_orders/internal/domain/entities"

	"cloud.google.com/go/pubsub"
)

// PubSubSink forwards status changes to a Pub/Sub topic for downstream consumers.
type PubSubSink struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

func NewPubSubSink(topic *pubsub.Topic) (*PubSubSink, error) {
	if topic == nil {
		return nil, errors.New("pubsub sink: topic is required")
	}
	// Per-order ordering keys keep one order's events in commit order.
	topic.EnableMessageOrdering = true
	return &PubSubSink{topic: topic, marshal: json.Marshal}, nil
}

func (p *PubSubSink) Name() string { return "pubsub" }

func (p *PubSubSink) Deliver(ctx context.Context, ev entities.StatusChanged) error {
	data, err := p.marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal status change: %w", err)
	}

	attrs := map[string]string{
		"eventId":   ev.EventID,
		"orderId":   ev.OrderID,
		"newStatus": string(ev.NewStatus),
	}
	if ev.PreviousStatus != "" {
		attrs["previousStatus"] = string(ev.PreviousStatus)
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:        data,
		Attributes:  attrs,
		OrderingKey: ev.OrderID,
	})
	if _, err := result.Get(ctx); err != nil {
		p.topic.ResumePublish(ev.OrderID)
		return fmt.Errorf("publish status change: %w", err)
	}
	return nil
}
