package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const (
	LifecycleTopic   = "framelink.session.lifecycle"
	TransactionTopic = "framelink.transaction.result"
)

// WatermillPublisher implements Publisher on top of a watermill publisher.
type WatermillPublisher struct {
	publisher message.Publisher
}

func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{publisher: publisher}
}

func (p *WatermillPublisher) PublishLifecycle(ctx context.Context, ev LifecycleEvent) error {
	return p.publish(LifecycleTopic, ev)
}

func (p *WatermillPublisher) PublishTransaction(ctx context.Context, ev TransactionEvent) error {
	return p.publish(TransactionTopic, ev)
}

func (p *WatermillPublisher) publish(topic string, ev any) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("events: marshal %s: %w", topic, err)
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("events: publish %s: %w", topic, err)
	}
	return nil
}
