package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"account-service/internal/model"
)

// EventPublisher sends auth events to a durable queue, one channel per
// publish.
type EventPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewEventPublisher(conn *amqp.Connection, queueName string) *EventPublisher {
	return &EventPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *EventPublisher) Publish(ctx context.Context, event model.AuthEvent) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := DeclareQueue(ch, p.queueName); err != nil {
		return err
	}

	msg, err := EncodeEvent(event)
	if err != nil {
		return err
	}

	if err := ch.PublishWithContext(ctx, "", p.queueName, false, false, msg); err != nil {
		return fmt.Errorf("publish auth event failed: %w", err)
	}
	return nil
}

// EncodeEvent builds the persistent JSON message for event.
func EncodeEvent(event model.AuthEvent) (amqp.Publishing, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal auth event failed: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		Type:         string(event.Kind),
		Timestamp:    event.OccurredAt,
		Body:         payload,
		DeliveryMode: amqp.Persistent,
	}, nil
}

// DecodeEvent is the inverse of EncodeEvent.
func DecodeEvent(body []byte) (model.AuthEvent, error) {
	var event model.AuthEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return model.AuthEvent{}, fmt.Errorf("unmarshal auth event failed: %w", err)
	}
	if event.UserID == 0 || event.Kind == "" {
		return model.AuthEvent{}, fmt.Errorf("auth event is incomplete: %+v", event)
	}
	return event, nil
}
