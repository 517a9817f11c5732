package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Lead lifecycle event kinds.
const (
	EventCreated      = "LEAD_CREATED"
	EventStageChanged = "LEAD_STAGE_CHANGED"
	EventDeleted      = "LEAD_DELETED"
)

// LeadEventPayload is what goes over the wire for every lifecycle event.
// FromStage/ToStage are only meaningful for stage changes.
type LeadEventPayload struct {
	Kind      string `json:"kind"`
	LeadID    string `json:"lead_id"`
	Name      string `json:"name,omitempty"`
	FromStage int    `json:"from_stage,omitempty"`
	ToStage   int    `json:"to_stage,omitempty"`
}

type Producer struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewProducer(conn *amqp.Connection, ch *amqp.Channel) *Producer {
	return &Producer{
		Conn: conn,
		Ch:   ch,
	}
}

func (p *Producer) PublishLeadEvent(ctx context.Context, payload LeadEventPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // Mandatory
		false, // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to RabbitMQ: %w", err)
	}

	return nil
}
