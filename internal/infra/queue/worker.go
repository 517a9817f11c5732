package queue

import (
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/traction-hub/internal/entity"
)

// AlertSender notifies the team about noteworthy pipeline movement.
type AlertSender interface {
	SendCommitmentAlert(leadName string, stage int, stageLabel string) error
}

// Worker drains the lead-event queue. Its one job today: when a lead crosses
// into the Commitment stage or beyond, fire an alert email.
type Worker struct {
	Channel *amqp.Channel
	Alerts  AlertSender
}

func NewWorker(ch *amqp.Channel, alerts AlertSender) *Worker {
	return &Worker{
		Channel: ch,
		Alerts:  alerts,
	}
}

func (w *Worker) Start(queueName string) {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack (manual is safer)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		log.Fatalf("❌ failed to register RabbitMQ consumer: %s", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var payload LeadEventPayload
			if err := json.Unmarshal(d.Body, &payload); err != nil {
				log.Printf("❌ [WORKER] invalid JSON: %s", err)
				// Malformed message. Reject without requeue so it doesn't
				// wedge the queue.
				d.Nack(false, false)
				continue
			}

			if err := w.processEvent(payload); err != nil {
				log.Printf("❌ [WORKER] failed to process %s for lead %s: %s", payload.Kind, payload.LeadID, err)
				d.Nack(false, false)
			} else {
				d.Ack(false)
			}
		}
	}()

	log.Printf(" [*] Worker running, waiting on queue '%s'", queueName)
	<-forever
}

func (w *Worker) processEvent(payload LeadEventPayload) error {
	switch payload.Kind {
	case EventStageChanged:
		crossedIn := payload.ToStage >= entity.CommitmentStage && payload.FromStage < entity.CommitmentStage
		if !crossedIn {
			return nil
		}

		label, err := entity.StageLabel(payload.ToStage)
		if err != nil {
			return err
		}

		log.Printf("🔔 [WORKER] %s reached %s, sending alert", payload.Name, label)
		return w.Alerts.SendCommitmentAlert(payload.Name, payload.ToStage, label)

	case EventCreated, EventDeleted:
		// Nothing to do yet; ack to keep the queue clean.
		return nil

	default:
		log.Printf("⚠️ [WORKER] unknown event kind: %s. Acking anyway.", payload.Kind)
		return nil
	}
}
