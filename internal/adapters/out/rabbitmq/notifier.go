// Package rabbitmq publishes job lifecycle events to a topic exchange.
//
// Routing keys:
//
//	job.status.<status>  one message per applied transition
//	job.offer.<kind>     one message per new job with the offered driver ids
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/ports"

	amqp "github.com/rabbitmq/amqp091-go"
)

const DefaultExchange = "fulfillment.events"

// Channel is the subset of *amqp.Channel the notifier needs.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

var _ ports.Notifier = (*Notifier)(nil)

type Notifier struct {
	ch       Channel
	exchange string
}

// NewNotifier declares the durable topic exchange and returns a notifier
// publishing to it.
func NewNotifier(ch Channel, exchange string) (*Notifier, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Notifier{ch: ch, exchange: exchange}, nil
}

type statusMessage struct {
	JobID      string    `json:"job_id"`
	Kind       string    `json:"kind"`
	CustomerID string    `json:"customer_id"`
	DriverID   string    `json:"driver_id,omitempty"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Event      string    `json:"event"`
	At         time.Time `json:"at"`
}

type offerMessage struct {
	JobID     string    `json:"job_id"`
	Kind      string    `json:"kind"`
	PickupLat float64   `json:"pickup_lat"`
	PickupLng float64   `json:"pickup_lng"`
	Fee       float64   `json:"fee"`
	DriverIDs []string  `json:"driver_ids"`
	At        time.Time `json:"at"`
}

func (n *Notifier) JobStatusChanged(ctx context.Context, changed job.StatusChanged) error {
	msg := statusMessage{
		JobID:      changed.JobID.String(),
		Kind:       changed.Kind.String(),
		CustomerID: changed.CustomerID.String(),
		From:       changed.From.String(),
		To:         changed.To.String(),
		Event:      changed.Event.String(),
		At:         changed.At,
	}
	if changed.DriverID != nil {
		msg.DriverID = changed.DriverID.String()
	}
	return n.publish(ctx, "job.status."+msg.To, msg.JobID, msg.At, msg)
}

func (n *Notifier) JobOffered(ctx context.Context, offer ports.Offer) error {
	msg := offerMessage{
		JobID:     offer.JobID.String(),
		Kind:      offer.Kind.String(),
		PickupLat: offer.Pickup.Lat(),
		PickupLng: offer.Pickup.Lng(),
		Fee:       offer.Fee,
		DriverIDs: make([]string, 0, len(offer.DriverIDs)),
		At:        offer.At,
	}
	for _, id := range offer.DriverIDs {
		msg.DriverIDs = append(msg.DriverIDs, id.String())
	}
	return n.publish(ctx, "job.offer."+msg.Kind, msg.JobID, msg.At, msg)
}

func (n *Notifier) publish(ctx context.Context, routingKey, messageID string, at time.Time, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", routingKey, err)
	}

	err = n.ch.PublishWithContext(ctx, n.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    messageID,
		Timestamp:    at,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}
