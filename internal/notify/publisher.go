// Package notify publishes storefront events to RabbitMQ for external
// consumers (fulfilment, mail). Publishing is best-effort and always
// happens after the database transaction commits; it never participates
// in checkout atomicity.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shoply/marketplace-api/internal/model"
)

const (
	orderQueueName = "orders.placed"
	dlxExchange    = "orders.dlx"
	dlqQueueName   = "orders.dlq"
)

type Publisher interface {
	OrderPlaced(ctx context.Context, event model.OrderPlaced) error
}

type amqpPublisher struct{ channel *amqp.Channel }

func NewAMQPPublisher(ch *amqp.Channel) Publisher {
	return &amqpPublisher{channel: ch}
}

// Setup declares the durable queue and its dead-letter pair.
func Setup(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, orderQueueName, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(orderQueueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": orderQueueName,
	}); err != nil {
		return fmt.Errorf("declare order queue: %w", err)
	}
	return nil
}

func (p *amqpPublisher) OrderPlaced(ctx context.Context, event model.OrderPlaced) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order placed event: %w", err)
	}
	err = p.channel.PublishWithContext(ctx, "", orderQueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		return fmt.Errorf("publish order placed event: %w", err)
	}
	return nil
}
