package mq

import (
	"context"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// DefaultExchange is the pre-provisioned direct exchange messages are
	// published to
	DefaultExchange = "queue.exchange"

	// ContentTypeJSON is set on every published message
	ContentTypeJSON = "application/json"

	brokerPollInterval = 100 * time.Millisecond
)

// BrokerChannel is the subset of *amqp.Channel the RabbitMQ backend uses
type BrokerChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Get(queue string, autoAck bool) (amqp.Delivery, bool, error)
}

// RabbitMQQueue implements Backend on a RabbitMQ channel.
// It publishes to a fixed exchange with the queue name as routing key and
// reads from the broker queue of the same name, which must already be
// bound to the exchange.
//
// Queue depth and purge need the management API, which is not modelled
// here: Size always reports 0 and Clear acknowledges without purging.
type RabbitMQQueue struct {
	name     string
	exchange string
	channel  BrokerChannel
	logger   *slog.Logger
}

// NewRabbitMQQueue creates a broker-backed queue
func NewRabbitMQQueue(name, exchange string, channel BrokerChannel, logger *slog.Logger) *RabbitMQQueue {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if logger == nil {
		logger = slog.Default()
	}

	q := &RabbitMQQueue{
		name:     name,
		exchange: exchange,
		channel:  channel,
		logger:   logger.With("component", "rabbitmq_queue", "queue_name", name),
	}

	q.logger.Info("RabbitMQ queue initialized",
		"exchange", exchange,
		"routing_key", name,
	)
	return q
}

// Send publishes a serialized message to the exchange
func (q *RabbitMQQueue) Send(ctx context.Context, msg *Message) bool {
	if msg == nil {
		q.logger.Warn("Refusing to send nil message")
		return false
	}

	body, err := encodeMessage(msg)
	if err != nil {
		q.logger.Error("Failed to serialize message",
			"error", err,
			"message_id", msg.ID,
		)
		return false
	}

	publishing := amqp.Publishing{
		ContentType: ContentTypeJSON,
		MessageId:   msg.ID,
		Priority:    clampPriority(msg.Priority),
		Timestamp:   msg.CreatedAt,
		Body:        body,
	}

	if err := q.channel.PublishWithContext(ctx, q.exchange, q.name, false, false, publishing); err != nil {
		q.logger.Error("Failed to publish message",
			"error", err,
			"message_id", msg.ID,
			"exchange", q.exchange,
		)
		return false
	}

	q.logger.Debug("Message published", "message_id", msg.ID)
	return true
}

// Receive fetches one message with basic.get without waiting
func (q *RabbitMQQueue) Receive(ctx context.Context) (*Message, bool) {
	delivery, ok, err := q.channel.Get(q.name, true)
	if err != nil {
		q.logger.Error("Failed to get message from broker", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	msg, err := decodeMessage(delivery.Body)
	if err != nil {
		q.logger.Error("Failed to deserialize message",
			"error", err,
			"delivery_message_id", delivery.MessageId,
		)
		return nil, false
	}

	q.logger.Debug("Message received", "message_id", msg.ID)
	return msg, true
}

// ReceiveWait polls the broker until a message arrives, the timeout
// elapses or ctx is cancelled
func (q *RabbitMQQueue) ReceiveWait(ctx context.Context, timeout time.Duration) (*Message, bool) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	ticker := time.NewTicker(brokerPollInterval)
	defer ticker.Stop()

	for {
		if msg, ok := q.Receive(ctx); ok {
			return msg, true
		}

		select {
		case <-ctx.Done():
			q.logger.Warn("Receive interrupted", "error", ctx.Err())
			return nil, false
		case <-deadline.C:
			return nil, false
		case <-ticker.C:
		}
	}
}

// Size is not available without the management API and always returns 0
func (q *RabbitMQQueue) Size(ctx context.Context) int64 {
	q.logger.Warn("RabbitMQ queue size is not supported, reporting 0")
	return 0
}

// Clear is not available without the management API. It logs and
// acknowledges without purging.
func (q *RabbitMQQueue) Clear(ctx context.Context) bool {
	q.logger.Warn("RabbitMQ queue purge is not supported, nothing was removed")
	return true
}

// Type returns TypeRabbitMQ
func (q *RabbitMQQueue) Type() Type {
	return TypeRabbitMQ
}

func clampPriority(p int) uint8 {
	if p < 0 {
		return 0
	}
	if p > 255 {
		return 255
	}
	return uint8(p)
}
