package mq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ClosableChannel is a BrokerChannel that can report and perform its own
// shutdown. *amqp.Channel satisfies it.
type ClosableChannel interface {
	BrokerChannel
	IsClosed() bool
	Close() error
}

// ChannelOpener opens a new channel, typically with (*amqp.Connection).Channel
type ChannelOpener func() (ClosableChannel, error)

// RecoveringChannel is a BrokerChannel shared by every RabbitMQ queue.
// The broker closes a channel on errors such as a basic.get on a missing
// queue; the next operation then opens a fresh channel instead of failing
// every queue until restart.
type RecoveringChannel struct {
	mu     sync.Mutex
	open   ChannelOpener
	ch     ClosableChannel
	logger *slog.Logger
}

var _ BrokerChannel = (*RecoveringChannel)(nil)

// NewRecoveringChannel opens the first channel eagerly
func NewRecoveringChannel(open ChannelOpener, logger *slog.Logger) (*RecoveringChannel, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ch, err := open()
	if err != nil {
		return nil, fmt.Errorf("failed to open broker channel: %w", err)
	}

	return &RecoveringChannel{
		open:   open,
		ch:     ch,
		logger: logger.With("component", "broker_channel"),
	}, nil
}

// channel returns the live channel, reopening it after a broker-side close
func (r *RecoveringChannel) channel() (ClosableChannel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ch != nil && !r.ch.IsClosed() {
		return r.ch, nil
	}

	ch, err := r.open()
	if err != nil {
		r.logger.Error("Failed to reopen broker channel", "error", err)
		return nil, err
	}

	r.logger.Warn("Broker channel was closed, reopened")
	r.ch = ch
	return ch, nil
}

func (r *RecoveringChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	ch, err := r.channel()
	if err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, exchange, key, mandatory, immediate, msg)
}

func (r *RecoveringChannel) Get(queue string, autoAck bool) (amqp.Delivery, bool, error) {
	ch, err := r.channel()
	if err != nil {
		return amqp.Delivery{}, false, err
	}
	return ch.Get(queue, autoAck)
}

// Close closes the current channel. Later operations open a new one.
func (r *RecoveringChannel) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ch == nil || r.ch.IsClosed() {
		return nil
	}
	return r.ch.Close()
}
