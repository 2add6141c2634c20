package mq

import (
	"context"
	"log/slog"
	"time"
)

// DefaultBufferSize is the capacity of an in-process queue. It is large
// enough to be treated as unbounded by callers.
const DefaultBufferSize = 10000

// InMemoryQueue implements Backend using a buffered channel.
// It is safe for concurrent use by multiple producers and consumers and
// preserves FIFO order.
type InMemoryQueue struct {
	name     string
	messages chan *Message
	logger   *slog.Logger
}

// NewInMemoryQueue creates a new in-process queue backend
func NewInMemoryQueue(name string, bufferSize int, logger *slog.Logger) *InMemoryQueue {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	q := &InMemoryQueue{
		name:     name,
		messages: make(chan *Message, bufferSize),
		logger:   logger.With("component", "inmemory_queue", "queue_name", name),
	}

	q.logger.Info("In-memory queue initialized", "buffer_size", bufferSize)
	return q
}

// Send enqueues a message without blocking
func (q *InMemoryQueue) Send(ctx context.Context, msg *Message) bool {
	if msg == nil {
		q.logger.Warn("Refusing to send nil message")
		return false
	}

	select {
	case q.messages <- msg:
		q.logger.Debug("Message sent", "message_id", msg.ID)
		return true
	default:
		q.logger.Warn("Queue is full, message dropped",
			"message_id", msg.ID,
			"capacity", cap(q.messages),
		)
		return false
	}
}

// Receive dequeues a message if one is available
func (q *InMemoryQueue) Receive(ctx context.Context) (*Message, bool) {
	select {
	case msg := <-q.messages:
		q.logger.Debug("Message received", "message_id", msg.ID)
		return msg, true
	default:
		return nil, false
	}
}

// ReceiveWait blocks until a message arrives, the timeout elapses or ctx
// is cancelled
func (q *InMemoryQueue) ReceiveWait(ctx context.Context, timeout time.Duration) (*Message, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg := <-q.messages:
		q.logger.Debug("Message received",
			"message_id", msg.ID,
			"timeout", timeout,
		)
		return msg, true
	case <-timer.C:
		return nil, false
	case <-ctx.Done():
		q.logger.Warn("Receive interrupted", "error", ctx.Err())
		return nil, false
	}
}

// Size returns the number of queued messages
func (q *InMemoryQueue) Size(ctx context.Context) int64 {
	return int64(len(q.messages))
}

// Clear drains every queued message
func (q *InMemoryQueue) Clear(ctx context.Context) bool {
	drained := 0
	for {
		select {
		case <-q.messages:
			drained++
		default:
			q.logger.Info("Queue cleared", "drained", drained)
			return true
		}
	}
}

// Type returns TypeInProcess
func (q *InMemoryQueue) Type() Type {
	return TypeInProcess
}
