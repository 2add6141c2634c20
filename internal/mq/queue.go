package mq

import (
	"context"
	"log/slog"
	"time"
)

// Backend is the primitive operation set every queue backend implements.
// Implementations must not return errors for expected failures: they log
// and report false, empty or zero instead.
type Backend interface {
	// Send enqueues one message and reports whether it was accepted
	Send(ctx context.Context, msg *Message) bool

	// Receive dequeues one message without waiting
	Receive(ctx context.Context) (*Message, bool)

	// ReceiveWait waits up to timeout for a message. Cancelling ctx ends
	// the wait and yields no message.
	ReceiveWait(ctx context.Context, timeout time.Duration) (*Message, bool)

	// Size is a best-effort count of queued messages
	Size(ctx context.Context) int64

	// Clear is a best-effort purge
	Clear(ctx context.Context) bool

	// Type returns the fixed backend type tag
	Type() Type
}

// Service defines the operations available on a selected queue.
// Data operations never return errors; failures are reported as
// false, empty or zero and logged.
type Service interface {
	SendMessage(ctx context.Context, msg *Message) bool

	// SendMessageAsync sends off the calling goroutine. The returned channel
	// delivers exactly one result. No ordering is guaranteed between two
	// async sends.
	SendMessageAsync(ctx context.Context, msg *Message) <-chan bool

	// SendMessages sends each message in order and returns the number of
	// successful sends. A failed send does not stop the remaining ones.
	SendMessages(ctx context.Context, msgs []*Message) int

	ReceiveMessage(ctx context.Context) (*Message, bool)
	ReceiveMessageWithTimeout(ctx context.Context, timeout time.Duration) (*Message, bool)

	// ReceiveMessages collects up to max messages without waiting for more
	// to arrive
	ReceiveMessages(ctx context.Context, max int) []*Message

	QueueSize(ctx context.Context) int64
	ClearQueue(ctx context.Context) bool
	IsEmpty(ctx context.Context) bool
	QueueType() Type
}

// Queue implements Service on top of a Backend. The batch, async and
// emptiness operations are always derived from the backend primitives.
type Queue struct {
	name    string
	backend Backend
	logger  *slog.Logger
}

var _ Service = (*Queue)(nil)

// NewQueue wraps a backend as a named queue service
func NewQueue(name string, backend Backend, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}

	return &Queue{
		name:    name,
		backend: backend,
		logger:  logger.With("component", "queue", "queue_name", name, "queue_type", backend.Type()),
	}
}

// Name returns the queue name
func (q *Queue) Name() string {
	return q.name
}

// SendMessage enqueues one message
func (q *Queue) SendMessage(ctx context.Context, msg *Message) bool {
	return q.safeSend(ctx, msg)
}

// SendMessageAsync enqueues one message on a separate goroutine
func (q *Queue) SendMessageAsync(ctx context.Context, msg *Message) <-chan bool {
	result := make(chan bool, 1)
	go func() {
		result <- q.safeSend(ctx, msg)
	}()
	return result
}

// SendMessages sends every message in input order
func (q *Queue) SendMessages(ctx context.Context, msgs []*Message) int {
	if len(msgs) == 0 {
		return 0
	}

	sent := 0
	for _, msg := range msgs {
		if q.safeSend(ctx, msg) {
			sent++
		}
	}

	q.logger.Info("Batch send completed",
		"sent", sent,
		"total", len(msgs),
	)
	return sent
}

// safeSend converts a panicking backend send into a failed send
func (q *Queue) safeSend(ctx context.Context, msg *Message) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("Send panicked", "panic", r)
			ok = false
		}
	}()
	return q.backend.Send(ctx, msg)
}

// ReceiveMessage dequeues one message without waiting
func (q *Queue) ReceiveMessage(ctx context.Context) (*Message, bool) {
	return q.backend.Receive(ctx)
}

// ReceiveMessageWithTimeout waits up to timeout for a message.
// A non-positive timeout behaves like ReceiveMessage.
func (q *Queue) ReceiveMessageWithTimeout(ctx context.Context, timeout time.Duration) (*Message, bool) {
	if timeout <= 0 {
		return q.backend.Receive(ctx)
	}
	return q.backend.ReceiveWait(ctx, timeout)
}

// ReceiveMessages drains up to max messages that are already available
func (q *Queue) ReceiveMessages(ctx context.Context, max int) []*Message {
	messages := make([]*Message, 0)
	for i := 0; i < max; i++ {
		msg, ok := q.backend.Receive(ctx)
		if !ok {
			break
		}
		messages = append(messages, msg)
	}
	return messages
}

// QueueSize returns the best-effort number of queued messages
func (q *Queue) QueueSize(ctx context.Context) int64 {
	return q.backend.Size(ctx)
}

// ClearQueue purges the queue
func (q *Queue) ClearQueue(ctx context.Context) bool {
	return q.backend.Clear(ctx)
}

// IsEmpty reports whether QueueSize is zero
func (q *Queue) IsEmpty(ctx context.Context) bool {
	return q.QueueSize(ctx) == 0
}

// QueueType returns the backend type tag
func (q *Queue) QueueType() Type {
	return q.backend.Type()
}
