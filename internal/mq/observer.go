package mq

import (
	"context"
	"time"
)

// Observer is notified of router activity. Implementations must be safe for
// concurrent use and must not block.
type Observer interface {
	// MessageSent is called once per attempted send
	MessageSent(t Type, ok bool)

	// MessagesReceived is called after every receive call with the number
	// of messages it returned
	MessagesReceived(t Type, n int)

	// QueueSwitched is called after the current selection changes
	QueueSwitched(t Type, name string)

	// QueueCreated is called when a new queue enters the router cache
	QueueCreated(t Type, name string)
}

type noopObserver struct{}

func (noopObserver) MessageSent(Type, bool)     {}
func (noopObserver) MessagesReceived(Type, int) {}
func (noopObserver) QueueSwitched(Type, string) {}
func (noopObserver) QueueCreated(Type, string)  {}

// observedQueue reports the activity of one queue to an observer
type observedQueue struct {
	queue    *Queue
	observer Observer
}

var _ Service = (*observedQueue)(nil)

func (o *observedQueue) SendMessage(ctx context.Context, msg *Message) bool {
	ok := o.queue.SendMessage(ctx, msg)
	o.observer.MessageSent(o.queue.QueueType(), ok)
	return ok
}

func (o *observedQueue) SendMessageAsync(ctx context.Context, msg *Message) <-chan bool {
	inner := o.queue.SendMessageAsync(ctx, msg)
	result := make(chan bool, 1)
	go func() {
		ok := <-inner
		o.observer.MessageSent(o.queue.QueueType(), ok)
		result <- ok
	}()
	return result
}

func (o *observedQueue) SendMessages(ctx context.Context, msgs []*Message) int {
	sent := o.queue.SendMessages(ctx, msgs)
	for i := range msgs {
		o.observer.MessageSent(o.queue.QueueType(), i < sent)
	}
	return sent
}

func (o *observedQueue) ReceiveMessage(ctx context.Context) (*Message, bool) {
	msg, ok := o.queue.ReceiveMessage(ctx)
	o.observeReceive(ok)
	return msg, ok
}

func (o *observedQueue) ReceiveMessageWithTimeout(ctx context.Context, timeout time.Duration) (*Message, bool) {
	msg, ok := o.queue.ReceiveMessageWithTimeout(ctx, timeout)
	o.observeReceive(ok)
	return msg, ok
}

func (o *observedQueue) ReceiveMessages(ctx context.Context, max int) []*Message {
	msgs := o.queue.ReceiveMessages(ctx, max)
	o.observer.MessagesReceived(o.queue.QueueType(), len(msgs))
	return msgs
}

func (o *observedQueue) observeReceive(ok bool) {
	if ok {
		o.observer.MessagesReceived(o.queue.QueueType(), 1)
	} else {
		o.observer.MessagesReceived(o.queue.QueueType(), 0)
	}
}

func (o *observedQueue) QueueSize(ctx context.Context) int64 {
	return o.queue.QueueSize(ctx)
}

func (o *observedQueue) ClearQueue(ctx context.Context) bool {
	return o.queue.ClearQueue(ctx)
}

func (o *observedQueue) IsEmpty(ctx context.Context) bool {
	return o.queue.IsEmpty(ctx)
}

func (o *observedQueue) QueueType() Type {
	return o.queue.QueueType()
}
