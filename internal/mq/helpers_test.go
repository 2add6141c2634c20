package mq

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeBackend is a scripted Backend for Queue and Router tests
type fakeBackend struct {
	mu        sync.Mutex
	items     []*Message
	failSend  bool
	panicSend bool
	waited    time.Duration
	cleared   int
}

func (b *fakeBackend) Send(ctx context.Context, msg *Message) bool {
	if b.panicSend {
		panic("backend exploded")
	}
	if b.failSend || msg == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, msg)
	return true
}

func (b *fakeBackend) Receive(ctx context.Context) (*Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.items) == 0 {
		return nil, false
	}
	msg := b.items[0]
	b.items = b.items[1:]
	return msg, true
}

func (b *fakeBackend) ReceiveWait(ctx context.Context, timeout time.Duration) (*Message, bool) {
	b.mu.Lock()
	b.waited = timeout
	b.mu.Unlock()
	return b.Receive(ctx)
}

func (b *fakeBackend) Size(ctx context.Context) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int64(len(b.items))
}

func (b *fakeBackend) Clear(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = nil
	b.cleared++
	return true
}

func (b *fakeBackend) Type() Type {
	return TypeInProcess
}

// recordingObserver counts router notifications
type recordingObserver struct {
	mu       sync.Mutex
	sent     int
	failed   int
	received int
	switches []string
	created  []string
}

func (o *recordingObserver) MessageSent(t Type, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if ok {
		o.sent++
	} else {
		o.failed++
	}
}

func (o *recordingObserver) MessagesReceived(t Type, n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.received += n
}

func (o *recordingObserver) QueueSwitched(t Type, name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.switches = append(o.switches, queueKey(t, name))
}

func (o *recordingObserver) QueueCreated(t Type, name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.created = append(o.created, queueKey(t, name))
}
