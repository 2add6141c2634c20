package mq

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultQueueName is the queue a new router starts on
const DefaultQueueName = "default"

// selection is the current (type, name) pair. It is swapped as one value
// so readers never see a type from one switch and a name from another.
type selection struct {
	queueType Type
	name      string
	queue     *Queue
}

// Router dispatches queue operations to the currently selected queue.
// Queues are created on first selection and cached for the lifetime of the
// router. Router is safe for concurrent use.
type Router struct {
	factory  *Factory
	services sync.Map // queueKey -> *Queue
	current  atomic.Pointer[selection]
	observer Observer
	logger   *slog.Logger
}

var _ Service = (*Router)(nil)

// RouterOption configures a Router
type RouterOption func(*Router)

// WithRouterLogger sets the router logger
func WithRouterLogger(logger *slog.Logger) RouterOption {
	return func(r *Router) { r.logger = logger }
}

// WithObserver registers an observer for router activity
func WithObserver(o Observer) RouterOption {
	return func(r *Router) {
		if o != nil {
			r.observer = o
		}
	}
}

// NewRouter creates a router selected on the in-process "default" queue
func NewRouter(factory *Factory, opts ...RouterOption) (*Router, error) {
	r := &Router{
		factory:  factory,
		observer: noopObserver{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "queue_router")

	if err := r.SwitchQueue(TypeInProcess, DefaultQueueName); err != nil {
		return nil, fmt.Errorf("failed to initialize default queue: %w", err)
	}
	return r, nil
}

// SwitchQueue selects the queue identified by (t, name), creating it on
// first use. Switching to a previously used pair reuses the cached queue
// and keeps its contents. The type is matched case-insensitively; a type
// outside Types() is rejected rather than mapped to a fallback backend.
func (r *Router) SwitchQueue(t Type, name string) error {
	canonical := Type(strings.ToLower(strings.TrimSpace(string(t))))
	if !canonical.Valid() {
		return fmt.Errorf("%w: unsupported queue type %q", ErrInvalidArgument, t)
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: queue name must not be blank", ErrInvalidArgument)
	}
	t = canonical

	q, err := r.resolve(t, name)
	if err != nil {
		return err
	}

	previous := r.current.Swap(&selection{queueType: t, name: name, queue: q})
	if previous != nil {
		r.logger.Info("Switched queue",
			"from_type", previous.queueType,
			"from_name", previous.name,
			"to_type", t,
			"to_name", name,
		)
	} else {
		r.logger.Info("Queue selected", "queue_type", t, "queue_name", name)
	}

	r.observer.QueueSwitched(t, name)
	return nil
}

// SwitchQueueString parses the type with ParseType and switches
func (r *Router) SwitchQueueString(queueType, name string) error {
	return r.SwitchQueue(ParseType(queueType), name)
}

// resolve returns the cached queue for (t, name) or creates and caches it
func (r *Router) resolve(t Type, name string) (*Queue, error) {
	key := queueKey(t, name)
	if cached, ok := r.services.Load(key); ok {
		return cached.(*Queue), nil
	}

	created, err := r.factory.Create(name, t)
	if err != nil {
		return nil, err
	}

	// A concurrent switch may have stored the same key first; keep theirs.
	actual, loaded := r.services.LoadOrStore(key, created)
	if !loaded {
		r.logger.Info("Queue service cached", "queue_key", key)
		r.observer.QueueCreated(t, name)
	}
	return actual.(*Queue), nil
}

// Selection is a snapshot of the current queue. Service stays bound to
// that queue even if the router switches afterwards, so an operation and
// the identity reported for it always agree.
type Selection struct {
	Type    Type
	Name    string
	Service Service
}

// Current returns the current selection. ok is false when no queue has
// been selected.
func (r *Router) Current() (Selection, bool) {
	sel := r.current.Load()
	if sel == nil || sel.queue == nil {
		return Selection{}, false
	}
	return Selection{
		Type:    sel.queueType,
		Name:    sel.name,
		Service: &observedQueue{queue: sel.queue, observer: r.observer},
	}, true
}

// service returns the observed current queue or nil, logging the miss
func (r *Router) service(op string) *observedQueue {
	sel := r.current.Load()
	if sel == nil || sel.queue == nil {
		r.logger.Error("No queue service selected", "operation", op)
		return nil
	}
	return &observedQueue{queue: sel.queue, observer: r.observer}
}

// CurrentQueueType returns the type of the current selection
func (r *Router) CurrentQueueType() Type {
	if sel := r.current.Load(); sel != nil {
		return sel.queueType
	}
	return ""
}

// CurrentQueueName returns the name of the current selection
func (r *Router) CurrentQueueName() string {
	if sel := r.current.Load(); sel != nil {
		return sel.name
	}
	return ""
}

// AllQueueServices returns a snapshot of every cached queue keyed by
// "<type>:<name>"
func (r *Router) AllQueueServices() map[string]Service {
	snapshot := make(map[string]Service)
	r.services.Range(func(k, v any) bool {
		snapshot[k.(string)] = v.(*Queue)
		return true
	})
	return snapshot
}

func (r *Router) SendMessage(ctx context.Context, msg *Message) bool {
	svc := r.service("send_message")
	if svc == nil {
		return false
	}
	return svc.SendMessage(ctx, msg)
}

func (r *Router) SendMessageAsync(ctx context.Context, msg *Message) <-chan bool {
	svc := r.service("send_message_async")
	if svc == nil {
		result := make(chan bool, 1)
		result <- false
		return result
	}
	return svc.SendMessageAsync(ctx, msg)
}

func (r *Router) SendMessages(ctx context.Context, msgs []*Message) int {
	svc := r.service("send_messages")
	if svc == nil {
		return 0
	}
	return svc.SendMessages(ctx, msgs)
}

func (r *Router) ReceiveMessage(ctx context.Context) (*Message, bool) {
	svc := r.service("receive_message")
	if svc == nil {
		return nil, false
	}
	return svc.ReceiveMessage(ctx)
}

func (r *Router) ReceiveMessageWithTimeout(ctx context.Context, timeout time.Duration) (*Message, bool) {
	svc := r.service("receive_message_with_timeout")
	if svc == nil {
		return nil, false
	}
	return svc.ReceiveMessageWithTimeout(ctx, timeout)
}

func (r *Router) ReceiveMessages(ctx context.Context, max int) []*Message {
	svc := r.service("receive_messages")
	if svc == nil {
		return []*Message{}
	}
	return svc.ReceiveMessages(ctx, max)
}

func (r *Router) QueueSize(ctx context.Context) int64 {
	svc := r.service("queue_size")
	if svc == nil {
		return 0
	}
	return svc.QueueSize(ctx)
}

func (r *Router) ClearQueue(ctx context.Context) bool {
	svc := r.service("clear_queue")
	if svc == nil {
		return false
	}
	return svc.ClearQueue(ctx)
}

func (r *Router) IsEmpty(ctx context.Context) bool {
	svc := r.service("is_empty")
	if svc == nil {
		return true
	}
	return svc.IsEmpty(ctx)
}

// QueueType is the type of the current selection
func (r *Router) QueueType() Type {
	return r.CurrentQueueType()
}
