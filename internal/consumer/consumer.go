package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zmy-farmer/queue-router/internal/mq"
	"github.com/zmy-farmer/queue-router/internal/storage"
)

// Message types with built-in handlers
const (
	TypeAPI          = "API"
	TypeSystem       = "SYSTEM"
	TypeUser         = "USER"
	TypeConsumerTest = "CONSUMER_TEST"
	TypeBatchTest    = "BATCH_TEST"
)

const (
	DefaultPollTimeout = 5 * time.Second

	// idleBackoff spaces out polls when the source returns immediately
	// without a message
	idleBackoff = 100 * time.Millisecond
)

// ErrAlreadyRunning is returned by Start on a running consumer
var ErrAlreadyRunning = errors.New("consumer already running")

// Source is where the consumer pulls messages from. *mq.Router satisfies it.
type Source interface {
	Current() (mq.Selection, bool)
}

// Origin names the queue a message was received from
type Origin struct {
	QueueType mq.Type
	QueueName string
}

// Recorder receives per-message outcomes, typically for metrics
type Recorder interface {
	MessageConsumed(messageType string, ok bool)
}

// Handler processes one message. A returned error marks the message failed;
// it is archived either way.
type Handler func(ctx context.Context, msg *mq.Message) error

// Consumer polls a Source in the background, dispatches each message to the
// handler registered for its type and archives the outcome
type Consumer struct {
	source      Source
	archive     storage.MessageArchive
	recorder    Recorder
	pollTimeout time.Duration
	logger      *slog.Logger

	mu       sync.RWMutex
	handlers map[string]Handler
	fallback Handler
	cancel   context.CancelFunc
	done     chan struct{}

	running         atomic.Bool
	processed       atomic.Int64
	failed          atomic.Int64
	archiveErrors   atomic.Int64
	lastMessageID   atomic.Value // string
	lastProcessedAt atomic.Value // time.Time
}

// Option configures a Consumer
type Option func(*Consumer)

// WithPollTimeout sets how long each receive waits for a message
func WithPollTimeout(d time.Duration) Option {
	return func(c *Consumer) {
		if d > 0 {
			c.pollTimeout = d
		}
	}
}

// WithRecorder registers a per-message outcome recorder
func WithRecorder(r Recorder) Option {
	return func(c *Consumer) { c.recorder = r }
}

// WithLogger sets the consumer logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Consumer) { c.logger = logger }
}

// New creates a consumer with logging handlers for the built-in message
// types. A nil archive disables archiving.
func New(source Source, archive storage.MessageArchive, opts ...Option) *Consumer {
	c := &Consumer{
		source:      source,
		archive:     archive,
		pollTimeout: DefaultPollTimeout,
		logger:      slog.Default(),
		handlers:    make(map[string]Handler),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "consumer")

	for _, msgType := range []string{TypeAPI, TypeSystem, TypeUser, TypeConsumerTest, TypeBatchTest} {
		c.handlers[msgType] = c.logHandler(msgType)
	}
	c.fallback = c.logHandler("DEFAULT")

	return c
}

// Handle registers h for msgType, replacing any previous handler
func (c *Consumer) Handle(msgType string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[msgType] = h
}

// HandleDefault sets the handler for types without a registered handler
func (c *Consumer) HandleDefault(h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fallback = h
}

func (c *Consumer) logHandler(label string) Handler {
	return func(ctx context.Context, msg *mq.Message) error {
		c.logger.Info("Processing message",
			"handler", label,
			"message_id", msg.ID,
			"message_type", msg.Type,
			"content", msg.Content,
			"priority", msg.Priority,
		)
		return nil
	}
}

// Start launches the polling loop. It returns immediately; Stop or
// cancelling ctx ends the loop.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running.Load() {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.running.Store(true)

	c.logger.Info("Starting consumer", "poll_timeout", c.pollTimeout)

	go c.run(runCtx, c.done)
	return nil
}

// Stop ends the polling loop and waits for the in-flight message to finish
func (c *Consumer) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (c *Consumer) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer c.running.Store(false)

	for {
		if ctx.Err() != nil {
			c.logger.Info("Consumer stopped",
				"processed", c.processed.Load(),
				"failed", c.failed.Load(),
			)
			return
		}

		sel, ok := c.source.Current()
		if !ok {
			c.idle(ctx)
			continue
		}

		start := time.Now()
		msg, ok := sel.Service.ReceiveMessageWithTimeout(ctx, c.pollTimeout)
		if !ok {
			if time.Since(start) < idleBackoff {
				c.idle(ctx)
			}
			continue
		}

		c.Process(ctx, msg, Origin{QueueType: sel.Type, QueueName: sel.Name})
	}
}

func (c *Consumer) idle(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(idleBackoff):
	}
}

// Process dispatches one message received from the given queue to its
// handler and archives the outcome. It reports whether the handler
// succeeded.
func (c *Consumer) Process(ctx context.Context, msg *mq.Message, from Origin) bool {
	if msg == nil {
		return false
	}

	err := c.dispatch(ctx, msg)
	ok := err == nil

	if ok {
		c.processed.Add(1)
		c.logger.Debug("Message processed", "message_id", msg.ID)
	} else {
		c.failed.Add(1)
		c.logger.Error("Failed to process message",
			"message_id", msg.ID,
			"message_type", msg.Type,
			"error", err,
		)
	}
	c.lastMessageID.Store(msg.ID)
	c.lastProcessedAt.Store(time.Now())

	if c.recorder != nil {
		c.recorder.MessageConsumed(msg.Type, ok)
	}

	c.archiveMessage(ctx, msg, from, err)
	return ok
}

func (c *Consumer) dispatch(ctx context.Context, msg *mq.Message) (err error) {
	c.mu.RLock()
	h, found := c.handlers[msg.Type]
	if !found {
		h = c.fallback
	}
	c.mu.RUnlock()

	if h == nil {
		return fmt.Errorf("no handler for message type %q", msg.Type)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h(ctx, msg)
}

func (c *Consumer) archiveMessage(ctx context.Context, msg *mq.Message, from Origin, handleErr error) {
	if c.archive == nil {
		return
	}

	record := &storage.ArchivedMessage{
		MessageID:   msg.ID,
		Content:     msg.Content,
		MessageType: msg.Type,
		QueueType:   from.QueueType.String(),
		QueueName:   from.QueueName,
		CreatedAt:   msg.CreatedAt,
		ArchivedAt:  time.Now(),
		Handled:     handleErr == nil,
	}
	if handleErr != nil {
		record.Error = handleErr.Error()
	}

	// The record is stored even after the polling context is cancelled
	storeCtx := context.WithoutCancel(ctx)
	if err := c.archive.Store(storeCtx, record); err != nil {
		c.archiveErrors.Add(1)
		c.logger.Warn("Failed to archive message",
			"message_id", msg.ID,
			"error", err,
		)
	}
}

// Status is a point-in-time view of the consumer
type Status struct {
	Running         bool      `json:"running"`
	Processed       int64     `json:"processed"`
	Failed          int64     `json:"failed"`
	ArchiveErrors   int64     `json:"archiveErrors"`
	LastMessageID   string    `json:"lastMessageId,omitempty"`
	LastProcessedAt time.Time `json:"lastProcessedAt,omitempty"`
	PollTimeout     string    `json:"pollTimeout"`
	HandledTypes    []string  `json:"handledTypes"`
}

// Status returns the current consumer status
func (c *Consumer) Status() Status {
	status := Status{
		Running:       c.running.Load(),
		Processed:     c.processed.Load(),
		Failed:        c.failed.Load(),
		ArchiveErrors: c.archiveErrors.Load(),
		PollTimeout:   c.pollTimeout.String(),
	}
	if id, ok := c.lastMessageID.Load().(string); ok {
		status.LastMessageID = id
	}
	if at, ok := c.lastProcessedAt.Load().(time.Time); ok {
		status.LastProcessedAt = at
	}

	c.mu.RLock()
	for msgType := range c.handlers {
		status.HandledTypes = append(status.HandledTypes, msgType)
	}
	c.mu.RUnlock()
	sort.Strings(status.HandledTypes)

	return status
}
