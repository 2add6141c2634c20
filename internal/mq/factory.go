package mq

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Factory builds queue services for a (name, type) pair from the native
// clients it was configured with
type Factory struct {
	redisClient   redis.Cmdable
	brokerChannel BrokerChannel
	exchange      string
	bufferSize    int
	logger        *slog.Logger
}

// FactoryOption configures a Factory
type FactoryOption func(*Factory)

// WithRedisClient enables the Redis backend
func WithRedisClient(client redis.Cmdable) FactoryOption {
	return func(f *Factory) { f.redisClient = client }
}

// WithBrokerChannel enables the RabbitMQ backend
func WithBrokerChannel(ch BrokerChannel) FactoryOption {
	return func(f *Factory) { f.brokerChannel = ch }
}

// WithExchange overrides the exchange RabbitMQ queues publish to
func WithExchange(exchange string) FactoryOption {
	return func(f *Factory) { f.exchange = exchange }
}

// WithBufferSize sets the capacity of in-process queues
func WithBufferSize(n int) FactoryOption {
	return func(f *Factory) { f.bufferSize = n }
}

// WithLogger sets the logger handed to created queues
func WithLogger(logger *slog.Logger) FactoryOption {
	return func(f *Factory) { f.logger = logger }
}

// NewFactory creates a queue service factory
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		exchange:   DefaultExchange,
		bufferSize: DefaultBufferSize,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create builds a queue service for name on the given backend type.
// It fails with ErrInvalidArgument for a blank name and with
// ErrUnavailableDependency when the backend's client is not configured.
// Unrecognized types fall back to the in-process backend.
func (f *Factory) Create(name string, t Type) (*Queue, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: queue name must not be blank", ErrInvalidArgument)
	}

	f.logger.Info("Creating queue service",
		"queue_name", name,
		"queue_type", t,
	)

	var backend Backend
	switch t {
	case TypeInProcess:
		backend = NewInMemoryQueue(name, f.bufferSize, f.logger)

	case TypeRedis:
		if f.redisClient == nil {
			return nil, fmt.Errorf("%w: redis client not configured, cannot create queue %q", ErrUnavailableDependency, name)
		}
		backend = NewRedisQueue(name, f.redisClient, f.logger)

	case TypeRabbitMQ:
		if f.brokerChannel == nil {
			return nil, fmt.Errorf("%w: rabbitmq channel not configured, cannot create queue %q", ErrUnavailableDependency, name)
		}
		backend = NewRabbitMQQueue(name, f.exchange, f.brokerChannel, f.logger)

	default:
		f.logger.Warn("Unknown queue type, falling back to in-process queue",
			"queue_name", name,
			"queue_type", t,
		)
		backend = NewInMemoryQueue(name, f.bufferSize, f.logger)
	}

	return NewQueue(name, backend, f.logger), nil
}

// CreateFromString parses the type with ParseType before creating
func (f *Factory) CreateFromString(name, queueType string) (*Queue, error) {
	return f.Create(name, ParseType(queueType))
}
