package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/zmy-farmer/queue-router/internal/config"
	"github.com/zmy-farmer/queue-router/internal/mq"
	"github.com/zmy-farmer/queue-router/internal/storage"
	"github.com/zmy-farmer/queue-router/internal/storage/inmemory"
	"github.com/zmy-farmer/queue-router/internal/storage/mongodb"
)

const connectTimeout = 10 * time.Second

// connectRedis opens and pings a Redis client
func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// brokerConnection owns the AMQP connection and the channel handed to
// the queue factory
type brokerConnection struct {
	conn    *amqp.Connection
	channel *mq.RecoveringChannel
}

// connectRabbitMQ dials the broker and opens the shared recovering channel. The exchange and the
// configured queues are checked with passive declarations; topology is
// provisioned outside this service.
func connectRabbitMQ(cfg config.RabbitMQConfig, logger *slog.Logger) (*brokerConnection, error) {
	conn, err := amqp.DialConfig(cfg.URL, amqp.Config{
		Dial: amqp.DefaultDial(connectTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	// A failed passive declare closes the channel, so each check runs on
	// a short-lived channel of its own.
	if err := checkTopology(conn, func(c *amqp.Channel) error {
		return c.ExchangeDeclarePassive(cfg.Exchange, amqp.ExchangeDirect, true, false, false, false, nil)
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("exchange %q is not available: %w", cfg.Exchange, err)
	}

	for _, name := range cfg.Queues {
		var depth int
		if err := checkTopology(conn, func(c *amqp.Channel) error {
			q, err := c.QueueDeclarePassive(name, true, false, false, false, nil)
			depth = q.Messages
			return err
		}); err != nil {
			conn.Close()
			return nil, fmt.Errorf("queue %q is not available: %w", name, err)
		}
		logger.Info("RabbitMQ queue verified",
			"queue_name", name,
			"exchange", cfg.Exchange,
			"messages", depth,
		)
	}

	ch, err := mq.NewRecoveringChannel(func() (mq.ClosableChannel, error) {
		c, err := conn.Channel()
		if err != nil {
			return nil, err
		}
		return c, nil
	}, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &brokerConnection{conn: conn, channel: ch}, nil
}

func checkTopology(conn *amqp.Connection, check func(*amqp.Channel) error) error {
	c, err := conn.Channel()
	if err != nil {
		return err
	}
	if err := check(c); err != nil {
		return err
	}
	return c.Close()
}

func (b *brokerConnection) Close() error {
	if err := b.channel.Close(); err != nil && !b.conn.IsClosed() {
		return err
	}
	return b.conn.Close()
}

// archiveCloser is implemented by archives holding a connection
type archiveCloser interface {
	Close(ctx context.Context) error
}

// newArchive builds the configured message archive
func newArchive(cfg *config.Config) (storage.MessageArchive, error) {
	switch cfg.Consumer.ArchiveType {
	case "mongodb":
		archive, err := mongodb.NewMessageArchive(cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)
		if err != nil {
			return nil, err
		}
		return archive, nil
	default:
		return inmemory.NewMessageArchive(inmemory.WithCapacity(cfg.Consumer.ArchiveCapacity)), nil
	}
}
