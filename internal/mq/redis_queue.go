package mq

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// blockingPopSlice is the wait of a single BRPOP. It is also the smallest
// timeout Redis accepts.
const blockingPopSlice = time.Second

// RedisQueue implements Backend using a Redis list.
// Messages are pushed on the left of "queue:{name}" and popped from the
// right, which gives FIFO order.
type RedisQueue struct {
	client   redis.Cmdable
	queueKey string
	logger   *slog.Logger
}

// NewRedisQueue creates a Redis-backed queue on an existing client
func NewRedisQueue(name string, client redis.Cmdable, logger *slog.Logger) *RedisQueue {
	if logger == nil {
		logger = slog.Default()
	}

	q := &RedisQueue{
		client:   client,
		queueKey: "queue:" + name,
		logger:   logger.With("component", "redis_queue", "queue_name", name),
	}

	q.logger.Info("Redis queue initialized", "queue_key", q.queueKey)
	return q
}

// Send pushes a serialized message onto the list
func (q *RedisQueue) Send(ctx context.Context, msg *Message) bool {
	if msg == nil {
		q.logger.Warn("Refusing to send nil message")
		return false
	}

	data, err := encodeMessage(msg)
	if err != nil {
		q.logger.Error("Failed to serialize message",
			"error", err,
			"message_id", msg.ID,
		)
		return false
	}

	length, err := q.client.LPush(ctx, q.queueKey, data).Result()
	if err != nil {
		q.logger.Error("Failed to push message to Redis",
			"error", err,
			"message_id", msg.ID,
		)
		return false
	}
	if length <= 0 {
		q.logger.Warn("Redis push reported empty list", "message_id", msg.ID)
		return false
	}

	q.logger.Debug("Message sent",
		"message_id", msg.ID,
		"queue_key", q.queueKey,
	)
	return true
}

// Receive pops the oldest message without waiting
func (q *RedisQueue) Receive(ctx context.Context) (*Message, bool) {
	result, err := q.client.RPop(ctx, q.queueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			q.logger.Error("Failed to pop message from Redis", "error", err)
		}
		return nil, false
	}
	return q.decode(result)
}

// ReceiveWait blocks on BRPOP until a message arrives, the timeout elapses
// or ctx is cancelled. An in-flight BRPOP does not observe ctx, so the wait
// is issued in one-second slices and ctx is checked between them. The
// timeout is honoured to the next whole second.
func (q *RedisQueue) ReceiveWait(ctx context.Context, timeout time.Duration) (*Message, bool) {
	deadline := time.Now().Add(timeout)

	for {
		if err := ctx.Err(); err != nil {
			q.logger.Warn("Receive interrupted", "error", err)
			return nil, false
		}

		if !time.Now().Before(deadline) {
			return nil, false
		}

		result, err := q.client.BRPop(ctx, blockingPopSlice, q.queueKey).Result()
		if err == nil {
			// BRPOP replies with [key, value]
			if len(result) < 2 {
				return nil, false
			}
			return q.decode(result[1])
		}

		switch {
		case errors.Is(err, redis.Nil):
			continue
		case ctx.Err() != nil:
			q.logger.Warn("Receive interrupted", "error", ctx.Err())
		default:
			q.logger.Error("Failed to pop message from Redis", "error", err)
		}
		return nil, false
	}
}

func (q *RedisQueue) decode(raw string) (*Message, bool) {
	msg, err := decodeMessage([]byte(raw))
	if err != nil {
		q.logger.Error("Failed to deserialize message",
			"error", err,
			"queue_key", q.queueKey,
		)
		return nil, false
	}

	q.logger.Debug("Message received", "message_id", msg.ID)
	return msg, true
}

// Size returns the server-reported list length
func (q *RedisQueue) Size(ctx context.Context) int64 {
	size, err := q.client.LLen(ctx, q.queueKey).Result()
	if err != nil {
		q.logger.Error("Failed to get queue size", "error", err)
		return 0
	}
	return size
}

// Clear deletes the list key
func (q *RedisQueue) Clear(ctx context.Context) bool {
	deleted, err := q.client.Del(ctx, q.queueKey).Result()
	if err != nil {
		q.logger.Error("Failed to clear queue", "error", err)
		return false
	}

	q.logger.Info("Queue cleared",
		"queue_key", q.queueKey,
		"deleted_keys", deleted,
	)
	return true
}

// Type returns TypeRedis
func (q *RedisQueue) Type() Type {
	return TypeRedis
}
