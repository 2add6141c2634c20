package config

import "time"

// Default configuration values
const (
	// Server defaults
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8080
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Queue defaults
	DefaultQueueType      = "java"
	DefaultQueueName      = "default"
	DefaultBufferSize     = 10000
	DefaultReceiveTimeout = 5 * time.Second

	// Redis defaults
	DefaultRedisPoolSize = 10

	// RabbitMQ defaults
	DefaultRabbitMQExchange = "queue.exchange"

	// Consumer defaults
	DefaultConsumerPollTimeout = 5 * time.Second
	DefaultArchiveType         = "inmemory"
	DefaultArchiveCapacity     = 10000

	// MongoDB defaults
	DefaultMongoDatabase   = "queue_router"
	DefaultMongoCollection = "messages"

	// Logging defaults
	DefaultLogLevel      = "info"
	DefaultLogMaxSizeMB  = 100
	DefaultLogMaxBackups = 10
	DefaultLogMaxAgeDays = 30
)
