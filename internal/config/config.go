package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Server   ServerConfig
	Queue    QueueConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Consumer ConsumerConfig
	Mongo    MongoConfig
	Logging  LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// QueueConfig holds the initial queue selection and in-process settings
type QueueConfig struct {
	DefaultType    string
	DefaultName    string
	BufferSize     int
	ReceiveTimeout time.Duration
}

// RedisConfig holds Redis configuration. An empty URL disables the backend.
type RedisConfig struct {
	URL      string
	PoolSize int
}

// RabbitMQConfig holds broker configuration. An empty URL disables the backend.
type RabbitMQConfig struct {
	URL      string
	Exchange string
	// Queues must already exist; they are checked at startup
	Queues []string
}

// ConsumerConfig holds background consumer configuration
type ConsumerConfig struct {
	Enabled     bool
	PollTimeout time.Duration
	ArchiveType string
	// ArchiveCapacity bounds the in-memory archive
	ArchiveCapacity int
}

// MongoConfig holds MongoDB configuration used by the mongodb archive
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Load loads configuration from environment variables.
// Variables in a .env file in the working directory are applied first
// when the file exists; variables already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", DefaultServerHost),
			Port:            getEnvAsInt("SERVER_PORT", DefaultServerPort),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", DefaultReadTimeout),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", DefaultWriteTimeout),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", DefaultIdleTimeout),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", DefaultShutdownTimeout),
		},
		Queue: QueueConfig{
			DefaultType:    getEnv("QUEUE_DEFAULT_TYPE", DefaultQueueType),
			DefaultName:    getEnv("QUEUE_DEFAULT_NAME", DefaultQueueName),
			BufferSize:     getEnvAsInt("QUEUE_BUFFER_SIZE", DefaultBufferSize),
			ReceiveTimeout: getEnvAsDuration("QUEUE_RECEIVE_TIMEOUT", DefaultReceiveTimeout),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			PoolSize: getEnvAsInt("REDIS_POOL_SIZE", DefaultRedisPoolSize),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      getEnv("RABBITMQ_URL", ""),
			Exchange: getEnv("RABBITMQ_EXCHANGE", DefaultRabbitMQExchange),
			Queues:   getEnvAsList("RABBITMQ_QUEUES", nil),
		},
		Consumer: ConsumerConfig{
			Enabled:         getEnvAsBool("CONSUMER_ENABLED", false),
			PollTimeout:     getEnvAsDuration("CONSUMER_POLL_TIMEOUT", DefaultConsumerPollTimeout),
			ArchiveType:     getEnv("ARCHIVE_TYPE", DefaultArchiveType),
			ArchiveCapacity: getEnvAsInt("ARCHIVE_CAPACITY", DefaultArchiveCapacity),
		},
		Mongo: MongoConfig{
			URI:        getEnv("MONGODB_URI", ""),
			Database:   getEnv("MONGODB_DATABASE", DefaultMongoDatabase),
			Collection: getEnv("MONGODB_COLLECTION", DefaultMongoCollection),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", DefaultLogLevel),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvAsInt("LOG_MAX_SIZE_MB", DefaultLogMaxSizeMB),
			MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", DefaultLogMaxBackups),
			MaxAgeDays: getEnvAsInt("LOG_MAX_AGE_DAYS", DefaultLogMaxAgeDays),
		},
	}

	return config, nil
}

// Addr returns the host:port the HTTP server listens on
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool gets an environment variable as bool or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration gets an environment variable as duration or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blank entries
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Queue.BufferSize <= 0 {
		return fmt.Errorf("invalid queue buffer size: %d", c.Queue.BufferSize)
	}

	if strings.TrimSpace(c.Queue.DefaultName) == "" {
		return fmt.Errorf("default queue name must not be blank")
	}

	if c.Redis.URL != "" && c.Redis.PoolSize <= 0 {
		return fmt.Errorf("invalid redis pool size: %d", c.Redis.PoolSize)
	}

	if c.RabbitMQ.URL != "" && c.RabbitMQ.Exchange == "" {
		return fmt.Errorf("rabbitmq exchange must be set when rabbitmq is enabled")
	}

	switch c.Consumer.ArchiveType {
	case "inmemory":
		if c.Consumer.ArchiveCapacity <= 0 {
			return fmt.Errorf("invalid archive capacity: %d", c.Consumer.ArchiveCapacity)
		}
	case "mongodb":
		if c.Mongo.URI == "" {
			return fmt.Errorf("mongodb archive requires MONGODB_URI")
		}
	default:
		return fmt.Errorf("unsupported archive type: %s", c.Consumer.ArchiveType)
	}

	if c.Consumer.Enabled && c.Consumer.PollTimeout <= 0 {
		return fmt.Errorf("invalid consumer poll timeout: %s", c.Consumer.PollTimeout)
	}

	return nil
}
