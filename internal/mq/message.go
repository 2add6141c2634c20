package mq

import (
	"time"

	"github.com/google/uuid"
)

// Message represents a message travelling through a queue backend.
// The JSON field names are the wire format shared by the Redis and
// RabbitMQ backends.
type Message struct {
	// ID is a unique identifier for this message
	ID string `json:"messageId"`

	// Content is the message payload
	Content string `json:"content"`

	// Type is a free-form classification tag
	// Examples: "API", "SYSTEM", "USER"
	Type string `json:"messageType"`

	// CreatedAt is when the message was created
	CreatedAt time.Time `json:"createTime"`

	// Priority is advisory for the in-process and Redis backends and is
	// forwarded as the AMQP priority by the RabbitMQ backend
	Priority int `json:"priority"`

	// DelaySeconds is advisory; no backend enforces it
	DelaySeconds int64 `json:"delaySeconds"`
}

// NewMessage creates a message with default creation time, priority and delay.
// An empty id is replaced by a generated UUID.
func NewMessage(id, content string) *Message {
	return NewTypedMessage(id, content, "")
}

// NewTypedMessage creates a message carrying a classification tag
func NewTypedMessage(id, content, msgType string) *Message {
	if id == "" {
		id = uuid.New().String()
	}

	return &Message{
		ID:           id,
		Content:      content,
		Type:         msgType,
		CreatedAt:    time.Now(),
		Priority:     0,
		DelaySeconds: 0,
	}
}

// WithPriority sets the priority (fluent API)
func (m *Message) WithPriority(priority int) *Message {
	m.Priority = priority
	return m
}

// WithDelay sets the advisory delay (fluent API)
func (m *Message) WithDelay(seconds int64) *Message {
	m.DelaySeconds = seconds
	return m
}
