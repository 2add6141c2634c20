package storage

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidInput is returned when a record is missing required fields
var ErrInvalidInput = errors.New("invalid input")

// DefaultListLimit caps List results when no limit is given
const DefaultListLimit = 100

// ArchivedMessage is a consumed message together with where it came from
// and how it was handled
type ArchivedMessage struct {
	MessageID   string    `bson:"message_id" json:"messageId"`
	Content     string    `bson:"content" json:"content"`
	MessageType string    `bson:"message_type" json:"messageType"`
	QueueType   string    `bson:"queue_type" json:"queueType"`
	QueueName   string    `bson:"queue_name" json:"queueName"`
	CreatedAt   time.Time `bson:"created_at" json:"createTime"`
	ArchivedAt  time.Time `bson:"archived_at" json:"archivedAt"`
	Handled     bool      `bson:"handled" json:"handled"`
	Error       string    `bson:"error,omitempty" json:"error,omitempty"`
}

// ListFilter represents optional filters for listing archived messages
type ListFilter struct {
	MessageType string
	QueueType   string
	Limit       int
}

// EffectiveLimit returns the limit to apply
func (f ListFilter) EffectiveLimit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// MessageArchive defines the interface for archived message storage
type MessageArchive interface {
	// Store persists an archived message
	Store(ctx context.Context, msg *ArchivedMessage) error

	// List returns archived messages matching filter, newest first
	List(ctx context.Context, filter ListFilter) ([]*ArchivedMessage, error)

	// Count returns the total number of archived messages
	Count(ctx context.Context) (int64, error)
}

// Validate checks the fields every archive requires
func (m *ArchivedMessage) Validate() error {
	if m == nil || m.MessageID == "" {
		return ErrInvalidInput
	}
	return nil
}
