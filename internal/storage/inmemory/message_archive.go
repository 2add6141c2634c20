package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/zmy-farmer/queue-router/internal/storage"
)

// DefaultCapacity is the number of records kept when no capacity is set
const DefaultCapacity = 10000

// MessageArchive is an in-memory implementation of storage.MessageArchive.
// Records live in a fixed-size ring; once full, each store evicts the
// oldest record. Records are copied on the way in and on the way out.
type MessageArchive struct {
	mu       sync.RWMutex
	capacity int
	records  []storage.ArchivedMessage
	next     int // slot overwritten by the next store once the ring is full
}

var _ storage.MessageArchive = (*MessageArchive)(nil)

// Option configures a MessageArchive
type Option func(*MessageArchive)

// WithCapacity bounds the number of retained records. Non-positive values
// keep the default.
func WithCapacity(n int) Option {
	return func(a *MessageArchive) {
		if n > 0 {
			a.capacity = n
		}
	}
}

// NewMessageArchive creates a new in-memory message archive
func NewMessageArchive(opts ...Option) *MessageArchive {
	a := &MessageArchive{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Store persists an archived message
// Thread-safe for concurrent writes
func (a *MessageArchive) Store(ctx context.Context, msg *storage.ArchivedMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.records) < a.capacity {
		a.records = append(a.records, *msg)
		return nil
	}

	a.records[a.next] = *msg
	a.next = (a.next + 1) % a.capacity
	return nil
}

// List returns copies of the archived messages matching filter, newest first
func (a *MessageArchive) List(ctx context.Context, filter storage.ListFilter) ([]*storage.ArchivedMessage, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	filtered := make([]*storage.ArchivedMessage, 0)
	for i := range a.records {
		if filter.MessageType != "" && a.records[i].MessageType != filter.MessageType {
			continue
		}
		if filter.QueueType != "" && a.records[i].QueueType != filter.QueueType {
			continue
		}
		copied := a.records[i]
		filtered = append(filtered, &copied)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].ArchivedAt.After(filtered[j].ArchivedAt)
	})

	if limit := filter.EffectiveLimit(); len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

// Count returns the number of retained records
func (a *MessageArchive) Count(ctx context.Context) (int64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return int64(len(a.records)), nil
}

// Clear removes all archived messages
// Useful for testing
func (a *MessageArchive) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.records = nil
	a.next = 0
}
