package inmemory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zmy-farmer/queue-router/internal/storage"
)

func archived(id, msgType, queueType string, at time.Time) *storage.ArchivedMessage {
	return &storage.ArchivedMessage{
		MessageID:   id,
		Content:     "content-" + id,
		MessageType: msgType,
		QueueType:   queueType,
		QueueName:   "default",
		CreatedAt:   at,
		ArchivedAt:  at,
		Handled:     true,
	}
}

func TestMessageArchive_StoreAndCount(t *testing.T) {
	archive := NewMessageArchive()
	ctx := context.Background()

	require.NoError(t, archive.Store(ctx, archived("1", "API", "java", time.Now())))
	require.NoError(t, archive.Store(ctx, archived("2", "USER", "redis", time.Now())))

	count, err := archive.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestMessageArchive_StoreInvalid(t *testing.T) {
	archive := NewMessageArchive()
	ctx := context.Background()

	assert.ErrorIs(t, archive.Store(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, archive.Store(ctx, &storage.ArchivedMessage{}), storage.ErrInvalidInput)
}

func TestMessageArchive_StoreCopies(t *testing.T) {
	archive := NewMessageArchive()
	ctx := context.Background()

	msg := archived("1", "API", "java", time.Now())
	require.NoError(t, archive.Store(ctx, msg))
	msg.Content = "mutated"

	list, err := archive.List(ctx, storage.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, "content-1", list[0].Content)
}

func TestMessageArchive_ListFiltersAndOrders(t *testing.T) {
	archive := NewMessageArchive()
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, archive.Store(ctx, archived("old", "API", "java", base.Add(-2*time.Minute))))
	require.NoError(t, archive.Store(ctx, archived("new", "API", "redis", base)))
	require.NoError(t, archive.Store(ctx, archived("sys", "SYSTEM", "java", base.Add(-time.Minute))))

	all, err := archive.List(ctx, storage.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "new", all[0].MessageID)
	assert.Equal(t, "sys", all[1].MessageID)
	assert.Equal(t, "old", all[2].MessageID)

	api, err := archive.List(ctx, storage.ListFilter{MessageType: "API"})
	require.NoError(t, err)
	assert.Len(t, api, 2)

	javaAPI, err := archive.List(ctx, storage.ListFilter{MessageType: "API", QueueType: "java"})
	require.NoError(t, err)
	require.Len(t, javaAPI, 1)
	assert.Equal(t, "old", javaAPI[0].MessageID)

	limited, err := archive.List(ctx, storage.ListFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMessageArchive_Clear(t *testing.T) {
	archive := NewMessageArchive()
	ctx := context.Background()

	require.NoError(t, archive.Store(ctx, archived("1", "API", "java", time.Now())))
	archive.Clear()

	count, _ := archive.Count(ctx)
	assert.Zero(t, count)
}

func TestMessageArchive_ConcurrentStore(t *testing.T) {
	archive := NewMessageArchive()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, archive.Store(ctx, archived(fmt.Sprintf("m%d", i), "API", "java", time.Now())))
		}(i)
	}
	wg.Wait()

	count, _ := archive.Count(ctx)
	assert.Equal(t, int64(50), count)
}

func TestMessageArchive_EvictsOldestWhenFull(t *testing.T) {
	archive := NewMessageArchive(WithCapacity(3))
	ctx := context.Background()
	base := time.Date(2024, 5, 6, 7, 0, 0, 0, time.UTC)

	for i := 1; i <= 5; i++ {
		require.NoError(t, archive.Store(ctx, archived(fmt.Sprint(i), "API", "java", base.Add(time.Duration(i)*time.Minute))))
	}

	count, err := archive.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	records, err := archive.List(ctx, storage.ListFilter{})
	require.NoError(t, err)
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.MessageID)
	}
	assert.Equal(t, []string{"5", "4", "3"}, ids)
}

func TestMessageArchive_ListReturnsCopies(t *testing.T) {
	archive := NewMessageArchive()
	ctx := context.Background()

	original := archived("1", "API", "java", time.Now())
	require.NoError(t, archive.Store(ctx, original))
	original.Content = "mutated by caller"

	first, err := archive.List(ctx, storage.ListFilter{})
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "content-1", first[0].Content)

	first[0].Content = "mutated by reader"
	second, err := archive.List(ctx, storage.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, "content-1", second[0].Content)
}

func TestNewMessageArchive_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultCapacity, NewMessageArchive().capacity)
	assert.Equal(t, DefaultCapacity, NewMessageArchive(WithCapacity(0)).capacity)
	assert.Equal(t, 7, NewMessageArchive(WithCapacity(7)).capacity)
}
