package consumer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zmy-farmer/queue-router/internal/mq"
	"github.com/zmy-farmer/queue-router/internal/storage"
	"github.com/zmy-farmer/queue-router/internal/storage/inmemory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T) *mq.Router {
	t.Helper()
	router, err := mq.NewRouter(
		mq.NewFactory(mq.WithLogger(testLogger())),
		mq.WithRouterLogger(testLogger()),
	)
	require.NoError(t, err)
	return router
}

var defaultOrigin = Origin{QueueType: mq.TypeInProcess, QueueName: mq.DefaultQueueName}

// switchingSource hands out the router's selection and then switches the
// router to another queue, as a concurrent API call would
type switchingSource struct {
	router   *mq.Router
	switchTo string
}

func (s *switchingSource) Current() (mq.Selection, bool) {
	sel, ok := s.router.Current()
	_ = s.router.SwitchQueue(mq.TypeInProcess, s.switchTo)
	return sel, ok
}

type countingRecorder struct {
	mu      sync.Mutex
	results map[string][]bool
}

func (r *countingRecorder) MessageConsumed(messageType string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.results == nil {
		r.results = make(map[string][]bool)
	}
	r.results[messageType] = append(r.results[messageType], ok)
}

// failingArchive rejects every store
type failingArchive struct{}

func (failingArchive) Store(ctx context.Context, msg *storage.ArchivedMessage) error {
	return errors.New("archive offline")
}

func (failingArchive) List(ctx context.Context, filter storage.ListFilter) ([]*storage.ArchivedMessage, error) {
	return nil, nil
}

func (failingArchive) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func TestConsumer_ProcessDispatchesByType(t *testing.T) {
	router := newTestRouter(t)
	archive := inmemory.NewMessageArchive()
	recorder := &countingRecorder{}
	c := New(router, archive, WithLogger(testLogger()), WithRecorder(recorder))
	ctx := context.Background()

	var userSeen, defaultSeen []string
	c.Handle(TypeUser, func(ctx context.Context, msg *mq.Message) error {
		userSeen = append(userSeen, msg.ID)
		return nil
	})
	c.HandleDefault(func(ctx context.Context, msg *mq.Message) error {
		defaultSeen = append(defaultSeen, msg.ID)
		return nil
	})

	assert.True(t, c.Process(ctx, mq.NewTypedMessage("u1", "x", TypeUser), defaultOrigin))
	assert.True(t, c.Process(ctx, mq.NewTypedMessage("o1", "x", "OTHER"), defaultOrigin))
	assert.True(t, c.Process(ctx, mq.NewTypedMessage("a1", "x", TypeAPI), defaultOrigin))
	assert.False(t, c.Process(ctx, nil, defaultOrigin))

	assert.Equal(t, []string{"u1"}, userSeen)
	assert.Equal(t, []string{"o1"}, defaultSeen)

	status := c.Status()
	assert.Equal(t, int64(3), status.Processed)
	assert.Equal(t, int64(0), status.Failed)
	assert.Equal(t, "a1", status.LastMessageID)

	records, err := archive.List(ctx, storage.ListFilter{})
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, r := range records {
		assert.True(t, r.Handled)
		assert.Equal(t, "java", r.QueueType)
		assert.Equal(t, mq.DefaultQueueName, r.QueueName)
	}

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	assert.Equal(t, []bool{true}, recorder.results[TypeUser])
}

func TestConsumer_ProcessFailures(t *testing.T) {
	archive := inmemory.NewMessageArchive()
	c := New(newTestRouter(t), archive, WithLogger(testLogger()))
	ctx := context.Background()

	c.Handle(TypeSystem, func(ctx context.Context, msg *mq.Message) error {
		return errors.New("boom")
	})
	c.Handle(TypeAPI, func(ctx context.Context, msg *mq.Message) error {
		panic("handler bug")
	})

	assert.False(t, c.Process(ctx, mq.NewTypedMessage("s1", "x", TypeSystem), defaultOrigin))
	assert.False(t, c.Process(ctx, mq.NewTypedMessage("a1", "x", TypeAPI), defaultOrigin))

	status := c.Status()
	assert.Equal(t, int64(0), status.Processed)
	assert.Equal(t, int64(2), status.Failed)

	records, err := archive.List(ctx, storage.ListFilter{MessageType: TypeSystem})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].Handled)
	assert.Equal(t, "boom", records[0].Error)
}

func TestConsumer_ArchiveFailureIsNotFatal(t *testing.T) {
	c := New(newTestRouter(t), failingArchive{}, WithLogger(testLogger()))

	assert.True(t, c.Process(context.Background(), mq.NewTypedMessage("1", "x", TypeAPI), defaultOrigin))
	status := c.Status()
	assert.Equal(t, int64(1), status.Processed)
	assert.Equal(t, int64(1), status.ArchiveErrors)
}

func TestConsumer_NilArchive(t *testing.T) {
	c := New(newTestRouter(t), nil, WithLogger(testLogger()))
	assert.True(t, c.Process(context.Background(), mq.NewTypedMessage("1", "x", TypeAPI), defaultOrigin))
}

func TestConsumer_StartStop(t *testing.T) {
	router := newTestRouter(t)
	archive := inmemory.NewMessageArchive()
	c := New(router, archive, WithLogger(testLogger()), WithPollTimeout(20*time.Millisecond))
	ctx := context.Background()

	require.NoError(t, c.Start(ctx))
	assert.ErrorIs(t, c.Start(ctx), ErrAlreadyRunning)
	assert.True(t, c.Status().Running)

	for _, id := range []string{"m1", "m2", "m3"} {
		require.True(t, router.SendMessage(ctx, mq.NewTypedMessage(id, "x", TypeConsumerTest)))
	}

	require.Eventually(t, func() bool {
		return c.Status().Processed == 3
	}, 2*time.Second, 10*time.Millisecond)

	c.Stop()
	assert.False(t, c.Status().Running)
	assert.True(t, router.IsEmpty(ctx))

	count, err := archive.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	// Stop is idempotent and the consumer can be restarted
	c.Stop()
	require.NoError(t, c.Start(ctx))
	c.Stop()
}

func TestConsumer_StopsWithParentContext(t *testing.T) {
	c := New(newTestRouter(t), nil, WithLogger(testLogger()), WithPollTimeout(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, c.Start(ctx))
	cancel()

	require.Eventually(t, func() bool {
		return !c.Status().Running
	}, time.Second, 10*time.Millisecond)
}

func TestConsumer_StatusListsHandledTypes(t *testing.T) {
	c := New(newTestRouter(t), nil, WithLogger(testLogger()))
	c.Handle("CUSTOM", func(ctx context.Context, msg *mq.Message) error { return nil })

	status := c.Status()
	assert.Equal(t, []string{TypeAPI, TypeBatchTest, TypeConsumerTest, "CUSTOM", TypeSystem, TypeUser}, status.HandledTypes)
	assert.Equal(t, DefaultPollTimeout.String(), status.PollTimeout)
	assert.False(t, status.Running)
}

func TestConsumer_ArchivesReceivingQueue(t *testing.T) {
	router := newTestRouter(t)
	ctx := context.Background()

	require.NoError(t, router.SwitchQueue(mq.TypeInProcess, "orders"))
	require.True(t, router.SendMessage(ctx, mq.NewTypedMessage("o1", "x", TypeAPI)))

	archive := inmemory.NewMessageArchive()
	c := New(&switchingSource{router: router, switchTo: "audit"}, archive,
		WithLogger(testLogger()),
		WithPollTimeout(20*time.Millisecond),
	)

	require.NoError(t, c.Start(ctx))
	require.Eventually(t, func() bool {
		return c.Status().Processed == 1
	}, 2*time.Second, 10*time.Millisecond)
	c.Stop()

	assert.Equal(t, "audit", router.CurrentQueueName())

	records, err := archive.List(ctx, storage.ListFilter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "o1", records[0].MessageID)
	assert.Equal(t, "java", records[0].QueueType)
	assert.Equal(t, "orders", records[0].QueueName)
}

func TestConsumer_ProcessRecordsOrigin(t *testing.T) {
	archive := inmemory.NewMessageArchive()
	c := New(newTestRouter(t), archive, WithLogger(testLogger()))
	ctx := context.Background()

	from := Origin{QueueType: mq.TypeRedis, QueueName: "orders"}
	require.True(t, c.Process(ctx, mq.NewTypedMessage("r1", "x", TypeAPI), from))

	records, err := archive.List(ctx, storage.ListFilter{QueueType: "redis"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "orders", records[0].QueueName)
}
