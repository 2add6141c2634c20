package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zmy-farmer/queue-router/internal/api/dto"
	"github.com/zmy-farmer/queue-router/internal/api/middleware"
	"github.com/zmy-farmer/queue-router/internal/consumer"
	"github.com/zmy-farmer/queue-router/internal/mq"
	"github.com/zmy-farmer/queue-router/internal/storage"
)

func setupConsumerHandler(t *testing.T, c ConsumerStatusProvider, archive storage.MessageArchive) (*gin.Engine, *mq.Router) {
	t.Helper()
	queueRouter := newTestQueueRouter(t)
	handler := NewConsumerHandler(queueRouter, c, archive)

	engine, _ := setupGinTest()
	engine.Use(middleware.ErrorHandlerMiddleware(testLogger()))
	engine.POST("/consumer/send-test", handler.SendTestMessages)
	engine.GET("/consumer/status", handler.GetStatus)
	engine.GET("/consumer/archive", handler.ListArchive)
	return engine, queueRouter
}

func TestConsumerHandler_SendTestMessages(t *testing.T) {
	engine, queueRouter := setupConsumerHandler(t, &MockConsumer{}, &MockMessageArchive{})

	w := perform(engine, http.MethodPost, "/consumer/send-test", `{"content":"ping","count":3}`)
	require.Equal(t, http.StatusOK, w.Code)

	var response dto.SendTestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.Equal(t, 3, response.TotalCount)
	assert.Equal(t, 3, response.SuccessCount)
	assert.Len(t, response.MessageIDs, 3)

	msgs := queueRouter.ReceiveMessages(context.Background(), 10)
	require.Len(t, msgs, 3)
	assert.Equal(t, "ping - #1", msgs[0].Content)
	assert.Equal(t, consumer.TypeConsumerTest, msgs[0].Type)
	assert.Equal(t, "ping - #3", msgs[2].Content)
}

func TestConsumerHandler_SendTestMessages_Defaults(t *testing.T) {
	engine, queueRouter := setupConsumerHandler(t, &MockConsumer{}, &MockMessageArchive{})

	w := perform(engine, http.MethodPost, "/consumer/send-test", "")
	require.Equal(t, http.StatusOK, w.Code)

	msgs := queueRouter.ReceiveMessages(context.Background(), 10)
	require.Len(t, msgs, 1)
	assert.Equal(t, defaultTestContent+" - #1", msgs[0].Content)
}

func TestConsumerHandler_SendTestMessages_Invalid(t *testing.T) {
	engine, _ := setupConsumerHandler(t, &MockConsumer{}, &MockMessageArchive{})

	for _, body := range []string{`{"count":-1}`, `{"count":5000}`, `{"count":"many"}`} {
		w := perform(engine, http.MethodPost, "/consumer/send-test", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestConsumerHandler_GetStatus(t *testing.T) {
	mockConsumer := &MockConsumer{
		StatusFunc: func() consumer.Status {
			return consumer.Status{Running: true, Processed: 7, Failed: 1}
		},
	}
	engine, queueRouter := setupConsumerHandler(t, mockConsumer, &MockMessageArchive{})
	queueRouter.SendMessage(context.Background(), mq.NewMessage("1", "a"))

	w := perform(engine, http.MethodGet, "/consumer/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var response dto.ConsumerStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Consumer.Running)
	assert.Equal(t, int64(7), response.Consumer.Processed)
	assert.Equal(t, int64(1), response.QueueSize)
	assert.False(t, response.IsEmpty)
	assert.Equal(t, "java", response.QueueType)
}

func TestConsumerHandler_ListArchive(t *testing.T) {
	var gotFilter storage.ListFilter
	archive := &MockMessageArchive{
		ListFunc: func(ctx context.Context, filter storage.ListFilter) ([]*storage.ArchivedMessage, error) {
			gotFilter = filter
			return []*storage.ArchivedMessage{
				{MessageID: "m1", MessageType: "API", ArchivedAt: time.Now(), Handled: true},
			}, nil
		},
		CountFunc: func(ctx context.Context) (int64, error) {
			return 42, nil
		},
	}
	engine, _ := setupConsumerHandler(t, &MockConsumer{}, archive)

	w := perform(engine, http.MethodGet, "/consumer/archive?messageType=API&queueType=redis&limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)

	var response dto.ArchiveListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Count)
	assert.Equal(t, int64(42), response.Total)
	assert.Equal(t, "m1", response.Messages[0].MessageID)
	assert.Equal(t, storage.ListFilter{MessageType: "API", QueueType: "redis", Limit: 5}, gotFilter)
}

func TestConsumerHandler_ListArchive_Errors(t *testing.T) {
	archive := &MockMessageArchive{
		ListFunc: func(ctx context.Context, filter storage.ListFilter) ([]*storage.ArchivedMessage, error) {
			return nil, errors.New("mongo down")
		},
	}
	engine, _ := setupConsumerHandler(t, &MockConsumer{}, archive)

	w := perform(engine, http.MethodGet, "/consumer/archive?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(engine, http.MethodGet, "/consumer/archive", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "mongo down")
}

func TestConsumerHandler_ListArchive_Empty(t *testing.T) {
	engine, _ := setupConsumerHandler(t, &MockConsumer{}, &MockMessageArchive{})

	w := perform(engine, http.MethodGet, "/consumer/archive", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"messages":[]`)
}
