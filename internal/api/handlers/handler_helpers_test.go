package handlers

import (
	"context"
	"net/http/httptest"

	"github.com/gin-gonic/gin"

	"github.com/zmy-farmer/queue-router/internal/consumer"
	"github.com/zmy-farmer/queue-router/internal/storage"
)

// MockConsumer implements ConsumerStatusProvider for testing
type MockConsumer struct {
	StatusFunc func() consumer.Status
}

func (m *MockConsumer) Status() consumer.Status {
	if m.StatusFunc != nil {
		return m.StatusFunc()
	}
	return consumer.Status{}
}

// MockMessageArchive implements storage.MessageArchive for testing
type MockMessageArchive struct {
	StoreFunc func(ctx context.Context, msg *storage.ArchivedMessage) error
	ListFunc  func(ctx context.Context, filter storage.ListFilter) ([]*storage.ArchivedMessage, error)
	CountFunc func(ctx context.Context) (int64, error)
}

func (m *MockMessageArchive) Store(ctx context.Context, msg *storage.ArchivedMessage) error {
	if m.StoreFunc != nil {
		return m.StoreFunc(ctx, msg)
	}
	return nil
}

func (m *MockMessageArchive) List(ctx context.Context, filter storage.ListFilter) ([]*storage.ArchivedMessage, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return nil, nil
}

func (m *MockMessageArchive) Count(ctx context.Context) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

func setupGinTest() (*gin.Engine, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	w := httptest.NewRecorder()
	return router, w
}
