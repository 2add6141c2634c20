package dto

import (
	"github.com/zmy-farmer/queue-router/internal/consumer"
	"github.com/zmy-farmer/queue-router/internal/storage"
)

// SendTestRequest is the body of a consumer test send
type SendTestRequest struct {
	Content     string `json:"content" example:"test message"`
	MessageType string `json:"messageType" example:"CONSUMER_TEST"`
	Count       int    `json:"count" example:"3"`
}

// SendTestResponse reports how many test messages were sent
type SendTestResponse struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	TotalCount   int      `json:"totalCount"`
	SuccessCount int      `json:"successCount"`
	MessageIDs   []string `json:"messageIds"`
	QueueType    string   `json:"queueType"`
	QueueName    string   `json:"queueName"`
}

// ConsumerStatusResponse describes the consumer and the queue it polls
type ConsumerStatusResponse struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	QueueType string          `json:"queueType"`
	QueueName string          `json:"queueName"`
	QueueSize int64           `json:"queueSize"`
	IsEmpty   bool            `json:"isEmpty"`
	Consumer  consumer.Status `json:"consumer"`
}

// ArchiveListResponse lists archived messages
type ArchiveListResponse struct {
	Success  bool                       `json:"success"`
	Messages []*storage.ArchivedMessage `json:"messages"`
	Count    int                        `json:"count"`
	Total    int64                      `json:"total"`
}
