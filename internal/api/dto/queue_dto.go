package dto

// SwitchQueueResponse is returned after a successful queue switch
type SwitchQueueResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	CurrentQueueType string `json:"currentQueueType" example:"redis"`
	CurrentQueueName string `json:"currentQueueName" example:"orders"`
}

// SendMessageRequest is the body of a send request
type SendMessageRequest struct {
	Content      string `json:"content" example:"hello"`
	MessageType  string `json:"messageType" example:"API"`
	Priority     int    `json:"priority"`
	DelaySeconds int64  `json:"delaySeconds"`
}

// SendMessageResponse reports the outcome of a send
type SendMessageResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MessageID string `json:"messageId"`
	QueueType string `json:"queueType"`
	QueueName string `json:"queueName"`
}

// MessageResponse is the API view of a queued message
type MessageResponse struct {
	MessageID    string `json:"messageId"`
	Content      string `json:"content"`
	MessageType  string `json:"messageType"`
	CreateTime   string `json:"createTime" example:"2025-01-18T12:34:56Z"`
	Priority     int    `json:"priority"`
	DelaySeconds int64  `json:"delaySeconds"`
}

// ReceiveMessageResponse carries at most one received message
type ReceiveMessageResponse struct {
	Success   bool             `json:"success"`
	Message   string           `json:"message"`
	Data      *MessageResponse `json:"data,omitempty"`
	QueueType string           `json:"queueType"`
	QueueName string           `json:"queueName"`
}

// ReceiveBatchResponse carries the messages drained by a batch receive
type ReceiveBatchResponse struct {
	Success   bool               `json:"success"`
	Message   string             `json:"message"`
	Data      []*MessageResponse `json:"data"`
	Count     int                `json:"count"`
	QueueType string             `json:"queueType"`
	QueueName string             `json:"queueName"`
}

// QueueInfoResponse describes the current queue
type QueueInfoResponse struct {
	Success   bool   `json:"success"`
	QueueType string `json:"queueType"`
	QueueName string `json:"queueName"`
	QueueSize int64  `json:"queueSize"`
	IsEmpty   bool   `json:"isEmpty"`
}

// ClearQueueResponse reports the outcome of a clear
type ClearQueueResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	QueueType string `json:"queueType"`
	QueueName string `json:"queueName"`
}

// QueueTypesResponse lists the supported backend types
type QueueTypesResponse struct {
	Success        bool     `json:"success"`
	SupportedTypes []string `json:"supportedTypes"`
	CurrentType    string   `json:"currentType"`
	CurrentName    string   `json:"currentName"`
}

// QueueServiceInfo describes one cached queue
type QueueServiceInfo struct {
	Key       string `json:"key" example:"redis:orders"`
	QueueType string `json:"queueType"`
	QueueName string `json:"queueName"`
	QueueSize int64  `json:"queueSize"`
	Current   bool   `json:"current"`
}

// QueueServicesResponse lists every cached queue
type QueueServicesResponse struct {
	Success  bool                `json:"success"`
	Services []*QueueServiceInfo `json:"services"`
	Total    int                 `json:"total"`
}
