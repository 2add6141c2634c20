package dto

import (
	"sort"

	"github.com/zmy-farmer/queue-router/internal/mq"
	"github.com/zmy-farmer/queue-router/pkg/utils"
)

// ToMessageResponse converts mq.Message to dto.MessageResponse
func ToMessageResponse(msg *mq.Message) *MessageResponse {
	if msg == nil {
		return nil
	}

	return &MessageResponse{
		MessageID:    msg.ID,
		Content:      msg.Content,
		MessageType:  msg.Type,
		CreateTime:   utils.FormatTimestamp(msg.CreatedAt),
		Priority:     msg.Priority,
		DelaySeconds: msg.DelaySeconds,
	}
}

// ToMessageListResponse converts a slice of mq.Message, never returning nil
func ToMessageListResponse(msgs []*mq.Message) []*MessageResponse {
	responses := make([]*MessageResponse, 0, len(msgs))
	for _, msg := range msgs {
		responses = append(responses, ToMessageResponse(msg))
	}
	return responses
}

// ToQueueServicesResponse converts the router cache snapshot, sorted by key
func ToQueueServicesResponse(services map[string]QueueServiceInfo) *QueueServicesResponse {
	infos := make([]*QueueServiceInfo, 0, len(services))
	for key := range services {
		info := services[key]
		info.Key = key
		infos = append(infos, &info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Key < infos[j].Key
	})

	return &QueueServicesResponse{
		Success:  true,
		Services: infos,
		Total:    len(infos),
	}
}

// SupportedTypes lists the backend type names
func SupportedTypes() []string {
	types := mq.Types()
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, t.String())
	}
	return names
}
