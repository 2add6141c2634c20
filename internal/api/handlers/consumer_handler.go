package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zmy-farmer/queue-router/internal/api/dto"
	"github.com/zmy-farmer/queue-router/internal/consumer"
	"github.com/zmy-farmer/queue-router/internal/mq"
	"github.com/zmy-farmer/queue-router/internal/storage"
	"github.com/zmy-farmer/queue-router/pkg/utils"
)

const (
	defaultTestContent = "test message"
	maxTestCount       = 1000
)

// ConsumerStatusProvider reports background consumer status
type ConsumerStatusProvider interface {
	Status() consumer.Status
}

// ConsumerHandler handles consumer test and archive requests
type ConsumerHandler struct {
	router   QueueRouter
	consumer ConsumerStatusProvider
	archive  storage.MessageArchive
}

// NewConsumerHandler creates a new consumer handler
func NewConsumerHandler(router QueueRouter, c ConsumerStatusProvider, archive storage.MessageArchive) *ConsumerHandler {
	return &ConsumerHandler{
		router:   router,
		consumer: c,
		archive:  archive,
	}
}

// SendTestMessages godoc
// @Summary Send consumer test messages
// @Description Send count numbered test messages to the current queue
// @Tags consumer
// @Accept json
// @Produce json
// @Param request body dto.SendTestRequest false "Test messages"
// @Success 200 {object} dto.SendTestResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/consumer/send-test [post]
func (h *ConsumerHandler) SendTestMessages(c *gin.Context) {
	var req dto.SendTestRequest
	// An empty body means all defaults
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:     "Invalid request",
			Message:   "Request body must be JSON: " + err.Error(),
			Timestamp: utils.NowUTC(),
		})
		return
	}

	if req.Content == "" {
		req.Content = defaultTestContent
	}
	if req.MessageType == "" {
		req.MessageType = consumer.TypeConsumerTest
	}
	if req.Count == 0 {
		req.Count = 1
	}
	if req.Count < 0 || req.Count > maxTestCount {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:     "Invalid count",
			Message:   "count must be between 1 and " + strconv.Itoa(maxTestCount),
			Timestamp: utils.NowUTC(),
		})
		return
	}

	sel, found := selected(c, h.router)
	if !found {
		return
	}

	ctx := c.Request.Context()
	ids := make([]string, 0, req.Count)
	succeeded := 0
	for i := 0; i < req.Count; i++ {
		msg := mq.NewTypedMessage("", fmt.Sprintf("%s - #%d", req.Content, i+1), req.MessageType)
		ids = append(ids, msg.ID)
		if sel.Service.SendMessage(ctx, msg) {
			succeeded++
		}
	}

	c.JSON(http.StatusOK, dto.SendTestResponse{
		Success:      succeeded == req.Count,
		Message:      fmt.Sprintf("Sent %d of %d test messages", succeeded, req.Count),
		TotalCount:   req.Count,
		SuccessCount: succeeded,
		MessageIDs:   ids,
		QueueType:    sel.Type.String(),
		QueueName:    sel.Name,
	})
}

// GetStatus godoc
// @Summary Consumer status
// @Tags consumer
// @Produce json
// @Success 200 {object} dto.ConsumerStatusResponse
// @Router /api/v1/consumer/status [get]
func (h *ConsumerHandler) GetStatus(c *gin.Context) {
	sel, found := selected(c, h.router)
	if !found {
		return
	}

	ctx := c.Request.Context()
	status := h.consumer.Status()

	c.JSON(http.StatusOK, dto.ConsumerStatusResponse{
		Success:   true,
		Message:   outcome(status.Running, "Consumer running", "Consumer stopped"),
		QueueType: sel.Type.String(),
		QueueName: sel.Name,
		QueueSize: sel.Service.QueueSize(ctx),
		IsEmpty:   sel.Service.IsEmpty(ctx),
		Consumer:  status,
	})
}

// ListArchive godoc
// @Summary List archived messages
// @Description List messages handled by the consumer, newest first
// @Tags consumer
// @Produce json
// @Param messageType query string false "Filter by message type"
// @Param queueType query string false "Filter by queue type"
// @Param limit query int false "Maximum results" default(100)
// @Success 200 {object} dto.ArchiveListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/consumer/archive [get]
func (h *ConsumerHandler) ListArchive(c *gin.Context) {
	filter := storage.ListFilter{
		MessageType: c.Query("messageType"),
		QueueType:   c.Query("queueType"),
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:     "Invalid limit",
				Message:   "limit must be a positive integer",
				Timestamp: utils.NowUTC(),
			})
			return
		}
		filter.Limit = limit
	}

	ctx := c.Request.Context()
	messages, err := h.archive.List(ctx, filter)
	if err != nil {
		_ = c.Error(fmt.Errorf("failed to list archived messages: %w", err))
		return
	}

	total, err := h.archive.Count(ctx)
	if err != nil {
		_ = c.Error(fmt.Errorf("failed to count archived messages: %w", err))
		return
	}

	if messages == nil {
		messages = []*storage.ArchivedMessage{}
	}

	c.JSON(http.StatusOK, dto.ArchiveListResponse{
		Success:  true,
		Messages: messages,
		Count:    len(messages),
		Total:    total,
	})
}
