package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zmy-farmer/queue-router/internal/api/dto"
	"github.com/zmy-farmer/queue-router/internal/mq"
	"github.com/zmy-farmer/queue-router/pkg/utils"
)

const (
	// DefaultMessageType is applied to sends without a message type
	DefaultMessageType = "API"

	defaultBatchSize = 10
	maxBatchSize     = 1000
)

// QueueRouter is the router surface the HTTP API needs. *mq.Router
// satisfies it.
type QueueRouter interface {
	SwitchQueueString(queueType, name string) error
	Current() (mq.Selection, bool)
	AllQueueServices() map[string]mq.Service
}

// selected captures the current selection once per request so the queue
// that serves the operation and the one named in the response are the same.
// It records an error on c when nothing is selected.
func selected(c *gin.Context, router QueueRouter) (mq.Selection, bool) {
	sel, ok := router.Current()
	if !ok {
		_ = c.Error(fmt.Errorf("%w: no queue selected", mq.ErrUnavailableDependency))
	}
	return sel, ok
}

// QueueHandler handles queue-related API requests
type QueueHandler struct {
	router QueueRouter
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(router QueueRouter) *QueueHandler {
	return &QueueHandler{
		router: router,
	}
}

// SwitchQueue godoc
// @Summary Switch the current queue
// @Description Select the queue subsequent operations target, creating it on first use
// @Tags queue
// @Produce json
// @Param queueType query string true "Backend type" Enums(java, redis, rabbitmq)
// @Param queueName query string true "Queue name"
// @Success 200 {object} dto.SwitchQueueResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/queue/switch [post]
func (h *QueueHandler) SwitchQueue(c *gin.Context) {
	queueType := c.Query("queueType")
	queueName := c.Query("queueName")

	if err := h.router.SwitchQueueString(queueType, queueName); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.SwitchQueueResponse{
		Success:          true,
		Message:          "Queue switched",
		CurrentQueueType: mq.ParseType(queueType).String(),
		CurrentQueueName: queueName,
	})
}

// SendMessage godoc
// @Summary Send a message
// @Description Send one message to the current queue
// @Tags queue
// @Accept json
// @Produce json
// @Param request body dto.SendMessageRequest true "Message"
// @Success 200 {object} dto.SendMessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/queue/send [post]
func (h *QueueHandler) SendMessage(c *gin.Context) {
	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:     "Invalid request",
			Message:   "Request body must be a JSON message: " + err.Error(),
			Timestamp: utils.NowUTC(),
		})
		return
	}

	messageType := req.MessageType
	if messageType == "" {
		messageType = DefaultMessageType
	}

	msg := mq.NewTypedMessage("", req.Content, messageType).
		WithPriority(req.Priority).
		WithDelay(req.DelaySeconds)

	sel, found := selected(c, h.router)
	if !found {
		return
	}
	ok := sel.Service.SendMessage(c.Request.Context(), msg)

	c.JSON(http.StatusOK, dto.SendMessageResponse{
		Success:   ok,
		Message:   outcome(ok, "Message sent", "Message could not be sent"),
		MessageID: msg.ID,
		QueueType: sel.Type.String(),
		QueueName: sel.Name,
	})
}

// ReceiveMessage godoc
// @Summary Receive a message
// @Description Receive one message from the current queue. With a timeout the call waits for a message.
// @Tags queue
// @Produce json
// @Param timeout query string false "Wait duration, e.g. 2s"
// @Success 200 {object} dto.ReceiveMessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/queue/receive [get]
func (h *QueueHandler) ReceiveMessage(c *gin.Context) {
	var timeout time.Duration
	if raw := c.Query("timeout"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:     "Invalid timeout",
				Message:   "timeout must be a non-negative duration such as 500ms or 2s",
				Timestamp: utils.NowUTC(),
			})
			return
		}
		timeout = d
	}

	sel, found := selected(c, h.router)
	if !found {
		return
	}
	msg, ok := receive(c.Request.Context(), sel.Service, timeout)

	response := dto.ReceiveMessageResponse{
		Success:   ok,
		Message:   outcome(ok, "Message received", "No message available"),
		QueueType: sel.Type.String(),
		QueueName: sel.Name,
	}
	if ok {
		response.Data = dto.ToMessageResponse(msg)
	}
	c.JSON(http.StatusOK, response)
}

func receive(ctx context.Context, svc mq.Service, timeout time.Duration) (*mq.Message, bool) {
	if timeout > 0 {
		return svc.ReceiveMessageWithTimeout(ctx, timeout)
	}
	return svc.ReceiveMessage(ctx)
}

// ReceiveMessages godoc
// @Summary Receive a batch of messages
// @Description Drain up to maxMessages already queued messages from the current queue
// @Tags queue
// @Produce json
// @Param maxMessages query int false "Maximum messages" default(10)
// @Success 200 {object} dto.ReceiveBatchResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/queue/receive/batch [get]
func (h *QueueHandler) ReceiveMessages(c *gin.Context) {
	maxMessages, err := strconv.Atoi(c.DefaultQuery("maxMessages", strconv.Itoa(defaultBatchSize)))
	if err != nil || maxMessages <= 0 || maxMessages > maxBatchSize {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:     "Invalid maxMessages",
			Message:   "maxMessages must be an integer between 1 and " + strconv.Itoa(maxBatchSize),
			Timestamp: utils.NowUTC(),
		})
		return
	}

	sel, found := selected(c, h.router)
	if !found {
		return
	}
	msgs := sel.Service.ReceiveMessages(c.Request.Context(), maxMessages)

	c.JSON(http.StatusOK, dto.ReceiveBatchResponse{
		Success:   true,
		Message:   "Batch received",
		Data:      dto.ToMessageListResponse(msgs),
		Count:     len(msgs),
		QueueType: sel.Type.String(),
		QueueName: sel.Name,
	})
}

// GetQueueInfo godoc
// @Summary Describe the current queue
// @Tags queue
// @Produce json
// @Success 200 {object} dto.QueueInfoResponse
// @Router /api/v1/queue/info [get]
func (h *QueueHandler) GetQueueInfo(c *gin.Context) {
	sel, found := selected(c, h.router)
	if !found {
		return
	}
	ctx := c.Request.Context()

	c.JSON(http.StatusOK, dto.QueueInfoResponse{
		Success:   true,
		QueueType: sel.Type.String(),
		QueueName: sel.Name,
		QueueSize: sel.Service.QueueSize(ctx),
		IsEmpty:   sel.Service.IsEmpty(ctx),
	})
}

// ClearQueue godoc
// @Summary Clear the current queue
// @Tags queue
// @Produce json
// @Success 200 {object} dto.ClearQueueResponse
// @Router /api/v1/queue/clear [post]
func (h *QueueHandler) ClearQueue(c *gin.Context) {
	sel, found := selected(c, h.router)
	if !found {
		return
	}
	ok := sel.Service.ClearQueue(c.Request.Context())

	c.JSON(http.StatusOK, dto.ClearQueueResponse{
		Success:   ok,
		Message:   outcome(ok, "Queue cleared", "Queue could not be cleared"),
		QueueType: sel.Type.String(),
		QueueName: sel.Name,
	})
}

// GetQueueTypes godoc
// @Summary List supported backend types
// @Tags queue
// @Produce json
// @Success 200 {object} dto.QueueTypesResponse
// @Router /api/v1/queue/types [get]
func (h *QueueHandler) GetQueueTypes(c *gin.Context) {
	response := dto.QueueTypesResponse{
		Success:        true,
		SupportedTypes: dto.SupportedTypes(),
	}
	if sel, ok := h.router.Current(); ok {
		response.CurrentType = sel.Type.String()
		response.CurrentName = sel.Name
	}
	c.JSON(http.StatusOK, response)
}

// ListQueueServices godoc
// @Summary List cached queues
// @Description List every queue the router has created, with its current size
// @Tags queue
// @Produce json
// @Success 200 {object} dto.QueueServicesResponse
// @Router /api/v1/queue/services [get]
func (h *QueueHandler) ListQueueServices(c *gin.Context) {
	ctx := c.Request.Context()
	var currentKey string
	if sel, ok := h.router.Current(); ok {
		currentKey = sel.Type.String() + ":" + sel.Name
	}

	infos := make(map[string]dto.QueueServiceInfo)
	for key, svc := range h.router.AllQueueServices() {
		// Keys are "<type>:<name>" and type values never contain a colon
		_, name, _ := strings.Cut(key, ":")
		infos[key] = dto.QueueServiceInfo{
			QueueType: svc.QueueType().String(),
			QueueName: name,
			QueueSize: svc.QueueSize(ctx),
			Current:   key == currentKey,
		}
	}

	c.JSON(http.StatusOK, dto.ToQueueServicesResponse(infos))
}

func outcome(ok bool, success, failure string) string {
	if ok {
		return success
	}
	return failure
}
