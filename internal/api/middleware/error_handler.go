package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zmy-farmer/queue-router/internal/api/dto"
	"github.com/zmy-farmer/queue-router/internal/mq"
	"github.com/zmy-farmer/queue-router/pkg/utils"
)

// ErrorHandlerMiddleware turns errors attached with c.Error into
// standardized error responses
func ErrorHandlerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		c.Next()

		// Check if there were any errors during request processing
		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			status, title := classify(err.Err)

			logger.Error("Request error",
				"error", err.Error(),
				"status", status,
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			)

			// If response hasn't been written yet, send error response
			if !c.Writer.Written() {
				c.JSON(status, dto.ErrorResponse{
					Error:     title,
					Message:   err.Error(),
					Timestamp: utils.NowUTC(),
				})
			}
		}
	}
}

// classify maps router errors to HTTP statuses
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, mq.ErrInvalidArgument):
		return http.StatusBadRequest, "Invalid argument"
	case errors.Is(err, mq.ErrUnavailableDependency):
		return http.StatusServiceUnavailable, "Backend unavailable"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}
