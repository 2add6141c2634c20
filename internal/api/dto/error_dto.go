package dto

import "time"

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error     string    `json:"error" example:"Invalid argument"`
	Message   string    `json:"message" example:"invalid argument: queue name must not be blank"`
	Timestamp time.Time `json:"timestamp" example:"2025-01-18T12:34:56Z"`
}
