// Package utils holds the JSON envelope the payment endpoints respond
// with. Data and Error are mutually exclusive by construction.
package utils

import "time"

type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// SuccessResponse wraps a payload for a completed operation.
func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// ErrorResponse wraps a failure with an operator-readable detail string.
func ErrorResponse(message, error string) APIResponse {
	return APIResponse{
		Success:   false,
		Message:   message,
		Error:     error,
		Timestamp: time.Now(),
	}
}

// InvalidPayload is the standard rejection for malformed or incomplete
// payment requests.
func InvalidPayload(detail string) APIResponse {
	return ErrorResponse("Invalid request payload", detail)
}
