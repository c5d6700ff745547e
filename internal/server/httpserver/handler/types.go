package handler

import (
	"time"

	"github.com/yndnr/relog-go/internal/kvstore"
)

// Response is the standard API response envelope.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// Error codes.
const (
	CodeBadKey      = "RL-KV-4001"
	CodeBadBody     = "RL-KV-4002"
	CodeNotFound    = "RL-KV-4040"
	CodeTooLarge    = "RL-KV-4130"
	CodeUnavailable = "RL-SYS-5030"
	CodeInternal    = "RL-SYS-5000"
	CodeRateLimited = "RL-SYS-4290"
	CodeCanceled    = "RL-SYS-4990"
)

// StatusResponse is the body of the admin status endpoints.
type StatusResponse struct {
	Version string         `json:"version"`
	Uptime  string         `json:"uptime"`
	Store   kvstore.Status `json:"store"`
}
