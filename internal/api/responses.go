package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pressbot/pressbot/pkg/errors"
)

// APIResponse is the standard response envelope
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// APIError carries the error portion of a response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func requestID(c *gin.Context) string {
	if id, ok := c.Get("request_id"); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

// SuccessResponse sends a successful response
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success:   true,
		Data:      data,
		RequestID: requestID(c),
		Timestamp: time.Now(),
	})
}

// ErrorResponse sends an error response, mapping the error's status code
// when it carries one
func ErrorResponse(c *gin.Context, err error) {
	perr := errors.FromError(err)

	status := perr.StatusCode
	if status == 0 {
		switch perr.Category {
		case errors.CategoryValidation:
			status = http.StatusBadRequest
		case errors.CategoryAuthentication:
			status = http.StatusUnauthorized
		default:
			status = http.StatusInternalServerError
		}
	}

	c.JSON(status, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    perr.Code,
			Message: perr.Message,
		},
		RequestID: requestID(c),
		Timestamp: time.Now(),
	})
}

// NotFoundResponse sends a 404 response
func NotFoundResponse(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    "NOT_FOUND",
			Message: message,
		},
		RequestID: requestID(c),
		Timestamp: time.Now(),
	})
}
