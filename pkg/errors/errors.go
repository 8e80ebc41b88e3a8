package errors

import (
	"fmt"
	"time"
)

// ErrorCategory is the taxonomy bucket assigned to a failure
type ErrorCategory string

const (
	CategoryNetwork        ErrorCategory = "network"
	CategoryAPI            ErrorCategory = "api"
	CategoryDatabase       ErrorCategory = "database"
	CategoryValidation     ErrorCategory = "validation"
	CategoryAuthentication ErrorCategory = "authentication"
	CategoryRateLimit      ErrorCategory = "rate_limit"
	CategoryTimeout        ErrorCategory = "timeout"
	CategoryInternal       ErrorCategory = "internal"
	CategoryUnknown        ErrorCategory = "unknown"
)

// Severity is the operational urgency assigned to a failure
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// PipelineError represents a failure enriched with category, severity and
// retryability. Category is assigned once at creation and never changes.
type PipelineError struct {
	Message    string                 `json:"message"`
	Category   ErrorCategory          `json:"category"`
	Severity   Severity               `json:"severity"`
	Code       string                 `json:"code,omitempty"`
	StatusCode int                    `json:"status_code,omitempty"`
	Retryable  bool                   `json:"retryable"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	Cause      error                  `json:"-"`
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Category, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

// Unwrap returns the underlying cause
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// New creates a structured error with severity and retryability derived
// from the category defaults.
func New(category ErrorCategory, message string) *PipelineError {
	return &PipelineError{
		Message:   message,
		Category:  category,
		Severity:  SeverityFor(category, 0),
		Retryable: IsRetryableDefault(category, 0),
		Metadata:  make(map[string]interface{}),
		Timestamp: time.Now(),
	}
}

// WithCause attaches the underlying cause
func (e *PipelineError) WithCause(cause error) *PipelineError {
	e.Cause = cause
	return e
}

// WithCode attaches a provider-specific error code
func (e *PipelineError) WithCode(code string) *PipelineError {
	e.Code = code
	return e
}

// WithStatusCode records the HTTP status code and re-derives severity and
// retryability from (category, status). Explicit WithSeverity/WithRetryable
// overrides must be applied after this call.
func (e *PipelineError) WithStatusCode(status int) *PipelineError {
	e.StatusCode = status
	e.Severity = SeverityFor(e.Category, status)
	e.Retryable = IsRetryableDefault(e.Category, status)
	return e
}

// WithSeverity overrides the derived severity
func (e *PipelineError) WithSeverity(severity Severity) *PipelineError {
	e.Severity = severity
	return e
}

// WithRetryable overrides the derived retryability
func (e *PipelineError) WithRetryable(retryable bool) *PipelineError {
	e.Retryable = retryable
	return e
}

// WithMetadata adds a metadata entry
func (e *PipelineError) WithMetadata(key string, value interface{}) *PipelineError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// Factory constructors. Each fixes the category to its name; severity and
// retryability come from the classifier defaults unless the caller overrides
// them. Factories never guess a category from message content.

func NewNetworkError(message string) *PipelineError {
	return New(CategoryNetwork, message).WithCode("NETWORK_ERROR")
}

func NewAPIError(message string) *PipelineError {
	return New(CategoryAPI, message).WithCode("API_ERROR")
}

func NewDatabaseError(message string) *PipelineError {
	return New(CategoryDatabase, message).WithCode("DATABASE_ERROR")
}

func NewValidationError(message string) *PipelineError {
	return New(CategoryValidation, message).WithCode("VALIDATION_ERROR")
}

func NewAuthenticationError(message string) *PipelineError {
	return New(CategoryAuthentication, message).WithCode("AUTHENTICATION_ERROR")
}

func NewRateLimitError(message string) *PipelineError {
	return New(CategoryRateLimit, message).WithCode("RATE_LIMIT_EXCEEDED")
}

func NewTimeoutError(operation string) *PipelineError {
	return New(CategoryTimeout, fmt.Sprintf("%s timed out", operation)).WithCode("TIMEOUT")
}

func NewInternalError(message string) *PipelineError {
	return New(CategoryInternal, message).WithCode("INTERNAL_ERROR")
}

// IsCategory checks if the error is a structured error of a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if pipeErr, ok := err.(*PipelineError); ok {
		return pipeErr.Category == category
	}
	return false
}

// GetSeverity returns the severity for structured errors and derives one
// for everything else
func GetSeverity(err error) Severity {
	if pipeErr, ok := err.(*PipelineError); ok {
		return pipeErr.Severity
	}
	return SeverityFor(Classify(err), 0)
}

// IsRetryable reports whether the error should be retried
func IsRetryable(err error) bool {
	if pipeErr, ok := err.(*PipelineError); ok {
		return pipeErr.Retryable
	}
	return IsRetryableDefault(Classify(err), 0)
}
