package errors

import "strings"

// classifyCheck pairs a category with the message substrings that select it.
// The table is ordered; the first matching entry wins. Matching on message
// text is inherently fragile (a validation message containing "timeout"
// classifies as timeout) but it is the only signal available for errors of
// unknown origin, so the heuristics live here and nowhere else.
type classifyCheck struct {
	category ErrorCategory
	patterns []string
}

var classifyChecks = []classifyCheck{
	{CategoryNetwork, []string{
		"connection refused", "connection reset", "econnrefused", "econnreset",
		"no such host", "dns", "network is unreachable", "broken pipe",
	}},
	{CategoryTimeout, []string{
		"timeout", "timed out", "deadline exceeded",
	}},
	{CategoryRateLimit, []string{
		"429", "too many requests", "rate limit",
	}},
	{CategoryAPI, []string{
		"api key", "api error", "bad gateway",
	}},
	{CategoryAuthentication, []string{
		"401", "unauthorized", "auth",
	}},
	{CategoryDatabase, []string{
		"sql", "database", "connection",
	}},
	{CategoryValidation, []string{
		"invalid", "validation",
	}},
}

// Classify maps an arbitrary error to a category. A structured error keeps
// its existing category unchanged, so classification is idempotent.
func Classify(err error) ErrorCategory {
	if err == nil {
		return CategoryUnknown
	}
	if pipeErr, ok := err.(*PipelineError); ok {
		return pipeErr.Category
	}

	msg := strings.ToLower(err.Error())
	for _, check := range classifyChecks {
		for _, pattern := range check.patterns {
			if strings.Contains(msg, pattern) {
				return check.category
			}
		}
	}
	return CategoryUnknown
}

// SeverityFor derives the default severity for a category and optional
// status code (0 means no status code). Rules are evaluated in order.
func SeverityFor(category ErrorCategory, statusCode int) Severity {
	switch {
	case category == CategoryInternal || category == CategoryAuthentication:
		return SeverityCritical
	case statusCode >= 500:
		return SeverityHigh
	case category == CategoryAPI || category == CategoryDatabase || category == CategoryTimeout:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// IsRetryableDefault derives the default retryability for a category and
// optional status code. Any client error other than 429 is never retryable,
// regardless of category.
func IsRetryableDefault(category ErrorCategory, statusCode int) bool {
	if statusCode >= 400 && statusCode < 500 && statusCode != 429 {
		return false
	}
	switch category {
	case CategoryNetwork, CategoryAPI, CategoryDatabase, CategoryRateLimit, CategoryTimeout:
		return true
	default:
		return false
	}
}

// FromError wraps an arbitrary error as a structured error, classifying it
// and deriving severity and retryability. Structured errors pass through
// untouched.
func FromError(err error) *PipelineError {
	if err == nil {
		return nil
	}
	if pipeErr, ok := err.(*PipelineError); ok {
		return pipeErr
	}
	category := Classify(err)
	return New(category, err.Error()).WithCause(err)
}
