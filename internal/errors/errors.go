package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	// CategoryConfiguration represents missing or invalid startup configuration
	CategoryConfiguration ErrorCategory = "configuration"
	// CategorySystem represents system errors (5xx)
	CategorySystem ErrorCategory = "system"
	// CategoryProvider represents exchange transport and status errors
	CategoryProvider ErrorCategory = "provider"
	// CategoryProviderResponse represents exchange responses that could not be decoded
	CategoryProviderResponse ErrorCategory = "provider_response"
	// CategoryData represents ledger entries with unexpected shape
	CategoryData ErrorCategory = "data"
)

// CategorizedError represents an error with category and HTTP status code
type CategorizedError struct {
	Category   ErrorCategory
	StatusCode int
	Code       string
	Message    string
	Details    map[string]interface{}
	Cause      error
}

// Error implements the error interface
func (e *CategorizedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *CategorizedError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryConfiguration,
		StatusCode: http.StatusInternalServerError,
		Code:       "CONFIG_ERROR",
		Message:    message,
		Cause:      cause,
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySystem,
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		Cause:      cause,
	}
}

// NewProviderError creates a transport error for a failed exchange call
func NewProviderError(provider string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryProvider,
		StatusCode: http.StatusBadGateway,
		Code:       "PROVIDER_ERROR",
		Message:    fmt.Sprintf("request to %s failed", provider),
		Cause:      cause,
		Details: map[string]interface{}{
			"provider": provider,
		},
	}
}

// NewProviderTimeoutError creates a provider timeout error
func NewProviderTimeoutError(provider string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryProvider,
		StatusCode: http.StatusGatewayTimeout,
		Code:       "PROVIDER_TIMEOUT",
		Message:    fmt.Sprintf("request to %s timed out", provider),
		Cause:      cause,
		Details: map[string]interface{}{
			"provider": provider,
		},
	}
}

// NewProviderStatusError creates an error for a non-2xx exchange response
func NewProviderStatusError(provider string, status int) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryProvider,
		StatusCode: http.StatusBadGateway,
		Code:       "PROVIDER_BAD_STATUS",
		Message:    fmt.Sprintf("%s responded with HTTP %d", provider, status),
		Details: map[string]interface{}{
			"provider":       provider,
			"upstreamStatus": status,
		},
	}
}

// NewProviderParseError creates an error for an undecodable exchange response
func NewProviderParseError(provider string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryProviderResponse,
		StatusCode: http.StatusBadGateway,
		Code:       "PROVIDER_BAD_RESPONSE",
		Message:    fmt.Sprintf("%s returned an unreadable response", provider),
		Cause:      cause,
		Details: map[string]interface{}{
			"provider": provider,
		},
	}
}

// NewLedgerEntryError creates a per-entry data error
func NewLedgerEntryError(entryID string, reason string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryData,
		StatusCode: http.StatusUnprocessableEntity,
		Code:       "INVALID_LEDGER_ENTRY",
		Message:    fmt.Sprintf("ledger entry %s: %s", entryID, reason),
		Details: map[string]interface{}{
			"entryId": entryID,
			"reason":  reason,
		},
	}
}

// Categorize categorizes an existing error
func Categorize(err error) *CategorizedError {
	if err == nil {
		return nil
	}

	var catErr *CategorizedError
	if stderrors.As(err, &catErr) {
		return catErr
	}

	// Default to internal error
	return NewInternalError("unexpected error", err)
}

// GetHTTPStatusCode returns the HTTP status code for an error
func GetHTTPStatusCode(err error) int {
	if catErr := Categorize(err); catErr != nil {
		return catErr.StatusCode
	}
	return http.StatusInternalServerError
}

// IsSystemError determines if an error is a system error (5xx)
func IsSystemError(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}

	return catErr.StatusCode >= 500
}
