package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"
)

// Common error variables
var (
	// ErrUnknownProvider indicates no adapter is registered for a provider id
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrInvalidJSON indicates a response body could not be decoded
	ErrInvalidJSON = errors.New("invalid JSON response")

	// ErrMissingField indicates a response lacked the field holding the reply
	ErrMissingField = errors.New("missing response field")

	// ErrUnsupported indicates a provider cannot perform the requested operation
	ErrUnsupported = errors.New("unsupported operation")

	// ErrMissingBaseURL indicates a custom provider has no endpoint configured
	ErrMissingBaseURL = errors.New("custom provider requires a base URL")
)

const (
	previewLimit   = 200
	errorBodyLimit = 2000
)

// APIError is a non-2xx response from a provider.
type APIError struct {
	Provider   string
	StatusCode int
	// Body is the raw response body.
	Body      string
	Type      string
	Message   string
	Code      string
	RequestID string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, truncate(e.Body, errorBodyLimit))
}

// IsRetryable returns true if resending the request may succeed.
func (e *APIError) IsRetryable() bool {
	// 5xx errors are generally retryable
	if e.StatusCode >= 500 && e.StatusCode < 600 {
		return true
	}

	// Rate limit errors are retryable after a delay
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}

	switch e.Code {
	case "timeout", "connection_error", "server_error", "overloaded_error":
		return true
	}
	return false
}

// IsRateLimit returns true if this is a rate limit error.
func (e *APIError) IsRateLimit() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.Code == "rate_limit_exceeded" || e.Type == "rate_limit_error"
}

// IsAuthError returns true if this is an authentication error.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden ||
		e.Code == "invalid_api_key" || e.Type == "authentication_error"
}

// newAPIError builds an APIError, pulling a message out of the body when it
// follows one of the common error envelopes.
func newAPIError(provider string, statusCode int, body []byte, requestID string) *APIError {
	apiErr := &APIError{
		Provider:   provider,
		StatusCode: statusCode,
		Body:       string(body),
		RequestID:  requestID,
	}

	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return apiErr
	}
	apiErr.Message = envelope.Message

	var detail struct {
		Message string          `json:"message"`
		Type    string          `json:"type"`
		Code    json.RawMessage `json:"code"`
		Status  string          `json:"status"`
	}
	var plain string
	switch {
	case json.Unmarshal(envelope.Error, &plain) == nil:
		apiErr.Message = plain
	case json.Unmarshal(envelope.Error, &detail) == nil:
		apiErr.Message = detail.Message
		apiErr.Type = detail.Type
		apiErr.Code = strings.Trim(string(detail.Code), `"`)
		if apiErr.Type == "" {
			apiErr.Type = detail.Status
		}
	}
	return apiErr
}

// ParseError is a response body that could not be turned into a reply.
type ParseError struct {
	Provider string
	// Preview is the start of the offending body.
	Preview string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v (response preview: %q)", e.Provider, e.Err, e.Preview)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

func newInvalidJSONError(provider string, body []byte, cause error) *ParseError {
	return &ParseError{
		Provider: provider,
		Preview:  truncate(string(body), previewLimit),
		Err:      fmt.Errorf("%w: %v", ErrInvalidJSON, cause),
	}
}

func newMissingFieldError(provider string, body []byte, field string) *ParseError {
	return &ParseError{
		Provider: provider,
		Preview:  truncate(string(body), previewLimit),
		Err:      fmt.Errorf("%w: %s", ErrMissingField, field),
	}
}

// UnsupportedError is an operation a provider cannot perform.
type UnsupportedError struct {
	Provider  string
	Operation string
}

// Error implements the error interface.
func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s does not support %s", e.Provider, e.Operation)
}

// Is implements error matching.
func (e *UnsupportedError) Is(target error) bool {
	return target == ErrUnsupported
}

// ValidationError represents a request that cannot be built.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ErrorHandler logs provider errors at a level matching their kind.
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{
		logger: logger.With("component", "error_handler"),
	}
}

// Handle logs err and returns it unchanged.
func (eh *ErrorHandler) Handle(err error, operation string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}

	logAttrs := []any{"operation", operation, "error", err.Error()}
	for _, attr := range attrs {
		logAttrs = append(logAttrs, attr.Key, attr.Value)
	}

	var (
		apiErr         *APIError
		parseErr       *ParseError
		unsupportedErr *UnsupportedError
		validationErr  *ValidationError
	)
	switch {
	case errors.As(err, &apiErr):
		logAttrs = append(logAttrs, "status_code", apiErr.StatusCode, "provider", apiErr.Provider)
		if apiErr.IsRateLimit() {
			eh.logger.Warn("rate limited", logAttrs...)
		} else if apiErr.IsAuthError() {
			eh.logger.Error("authentication failed", logAttrs...)
		} else if apiErr.IsRetryable() {
			eh.logger.Warn("retryable API error", logAttrs...)
		} else {
			eh.logger.Error("API error", logAttrs...)
		}
	case errors.As(err, &parseErr):
		eh.logger.Error("unparseable response", append(logAttrs, "provider", parseErr.Provider)...)
	case errors.As(err, &unsupportedErr):
		eh.logger.Warn("unsupported operation", logAttrs...)
	case errors.As(err, &validationErr):
		eh.logger.Warn("validation error", logAttrs...)
	default:
		eh.logger.Error("error occurred", logAttrs...)
	}

	return err
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}
	return false
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit] + "..."
}
