// Package errors provides standardized error types for the Salesforce MCP gateway.
package errors

import (
	"errors"
	"fmt"
)

// Error codes surfaced to MCP clients.
const (
	CodeInvalidParams    = "INVALID_PARAMS"
	CodeNotFound         = "NOT_FOUND"
	CodeQueryFailed      = "QUERY_FAILED"
	CodeSearchFailed     = "SEARCH_FAILED"
	CodeConnectionFailed = "CONNECTION_FAILED"
	CodeMetadataFailed   = "METADATA_FAILED"
	CodeInternal         = "INTERNAL_ERROR"
	CodeUnavailable      = "UNAVAILABLE"
	CodeDeadlineExceeded = "DEADLINE_EXCEEDED"
	CodeCanceled         = "CANCELED"
	CodeRateLimited      = "RATE_LIMITED"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeUnimplemented    = "UNIMPLEMENTED"
)

// ToolError represents a tool invocation error with code, message, and optional details.
type ToolError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ToolError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *ToolError) Is(target error) bool {
	t, ok := target.(*ToolError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetails adds details to the error.
func (e *ToolError) WithDetails(details map[string]interface{}) *ToolError {
	e.Details = details
	return e
}

// WithDetail adds a single detail to the error.
func (e *ToolError) WithDetail(key string, value interface{}) *ToolError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Common errors
var (
	ErrInvalidQuery   = &ToolError{Code: CodeInvalidParams, Message: "invalid query"}
	ErrObjectNotFound = &ToolError{Code: CodeNotFound, Message: "sobject not found"}
	ErrRecordNotFound = &ToolError{Code: CodeNotFound, Message: "record not found"}
	ErrNoConnection   = &ToolError{Code: CodeConnectionFailed, Message: "no Salesforce connection available"}
	ErrSessionExpired = &ToolError{Code: CodeUnauthorized, Message: "Salesforce session expired"}
	ErrLimitExceeded  = &ToolError{Code: CodeRateLimited, Message: "Salesforce API limit exceeded"}
	ErrRequestTimeout = &ToolError{Code: CodeDeadlineExceeded, Message: "request timeout"}
	ErrNotImplemented = &ToolError{Code: CodeUnimplemented, Message: "feature not implemented"}
)

// New creates a new ToolError with the given code and message.
func New(code, message string) *ToolError {
	return &ToolError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with a ToolError.
func Wrap(err error, code, message string) *ToolError {
	if err == nil {
		return nil
	}
	return &ToolError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, code, format string, args ...interface{}) *ToolError {
	if err == nil {
		return nil
	}
	return &ToolError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr.Code == CodeNotFound
	}
	return false
}

// IsInvalidParams checks if an error is an invalid params error.
func IsInvalidParams(err error) bool {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr.Code == CodeInvalidParams
	}
	return false
}

// IsConnectionFailed checks if an error is a connection failure.
func IsConnectionFailed(err error) bool {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr.Code == CodeConnectionFailed
	}
	return false
}

// IsInternal checks if an error is an internal error.
func IsInternal(err error) bool {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr.Code == CodeInternal
	}
	return false
}

// AsToolError extracts a ToolError from an error chain.
func AsToolError(err error) (*ToolError, bool) {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr, true
	}
	return nil, false
}

// GetCode extracts the error code from an error.
func GetCode(err error) string {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr.Code
	}
	return CodeInternal
}

// GetMessage extracts the error message from an error.
func GetMessage(err error) string {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr.Message
	}
	return err.Error()
}
