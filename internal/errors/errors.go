// Package errors provides the error variants surfaced by a chat turn.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrAuthFailed      = errors.New("authentication failed")
	ErrNotConfigured   = errors.New("assistant client not configured")
	ErrInvalidResponse = errors.New("invalid response format")
	ErrRunFailed       = errors.New("run did not complete")
)

// GenericMessage is shown when an error does not match any known variant.
const GenericMessage = "Failed to get response from AI. Please check your API key and Assistant ID."

// AuthError represents rejected or missing credentials
type AuthError struct {
	Message    string
	StatusCode int
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "authentication failed: check OPENAI_API_KEY"
	}
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

// Is allows comparison with sentinel errors
func (e *AuthError) Is(target error) bool {
	if target == ErrAuthFailed {
		return true
	}
	_, ok := target.(*AuthError)
	return ok
}

// NewAuthError creates a new AuthError
func NewAuthError(message string) *AuthError {
	return &AuthError{Message: message}
}

// ConfigError is returned when the client cannot be built from configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

// Is allows comparison with sentinel errors
func (e *ConfigError) Is(target error) bool {
	if target == ErrNotConfigured {
		return true
	}
	_, ok := target.(*ConfigError)
	return ok
}

// NewConfigError creates a new ConfigError
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// APIError represents a non-auth HTTP failure from the assistant service
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error [%d] at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("API error at %s: %s", e.Endpoint, e.Message)
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, endpoint, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
	}
}

// NetworkError represents a request that never produced an HTTP response
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error at %s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new NetworkError
func NewNetworkError(endpoint string, err error) *NetworkError {
	return &NetworkError{Endpoint: endpoint, Err: err}
}

// TimeoutError represents a run that did not finish before its deadline
type TimeoutError struct {
	Message string
}

func (e *TimeoutError) Error() string {
	if e.Message == "" {
		return "request timed out"
	}
	return fmt.Sprintf("request timed out: %s", e.Message)
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(message string) *TimeoutError {
	return &TimeoutError{Message: message}
}

// RunFailedError is returned when a run reaches a terminal status other than completed.
type RunFailedError struct {
	RunID   string
	Status  string
	Code    string
	Message string
}

func (e *RunFailedError) Error() string {
	msg := fmt.Sprintf("run failed with status: %s", e.Status)
	if e.Message != "" {
		msg += fmt.Sprintf(" (%s: %s)", e.Code, e.Message)
	}
	return msg
}

// Is allows comparison with sentinel errors
func (e *RunFailedError) Is(target error) bool {
	if target == ErrRunFailed {
		return true
	}
	_, ok := target.(*RunFailedError)
	return ok
}

// NewRunFailedError creates a new RunFailedError
func NewRunFailedError(runID, status, code, message string) *RunFailedError {
	return &RunFailedError{RunID: runID, Status: status, Code: code, Message: message}
}

// ParseError represents a reply that could not be turned into a message
type ParseError struct {
	Message string
	Path    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s", e.Message)
}

// NewParseError creates a new ParseError
func NewParseError(message, path string) *ParseError {
	return &ParseError{Message: message, Path: path}
}

// Is allows comparison with sentinel errors
func (e *ParseError) Is(target error) bool {
	if target == ErrInvalidResponse {
		return true
	}
	_, ok := target.(*ParseError)
	return ok
}

// IsAuthError reports whether err is, or wraps, an authentication failure.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsConfigError reports whether err is an initialization failure.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

// IsNetworkError reports whether err is a transport failure.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsTimeoutError reports whether err is a run deadline failure.
func IsTimeoutError(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}

// IsRunFailed reports whether err is a failed terminal run status.
func IsRunFailed(err error) bool {
	var runErr *RunFailedError
	return errors.As(err, &runErr)
}

// IsParseError reports whether err is a reply parsing failure.
func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}

// GetHTTPStatus returns the HTTP status carried by err, or 0.
func GetHTTPStatus(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.StatusCode
	}
	return 0
}

// UserMessage maps err to the text shown in the chat error panel.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var runErr *RunFailedError
	switch {
	case IsConfigError(err):
		return "Assistant client not initialized. Check your API key and Assistant ID."
	case IsAuthError(err):
		return "The API key was rejected. Check OPENAI_API_KEY."
	case errors.As(err, &runErr):
		return fmt.Sprintf("The assistant could not finish its answer (status: %s).", runErr.Status)
	case IsTimeoutError(err):
		return "The assistant took too long to answer. Try again."
	case IsNetworkError(err):
		return "Could not reach the assistant service. Check your connection."
	case IsParseError(err):
		return "The assistant sent a reply that could not be read."
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	default:
		return GenericMessage
	}
}
