// Package core provides shared types and the error taxonomy for the vault.
package core

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorType classifies a vault error for HTTP mapping and logging.
type ErrorType string

const (
	// ErrorTypeInvalidRequest indicates a client error (4xx)
	ErrorTypeInvalidRequest ErrorType = "invalid_request_error"
	// ErrorTypeAuthentication indicates an authentication error (401)
	ErrorTypeAuthentication ErrorType = "authentication_error"
	// ErrorTypeStore indicates a token store failure (503)
	ErrorTypeStore ErrorType = "store_error"
	// ErrorTypeProvider indicates an upstream completion provider failure (502)
	ErrorTypeProvider ErrorType = "provider_error"
	// ErrorTypeRateLimit indicates the provider rejected us with 429
	ErrorTypeRateLimit ErrorType = "rate_limit_error"
)

// VaultError is the base error type for all vault errors.
//
// The wrapped Err carries internal detail (driver errors, transport errors)
// for server-side logging; it is never serialized to callers.
type VaultError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code"`
	Err        error     `json:"-"`
}

// Error implements the error interface
func (e *VaultError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the error unwrapping interface
func (e *VaultError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the appropriate HTTP status code for this error
func (e *VaultError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	switch e.Type {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	case ErrorTypeStore:
		return http.StatusServiceUnavailable
	case ErrorTypeProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ToJSON converts the error to the wire shape exposed to callers.
// Only the type and message are included; the wrapped cause stays server-side.
func (e *VaultError) ToJSON() map[string]interface{} {
	return map[string]interface{}{
		"error": map[string]interface{}{
			"type":    e.Type,
			"message": e.Message,
		},
	}
}

// NewInvalidRequestError creates a new invalid request error (400)
func NewInvalidRequestError(message string, err error) *VaultError {
	return &VaultError{
		Type:       ErrorTypeInvalidRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Err:        err,
	}
}

// NewAuthenticationError creates a new authentication error (401)
func NewAuthenticationError(message string) *VaultError {
	return &VaultError{
		Type:       ErrorTypeAuthentication,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewStoreError wraps a token store failure. The caller-visible message is
// deliberately generic; err holds the driver detail for logging.
func NewStoreError(message string, err error) *VaultError {
	return &VaultError{
		Type:       ErrorTypeStore,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewProviderError creates a new completion provider error
func NewProviderError(statusCode int, message string, err error) *VaultError {
	return &VaultError{
		Type:       ErrorTypeProvider,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// NewRateLimitError creates a new rate limit error (429)
func NewRateLimitError(message string) *VaultError {
	return &VaultError{
		Type:       ErrorTypeRateLimit,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
	}
}

// ParseProviderError converts an error response from the completion provider
// into a VaultError. Provider error bodies follow the OpenAI error envelope.
func ParseProviderError(statusCode int, body []byte, originalErr error) *VaultError {
	var errorResponse struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
	}

	message := string(body)
	if err := json.Unmarshal(body, &errorResponse); err == nil && errorResponse.Error.Message != "" {
		message = errorResponse.Error.Message
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		e := NewAuthenticationError(message)
		e.Err = originalErr
		return e
	case statusCode == http.StatusTooManyRequests:
		e := NewRateLimitError(message)
		e.Err = originalErr
		return e
	case statusCode >= 400 && statusCode < 500:
		return NewInvalidRequestError(message, originalErr)
	default:
		return NewProviderError(http.StatusBadGateway, message, originalErr)
	}
}
