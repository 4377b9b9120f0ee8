// Package errors provides custom error types for the homewire system.
// These errors enable programmatic error checking on the push channel,
// the frame codec and the records API, and keep diagnostics structured.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the homewire system
var (
	// ErrInvalidFrame indicates that a push frame could not be parsed or lacks required fields
	ErrInvalidFrame = errors.New("invalid frame")

	// ErrUnknownEntityKind indicates a frame concerning an entity kind this client does not know
	ErrUnknownEntityKind = errors.New("unknown entity kind")

	// ErrUnknownAction indicates a frame carrying an action this client does not know
	ErrUnknownAction = errors.New("unknown action")

	// ErrInvalidPayload indicates that the payload does not match the action
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrDeprecatedShape indicates a frame in a legacy wire shape that is no longer accepted
	ErrDeprecatedShape = errors.New("deprecated frame shape")

	// ErrDisconnected indicates an operation on a client that has been torn down
	ErrDisconnected = errors.New("disconnected")

	// ErrReconnectExhausted indicates that the reconnect budget has been spent
	ErrReconnectExhausted = errors.New("reconnect attempts exhausted")

	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrServiceUnavailable indicates that a remote service is temporarily unavailable
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// FrameError describes why an inbound push frame was rejected.
// Step is the 1-based validation step that failed.
type FrameError struct {
	Step   int
	Reason string
	Err    error
}

// Error implements the error interface
func (e *FrameError) Error() string {
	if e.Err != nil && e.Err != ErrInvalidFrame {
		return fmt.Sprintf("frame rejected at step %d: %s: %v", e.Step, e.Reason, e.Err)
	}
	return fmt.Sprintf("frame rejected at step %d: %s", e.Step, e.Reason)
}

// Unwrap implements errors.Unwrap
func (e *FrameError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support. Every FrameError is an invalid frame.
func (e *FrameError) Is(target error) bool {
	return target == ErrInvalidFrame
}

// NewFrameError creates a new FrameError
func NewFrameError(step int, reason string, err error) *FrameError {
	if err == nil {
		err = ErrInvalidFrame
	}
	return &FrameError{Step: step, Reason: reason, Err: err}
}

// TransportError represents a failure of the push-channel transport
type TransportError struct {
	Op       string // "dial", "read", "close"
	Endpoint string
	Err      error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("transport %s %s: %v", e.Op, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a new TransportError
func NewTransportError(op, endpoint string, err error) *TransportError {
	return &TransportError{Op: op, Endpoint: endpoint, Err: err}
}

// CallbackError records a panic raised by a subscriber callback
type CallbackError struct {
	Kind           string // entity kind or "status"
	SubscriptionID string
	Panic          interface{}
}

// Error implements the error interface
func (e *CallbackError) Error() string {
	return fmt.Sprintf("subscriber %s for %s panicked: %v", e.SubscriptionID, e.Kind, e.Panic)
}

// Unwrap returns the panic value when it is an error
func (e *CallbackError) Unwrap() error {
	if err, ok := e.Panic.(error); ok {
		return err
	}
	return nil
}

// NewCallbackError creates a new CallbackError
func NewCallbackError(kind, subscriptionID string, recovered interface{}) *CallbackError {
	return &CallbackError{Kind: kind, SubscriptionID: subscriptionID, Panic: recovered}
}

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// APIError represents an error from the records REST API
type APIError struct {
	Service    string
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Service, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	if e.StatusCode >= http.StatusInternalServerError {
		return target == ErrServiceUnavailable
	}
	return false
}

// Temporary reports whether retrying the request may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == 0 || e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// NewAPIError creates a new APIError
func NewAPIError(service string, statusCode int, message string) *APIError {
	return &APIError{
		Service:    service,
		StatusCode: statusCode,
		Message:    message,
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// ResourceError represents an error during resource operations
type ResourceError struct {
	Operation string // "fetch", "decode", "broadcast"
	Resource  string // "flat", "house", "event"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError creates a new ResourceError
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   message,
		Err:       err,
	}
}

// TimeoutError represents an operation timeout
type TimeoutError struct {
	Operation string
	Duration  string
	Message   string
}

// Error implements the error interface
func (e *TimeoutError) Error() string {
	if e.Duration != "" {
		return fmt.Sprintf("operation %s timed out after %s: %s", e.Operation, e.Duration, e.Message)
	}
	return fmt.Sprintf("operation %s timed out: %s", e.Operation, e.Message)
}

// Is implements errors.Is support
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(operation, duration, message string) *TimeoutError {
	return &TimeoutError{
		Operation: operation,
		Duration:  duration,
		Message:   message,
	}
}

// Helper functions for error checking

// IsInvalidFrame checks if an error is a rejected push frame
func IsInvalidFrame(err error) bool {
	return errors.Is(err, ErrInvalidFrame)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// IsServiceUnavailable checks if an error indicates a temporarily unavailable service
func IsServiceUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}

// IsTemporary reports whether an error is worth retrying. Transport errors
// and 5xx/429 API errors are; everything else is not.
func IsTemporary(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	var tErr *TransportError
	return errors.As(err, &tErr)
}

// Helper wrapping functions for common patterns

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

// WrapTransport wraps an error as a TransportError
func WrapTransport(op, endpoint string, err error) error {
	if err == nil {
		return nil
	}
	return NewTransportError(op, endpoint, err)
}

// WrapAPI wraps an error as an APIError
func WrapAPI(service string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &APIError{
		Service:    service,
		StatusCode: statusCode,
		Message:    err.Error(),
		Err:        err,
	}
}
