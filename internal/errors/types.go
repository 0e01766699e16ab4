package errors

import (
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"
)

// Kind is one of the nine error kinds the federation engine recognizes.
type Kind string

const (
	KindNotImplemented Kind = "not_implemented"
	KindNetwork        Kind = "network"
	KindParse          Kind = "parse"
	KindInvalidRequest Kind = "invalid_request"
	KindRateLimit      Kind = "rate_limit"
	KindNotFound       Kind = "not_found"
	KindAPI            Kind = "api"
	KindIO             Kind = "io"
	KindOther          Kind = "other"
)

// FedError is the structured error carried across every component boundary.
type FedError struct {
	Kind       Kind                   `json:"kind"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Stack      string                 `json:"stack,omitempty"`
	Component  string                 `json:"component"`
	Operation  string                 `json:"operation"`
	Timestamp  time.Time              `json:"timestamp"`
	RequestID  string                 `json:"request_id,omitempty"`
	Retryable  bool                   `json:"retryable"`
	StatusCode int                    `json:"status_code"`
}

func (e *FedError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("[%s:%s] %s", e.Component, e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Is implements Go 1.13+ error matching by kind+code.
func (e *FedError) Is(target error) bool {
	if t, ok := target.(*FedError); ok {
		return e.Kind == t.Kind && e.Code == t.Code
	}
	return false
}

func (e *FedError) Unwrap() error {
	return e.Cause
}

func (e *FedError) String() string {
	return e.Error()
}

// HTTPStatus maps the error kind to a status code for the HTTP tool-RPC surface.
func (e *FedError) HTTPStatus() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	switch e.Kind {
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindNotFound:
		return http.StatusNotFound
	case KindNetwork:
		return http.StatusServiceUnavailable
	case KindNotImplemented:
		return http.StatusNotImplemented
	case KindIO, KindOther:
		return http.StatusInternalServerError
	case KindAPI:
		return http.StatusBadGateway
	case KindParse:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ErrorBuilder builds a FedError through a fluent chain.
type ErrorBuilder struct {
	err *FedError
}

// NewError starts an ErrorBuilder for the given kind.
func NewError(kind Kind, code, message string) *ErrorBuilder {
	return &ErrorBuilder{
		err: &FedError{
			Kind:      kind,
			Code:      code,
			Message:   message,
			Details:   make(map[string]interface{}),
			Timestamp: time.Now(),
			Retryable: kind == KindNetwork || kind == KindRateLimit,
		},
	}
}

func (b *ErrorBuilder) WithCause(cause error) *ErrorBuilder {
	b.err.Cause = cause
	return b
}

func (b *ErrorBuilder) WithComponent(component string) *ErrorBuilder {
	b.err.Component = component
	return b
}

func (b *ErrorBuilder) WithOperation(operation string) *ErrorBuilder {
	b.err.Operation = operation
	return b
}

func (b *ErrorBuilder) WithDetail(key string, value interface{}) *ErrorBuilder {
	b.err.Details[key] = value
	return b
}

func (b *ErrorBuilder) WithDetails(details map[string]interface{}) *ErrorBuilder {
	for k, v := range details {
		b.err.Details[k] = v
	}
	return b
}

func (b *ErrorBuilder) WithRequestID(requestID string) *ErrorBuilder {
	b.err.RequestID = requestID
	return b
}

func (b *ErrorBuilder) WithStatusCode(statusCode int) *ErrorBuilder {
	b.err.StatusCode = statusCode
	return b
}

func (b *ErrorBuilder) WithStack() *ErrorBuilder {
	b.err.Stack = captureStack()
	return b
}

func (b *ErrorBuilder) Retryable(retryable bool) *ErrorBuilder {
	b.err.Retryable = retryable
	return b
}

func (b *ErrorBuilder) Build() *FedError {
	return b.err
}

// Predefined constructors, one per kind in spec.md §7.

func NewNotImplementedError(provider, operation string) *FedError {
	return NewError(KindNotImplemented, "NOT_IMPLEMENTED", fmt.Sprintf("%s does not support %s", provider, operation)).
		WithComponent(provider).
		WithOperation(operation).
		Retryable(false).
		Build()
}

func NewNetworkError(message string, cause error) *FedError {
	return NewError(KindNetwork, "NETWORK_ERROR", message).
		WithCause(cause).
		WithStatusCode(http.StatusServiceUnavailable).
		Retryable(true).
		Build()
}

func NewParseError(component, message string, cause error) *FedError {
	return NewError(KindParse, "PARSE_ERROR", message).
		WithComponent(component).
		WithCause(cause).
		Retryable(false).
		Build()
}

func NewInvalidRequestError(message, field string, value interface{}) *FedError {
	return NewError(KindInvalidRequest, "INVALID_REQUEST", message).
		WithDetail("field", field).
		WithDetail("rejected_value", value).
		WithStatusCode(http.StatusBadRequest).
		Retryable(false).
		Build()
}

func NewRateLimitError(message string, retryAfter time.Duration) *FedError {
	return NewError(KindRateLimit, "RATE_LIMIT", message).
		WithDetail("retry_after", retryAfter.String()).
		WithStatusCode(http.StatusTooManyRequests).
		Retryable(true).
		Build()
}

func NewNotFoundError(resource, id string) *FedError {
	return NewError(KindNotFound, "NOT_FOUND", fmt.Sprintf("%s not found", resource)).
		WithDetail("resource", resource).
		WithDetail("id", id).
		WithStatusCode(http.StatusNotFound).
		Retryable(false).
		Build()
}

func NewAPIError(provider, message string, statusCode int) *FedError {
	return NewError(KindAPI, "API_ERROR", message).
		WithComponent(provider).
		WithStatusCode(statusCode).
		Retryable(false).
		Build()
}

func NewIOError(operation string, cause error) *FedError {
	return NewError(KindIO, "IO_ERROR", "local filesystem operation failed").
		WithOperation(operation).
		WithCause(cause).
		Retryable(false).
		Build()
}

func NewOtherError(message string, cause error) *FedError {
	return NewError(KindOther, "OTHER", message).
		WithCause(cause).
		Retryable(false).
		Build()
}

func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var buf strings.Builder
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&buf, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return buf.String()
}

// KindOf reports the FedError kind of err, or KindOther if err is not a *FedError.
func KindOf(err error) Kind {
	var fe *FedError
	if As(err, &fe) {
		return fe.Kind
	}
	return KindOther
}

// As is a thin wrapper kept local so callers don't need to import stdlib errors
// just to unwrap a FedError out of a wrapped chain.
func As(err error, target **FedError) bool {
	for err != nil {
		if fe, ok := err.(*FedError); ok {
			*target = fe
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
