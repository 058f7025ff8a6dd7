package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Backend errors
	ErrBackendAuth        ErrorCode = "BACKEND_AUTH"
	ErrBackendQuota       ErrorCode = "BACKEND_QUOTA"
	ErrBackendTimeout     ErrorCode = "BACKEND_TIMEOUT"
	ErrBackendUnreachable ErrorCode = "BACKEND_UNREACHABLE"
	ErrBackendFailure     ErrorCode = "BACKEND_FAILURE"
	ErrAllBackendsFailed  ErrorCode = "ALL_BACKENDS_FAILED"

	// Generation errors
	ErrMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
	ErrGenerationFailed  ErrorCode = "GENERATION_FAILED"
)

// DomainError is a request-level failure raised before generation starts,
// such as a source file that yields no text.
type DomainError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// BackendError is a typed failure produced inside a backend adapter.
// Adapters never let transport errors escape; they convert them into one of these.
type BackendError struct {
	Backend   string
	Code      ErrorCode
	Reason    string
	Retriable bool
	Err       error
}

func (e *BackendError) Error() string {
	msg := fmt.Sprintf("%s backend: %s", e.Backend, e.Reason)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *BackendError) Unwrap() error { return e.Err }

func NewBackendAuthError(backend, reason string, err error) *BackendError {
	return &BackendError{Backend: backend, Code: ErrBackendAuth, Reason: reason, Err: err}
}

func NewBackendQuotaError(backend string, err error) *BackendError {
	return &BackendError{Backend: backend, Code: ErrBackendQuota, Reason: "quota exceeded", Err: err}
}

func NewBackendTimeoutError(backend string, err error) *BackendError {
	return &BackendError{Backend: backend, Code: ErrBackendTimeout, Reason: "timed out", Err: err}
}

func NewBackendUnreachableError(backend string, err error) *BackendError {
	return &BackendError{Backend: backend, Code: ErrBackendUnreachable, Reason: "unreachable", Err: err}
}

// NewBackendFailure covers everything that is neither auth, quota, timeout nor unreachable.
func NewBackendFailure(backend, reason string, retriable bool, err error) *BackendError {
	return &BackendError{Backend: backend, Code: ErrBackendFailure, Reason: reason, Retriable: retriable, Err: err}
}

// AllBackendsFailedError carries the failure of every backend that was tried.
// Fallback is nil when fallback is disabled.
type AllBackendsFailedError struct {
	Primary         *BackendError
	Fallback        *BackendError
	FallbackEnabled bool
}

func (e *AllBackendsFailedError) Error() string {
	var b strings.Builder
	b.WriteString("all backends failed: primary: ")
	b.WriteString(describe(e.Primary))
	b.WriteString("; fallback: ")
	if !e.FallbackEnabled {
		b.WriteString("disabled")
	} else {
		b.WriteString(describe(e.Fallback))
	}
	return b.String()
}

// Unwrap exposes both underlying failures to errors.Is / errors.As.
func (e *AllBackendsFailedError) Unwrap() []error {
	var errs []error
	if e.Primary != nil {
		errs = append(errs, e.Primary)
	}
	if e.Fallback != nil {
		errs = append(errs, e.Fallback)
	}
	return errs
}

func describe(e *BackendError) string {
	if e == nil {
		return "not attempted"
	}
	return e.Error()
}

// MalformedResponseError means no usable question could be recovered from model output.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed model response: %s: %v", e.Reason, e.Err)
	}
	return "malformed model response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

func NewMalformedResponseError(reason string, err error) *MalformedResponseError {
	return &MalformedResponseError{Reason: reason, Err: err}
}

// GenerationError is the umbrella error surfaced to callers of the quiz generator.
type GenerationError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("quiz generation failed: %s: %v", e.Message, e.Err)
	}
	return "quiz generation failed: " + e.Message
}

func (e *GenerationError) Unwrap() error { return e.Err }

func NewGenerationError(message string, err error) *GenerationError {
	return &GenerationError{Code: ErrGenerationFailed, Message: message, Err: err}
}

func NewInvalidRequestError(err error) *GenerationError {
	return &GenerationError{Code: ErrInvalidInput, Message: "invalid request", Err: err}
}

// CodeOf returns the most specific error code found in err's chain.
func CodeOf(err error) ErrorCode {
	var be *BackendError
	var all *AllBackendsFailedError
	var mr *MalformedResponseError
	var ve ValidationErrors
	var de *DomainError
	var ge *GenerationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &all):
		return ErrAllBackendsFailed
	case errors.As(err, &be):
		return be.Code
	case errors.As(err, &mr):
		return ErrMalformedResponse
	case errors.As(err, &ve):
		return ErrInvalidInput
	case errors.As(err, &de):
		return de.Code
	case errors.As(err, &ge):
		return ge.Code
	}
	return ErrGenerationFailed
}

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every field problem of one request.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, fe := range v {
		msgs[i] = fe.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func NewMissingFieldError(field string) FieldError {
	return FieldError{Field: field, Message: "is required"}
}

func NewOutOfRangeError(field string, value, min, max int) FieldError {
	return FieldError{Field: field, Message: fmt.Sprintf("value %d is out of range [%d, %d]", value, min, max)}
}
